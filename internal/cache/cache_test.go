package cache_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/activity-timeline/internal/model"
	"github.com/nhle/activity-timeline/tests/testutil"
)

func TestReplaceAndLoad(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()

	items := map[int]model.WorkItem{
		1: {ID: 1, Rev: 3, Fields: model.Fields{"WorkItemType": "Organization", "Title": "Contoso"}},
		5: {ID: 5, Rev: 1, Fields: model.Fields{"WorkItemType": "Activity", "Title": "Kickoff", "ActivityDuration": float64(3)}},
	}
	links := model.ParentLinks{1: model.NoParentID, 5: 1}

	require.NoError(t, c.Replace(ctx, "dana@fabrikam.com", items, links))

	snap, ok, err := c.Load(ctx, "dana@fabrikam.com")
	require.NoError(t, err)
	require.True(t, ok)

	if diff := cmp.Diff(items, snap.WorkItems); diff != "" {
		t.Errorf("work items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(links, snap.ParentLinks); diff != "" {
		t.Errorf("parent links mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestLoadMissingUser(t *testing.T) {
	c := testutil.NewTestCache(t)

	_, ok, err := c.Load(context.Background(), "nobody@fabrikam.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceDropsPreviousSnapshot(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()
	user := "dana@fabrikam.com"

	first := map[int]model.WorkItem{
		1: {ID: 1, Fields: model.Fields{"Title": "Old"}},
		2: {ID: 2, Fields: model.Fields{"Title": "Gone"}},
	}
	require.NoError(t, c.Replace(ctx, user, first, model.ParentLinks{1: -1, 2: 1}))

	second := map[int]model.WorkItem{
		1: {ID: 1, Rev: 2, Fields: model.Fields{"Title": "New"}},
	}
	require.NoError(t, c.Replace(ctx, user, second, model.ParentLinks{1: -1}))

	snap, ok, err := c.Load(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, snap.WorkItems, 1)
	assert.Equal(t, "New", snap.WorkItems[1].Fields.String(model.FieldTitle))
}

func TestSnapshotsIsolatedPerUser(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Replace(ctx, "a@x.com",
		map[int]model.WorkItem{1: {ID: 1, Fields: model.Fields{"Title": "A"}}},
		model.ParentLinks{1: -1}))
	require.NoError(t, c.Replace(ctx, "b@x.com",
		map[int]model.WorkItem{2: {ID: 2, Fields: model.Fields{"Title": "B"}}},
		model.ParentLinks{2: -1}))

	snap, ok, err := c.Load(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, snap.WorkItems, 1)
	assert.Contains(t, snap.WorkItems, 1)
}
