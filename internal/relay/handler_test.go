package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/activity-timeline/internal/model"
	"github.com/nhle/activity-timeline/internal/workitem"
)

type relayGateway struct {
	user model.User
	err  error

	loadUser    string
	searchQuery string

	createdPID int
	updatedID  int
	updatedPID int
	patch      model.FieldPatch
}

func (g *relayGateway) Profile(ctx context.Context) (model.User, error) {
	return g.user, g.err
}

func (g *relayGateway) LoadUserItems(ctx context.Context, user string) (*workitem.LoadResult, error) {
	g.loadUser = user
	if g.err != nil {
		return nil, g.err
	}
	return &workitem.LoadResult{
		WorkItems:   map[int]model.WorkItem{5: {ID: 5, Fields: model.Fields{"Title": "Kickoff"}}},
		ParentLinks: model.ParentLinks{5: 2},
	}, nil
}

func (g *relayGateway) Search(ctx context.Context, query string) (*workitem.LoadResult, error) {
	g.searchQuery = query
	return &workitem.LoadResult{WorkItems: map[int]model.WorkItem{}, ParentLinks: model.ParentLinks{}}, g.err
}

func (g *relayGateway) CreateItem(ctx context.Context, patch model.FieldPatch, parentID int) (model.WorkItem, error) {
	g.patch = patch
	g.createdPID = parentID
	return model.WorkItem{ID: 900, Rev: 1, Fields: patch.Fields}, g.err
}

func (g *relayGateway) UpdateItem(ctx context.Context, id int, patch model.FieldPatch, parentID int) (model.WorkItem, error) {
	g.updatedID = id
	g.patch = patch
	g.updatedPID = parentID
	return model.WorkItem{ID: id, Rev: 2, Fields: patch.Fields}, g.err
}

func newTestServer(t *testing.T, gw *relayGateway) *httptest.Server {
	t.Helper()
	h := NewHandler(gw, model.Lists{Tags: []string{"#Tech_Azure"}}, log.New(bytes.NewBuffer(nil), "", 0), "")
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHandleLists(t *testing.T) {
	gw := &relayGateway{user: model.User{DisplayName: "Dana Scully", Email: "dana@fabrikam.com"}}
	srv := newTestServer(t, gw)

	var lists model.Lists
	resp := getJSON(t, srv.URL+"/api/lists", &lists)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.Equal(t, []string{"#Tech_Azure"}, lists.Tags)
	assert.Equal(t, "dana@fabrikam.com", lists.User.Email)
}

func TestHandleActivities(t *testing.T) {
	gw := &relayGateway{}
	srv := newTestServer(t, gw)

	var result workitem.LoadResult
	resp := getJSON(t, srv.URL+"/api/activities/dana%40fabrikam.com", &result)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dana@fabrikam.com", gw.loadUser)
	assert.Equal(t, "Kickoff", result.WorkItems[5].Fields.String(model.FieldTitle))
	assert.Equal(t, 2, result.ParentLinks[5])
}

func TestHandleSearch(t *testing.T) {
	gw := &relayGateway{}
	srv := newTestServer(t, gw)

	resp := getJSON(t, srv.URL+"/api/search/Contoso%20%2F%20Migr", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Contoso / Migr", gw.searchQuery)
}

func TestHandleCreate(t *testing.T) {
	gw := &relayGateway{}
	srv := newTestServer(t, gw)

	body, _ := json.Marshal(map[string]any{
		"item": map[string]any{
			"id":     -1,
			"fields": map[string]any{"Title": "New thing", "WorkItemType": "Activity"},
		},
		"parentId": 42,
	})

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/activities", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 42, gw.createdPID)
	assert.Equal(t, "New thing", gw.patch.Fields.String(model.FieldTitle))

	var created model.WorkItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, 900, created.ID)
}

func TestHandleUpdate(t *testing.T) {
	gw := &relayGateway{}
	srv := newTestServer(t, gw)

	body, _ := json.Marshal(map[string]any{
		"item": map[string]any{
			"id":     5,
			"rev":    1,
			"fields": map[string]any{"Title": "Kickoff v2"},
		},
	})

	resp, err := http.Post(srv.URL+"/api/activities/5", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, gw.updatedID)
	// No parentId in the body means "leave links alone".
	assert.Equal(t, model.NoParentID, gw.updatedPID)
}

func TestHandleUpdateBadID(t *testing.T) {
	srv := newTestServer(t, &relayGateway{})

	resp, err := http.Post(srv.URL+"/api/activities/nope", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorsReportedAsJSON(t *testing.T) {
	gw := &relayGateway{err: errors.New("remote unavailable")}
	srv := newTestServer(t, gw)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/api/lists", &body)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "remote unavailable", body["error"])
}
