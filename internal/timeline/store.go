// Package timeline holds the reconciled work-item graph and derives
// the activity view from it: which activities fall inside the visible
// window, which swimlane groups they belong to, and which containers
// can parent new work.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nhle/activity-timeline/internal/account"
	"github.com/nhle/activity-timeline/internal/cache"
	"github.com/nhle/activity-timeline/internal/model"
	"github.com/nhle/activity-timeline/internal/notify"
	"github.com/nhle/activity-timeline/internal/projection"
	"github.com/nhle/activity-timeline/internal/workitem"
)

// Gateway is the remote work-item surface the store reconciles
// against.
type Gateway interface {
	Profile(ctx context.Context) (model.User, error)
	LoadUserItems(ctx context.Context, user string) (*workitem.LoadResult, error)
	Search(ctx context.Context, query string) (*workitem.LoadResult, error)
	CreateItem(ctx context.Context, patch model.FieldPatch, parentID int) (model.WorkItem, error)
	UpdateItem(ctx context.Context, id int, patch model.FieldPatch, parentID int) (model.WorkItem, error)
}

// Options carries the store's collaborators and tunables.
type Options struct {
	Gateway   Gateway
	Account   *account.Account
	Toaster   *notify.Toaster
	Counter   *notify.Counter
	Snapshots *cache.Cache // optional warm-start cache

	Lists model.Lists // configured pick lists; User is filled on load

	// AuthGrace bounds how long a lists load may hang before
	// AuthExpired fires. Zero disables the timer.
	AuthGrace   time.Duration
	AuthExpired func()

	// AfterFunc is swappable for tests; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) *time.Timer
}

// Store owns the reconciled graph and its derived timeline state.
// All exported methods are safe for concurrent use.
type Store struct {
	gateway     Gateway
	account     *account.Account
	toaster     *notify.Toaster
	counter     *notify.Counter
	snapshots   *cache.Cache
	lists       model.Lists
	authGrace   time.Duration
	authExpired func()
	afterFunc   func(d time.Duration, f func()) *time.Timer

	mu            sync.RWMutex
	graph         *model.Graph
	window        model.TimeRange
	visible       []model.Activity
	visibleGroups []model.Group
	saving        map[int]bool
}

// NewStore creates a store around an empty graph. The initial window
// covers the current month.
func NewStore(opts Options) *Store {
	if opts.AfterFunc == nil {
		opts.AfterFunc = time.AfterFunc
	}

	s := &Store{
		gateway:     opts.Gateway,
		account:     opts.Account,
		toaster:     opts.Toaster,
		counter:     opts.Counter,
		snapshots:   opts.Snapshots,
		lists:       opts.Lists,
		authGrace:   opts.AuthGrace,
		authExpired: opts.AuthExpired,
		afterFunc:   opts.AfterFunc,
		graph:       model.NewGraph(),
		saving:      make(map[int]bool),
	}

	now := time.Now().UTC()
	s.window = monthSpan(now, now)
	return s
}

// Window returns the visible time range.
func (s *Store) Window() model.TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// SetTimeRange moves the visible window and recomputes which
// activities fall inside it.
func (s *Store) SetTimeRange(from, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = model.TimeRange{From: from, To: to}
	s.recomputeVisible()
}

// CenterOn widens the window to whole months spanning an activity's
// start and end dates.
func (s *Store) CenterOn(start, end time.Time) {
	span := monthSpan(start, end)
	s.SetTimeRange(span.From, span.To)
}

// LoadLists resolves the signed-in user and returns the pick lists
// for the edit form. If the request hangs past the auth grace period
// the AuthExpired callback fires, the usual sign that the token needs
// to be refreshed interactively.
func (s *Store) LoadLists(ctx context.Context) (model.Lists, error) {
	var grace *time.Timer
	if s.authGrace > 0 && s.authExpired != nil {
		grace = s.afterFunc(s.authGrace, s.authExpired)
	}

	user, err := s.gateway.Profile(ctx)
	if grace != nil {
		grace.Stop()
	}
	if err != nil {
		if workitem.IsAuthError(err) && s.authExpired != nil {
			s.authExpired()
		}
		return model.Lists{}, err
	}

	s.account.Update(user)

	s.mu.Lock()
	s.lists.User = user
	lists := s.lists
	s.mu.Unlock()

	return lists, nil
}

// Lists returns the current pick lists.
func (s *Store) Lists() model.Lists {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists
}

// WarmStart populates the graph from the local snapshot cache, so a
// restart shows the previous timeline before the first remote load.
func (s *Store) WarmStart(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	snap, ok, err := s.snapshots.Load(ctx, s.account.Name())
	if err != nil || !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceGraph(snap.WorkItems, snap.ParentLinks)
	return nil
}

// LoadActivities fetches the user's full item hierarchy and rebuilds
// the graph from it.
func (s *Store) LoadActivities(ctx context.Context) error {
	if s.counter != nil {
		s.counter.StartPage()
		defer s.counter.EndPage()
	}

	user := s.account.Name()
	result, err := s.gateway.LoadUserItems(ctx, user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.replaceGraph(result.WorkItems, result.ParentLinks)
	s.mu.Unlock()

	if s.snapshots != nil {
		// Best effort; a failed snapshot write only costs the next
		// warm start.
		_ = s.snapshots.Replace(ctx, user, result.WorkItems, result.ParentLinks)
	}

	return nil
}

// replaceGraph swaps in a fresh snapshot and re-derives everything.
// Callers hold s.mu.
func (s *Store) replaceGraph(items map[int]model.WorkItem, links model.ParentLinks) {
	g := model.NewGraph()
	for id, item := range items {
		g.WorkItems[id] = item
	}
	for id, parent := range links {
		g.ParentLinks[id] = parent
	}
	projection.Project(g)
	s.graph = g
	s.recomputeVisible()
}

// CreateActivity creates a remote item from the given draft, linked
// under parentID unless it is the no-parent sentinel, then reloads
// the graph. It returns the new item's id.
func (s *Store) CreateActivity(ctx context.Context, a model.Activity, parentID int) (int, error) {
	patch := projection.ToFieldPatch(a, true)

	created, err := s.gateway.CreateItem(ctx, patch, parentID)
	if err != nil {
		return 0, err
	}

	s.toast(fmt.Sprintf("Item %q was created successfully",
		itemLabel(created.ID, created.Fields.String(model.FieldTitle))))

	if err := s.LoadActivities(ctx); err != nil {
		return created.ID, err
	}
	return created.ID, nil
}

// UpdateActivity writes the draft's changed fields to the remote
// item. An item that comes back bearing the delete sentinel title is
// treated as deleted: it is dropped from the local graph without a
// reload (the load query excludes it anyway). The returned bool
// reports that delete case. A second save for an id whose first save
// is still in flight is rejected.
func (s *Store) UpdateActivity(ctx context.Context, a model.Activity, parentID int) (bool, error) {
	s.mu.Lock()
	if s.saving[a.ID] {
		s.mu.Unlock()
		return false, fmt.Errorf("item %d: save already in progress", a.ID)
	}
	s.saving[a.ID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.saving, a.ID)
		s.mu.Unlock()
	}()

	patch := projection.ToFieldPatch(a, false)

	updated, err := s.gateway.UpdateItem(ctx, a.ID, patch, parentID)
	if err != nil {
		return false, err
	}

	s.toast(fmt.Sprintf("Item %q was updated successfully",
		itemLabel(updated.ID, updated.Fields.String(model.FieldTitle))))

	if updated.Fields.String(model.FieldTitle) == model.DeleteSentinelTitle {
		s.mu.Lock()
		s.graph.Purge(updated.ID)
		s.recomputeVisible()
		s.mu.Unlock()
		return true, nil
	}

	if err := s.LoadActivities(ctx); err != nil {
		return false, err
	}
	return false, nil
}

// SearchActivities runs a container search and returns the matches as
// parent options, rendered with their id-tagged display paths.
func (s *Store) SearchActivities(ctx context.Context, query string) ([]model.ParentOption, error) {
	result, err := s.gateway.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	g := model.NewGraph()
	for id, item := range result.WorkItems {
		g.WorkItems[id] = item
	}
	for id, parent := range result.ParentLinks {
		g.ParentLinks[id] = parent
	}

	return containerOptions(g), nil
}

// Projects lists the containers already present in the graph as
// parent options.
func (s *Store) Projects() []model.ParentOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containerOptions(s.graph)
}

// Activity returns a copy of the activity with the given id.
func (s *Store) Activity(id int) (model.Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.graph.Activities[id]
	if !ok {
		return model.Activity{}, false
	}
	return a.Clone(), true
}

// VisibleActivities returns the activities whose start or end date
// falls inside the window, ordered by start date then id. Items with
// no recorded start sit at the 2000-01-01 anchor and only show up
// when the window reaches that far back.
func (s *Store) VisibleActivities() []model.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Activity, len(s.visible))
	for i, a := range s.visible {
		out[i] = a.Clone()
	}
	return out
}

// VisibleGroups returns the swimlane groups referenced by the visible
// activities, ordered by id.
func (s *Store) VisibleGroups() []model.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Group(nil), s.visibleGroups...)
}

// recomputeVisible re-derives the window-filtered views. Callers hold
// s.mu.
func (s *Store) recomputeVisible() {
	s.visible = s.visible[:0]
	used := make(map[int]bool)

	for _, a := range s.graph.Activities {
		if !s.window.Contains(a.StartTime) && !s.window.Contains(a.EndTime) {
			continue
		}
		s.visible = append(s.visible, a)
		used[a.Group] = true
	}

	sort.Slice(s.visible, func(i, j int) bool {
		if !s.visible[i].StartTime.Equal(s.visible[j].StartTime) {
			return s.visible[i].StartTime.Before(s.visible[j].StartTime)
		}
		return s.visible[i].ID < s.visible[j].ID
	})

	s.visibleGroups = s.visibleGroups[:0]
	for _, g := range s.graph.Groups {
		if used[g.ID] {
			s.visibleGroups = append(s.visibleGroups, g)
		}
	}
	sort.Slice(s.visibleGroups, func(i, j int) bool {
		return s.visibleGroups[i].ID < s.visibleGroups[j].ID
	})
}

func (s *Store) toast(text string) {
	if s.toaster != nil {
		s.toaster.ShowMessage(text)
	}
}

// containerOptions renders every container in g as a parent option.
func containerOptions(g *model.Graph) []model.ParentOption {
	var opts []model.ParentOption
	for _, item := range g.WorkItems {
		if !item.Kind().IsContainer() {
			continue
		}
		kind := "project"
		if item.Kind() == model.KindOrganization {
			kind = "organization"
		}
		item := item
		opts = append(opts, model.ParentOption{
			Value: projection.Hierarchy(&item, g, true),
			Kind:  kind,
		})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Value < opts[j].Value })
	return opts
}

func itemLabel(id int, name string) string {
	return fmt.Sprintf("[%d] %s", id, name)
}

// monthSpan is the whole-month range from the first day of start's
// month through the last day of end's month.
func monthSpan(start, end time.Time) model.TimeRange {
	return model.TimeRange{
		From: time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(end.Year(), end.Month()+1, 0, 0, 0, 0, 0, time.UTC),
	}
}
