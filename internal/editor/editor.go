// Package editor owns the selection buffer: the one activity being
// viewed or edited. The buffer is always a clone of the committed
// record, so abandoning an edit costs nothing and a save writes back
// only what actually changed.
package editor

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nhle/activity-timeline/internal/account"
	"github.com/nhle/activity-timeline/internal/debounce"
	"github.com/nhle/activity-timeline/internal/model"
	"github.com/nhle/activity-timeline/internal/projection"
	"github.com/nhle/activity-timeline/internal/timeline"
)

// ErrNoSelection is returned by operations that need a selected
// activity when none is selected.
var ErrNoSelection = errors.New("no activity selected")

// searchDebounce is the default quiet interval for parent search.
const searchDebounce = 200 * time.Millisecond

// Editor wraps the timeline store with a single-activity edit buffer.
type Editor struct {
	store    *timeline.Store
	account  *account.Account
	searches *debounce.Debouncer

	mu sync.Mutex
	// buffer is nil when nothing is selected; otherwise it is a clone
	// owned exclusively by the editor.
	buffer *model.Activity
	// pendingParent stays at the no-op sentinel until the user picks
	// a parent, so ordinary saves never touch links.
	pendingParent int
	parentPath    string
	askDelete     bool
}

// New creates an editor over the store.
func New(store *timeline.Store, acct *account.Account) *Editor {
	return &Editor{
		store:         store,
		account:       acct,
		searches:      debounce.New(searchDebounce),
		pendingParent: model.NoParentID,
	}
}

// NewWithDebouncer creates an editor with a custom search debouncer.
func NewWithDebouncer(store *timeline.Store, acct *account.Account, d *debounce.Debouncer) *Editor {
	return &Editor{
		store:         store,
		account:       acct,
		searches:      d,
		pendingParent: model.NoParentID,
	}
}

// Select loads the activity with the given id into the buffer,
// replacing any previous selection.
func (e *Editor) Select(id int) bool {
	a, ok := e.store.Activity(id)
	if !ok {
		return false
	}

	e.mu.Lock()
	e.buffer = &a
	e.pendingParent = model.NoParentID
	e.parentPath = a.ParentPath
	e.askDelete = false
	e.mu.Unlock()
	return true
}

// Unselect drops the buffer. Pending edits are discarded; the
// committed record was never touched.
func (e *Editor) Unselect() {
	e.mu.Lock()
	e.buffer = nil
	e.pendingParent = model.NoParentID
	e.parentPath = ""
	e.askDelete = false
	e.mu.Unlock()
}

// Selected returns a copy of the buffer.
func (e *Editor) Selected() (model.Activity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffer == nil {
		return model.Activity{}, false
	}
	return e.buffer.Clone(), true
}

// ParentPath returns the display path of the buffer's parent,
// reflecting a pending re-parent before it is saved.
func (e *Editor) ParentPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parentPath
}

// AskingDelete reports whether a delete is awaiting confirmation.
func (e *Editor) AskingDelete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.askDelete
}

// CreateNew fills the buffer with a default draft starting at the
// given date, assigned to the signed-in user.
func (e *Editor) CreateNew(start time.Time) model.Activity {
	draft := projection.NewActivity(start, e.account.User().Email)

	e.mu.Lock()
	e.buffer = &draft
	e.pendingParent = model.NoParentID
	e.parentPath = ""
	e.askDelete = false
	e.mu.Unlock()
	return draft.Clone()
}

// Duplicate replaces the buffer with an unsaved copy of the current
// selection: same fields and parent, new owner, no identity yet.
func (e *Editor) Duplicate() (model.Activity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.buffer == nil {
		return model.Activity{}, ErrNoSelection
	}

	dup := e.buffer.Clone()
	dup.ID = model.UnsavedID
	dup.Rev = 0
	dup.AssignedTo = e.account.User().Email
	dup.Item = model.WorkItem{ID: model.UnsavedID, Fields: model.Fields{}}

	e.pendingParent = dup.ParentID
	e.parentPath = dup.ParentPath
	e.buffer = &dup
	e.askDelete = false
	return dup.Clone(), nil
}

// edit runs fn over the buffer if one is selected.
func (e *Editor) edit(fn func(a *model.Activity)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffer != nil {
		fn(e.buffer)
	}
}

// SetName renames the buffered activity.
func (e *Editor) SetName(name string) {
	e.edit(func(a *model.Activity) { a.Name = name })
}

// SetStartDate moves the activity, keeping its duration.
func (e *Editor) SetStartDate(start time.Time) {
	e.edit(func(a *model.Activity) {
		y, m, d := start.UTC().Date()
		a.StartTime = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		a.EndTime = a.StartTime.AddDate(0, 0, a.Duration)
	})
}

// SetDuration resizes the activity. Durations below one day clamp to
// one.
func (e *Editor) SetDuration(days int) {
	e.edit(func(a *model.Activity) {
		if days < 1 {
			days = 1
		}
		a.Duration = days
		a.EndTime = a.StartTime.AddDate(0, 0, days)
	})
}

// SetEndDate resizes the activity by back-solving its duration from
// the picked end date, counting both endpoints.
func (e *Editor) SetEndDate(end time.Time) {
	e.edit(func(a *model.Activity) {
		days := int(end.UTC().Truncate(24*time.Hour).Sub(a.StartTime).Hours()/24) + 1
		if days < 1 {
			days = 1
		}
		a.Duration = days
		a.EndTime = a.StartTime.AddDate(0, 0, days)
	})
}

// SetState updates the workflow state.
func (e *Editor) SetState(state string) {
	e.edit(func(a *model.Activity) { a.State = state })
}

// SetArea updates the area path.
func (e *Editor) SetArea(area string) {
	e.edit(func(a *model.Activity) { a.AreaPath = area })
}

// SetActivityType updates the activity type.
func (e *Editor) SetActivityType(t string) {
	e.edit(func(a *model.Activity) { a.ActivityType = t })
}

// SetCountry updates the country selection.
func (e *Editor) SetCountry(country string) {
	e.edit(func(a *model.Activity) { a.CountrySelection = country })
}

// SetShortDescription updates the free-text description.
func (e *Editor) SetShortDescription(text string) {
	e.edit(func(a *model.Activity) { a.ShortDescription = text })
}

// AddTag appends a tag to the ";"-joined tag string, ignoring
// duplicates.
func (e *Editor) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	e.edit(func(a *model.Activity) {
		for _, existing := range splitTags(a.Tags) {
			if existing == tag {
				return
			}
		}
		if a.Tags == "" {
			a.Tags = tag
			return
		}
		a.Tags += ";" + tag
	})
}

// RemoveTag drops a tag from the tag string.
func (e *Editor) RemoveTag(tag string) {
	tag = strings.TrimSpace(tag)
	e.edit(func(a *model.Activity) {
		var kept []string
		for _, existing := range splitTags(a.Tags) {
			if existing != tag {
				kept = append(kept, existing)
			}
		}
		a.Tags = strings.Join(kept, ";")
	})
}

// Tags returns the buffer's tags as a slice.
func (e *Editor) Tags() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffer == nil {
		return nil
	}
	return splitTags(e.buffer.Tags)
}

func splitTags(joined string) []string {
	var out []string
	for _, t := range strings.Split(joined, ";") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SetParent records a pending re-parent from a search option value of
// the form "[id] path". A value without an id tag is ignored.
func (e *Editor) SetParent(option string) {
	id, ok := parseOptionID(option)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffer == nil {
		return
	}
	e.pendingParent = id
	e.parentPath = option
	e.buffer.ParentID = id
	e.buffer.ParentPath = option
}

// parseOptionID extracts the leading "[id]" tag from a parent option.
func parseOptionID(option string) (int, bool) {
	option = strings.TrimSpace(option)
	if !strings.HasPrefix(option, "[") {
		return 0, false
	}
	end := strings.Index(option, "]")
	if end < 0 {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(option[1:end]))
	if err != nil {
		return 0, false
	}
	return id, true
}

// SearchParents schedules a debounced container search; deliver runs
// with the results once the typing pause elapses. Rapid successive
// calls cancel earlier pending searches.
func (e *Editor) SearchParents(ctx context.Context, query string, deliver func([]model.ParentOption, error)) {
	e.searches.Trigger(func() {
		deliver(e.store.SearchActivities(ctx, query))
	})
}

// CanModify reports whether the signed-in user may save the buffer.
// Only unsaved drafts and activities assigned to the user are
// writable.
func (e *Editor) CanModify() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.buffer == nil {
		return false
	}
	if e.buffer.Unsaved() {
		return true
	}
	return strings.EqualFold(ownerEmail(e.buffer.AssignedTo), e.account.User().Email)
}

// ownerEmail extracts the address from an "Display Name <email>"
// assignment, or returns the value unchanged when unwrapped.
func ownerEmail(assignedTo string) string {
	open := strings.LastIndex(assignedTo, "<")
	end := strings.LastIndex(assignedTo, ">")
	if open >= 0 && end > open {
		return strings.TrimSpace(assignedTo[open+1 : end])
	}
	return strings.TrimSpace(assignedTo)
}

// Save writes the buffer back. An unsaved draft is created remotely,
// then re-selected under its new id with the window recentered on its
// span; an existing activity is updated and unselected.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.buffer == nil {
		e.mu.Unlock()
		return ErrNoSelection
	}
	draft := e.buffer.Clone()
	parentID := e.pendingParent
	e.mu.Unlock()

	if draft.Unsaved() {
		id, err := e.store.CreateActivity(ctx, draft, parentID)
		if err != nil {
			return err
		}
		e.store.CenterOn(draft.StartTime, draft.EndTime)
		e.Select(id)
		return nil
	}

	if _, err := e.store.UpdateActivity(ctx, draft, parentID); err != nil {
		return err
	}
	e.Unselect()
	return nil
}

// RequestDelete arms the delete confirmation for the current
// selection. Unsaved drafts are simply unselected.
func (e *Editor) RequestDelete() {
	e.mu.Lock()
	if e.buffer != nil && e.buffer.Unsaved() {
		e.buffer = nil
		e.mu.Unlock()
		return
	}
	if e.buffer != nil {
		e.askDelete = true
	}
	e.mu.Unlock()
}

// AbortDelete disarms the confirmation.
func (e *Editor) AbortDelete() {
	e.mu.Lock()
	e.askDelete = false
	e.mu.Unlock()
}

// ConfirmDelete renames the selection to the delete sentinel and
// saves it, which the store turns into a purge. The selection is
// dropped afterwards.
func (e *Editor) ConfirmDelete(ctx context.Context) error {
	e.mu.Lock()
	if e.buffer == nil || !e.askDelete {
		e.mu.Unlock()
		return ErrNoSelection
	}
	draft := e.buffer.Clone()
	e.mu.Unlock()

	draft.Name = model.DeleteSentinelTitle
	if _, err := e.store.UpdateActivity(ctx, draft, model.NoParentID); err != nil {
		return err
	}

	e.Unselect()
	return nil
}
