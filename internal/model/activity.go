package model

import "time"

// Activity is the derived, timeline-renderable projection of a work
// item. Unlike WorkItem it is an edit-time view: the selection buffer
// mutates a clone of it freely and the projection layer rebuilds it
// from Item on every committed round trip.
type Activity struct {
	ID   int
	Rev  int
	Kind ItemKind

	// Name is the work item's title; Title is the duration label
	// rendered inside the timeline bar (e.g. "5 Days").
	Name  string
	Title string

	ParentID   int
	ParentPath string

	// Group is the timeline row bucket id, assigned per distinct
	// (title, parent) pair during projection.
	Group int

	StartTime time.Time
	EndTime   time.Time
	// Duration is in whole days. EndTime == StartTime + Duration days
	// at all times; editing the end date back-solves Duration instead.
	Duration int

	AreaPath      string
	IterationPath string
	State         string
	AssignedTo    string
	// Tags is a ";"-joined string, exactly as the remote service
	// stores it.
	Tags string

	ActivityType     string
	CountrySelection string
	ShortDescription string

	// Item is the last-known committed snapshot this activity was
	// projected from. Diff-minimal patches compare against it.
	Item WorkItem
}

// Clone returns a copy sharing no mutable storage with the receiver.
// The selection buffer must always hold a clone, never a reference
// into the committed graph.
func (a Activity) Clone() Activity {
	a.Item = a.Item.Clone()
	return a
}

// Unsaved reports whether the activity exists only client-side.
func (a Activity) Unsaved() bool {
	return a.ID == UnsavedID
}

// Group is a timeline row bucket. One group exists per distinct
// (title, parent) combination; ids increment monotonically within a
// projection pass and are never reused or deleted. A group with no
// visible activity is simply not shown.
type Group struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	ParentID int    `json:"parentId"`
	Path     string `json:"path"`
}

// TimeRange is the visible window of the timeline, inclusive on both
// ends.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls within the range, boundaries
// included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// ParentOption is an autocomplete entry for re-linking an activity
// under an organization or project.
type ParentOption struct {
	Value string `json:"value"`
	Kind  string `json:"type"`
}

// User identifies the signed-in account.
type User struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Lists holds the fixed choice lists offered by the edit form plus the
// current user, returned together by the initial lists load.
type Lists struct {
	Tags          []string `json:"tags"`
	Areas         []string `json:"areas"`
	ActivityTypes []string `json:"activityTypes"`
	User          User     `json:"user"`
}
