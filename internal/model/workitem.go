package model

// Field names the tracker depends on, independent of the remote
// service's own wire format. Activities and participants store their
// schedule under different names; this is a convention of the remote
// type system, not a tag in the data itself.
const (
	FieldWorkItemType     = "WorkItemType"
	FieldTitle            = "Title"
	FieldAreaPath         = "AreaPath"
	FieldIterationPath    = "IterationPath"
	FieldState            = "State"
	FieldAssignedTo       = "AssignedTo"
	FieldTags             = "Tags"
	FieldActivityType     = "ActivityType"
	FieldCountrySelection = "CountrySelection"
	FieldShortDescription = "ShortDescription"

	FieldActivityStartDate         = "ActivityStartDate"
	FieldActivityDuration          = "ActivityDuration"
	FieldParticipationStartDate    = "ParticipationStartDate"
	FieldParticipationDurationDays = "ParticipationDurationDays"
)

// DeleteSentinelTitle marks a work item for removal through the normal
// update path. The remote service has no delete verb for this item
// type; items renamed to this exact string are filtered from every
// load query and purged from the local graph when an update response
// carries it.
const DeleteSentinelTitle = "Please Delete"

// NoParentID is the parent-link value for items at the top of the
// hierarchy, and the sentinel passed to the gateway when a mutation
// should leave the parent relation untouched.
const NoParentID = -1

// UnsavedID marks a client-only activity that has not been created
// remotely yet.
const UnsavedID = -1

// Fields is a work item's field dictionary. Values are strings for
// text fields and float64 for numeric fields, mirroring their JSON
// representation.
type Fields map[string]any

// String returns the named field as a string, or "" when absent or
// non-textual.
func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

// Number returns the named field as a float64. JSON numbers decode as
// float64; integers stored directly are converted.
func (f Fields) Number(name string) float64 {
	switch v := f[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Has reports whether the named field is present.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Clone returns a copy that shares no storage with the receiver.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// WorkItem is an immutable snapshot of a record in the remote tracking
// service.
type WorkItem struct {
	ID     int    `json:"id"`
	Rev    int    `json:"rev"`
	Fields Fields `json:"fields"`
}

// Kind returns the item's variant, derived from its type field.
func (w WorkItem) Kind() ItemKind {
	return ParseItemKind(w.Fields.String(FieldWorkItemType))
}

// Clone returns a deep copy of the work item.
func (w WorkItem) Clone() WorkItem {
	w.Fields = w.Fields.Clone()
	return w
}

// FieldPatch is the minimal set of field changes sent to the remote
// service on create/update. For updates it holds only fields whose
// value differs from the last-known committed item; for creates it
// holds every tracked field.
type FieldPatch struct {
	ID     int    `json:"id"`
	Rev    int    `json:"rev"`
	Fields Fields `json:"fields"`
}

// ParentLinks maps each work-item id to its parent id, or NoParentID
// for roots. Exactly one parent per item; the hierarchy is a tree by
// convention.
type ParentLinks map[int]int

// Parent returns the recorded parent of id, or NoParentID when the
// item has no link entry.
func (p ParentLinks) Parent(id int) int {
	if pid, ok := p[id]; ok {
		return pid
	}
	return NoParentID
}
