package model

// ItemKind identifies the variant of a work item in the remote hierarchy.
type ItemKind string

const (
	KindActivity     ItemKind = "Activity"
	KindParticipant  ItemKind = "Participant"
	KindOrganization ItemKind = "Organization"
	KindProject      ItemKind = "Project or Engagement"
)

// ParseItemKind maps a raw work-item type string to an ItemKind.
// Unknown strings are treated as activities so that unexpected types
// still land somewhere on the timeline instead of disappearing.
func ParseItemKind(s string) ItemKind {
	switch ItemKind(s) {
	case KindActivity, KindParticipant, KindOrganization, KindProject:
		return ItemKind(s)
	default:
		return KindActivity
	}
}

// IsContainer reports whether the kind can parent other items
// (organizations and projects, the two levels above activities).
func (k ItemKind) IsContainer() bool {
	return k == KindOrganization || k == KindProject
}

// HasSchedule reports whether the kind carries start/duration fields.
// Only activities and participants are placed on the timeline.
func (k ItemKind) HasSchedule() bool {
	switch k {
	case KindActivity, KindParticipant:
		return true
	case KindOrganization, KindProject:
		return false
	}
	return false
}
