package projection

import (
	"time"

	"github.com/nhle/activity-timeline/internal/model"
)

// New-activity defaults for the create flow.
const (
	defaultName         = "Activity Name"
	defaultDurationDays = 5
	defaultArea         = `CSEng\DWR\Reactive`
	defaultIteration    = "CSEng"
	defaultTags         = "#Tech_Azure"
	defaultActivityType = "Technical qualifying and envisioning"
	defaultCountry      = "Israel"
)

// startDateWire is the format schedule fields are written back in.
const startDateWire = "2006-01-02T15:04:05.000Z"

// NewActivity produces the fully-populated default buffer for the
// create flow: unsaved id, five-day span at the clicked date, and the
// team's stock defaults for every choice field.
func NewActivity(start time.Time, assignedTo string) model.Activity {
	start = startOfDay(start.UTC())
	return model.Activity{
		ID:   model.UnsavedID,
		Rev:  0,
		Kind: model.KindActivity,
		Name: defaultName,

		ParentID: model.NoParentID,
		Group:    -1,

		StartTime: start,
		Duration:  defaultDurationDays,
		EndTime:   start.AddDate(0, 0, defaultDurationDays),

		AreaPath:      defaultArea,
		IterationPath: defaultIteration,
		State:         "New",
		AssignedTo:    assignedTo,
		Tags:          defaultTags,

		ActivityType:     defaultActivityType,
		CountrySelection: defaultCountry,

		Item: model.WorkItem{ID: model.UnsavedID, Fields: model.Fields{}},
	}
}

// ToFieldPatch builds the write-back patch for an activity. The title
// always travels; every other tracked field is included only when it
// differs from the value recorded in the last-known committed item,
// or unconditionally when create is set. Participants route their
// schedule into the participation field names.
func ToFieldPatch(a model.Activity, create bool) model.FieldPatch {
	patch := model.FieldPatch{
		ID:     a.ID,
		Rev:    a.Rev,
		Fields: model.Fields{model.FieldTitle: a.Name},
	}

	add := func(name string, value any) {
		if create || a.Item.Fields == nil || a.Item.Fields[name] != value {
			patch.Fields[name] = value
		}
	}

	add(model.FieldWorkItemType, string(a.Kind))

	switch a.Kind {
	case model.KindParticipant:
		add(model.FieldParticipationStartDate, a.StartTime.UTC().Format(startDateWire))
		add(model.FieldParticipationDurationDays, float64(a.Duration))
	case model.KindActivity, model.KindOrganization, model.KindProject:
		add(model.FieldActivityStartDate, a.StartTime.UTC().Format(startDateWire))
		add(model.FieldActivityDuration, float64(a.Duration))
	}

	add(model.FieldAreaPath, a.AreaPath)
	add(model.FieldIterationPath, a.IterationPath)
	add(model.FieldState, a.State)
	add(model.FieldAssignedTo, a.AssignedTo)
	add(model.FieldTags, a.Tags)
	add(model.FieldActivityType, a.ActivityType)
	add(model.FieldCountrySelection, a.CountrySelection)
	add(model.FieldShortDescription, a.ShortDescription)

	return patch
}
