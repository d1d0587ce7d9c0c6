// Package projection converts raw work items and their parent-link
// graph into timeline-renderable activities, and back into minimal
// field patches for write-back.
package projection

import (
	"fmt"
	"math"
	"time"

	"github.com/nhle/activity-timeline/internal/model"
)

// sentinelStart anchors items with no recorded start date far in the
// past so they still get a defined timeline position instead of an
// undefined one.
var sentinelStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// startLayouts are the date formats the remote service has been seen
// returning for schedule fields.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// StartDate derives an item's start, truncated to the start of day.
// Activities and participants record it under different field names.
func StartDate(item model.WorkItem) time.Time {
	raw := item.Fields.String(model.FieldActivityStartDate)
	if raw == "" {
		raw = item.Fields.String(model.FieldParticipationStartDate)
	}
	if raw == "" {
		return sentinelStart
	}

	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return startOfDay(t.UTC())
		}
	}
	return sentinelStart
}

// rawDuration reads whichever duration field is set and non-zero.
func rawDuration(item model.WorkItem) float64 {
	if d := item.Fields.Number(model.FieldActivityDuration); d != 0 {
		return d
	}
	return item.Fields.Number(model.FieldParticipationDurationDays)
}

// Duration derives an item's duration in whole days, never below 1.
func Duration(item model.WorkItem) int {
	d := int(math.Ceil(rawDuration(item)))
	if d < 1 {
		return 1
	}
	return d
}

// DurationTitle renders the bar label shown inside the timeline row,
// using the unclamped recorded value.
func DurationTitle(item model.WorkItem) string {
	d := rawDuration(item)
	unit := " Days"
	if d <= 1 {
		unit = " D"
	}
	if d == math.Trunc(d) {
		return fmt.Sprintf("%d%s", int(d), unit)
	}
	return fmt.Sprintf("%g%s", d, unit)
}

// EndDate is start plus the recorded duration. Fractional durations
// place the end mid-day so the bar length matches its label.
func EndDate(item model.WorkItem) time.Time {
	d := rawDuration(item)
	if d < 1 {
		d = 1
	}
	return StartDate(item).Add(time.Duration(d * 24 * float64(time.Hour)))
}

// groupID finds the timeline row for an item, keyed by
// (title, parent). The first linear-scan match wins; otherwise a new
// group is appended under the snapshot's shared counter. Linear scan
// is O(n) per item, which is fine at the few hundred items one user
// accumulates.
func groupID(item model.WorkItem, g *model.Graph) int {
	title := item.Fields.String(model.FieldTitle)
	parentID := g.ParentLinks.Parent(item.ID)

	for _, grp := range g.Groups {
		if grp.Title == title && grp.ParentID == parentID {
			return grp.ID
		}
	}

	id := g.NextGroupID
	g.NextGroupID++

	path := "[" + itoa(item.ID) + "] "
	if parent, ok := g.WorkItems[parentID]; ok && parentID != model.NoParentID {
		if pp := Hierarchy(&parent, g, false); pp != "" {
			path += pp + " / "
		}
	}
	path += title

	g.Groups = append(g.Groups, model.Group{
		ID:       id,
		Title:    title,
		ParentID: parentID,
		Path:     path,
	})
	return id
}

// Hierarchy renders a parent's display path. A project that itself
// hangs under an organization is shown as "org / project" to
// disambiguate same-named projects; nesting deeper than those two
// levels is not resolved.
func Hierarchy(parent *model.WorkItem, g *model.Graph, includeID bool) string {
	if parent == nil {
		return ""
	}

	idPart := ""
	if includeID {
		idPart = "[" + itoa(parent.ID) + "] "
	}
	title := parent.Fields.String(model.FieldTitle)

	if parent.Kind() == model.KindProject {
		if orgID, ok := g.ParentLinks[parent.ID]; ok && orgID != model.NoParentID {
			if org, ok := g.WorkItems[orgID]; ok {
				return idPart + org.Fields.String(model.FieldTitle) + " / " + title
			}
		}
	}

	return idPart + title
}

// setParentHierarchy resolves an activity's parent id and display
// path from the link graph. Organizations are roots by definition.
func setParentHierarchy(a *model.Activity, g *model.Graph) {
	a.ParentID = model.NoParentID
	a.ParentPath = ""

	if a.Kind == model.KindOrganization {
		return
	}

	parentID, ok := g.ParentLinks[a.ID]
	if !ok || parentID == model.NoParentID {
		return
	}

	a.ParentID = parentID
	if parent, ok := g.WorkItems[parentID]; ok {
		a.ParentPath = Hierarchy(&parent, g, true)
	}
}

// ToActivity projects one raw work item into its timeline view
// record. The snapshot g is read for parent links and mutated only by
// lazily appending a group; within one projection pass this keeps
// group assignment stable.
func ToActivity(item model.WorkItem, g *model.Graph) model.Activity {
	a := model.Activity{
		ID:   item.ID,
		Rev:  item.Rev,
		Kind: item.Kind(),
		Name: item.Fields.String(model.FieldTitle),

		Group: groupID(item, g),

		Title:     DurationTitle(item),
		StartTime: StartDate(item),
		Duration:  Duration(item),
		EndTime:   EndDate(item),

		AreaPath:      item.Fields.String(model.FieldAreaPath),
		IterationPath: item.Fields.String(model.FieldIterationPath),
		State:         item.Fields.String(model.FieldState),
		AssignedTo:    item.Fields.String(model.FieldAssignedTo),
		Tags:          item.Fields.String(model.FieldTags),

		ActivityType:     item.Fields.String(model.FieldActivityType),
		CountrySelection: item.Fields.String(model.FieldCountrySelection),
		ShortDescription: item.Fields.String(model.FieldShortDescription),

		Item: item,
	}

	setParentHierarchy(&a, g)
	return a
}

// Project rebuilds the derived half of a snapshot from its raw items.
// Iteration order over the item map is not stable across calls, so
// group ids may churn between reloads; nothing persists them.
func Project(g *model.Graph) {
	for _, item := range g.WorkItems {
		a := ToActivity(item, g)
		g.Activities[a.ID] = a
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
