package workitem

import "github.com/nhle/activity-timeline/internal/model"

// Relation link types in the remote hierarchy.
const (
	linkHierarchyForward = "Hierarchy-Forward"
	linkHierarchyReverse = "Hierarchy-Reverse"
)

// patchOp is one JSON-patch operation in a work-item mutation.
type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// relation is a typed link attached to a work item.
type relation struct {
	Rel string `json:"rel"`
	URL string `json:"url"`
}

// item is the wire shape of a single work item, optionally expanded
// with its relations.
type item struct {
	ID        int          `json:"id"`
	Rev       int          `json:"rev"`
	URL       string       `json:"url"`
	Fields    model.Fields `json:"fields"`
	Relations []relation   `json:"relations,omitempty"`
}

// toModel strips the wire-only parts.
func (it item) toModel() model.WorkItem {
	return model.WorkItem{ID: it.ID, Rev: it.Rev, Fields: it.Fields}
}

// itemBatch is the response of a multi-id field fetch.
type itemBatch struct {
	Count int    `json:"count"`
	Value []item `json:"value"`
}

// linkRef is one endpoint of a reported hierarchy edge.
type linkRef struct {
	ID int `json:"id"`
}

// itemLink is a hierarchy-forward edge from the link query. A nil
// Source marks a root result row.
type itemLink struct {
	Source *linkRef `json:"source"`
	Target *linkRef `json:"target"`
}

// linkQueryResult is the response of a link (WIQL) query.
type linkQueryResult struct {
	WorkItemRelations []itemLink `json:"workItemRelations"`
}

// wiqlRequest carries a link query.
type wiqlRequest struct {
	Query string `json:"query"`
}

// profileResponse is the identity payload of the signed-in user.
type profileResponse struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// LoadResult is the raw material every read operation returns: the
// fetched items plus the parent edge for each result row
// (model.NoParentID for roots).
type LoadResult struct {
	WorkItems   map[int]model.WorkItem `json:"workItems"`
	ParentLinks model.ParentLinks      `json:"parentLinks"`
}
