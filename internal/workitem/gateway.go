package workitem

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/nhle/activity-timeline/internal/model"
)

// fetchChunkSize caps how many ids one field-fetch round trip may
// carry; the service rejects larger batches.
const fetchChunkSize = 200

// searchResultLimit caps link-query rows for interactive search.
const searchResultLimit = 100

// trackedFields are the fields requested on every load and written on
// every mutation.
var trackedFields = []string{
	model.FieldWorkItemType,
	model.FieldTitle,
	model.FieldState,
	model.FieldAreaPath,
	model.FieldAssignedTo,
	model.FieldTags,
	model.FieldIterationPath,
	model.FieldActivityStartDate,
	model.FieldActivityDuration,
	model.FieldActivityType,
	model.FieldParticipationStartDate,
	model.FieldParticipationDurationDays,
	model.FieldCountrySelection,
	model.FieldShortDescription,
}

// searchFields is the slim set fetched for parent-search results.
var searchFields = []string{
	model.FieldWorkItemType,
	model.FieldTitle,
}

// Notifier surfaces gateway failures to the user. Reporting happens
// here so every caller gets the same verbatim-error toast behavior.
type Notifier interface {
	ShowMessage(text string)
}

// Gateway translates the tracker's CRUD verbs into calls against the
// remote work-item store.
type Gateway struct {
	client   *Client
	project  string
	notifier Notifier
}

// NewGateway creates a gateway scoped to one team project. notifier
// may be nil.
func NewGateway(client *Client, project string, notifier Notifier) *Gateway {
	return &Gateway{client: client, project: project, notifier: notifier}
}

// fail reports err to the notifier and passes it through.
func (g *Gateway) fail(err error) error {
	if err != nil && g.notifier != nil {
		g.notifier.ShowMessage("Error: " + err.Error())
	}
	return err
}

// Profile returns the signed-in user's identity.
func (g *Gateway) Profile(ctx context.Context) (model.User, error) {
	var resp profileResponse
	if err := g.client.Get(ctx, "/_apis/profile", &resp); err != nil {
		return model.User{}, g.fail(fmt.Errorf("fetching profile: %w", err))
	}
	return model.User{DisplayName: resp.DisplayName, Email: resp.Email}, nil
}

// LoadUserItems fetches the full hierarchy of items assigned to user:
// a recursive hierarchy-forward query for matching children plus
// their ancestors, excluding items already renamed to the delete
// sentinel.
func (g *Gateway) LoadUserItems(ctx context.Context, user string) (*LoadResult, error) {
	query := fmt.Sprintf(`
		SELECT [Id], [WorkItemType], [Title], [AreaPath], [AssignedTo],
		       [State], [Tags], [ActivityStartDate], [ActivityDuration]
		FROM workitemLinks
		WHERE
		    ([Source].[TeamProject] = '%s' AND [Source].[WorkItemType] <> '')
		    AND ([Links.LinkType] = '%s')
		    AND (
		        [Target].[TeamProject] = '%s'
		        AND [Target].[Title] <> '%s'
		        AND [Target].[AssignedTo] = '%s'
		    )
		MODE (Recursive, ReturnMatchingChildren)`,
		escapeWIQL(g.project), linkHierarchyForward, escapeWIQL(g.project),
		model.DeleteSentinelTitle, escapeWIQL(user),
	)

	result, err := g.runLinkQuery(ctx, query, 0, trackedFields)
	if err != nil {
		return nil, g.fail(fmt.Errorf("loading activities for %s: %w", user, err))
	}
	return result, nil
}

// Search finds organizations and projects to link under. The query
// may pin an exact id with a "[<id>]" prefix, or scope to an
// organization title with "org / rest"; a bare number matches by id
// or by project title.
func (g *Gateway) Search(ctx context.Context, query string) (*LoadResult, error) {
	result, err := g.runLinkQuery(ctx, buildSearchQuery(g.project, query), searchResultLimit, searchFields)
	if err != nil {
		return nil, g.fail(fmt.Errorf("searching %q: %w", query, err))
	}
	return result, nil
}

// CreateItem creates a work item from a full field patch and, when
// parentID is not the no-op sentinel, links it under its parent.
func (g *Gateway) CreateItem(ctx context.Context, patch model.FieldPatch, parentID int) (model.WorkItem, error) {
	kind := patch.Fields.String(model.FieldWorkItemType)
	path := fmt.Sprintf("/%s/_apis/wit/workitems/$%s",
		url.PathEscape(g.project), url.PathEscape(kind))

	var created item
	if err := g.client.Post(ctx, path, fieldOps(patch), &created); err != nil {
		return model.WorkItem{}, g.fail(fmt.Errorf("creating work item: %w", err))
	}

	if parentID != model.NoParentID {
		if err := g.addParentLink(ctx, parentID, g.itemURL(created)); err != nil {
			return model.WorkItem{}, g.fail(fmt.Errorf("linking item %d under %d: %w", created.ID, parentID, err))
		}
	}

	return created.toModel(), nil
}

// UpdateItem applies a field patch to an existing item. A parentID
// other than the no-op sentinel re-homes the item first: any existing
// hierarchy link on it is removed, then a forward link is added from
// the new parent.
func (g *Gateway) UpdateItem(ctx context.Context, id int, patch model.FieldPatch, parentID int) (model.WorkItem, error) {
	if parentID != model.NoParentID {
		if err := g.relinkParent(ctx, id, parentID); err != nil {
			return model.WorkItem{}, g.fail(fmt.Errorf("re-linking item %d under %d: %w", id, parentID, err))
		}
	}

	var updated item
	path := fmt.Sprintf("/_apis/wit/workitems/%d", id)
	if err := g.client.Patch(ctx, path, fieldOps(patch), &updated); err != nil {
		return model.WorkItem{}, g.fail(fmt.Errorf("updating work item %d: %w", id, err))
	}

	return updated.toModel(), nil
}

// relinkParent drops the item's current hierarchy link, if any, and
// attaches it under parentID.
func (g *Gateway) relinkParent(ctx context.Context, id, parentID int) error {
	var current item
	path := fmt.Sprintf("/_apis/wit/workitems/%d?$expand=relations", id)
	if err := g.client.Get(ctx, path, &current); err != nil {
		return fmt.Errorf("fetching relations: %w", err)
	}

	for i, rel := range current.Relations {
		if rel.Rel == linkHierarchyForward || rel.Rel == linkHierarchyReverse {
			ops := []patchOp{{Op: "remove", Path: fmt.Sprintf("/relations/%d", i)}}
			if err := g.client.Patch(ctx, fmt.Sprintf("/_apis/wit/workitems/%d", id), ops, &current); err != nil {
				return fmt.Errorf("removing old parent link: %w", err)
			}
			break
		}
	}

	return g.addParentLink(ctx, parentID, g.itemURL(current))
}

// addParentLink adds a hierarchy-forward relation on the parent
// pointing at the child's item URL.
func (g *Gateway) addParentLink(ctx context.Context, parentID int, childURL string) error {
	ops := []patchOp{{
		Op:   "add",
		Path: "/relations/-",
		Value: relation{
			Rel: linkHierarchyForward,
			URL: childURL,
		},
	}}
	return g.client.Patch(ctx, fmt.Sprintf("/_apis/wit/workitems/%d", parentID), ops, nil)
}

// itemURL prefers the service-reported URL, falling back to the
// conventional one.
func (g *Gateway) itemURL(it item) string {
	if it.URL != "" {
		return it.URL
	}
	return fmt.Sprintf("%s/%s/_apis/wit/workItems/%d", g.client.baseURL, g.project, it.ID)
}

// runLinkQuery executes a link query and fetches the fields of every
// referenced item in chunks.
func (g *Gateway) runLinkQuery(ctx context.Context, query string, top int, fields []string) (*LoadResult, error) {
	path := "/_apis/wit/wiql"
	if top > 0 {
		path += fmt.Sprintf("?$top=%d", top)
	}

	var links linkQueryResult
	if err := g.client.Post(ctx, path, wiqlRequest{Query: query}, &links); err != nil {
		return nil, fmt.Errorf("running link query: %w", err)
	}

	var ids []int
	seen := make(map[int]bool)
	collect := func(ref *linkRef) {
		if ref != nil && !seen[ref.ID] {
			seen[ref.ID] = true
			ids = append(ids, ref.ID)
		}
	}
	for _, link := range links.WorkItemRelations {
		collect(link.Source)
		collect(link.Target)
	}

	result := &LoadResult{
		WorkItems:   make(map[int]model.WorkItem, len(ids)),
		ParentLinks: make(model.ParentLinks),
	}

	for from := 0; from < len(ids); from += fetchChunkSize {
		to := from + fetchChunkSize
		if to > len(ids) {
			to = len(ids)
		}
		batch, err := g.fetchItems(ctx, ids[from:to], fields)
		if err != nil {
			return nil, err
		}
		for _, it := range batch {
			result.WorkItems[it.ID] = it.toModel()
		}
	}

	for _, link := range links.WorkItemRelations {
		if link.Target == nil {
			continue
		}
		parent := model.NoParentID
		if link.Source != nil {
			parent = link.Source.ID
		}
		result.ParentLinks[link.Target.ID] = parent
	}

	return result, nil
}

// fetchItems retrieves one chunk of items with the given fields.
func (g *Gateway) fetchItems(ctx context.Context, ids []int, fields []string) ([]item, error) {
	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = strconv.Itoa(id)
	}

	path := fmt.Sprintf("/_apis/wit/workitems?ids=%s&fields=%s",
		strings.Join(idStrs, ","),
		url.QueryEscape(strings.Join(fields, ",")),
	)

	var batch itemBatch
	if err := g.client.Get(ctx, path, &batch); err != nil {
		return nil, fmt.Errorf("fetching %d work items: %w", len(ids), err)
	}
	return batch.Value, nil
}

// fieldOps converts a field patch into JSON-patch add operations,
// in the fixed tracked-field order. Empty and zero values are
// omitted; the service treats an absent op as "leave unchanged".
func fieldOps(patch model.FieldPatch) []patchOp {
	var ops []patchOp
	for _, name := range trackedFields {
		value, ok := patch.Fields[name]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if v == "" {
				continue
			}
		case float64:
			if v == 0 {
				continue
			}
		case nil:
			continue
		}
		ops = append(ops, patchOp{Op: "add", Path: "/fields/" + name, Value: value})
	}
	return ops
}

// buildSearchQuery ports the interactive parent-search grammar into a
// link query.
func buildSearchQuery(project, query string) string {
	query = strings.TrimSpace(query)

	queryID := 0
	if strings.HasPrefix(query, "[") {
		if end := strings.Index(query, "]"); end > 0 {
			queryID, _ = strconv.Atoi(strings.TrimSpace(query[1:end]))
			query = strings.TrimSpace(query[end+1:])
		}
	}

	queryParent := ""
	if slash := strings.Index(query, "/"); slash >= 0 {
		queryParent = strings.TrimSpace(query[:slash])
		query = strings.TrimSpace(query[slash+1:])
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
		SELECT [Id]
		FROM workitemLinks
		WHERE
		    [Links.LinkType] = '%s' `, linkHierarchyForward)

	if queryID != 0 {
		fmt.Fprintf(&b, `
		    AND ([Target].[TeamProject] = '%s' AND [Target].[Id] = %d) `,
			escapeWIQL(project), queryID)
		return b.String()
	}

	if queryParent != "" {
		fmt.Fprintf(&b, `
		    AND (
		        [Source].[TeamProject] = '%s'
		        AND [Source].[WorkItemType] = '%s'
		        AND [Source].[Title] CONTAINS '%s'
		    ) `, escapeWIQL(project), model.KindOrganization, escapeWIQL(queryParent))
	}

	if n, err := strconv.Atoi(query); err == nil && n != 0 {
		fmt.Fprintf(&b, `
		    AND (
		        [Target].[TeamProject] = '%s'
		        AND (
		            [Target].[Id] = %d OR
		            ([Target].[WorkItemType] = '%s' AND [Target].[Title] CONTAINS '%s')
		        )
		    ) `, escapeWIQL(project), n, model.KindProject, escapeWIQL(query))
	} else if query != "" {
		fmt.Fprintf(&b, `
		    AND (
		        [Target].[TeamProject] = '%s'
		        AND [Target].[WorkItemType] = '%s'
		        AND [Target].[Title] CONTAINS '%s'
		    ) `, escapeWIQL(project), model.KindProject, escapeWIQL(query))
	} else {
		fmt.Fprintf(&b, `
		    AND (
		        [Target].[TeamProject] = '%s'
		        AND [Target].[WorkItemType] = '%s'
		    ) `, escapeWIQL(project), model.KindProject)
	}

	return b.String()
}

// escapeWIQL escapes single quotes in a query literal.
func escapeWIQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
