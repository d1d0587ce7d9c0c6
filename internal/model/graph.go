package model

// Graph is one consistent snapshot of the reconciled work-item
// hierarchy: the raw items, their parent links, the derived
// activities, and the groups minted while projecting them. Snapshots
// are rebuilt wholesale on every load/create/update round trip; they
// are never patched incrementally.
type Graph struct {
	WorkItems   map[int]WorkItem
	ParentLinks ParentLinks
	Activities  map[int]Activity
	Groups      []Group
	// NextGroupID is the shared counter carried through one
	// projection pass so that group ids stay stable within it.
	NextGroupID int
}

// NewGraph returns an empty snapshot with the group counter at 1.
func NewGraph() *Graph {
	return &Graph{
		WorkItems:   make(map[int]WorkItem),
		ParentLinks: make(ParentLinks),
		Activities:  make(map[int]Activity),
		NextGroupID: 1,
	}
}

// Purge removes every trace of id from the snapshot: its activity,
// its raw item, and its parent-link entry. Groups are left alone;
// an unreferenced group is invisible by construction.
func (g *Graph) Purge(id int) {
	delete(g.Activities, id)
	delete(g.WorkItems, id)
	delete(g.ParentLinks, id)
}
