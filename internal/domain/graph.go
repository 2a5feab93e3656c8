package domain

import (
	"fmt"
	"sort"
	"sync"
)

// GraphSnapshot is an immutable point-in-time view of a GraphState,
// handed to the ACO solver so it never holds GraphState's lock across a
// solve. All fields are independent copies; mutating them has no effect
// on the originating GraphState.
type GraphSnapshot struct {
	Nodes     map[int32]Node
	Links     []Link
	EdgeIndex map[EdgeKey]int
	Adj       map[int32][]int32
}

// Link looks up the link between u and v in the snapshot, regardless of
// direction.
func (s GraphSnapshot) Link(u, v int32) (Link, bool) {
	idx, ok := s.EdgeIndex[canonicalEdgeKey(u, v)]
	if !ok {
		return Link{}, false
	}
	return s.Links[idx], true
}

// Neighbors returns u's adjacency list in deterministic (sorted) order.
func (s GraphSnapshot) Neighbors(u int32) []int32 {
	return s.Adj[u]
}

// GraphState is the controller's authoritative graph: the node
// population, the canonical link set, and the adjacency/edge-index
// views derived from it. adj and edgeIndex are always consistent with
// links; they are rebuilt together, never patched independently except
// for a link's Enabled flag, which is a link attribute and not a
// structural change. Exactly one writer holds the lock at a time;
// readers take either a read lock or a Snapshot.
type GraphState struct {
	mu        sync.RWMutex
	nodes     map[int32]Node
	nodeOrder []int32
	links     []Link
	edgeIndex map[EdgeKey]int
	adj       map[int32][]int32
}

// NewGraphState builds a GraphState from a node list and a canonical
// link set, constructing adj and edgeIndex so that both (u,v) and
// (v,u) map to the same link index.
func NewGraphState(nodes []Node, links []Link) *GraphState {
	g := &GraphState{}
	g.rebuildLocked(nodes, links)
	return g
}

// Rebuild atomically replaces the graph's node and link population.
// Called on startup, /config/reload, and any other full rebuild-from-
// nodes operation. It discards the previous adjacency/edge-index views
// rather than mutating them in place.
func (g *GraphState) Rebuild(nodes []Node, links []Link) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rebuildLocked(nodes, links)
}

func (g *GraphState) rebuildLocked(nodes []Node, links []Link) {
	nodeMap := make(map[int32]Node, len(nodes))
	order := make([]int32, 0, len(nodes))
	for _, n := range nodes {
		nodeMap[n.ID] = n
		order = append(order, n.ID)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	linkCopies := make([]Link, len(links))
	copy(linkCopies, links)

	edgeIndex := make(map[EdgeKey]int, len(linkCopies))
	adj := make(map[int32][]int32, len(nodeMap))
	for idx, l := range linkCopies {
		u, v := l.Endpoints()
		edgeIndex[EdgeKey{U: u, V: v}] = idx
		adj[u] = append(adj[u], v)
		adj[v] = append(adj[v], u)
	}
	for id := range adj {
		sort.Slice(adj[id], func(i, j int) bool { return adj[id][i] < adj[id][j] })
	}

	g.nodes = nodeMap
	g.nodeOrder = order
	g.links = linkCopies
	g.edgeIndex = edgeIndex
	g.adj = adj
}

// Nodes returns a copy of the node list in ascending id order.
func (g *GraphState) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Links returns a copy of the canonical link slice.
func (g *GraphState) Links() []Link {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}

// GetNode looks up a node by id.
func (g *GraphState) GetNode(id int32) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// GetLink looks up the link between u and v, regardless of direction.
func (g *GraphState) GetLink(u, v int32) (Link, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.edgeIndex[canonicalEdgeKey(u, v)]
	if !ok {
		return Link{}, false
	}
	return g.links[idx], true
}

// Neighbors returns u's adjacency list in deterministic (sorted) order.
func (g *GraphState) Neighbors(u int32) []int32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]int32, len(g.adj[u]))
	copy(out, g.adj[u])
	return out
}

// SetEnabled flips the enabled flag of the link between u and v. It
// returns false if no such link exists (the caller should report 404).
func (g *GraphState) SetEnabled(u, v int32, enabled bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.edgeIndex[canonicalEdgeKey(u, v)]
	if !ok {
		return false
	}
	g.links[idx].Enabled = enabled
	return true
}

// NodeCount returns the current number of nodes.
func (g *GraphState) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// LinkCount returns the current number of links.
func (g *GraphState) LinkCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.links)
}

// Snapshot takes an immutable, independently-owned copy of the graph
// for a single ACO solve. The solver never touches GraphState's lock
// again once it has this.
func (g *GraphState) Snapshot() GraphSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make(map[int32]Node, len(g.nodes))
	for id, n := range g.nodes {
		nodes[id] = n
	}
	links := make([]Link, len(g.links))
	copy(links, g.links)
	edgeIndex := make(map[EdgeKey]int, len(g.edgeIndex))
	for k, v := range g.edgeIndex {
		edgeIndex[k] = v
	}
	adj := make(map[int32][]int32, len(g.adj))
	for id, ns := range g.adj {
		cp := make([]int32, len(ns))
		copy(cp, ns)
		adj[id] = cp
	}

	return GraphSnapshot{Nodes: nodes, Links: links, EdgeIndex: edgeIndex, Adj: adj}
}

// Validate checks the invariants in §8 of the data model: edgeIndex
// symmetry and endpoint consistency, plus the per-link attribute
// bounds. It returns every violation found rather than failing fast, so
// a caller can log all of them at once.
func (g *GraphState) Validate() []error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error
	for key, idx := range g.edgeIndex {
		if idx < 0 || idx >= len(g.links) {
			errs = append(errs, fmt.Errorf("edgeIndex[%v] points out of range: %d", key, idx))
			continue
		}
		l := g.links[idx]
		u, v := l.Endpoints()
		if u != key.U || v != key.V {
			errs = append(errs, fmt.Errorf("edgeIndex[%v] -> link{%d,%d}: endpoint mismatch", key, u, v))
		}
	}
	for _, l := range g.links {
		if l.CapacityMbps <= 0 {
			errs = append(errs, fmt.Errorf("link{%d,%d}: capacity_mbps must be > 0, got %f", l.U, l.V, l.CapacityMbps))
		}
		if l.Reliability < 0 || l.Reliability > 1 {
			errs = append(errs, fmt.Errorf("link{%d,%d}: reliability out of [0,1]: %f", l.U, l.V, l.Reliability))
		}
		if l.EnergyJ < 0 {
			errs = append(errs, fmt.Errorf("link{%d,%d}: negative energy_j: %f", l.U, l.V, l.EnergyJ))
		}
	}
	return errs
}
