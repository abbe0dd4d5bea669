// C3, the Changeset Scheduler (spec.md §4.3): linearises the changeset
// dependency graph into the final SVN revision order, breaking cycles that
// CVS's lack of atomic cross-file commits and RCS timestamp skew can
// introduce (spec §3, §9).
//
// SPDX-License-Identifier: BSD-2-Clause
package changeset

import (
	"sort"

	"gitlab.com/esr/cvs2svn/internal/setutil"
)

// ItemTimestamp resolves one of a Changeset's Items (always a CVSRevision
// id, whether the owning Changeset is a RevisionChangeset or a
// SymbolChangeset keyed by CVSSymbol source revisions) to its real
// timestamp, so a cycle-breaking split can set accurate TMin/TMax instead
// of inheriting its parent's span.
type ItemTimestamp func(itemID int) int64

// Schedule runs the full four-step algorithm of spec §4.3 and returns the
// changesets in final order, with Revnum set starting at 2 (revnum 1 is
// reserved for InitialProject, per spec). timestampOf supplies real
// per-item timestamps for any changeset a cycle-breaking split produces.
func Schedule(g *Graph, nextID *ID, timestampOf ItemTimestamp) []*Changeset {
	breakCycles(g, nextID, func(cs *Changeset) bool { return cs.Kind == KindRevision }, timestampOf)
	breakCycles(g, nextID, func(*Changeset) bool { return true }, timestampOf)

	order := topoSort(g)
	for i, cs := range order {
		cs.Revnum = 2 + i
	}
	return order
}

// breakCycles repeatedly finds strongly connected components of size > 1
// among the nodes accepted by `included`, restricted to edges between two
// included nodes, and splits the largest changeset on each such SCC by
// timestamp midpoint until none remain (spec §4.3 steps 1 and 3).
func breakCycles(g *Graph, nextID *ID, included func(*Changeset) bool, timestampOf ItemTimestamp) {
	for {
		sccs := stronglyConnectedComponents(g, included)
		cyclic := false
		for _, scc := range sccs {
			if len(scc) <= 1 {
				continue
			}
			cyclic = true
			splitLargest(g, nextID, scc, timestampOf)
		}
		if !cyclic {
			return
		}
	}
}

// splitLargest picks the changeset with the most items among scc and
// partitions its items by timestamp midpoint into two changesets, the
// later one depending on the earlier, per spec §4.3 step 1/3 ("split the
// largest changeset on the cycle (partition its CVSRevisions into two by
// timestamp midpoint)").
//
// Existing edges are rewired conservatively: anything the split changeset
// depended on, both halves now depend on; anything that depended on the
// split changeset is repointed at the later half, since requiring it to
// come after the later (not just the earlier) half can never violate a
// real dependency, only add one — which is exactly what's needed to
// eliminate the cycle. This specific rewiring rule is an implementation
// decision where spec.md is silent on exact mechanics (see DESIGN.md).
func splitLargest(g *Graph, nextID *ID, scc []ID, timestampOf ItemTimestamp) {
	var target *Changeset
	for _, id := range scc {
		n := g.Node(id)
		if target == nil || n.Items.Len() > target.Items.Len() {
			target = n
		}
	}
	items := target.Items.Sorted()
	if len(items) < 2 {
		return // can't split a singleton; the cycle must be broken elsewhere
	}
	mid := len(items) / 2

	*nextID++
	lo := &Changeset{ID: *nextID, Kind: target.Kind, Items: setutil.NewIntSet(items[:mid]...), MetadataID: target.MetadataID, Symbol: target.Symbol}
	*nextID++
	hi := &Changeset{ID: *nextID, Kind: target.Kind, Items: setutil.NewIntSet(items[mid:]...), MetadataID: target.MetadataID, Symbol: target.Symbol}

	RetimestampItems(lo, timestampOf)
	RetimestampItems(hi, timestampOf)

	g.AddNode(lo)
	g.AddNode(hi)
	g.AddEdge(hi.ID, lo.ID)

	for _, dep := range g.Dependencies(target.ID) {
		g.AddEdge(lo.ID, dep)
		g.AddEdge(hi.ID, dep)
	}
	for _, other := range g.Nodes() {
		if other.ID == target.ID || other.ID == lo.ID || other.ID == hi.ID {
			continue
		}
		for _, dep := range g.Dependencies(other.ID) {
			if dep == target.ID {
				g.AddEdge(other.ID, hi.ID)
			}
		}
	}
	g.RemoveNode(target.ID)
}

// RetimestampItems recomputes TMin/TMax for cs from actual per-item
// timestamps (timestamps live on CVSRevision, owned by cvsmodel/persist,
// not on Changeset itself), used after a cycle-breaking split produces a
// changeset with no span of its own yet.
func RetimestampItems(cs *Changeset, timestampOf ItemTimestamp) {
	first := true
	for _, item := range cs.Items.Sorted() {
		ts := timestampOf(item)
		if first || ts < cs.TMin {
			cs.TMin = ts
		}
		if first || ts > cs.TMax {
			cs.TMax = ts
		}
		first = false
	}
}

// stronglyConnectedComponents runs Tarjan's algorithm restricted to nodes
// accepted by `included`, considering only edges between two included
// nodes.
func stronglyConnectedComponents(g *Graph, included func(*Changeset) bool) [][]ID {
	index := make(map[ID]int)
	lowlink := make(map[ID]int)
	onStack := make(map[ID]bool)
	var stack []ID
	counter := 0
	var sccs [][]ID

	var nodes []*Changeset
	for _, n := range g.Nodes() {
		if included(n) {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	var strongconnect func(v ID)
	strongconnect = func(v ID) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Dependencies(v) {
			wn := g.Node(w)
			if wn == nil || !included(wn) {
				continue
			}
			if _, seen := index[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var scc []ID
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range nodes {
		if _, seen := index[n.ID]; !seen {
			strongconnect(n.ID)
		}
	}
	return sccs
}

// topoSort performs the global topological sort of spec §4.3 step 4,
// tie-broken by (t_min, id) as step 4 specifies ("Tie-break: lower t_min,
// then lower id").
func topoSort(g *Graph) []*Changeset {
	nodes := g.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return Less(nodes[i], nodes[j], true) })

	visited := make(map[ID]bool)
	var order []*Changeset

	var visit func(n *Changeset)
	visit = func(n *Changeset) {
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true
		deps := g.Dependencies(n.ID)
		depNodes := make([]*Changeset, 0, len(deps))
		for _, d := range deps {
			if dn := g.Node(d); dn != nil {
				depNodes = append(depNodes, dn)
			}
		}
		sort.Slice(depNodes, func(i, j int) bool { return Less(depNodes[i], depNodes[j], true) })
		for _, dn := range depNodes {
			visit(dn)
		}
		order = append(order, n)
	}

	for _, n := range nodes {
		visit(n)
	}
	return order
}
