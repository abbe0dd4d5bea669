// Package changeset implements C2 (Changeset Builder) and C3 (Changeset
// Scheduler) from spec.md §4.2–§4.3: grouping CVSRevisions into Changesets,
// then linearising the Changeset dependency graph into the SVN revision
// order.
//
// Grounded in the teacher's modelling discipline for tagged-variant data
// (DESIGN NOTES §9: "model a changeset as a value type plus an arena of
// revisions referenced by integer id; edges are (from_id, to_id) in a side
// table") and in reposurgeon's own Changeset/commit bookkeeping style
// (surgeon/reposurgeon.go's Commit/CommitMeta split between identity and
// payload).
//
// SPDX-License-Identifier: BSD-2-Clause
package changeset

import (
	"sort"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/setutil"
	"gitlab.com/esr/cvs2svn/internal/symintern"
)

// ID identifies a Changeset within one conversion run.
type ID int

// Kind distinguishes the Changeset variants spec.md §3 names. Following
// DESIGN NOTES §9's guidance for tagged sums ("pattern matching or a
// capability interface — no open inheritance hierarchy"), this is a plain
// tag switched on by callers rather than a type hierarchy.
type Kind int

const (
	// KindRevision is a RevisionChangeset: CVSRevisions sharing metadata
	// within a time window.
	KindRevision Kind = iota
	// KindBranch is a SymbolChangeset that opens/fills a branch symbol.
	KindBranch
	// KindTag is a SymbolChangeset that opens/fills a tag symbol.
	KindTag
)

func (k Kind) String() string {
	switch k {
	case KindRevision:
		return "revision"
	case KindBranch:
		return "branch"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Changeset is a set of CVSItem ids (CVSRevision ids for KindRevision,
// CVSSymbol source-revision ids for KindBranch/KindTag) destined to become
// one SVN revision.
type Changeset struct {
	ID    ID
	Kind  Kind
	Items setutil.IntSet // CVSRevision or CVSSymbol-bearing-revision ids

	TMin, TMax int64 // earliest/latest timestamp among Items
	MetadataID symintern.MetadataID
	Symbol     cvsmodel.SymbolID // valid for KindBranch/KindTag

	// Revnum is 0 until the Scheduler (C3) assigns it.
	Revnum int
}

// Less implements the total order spec §4.2 step 3 and §4.3 use for
// tie-breaking: (t_max, t_min, metadata_id, id) for the builder's ready
// queue, and (t_min, id) for the scheduler's topological sort. which
// selects the comparator.
func Less(a, b *Changeset, scheduling bool) bool {
	if scheduling {
		if a.TMin != b.TMin {
			return a.TMin < b.TMin
		}
		return a.ID < b.ID
	}
	if a.TMax != b.TMax {
		return a.TMax < b.TMax
	}
	if a.TMin != b.TMin {
		return a.TMin < b.TMin
	}
	if a.MetadataID != b.MetadataID {
		return a.MetadataID < b.MetadataID
	}
	return a.ID < b.ID
}

// SortByReadyOrder sorts changesets by the builder's total order.
func SortByReadyOrder(cs []*Changeset) {
	sort.Slice(cs, func(i, j int) bool { return Less(cs[i], cs[j], false) })
}

// SortByScheduleOrder sorts changesets by the scheduler's tie-break order.
func SortByScheduleOrder(cs []*Changeset) {
	sort.Slice(cs, func(i, j int) bool { return Less(cs[i], cs[j], true) })
}

// Graph is the dependency side table (DESIGN NOTES §9): directed edges
// from a changeset to the changesets it depends on.
type Graph struct {
	nodes map[ID]*Changeset
	deps  map[ID]setutil.IntSet // ID -> set of depended-on IDs
}

// NewGraph returns an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[ID]*Changeset), deps: make(map[ID]setutil.IntSet)}
}

// AddNode registers cs in the graph, if not already present.
func (g *Graph) AddNode(cs *Changeset) {
	g.nodes[cs.ID] = cs
	if _, ok := g.deps[cs.ID]; !ok {
		g.deps[cs.ID] = setutil.NewIntSet()
	}
}

// AddEdge records that "from" depends on "to": the final order must place
// "to" before "from" (spec §3: "Invariant: the final order of changesets
// respects all dependencies").
func (g *Graph) AddEdge(from, to ID) {
	if from == to {
		return // a changeset never depends on itself
	}
	s := g.deps[from]
	s.Add(int(to))
	g.deps[from] = s
}

// RemoveEdge deletes a single dependency edge, used while breaking cycles.
func (g *Graph) RemoveEdge(from, to ID) {
	if s, ok := g.deps[from]; ok {
		s.Remove(int(to))
		g.deps[from] = s
	}
}

// Dependencies returns the ids "from" depends on.
func (g *Graph) Dependencies(from ID) []ID {
	out := make([]ID, 0)
	for _, v := range g.deps[from].Sorted() {
		out = append(out, ID(v))
	}
	return out
}

// Node returns the Changeset for id.
func (g *Graph) Node(id ID) *Changeset {
	return g.nodes[id]
}

// Nodes returns every changeset in the graph, order unspecified.
func (g *Graph) Nodes() []*Changeset {
	out := make([]*Changeset, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// RemoveNode deletes a changeset and all edges mentioning it, used when a
// cycle-breaking split replaces one changeset with two.
func (g *Graph) RemoveNode(id ID) {
	delete(g.nodes, id)
	delete(g.deps, id)
	for from, deps := range g.deps {
		deps.Remove(int(id))
		g.deps[from] = deps
	}
}
