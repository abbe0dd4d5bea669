// Symbol changesets (spec.md §4.2, "Symbol changesets are produced in
// parallel"): one SymbolChangeset per Symbol, depending on every changeset
// holding a source revision for that symbol.
//
// SPDX-License-Identifier: BSD-2-Clause
package changeset

import (
	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/setutil"
)

// BuildSymbolChangesets creates one Changeset per classified (non-excluded)
// Symbol, gathering the CVSSymbol source revisions that sprout it, and
// wires a dependency edge to whichever RevisionChangeset holds each source
// revision, per the RevisionBuilder's Graph. revisionOwner resolves a
// CVSRevision id to the ID of the changeset that ended up holding it (the
// Builder's `owner` map, exposed read-only via Builder.Owner).
func BuildSymbolChangesets(
	symbols []cvsmodel.CVSSymbol,
	classify func(cvsmodel.SymbolID) cvsmodel.SymbolKind,
	revisionTimestamp func(cvsmodel.RevisionID) int64,
	revisionOwner func(cvsmodel.RevisionID) (ID, bool),
	graph *Graph,
	nextID *ID,
) []*Changeset {
	bySymbol := make(map[cvsmodel.SymbolID][]cvsmodel.CVSSymbol)
	for _, cs := range symbols {
		bySymbol[cs.Symbol] = append(bySymbol[cs.Symbol], cs)
	}

	var out []*Changeset
	for symbolID, occurrences := range bySymbol {
		kind := classify(symbolID)
		if kind == cvsmodel.KindExcluded {
			continue
		}
		var ck Kind
		if kind == cvsmodel.KindBranch {
			ck = KindBranch
		} else {
			ck = KindTag
		}

		*nextID++
		cs := &Changeset{
			ID:     *nextID,
			Kind:   ck,
			Items:  setutil.NewIntSet(),
			Symbol: symbolID,
		}
		first := true
		for _, occ := range occurrences {
			cs.Items.Add(int(occ.SourceRevision))
			ts := revisionTimestamp(occ.SourceRevision)
			if first || ts < cs.TMin {
				cs.TMin = ts
			}
			if first || ts > cs.TMax {
				cs.TMax = ts
			}
			first = false
		}
		graph.AddNode(cs)
		for _, occ := range occurrences {
			if ownerID, ok := revisionOwner(occ.SourceRevision); ok {
				graph.AddEdge(cs.ID, ownerID)
			}
		}
		out = append(out, cs)
	}
	return out
}

// Owner exposes the Builder's revision-to-changeset-id map for use by
// BuildSymbolChangesets once the revision pass has finished.
func (b *Builder) Owner(rev cvsmodel.RevisionID) (ID, bool) {
	id, ok := b.owner[rev]
	return id, ok
}
