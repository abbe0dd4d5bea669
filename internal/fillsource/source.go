// Package fillsource implements C5, the Fill Source Selector (spec.md
// §4.5): choosing, for each branch/tag fill, the best SVN revision(s) to
// copy from so that the filled subtree reconstructs the symbol's CVS-side
// tree as closely as possible, maximising copy sharing to keep the
// dumpfile compact.
//
// Grounded in the teacher's PathMap tree-walking idiom (surgeon/pathmap.go)
// for the sparse per-LOD source tree, generalized from "map path to blob
// value" to "map path to a scored revision range".
//
// SPDX-License-Identifier: BSD-2-Clause
package fillsource

import (
	"math"
	"sort"
	"strings"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
)

// InfiniteClosing marks a range with no closing revision yet (the symbol's
// source is still the latest content as of youngest).
const InfiniteClosing = math.MaxInt32

// Range is one leaf of a FillSource: the span of SVN revisions during
// which copying this path at a given LOD reproduces the symbol's content
// for that file (spec §4.5: "range_map: CVSSymbol → SVNRevisionRange
// (opening_revnum, closing_revnum_or_∞, source_lod)").
type Range struct {
	Opening int
	Closing int // InfiniteClosing if still open
	LOD     cvsmodel.LOD
}

// Covers reports whether revnum lies in [Opening, Closing).
func (r Range) Covers(revnum int) bool {
	return revnum >= r.Opening && revnum < r.Closing
}

// pathNode is one directory level of a FillSource's sparse tree.
type pathNode struct {
	children map[string]*pathNode
	leaf     *Range
}

func newPathNode() *pathNode {
	return &pathNode{children: make(map[string]*pathNode)}
}

func (n *pathNode) getOrCreate(component string) *pathNode {
	child, ok := n.children[component]
	if !ok {
		child = newPathNode()
		n.children[component] = child
	}
	return child
}

// FillSource is a sparse tree, for one source LOD, mirroring the CVS
// directory hierarchy with SVNRevisionRange leaves (spec §4.5: "Group
// ranges by source_lod. For each LOD, build a FillSource").
type FillSource struct {
	LOD  cvsmodel.LOD
	root *pathNode
}

// NewFillSource builds a FillSource for lod from a set of (svnPath, Range)
// leaves.
func NewFillSource(lod cvsmodel.LOD, leaves map[string]Range) *FillSource {
	fs := &FillSource{LOD: lod, root: newPathNode()}
	for path, r := range leaves {
		rCopy := r
		parts := strings.Split(path, "/")
		node := fs.root
		for _, part := range parts[:len(parts)-1] {
			node = node.getOrCreate(part)
		}
		leafNode := node.getOrCreate(parts[len(parts)-1])
		leafNode.leaf = &rCopy
	}
	return fs
}

// BuildFillSources groups per-file ranges by source LOD, producing one
// FillSource per distinct LOD (spec §4.5 "Source tree").
func BuildFillSources(leavesByLOD map[string]Range) map[cvsmodel.LOD]*FillSource {
	byLOD := make(map[cvsmodel.LOD]map[string]Range)
	for path, r := range leavesByLOD {
		key := r.LOD
		if byLOD[key] == nil {
			byLOD[key] = make(map[string]Range)
		}
		byLOD[key][path] = r
	}
	out := make(map[cvsmodel.LOD]*FillSource)
	for lod, leaves := range byLOD {
		out[lod] = NewFillSource(lod, leaves)
	}
	return out
}

// scoreSubtree counts the leaves under n (inclusive) that cover revnum
// (spec §4.5: "the score is the number of leaf ranges that cover r").
func scoreSubtree(n *pathNode, revnum int) int {
	if n == nil {
		return 0
	}
	score := 0
	if n.leaf != nil && n.leaf.Covers(revnum) {
		score++
	}
	for _, child := range n.children {
		score += scoreSubtree(child, revnum)
	}
	return score
}

// candidateRevnums returns the distinct revnums at or below maxRevnum at
// which scoreSubtree can change: every opening, the last covered revnum
// before every closing, and maxRevnum itself (scoring is piecewise-constant
// between breakpoints, so the maximum is always attained at one of these).
// maxRevnum excludes sources that do not yet exist as of the fill commit.
func candidateRevnums(n *pathNode, maxRevnum int) []int {
	seen := make(map[int]bool)
	var walk func(*pathNode)
	walk = func(node *pathNode) {
		if node == nil {
			return
		}
		if node.leaf != nil {
			if node.leaf.Opening <= maxRevnum {
				seen[node.leaf.Opening] = true
			}
			if node.leaf.Closing != InfiniteClosing && node.leaf.Closing-1 <= maxRevnum && node.leaf.Closing-1 >= node.leaf.Opening {
				seen[node.leaf.Closing-1] = true
			}
		}
		for _, c := range node.children {
			walk(c)
		}
	}
	walk(n)
	if maxRevnum >= 0 {
		seen[maxRevnum] = true
	}
	out := make([]int, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}

// BestRevnum returns the revnum no greater than maxRevnum that maximises
// scoreSubtree(n, ·), with ties broken by preferring `preferred` (if
// non-zero and tied for best), then by the lowest revnum (spec §4.5: "ties
// broken by preferring a caller-supplied preferred range ..., then by
// lowest revnum").
func BestRevnum(n *pathNode, preferred int, maxRevnum int) (revnum int, score int) {
	best := -1
	bestScore := -1
	cands := candidateRevnums(n, maxRevnum)
	if preferred != 0 && preferred <= maxRevnum {
		cands = append(cands, preferred)
	}
	for _, r := range cands {
		s := scoreSubtree(n, r)
		if s > bestScore {
			bestScore = s
			best = r
		} else if s == bestScore {
			if preferred != 0 && r == preferred {
				best = r
			} else if r < best {
				best = r
			}
		}
	}
	return best, bestScore
}
