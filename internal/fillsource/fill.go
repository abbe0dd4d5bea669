package fillsource

import (
	"sort"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/mirror"
)

// LODPath resolves a LOD to its root path in the mirror ("trunk", or
// "branches/NAME" / "tags/NAME").
type LODPath func(lod cvsmodel.LOD) string

type candidate struct {
	lod  cvsmodel.LOD
	node *pathNode
}

func rootCandidates(sources map[cvsmodel.LOD]*FillSource) []candidate {
	out := make([]candidate, 0, len(sources))
	for lod, fs := range sources {
		out = append(out, candidate{lod: lod, node: fs.root})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].lod.IsTrunk != out[j].lod.IsTrunk {
			return out[i].lod.IsTrunk
		}
		return out[i].lod.BranchID < out[j].lod.BranchID
	})
	return out
}

// pick selects the best-scoring candidate at maxRevnum, preferring
// preferredLOD on ties (spec §4.5 step 1: "pick highest-scoring
// FillSource"; recursion step 3 prefers the parent's choice so that a
// single copy can cover as much of the subtree as possible).
func pick(cands []candidate, maxRevnum int, preferredLOD *cvsmodel.LOD) (chosen cvsmodel.LOD, revnum int, score int, ok bool) {
	bestScore := -1
	for _, c := range cands {
		pref := 0
		isPreferred := preferredLOD != nil && c.lod.Equal(*preferredLOD)
		if isPreferred {
			pref = maxRevnum
		}
		r, s := BestRevnum(c.node, pref, maxRevnum)
		if s <= 0 {
			continue
		}
		take := false
		switch {
		case s > bestScore:
			take = true
		case s == bestScore && isPreferred:
			take = true
		}
		if take {
			bestScore = s
			chosen = c.lod
			revnum = r
			score = s
			ok = true
		}
	}
	return
}

func childName(n *pathNode, name string) *pathNode {
	if n == nil {
		return nil
	}
	return n.children[name]
}

func unionChildNames(cands []candidate) []string {
	seen := make(map[string]bool)
	for _, c := range cands {
		if c.node == nil {
			continue
		}
		for name := range c.node.children {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// allLeafPaths collects every relative path, under any source's tree, that
// is a genuine leaf (used by the final pruning pass: spec §4.5 "delete
// subentries present in the copied tree but not in any FillSource").
func allLeafPaths(sources map[cvsmodel.LOD]*FillSource) map[string]bool {
	out := make(map[string]bool)
	var walk func(n *pathNode, prefix string)
	walk = func(n *pathNode, prefix string) {
		if n == nil {
			return
		}
		if n.leaf != nil {
			out[prefix] = true
		}
		for name, child := range n.children {
			p := name
			if prefix != "" {
				p = prefix + "/" + name
			}
			walk(child, p)
		}
	}
	for _, fs := range sources {
		walk(fs.root, "")
	}
	return out
}

// Fill materialises a SymbolFill commit's target directory in m, per spec
// §4.5. revnum is the commit currently in progress on m (sources are
// capped to revnum-1, since a fill can only copy from already-committed
// history). trunkPath is consulted for the empty-fill edge case.
func Fill(m *mirror.Mirror, target string, revnum int, sources map[cvsmodel.LOD]*FillSource, lodPath LODPath, trunkPath string) error {
	maxRevnum := revnum - 1
	cands := rootCandidates(sources)
	lod, rev, score, ok := pick(cands, maxRevnum, nil)
	if !ok || score == 0 {
		// Empty fill (spec §4.5 edge case): no FillSource has any range
		// that exists yet. Copy trunk as of the previous revision, then
		// strip everything it brought along.
		if err := m.CopyPath(trunkPath, maxRevnum, target); err != nil {
			return err
		}
		if err := pruneChildren(m, target, map[string]bool{}); err != nil {
			return err
		}
		// Pruning away every child can prune the (now-empty) target
		// directory itself via DeletePath's recursive cleanup; the fill
		// commit still needs the target to exist.
		return m.Mkdir(target)
	}
	if err := m.CopyPath(lodPath(lod), rev, target); err != nil {
		return err
	}
	if err := fillChildren(m, target, "", maxRevnum, cands, lod, lodPath); err != nil {
		return err
	}
	if err := pruneChildren(m, target, allLeafPaths(sources)); err != nil {
		return err
	}
	return m.Mkdir(target)
}

// fillChildren recurses into subentries where sources disagree with the
// parent's pick (spec §4.5 step 3: "recurse on subentries"), re-copying
// only the parts that need a different source. relPath is the path from
// each candidate's own LOD root down to target, so the correct source path
// for a deeper child can be reconstructed regardless of how many levels
// down a different LOD's pick took effect.
func fillChildren(m *mirror.Mirror, target, relPath string, maxRevnum int, cands []candidate, parentLOD cvsmodel.LOD, lodPath LODPath) error {
	for _, name := range unionChildNames(cands) {
		childCands := make([]candidate, 0, len(cands))
		for _, c := range cands {
			if child := childName(c.node, name); child != nil {
				childCands = append(childCands, candidate{lod: c.lod, node: child})
			}
		}
		lod, rev, score, ok := pick(childCands, maxRevnum, &parentLOD)
		if !ok || score == 0 {
			continue
		}
		if lod.Equal(parentLOD) {
			// Already covered verbatim by the parent's copy.
			continue
		}
		childRelPath := name
		if relPath != "" {
			childRelPath = relPath + "/" + name
		}
		childPath := target + "/" + name
		if err := m.DeletePath(childPath, true); err != nil {
			return err
		}
		if err := m.CopyPath(lodPath(lod)+"/"+childRelPath, rev, childPath); err != nil {
			return err
		}
		if err := fillChildren(m, childPath, childRelPath, maxRevnum, childCands, lod, lodPath); err != nil {
			return err
		}
	}
	return nil
}

// pruneChildren deletes, from the mirror under target, every path not
// present in keep (spec §4.5: "delete subentries present in the copied
// tree but not in any FillSource"; the empty-fill case passes an empty
// keep set, per "delete all copied children").
func pruneChildren(m *mirror.Mirror, target string, keep map[string]bool) error {
	prefix := target + "/"
	for _, p := range m.CurrentPaths() {
		if len(p) <= len(prefix) || p[:len(prefix)] != prefix {
			continue
		}
		rel := p[len(prefix):]
		if keep[rel] {
			continue
		}
		if isAncestorOfKept(rel, keep) {
			continue
		}
		if !m.PathExists(p) {
			continue
		}
		if err := m.DeletePath(p, true); err != nil {
			return err
		}
	}
	return nil
}

func isAncestorOfKept(rel string, keep map[string]bool) bool {
	for k := range keep {
		if len(k) > len(rel) && k[:len(rel)] == rel && k[len(rel)] == '/' {
			return true
		}
	}
	return false
}
