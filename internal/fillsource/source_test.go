package fillsource

import (
	"testing"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
)

func TestRangeCovers(t *testing.T) {
	r := Range{Opening: 5, Closing: 9}
	if r.Covers(4) || r.Covers(9) {
		t.Fatalf("expected Covers to treat closing as exclusive")
	}
	if !r.Covers(5) || !r.Covers(8) {
		t.Fatalf("expected Covers true within [opening, closing)")
	}
}

func TestBuildFillSourcesGroupsByLOD(t *testing.T) {
	trunk := cvsmodel.Trunk
	branch := cvsmodel.Branch(3)
	leaves := map[string]Range{
		"a/cookie": {Opening: 1, Closing: InfiniteClosing, LOD: trunk},
		"a/NEWS":   {Opening: 2, Closing: 6, LOD: branch},
	}
	sources := BuildFillSources(leaves)
	if len(sources) != 2 {
		t.Fatalf("expected 2 FillSources, got %d", len(sources))
	}
	if sources[trunk] == nil || sources[branch] == nil {
		t.Fatalf("expected one FillSource per LOD")
	}
}

func TestBestRevnumPicksMaxCoverage(t *testing.T) {
	leaves := map[string]Range{
		"a": {Opening: 1, Closing: 10, LOD: cvsmodel.Trunk},
		"b": {Opening: 5, Closing: 10, LOD: cvsmodel.Trunk},
	}
	fs := NewFillSource(cvsmodel.Trunk, leaves)
	rev, score := BestRevnum(fs.root, 0, 20)
	if score != 2 {
		t.Fatalf("expected best score 2 (both ranges overlap from 5..9), got %d at rev %d", score, rev)
	}
	if rev < 5 || rev >= 10 {
		t.Fatalf("expected best revnum in [5,10), got %d", rev)
	}
}

func TestBestRevnumRespectsCap(t *testing.T) {
	leaves := map[string]Range{
		"a": {Opening: 1, Closing: 10, LOD: cvsmodel.Trunk},
		"b": {Opening: 5, Closing: 10, LOD: cvsmodel.Trunk},
	}
	fs := NewFillSource(cvsmodel.Trunk, leaves)
	rev, score := BestRevnum(fs.root, 0, 3)
	if score != 1 {
		t.Fatalf("expected only 'a' to cover at cap 3, got score %d", score)
	}
	if rev > 3 {
		t.Fatalf("expected revnum capped at 3, got %d", rev)
	}
}

func TestBestRevnumTieBreaksToPreferred(t *testing.T) {
	leaves := map[string]Range{
		"a": {Opening: 1, Closing: 20, LOD: cvsmodel.Trunk},
	}
	fs := NewFillSource(cvsmodel.Trunk, leaves)
	rev, _ := BestRevnum(fs.root, 7, 20)
	if rev != 7 {
		t.Fatalf("expected tie-break to prefer revnum 7, got %d", rev)
	}
}
