package symbolings

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/fillsource"
)

func TestAssembleFromRevisionsAndBuildLeaves(t *testing.T) {
	revs := []*cvsmodel.CVSRevision{
		{ID: 1, CVSFile: 1, LOD: cvsmodel.Trunk},
		{ID: 2, CVSFile: 1, LOD: cvsmodel.Trunk, PrevID: 1},
	}
	symbols := []cvsmodel.CVSSymbol{{Symbol: 10, CVSFile: 1, SourceRevision: 1}}
	idx := NewSourceIndex(symbols)
	revnums := map[cvsmodel.RevisionID]int{1: 2, 2: 3}
	revnumOf := func(id cvsmodel.RevisionID) (int, bool) { v, ok := revnums[id]; return v, ok }

	log := New()
	log.AssembleFromRevisions(revs, idx, revnumOf)
	log.Seal()

	svnPath := func(id cvsmodel.FileID) (string, bool) {
		if id == 1 {
			return "a.txt", true
		}
		return "", false
	}
	leaves := log.BuildLeaves(10, svnPath)
	r, ok := leaves["a.txt"]
	if !ok {
		t.Fatalf("expected a leaf for a.txt, got %+v", leaves)
	}
	if r.Opening != 2 || r.Closing != 3 {
		t.Fatalf("expected range [2,3), got %+v", r)
	}
	if !r.LOD.Equal(cvsmodel.Trunk) {
		t.Fatalf("expected trunk LOD, got %+v", r.LOD)
	}
	_ = fillsource.InfiniteClosing
}

func TestAssembleFromRevisionsLeavesOpenRangeUnbounded(t *testing.T) {
	revs := []*cvsmodel.CVSRevision{{ID: 1, CVSFile: 1, LOD: cvsmodel.Trunk}}
	symbols := []cvsmodel.CVSSymbol{{Symbol: 10, CVSFile: 1, SourceRevision: 1}}
	idx := NewSourceIndex(symbols)
	revnums := map[cvsmodel.RevisionID]int{1: 2}
	revnumOf := func(id cvsmodel.RevisionID) (int, bool) { v, ok := revnums[id]; return v, ok }

	log := New()
	log.AssembleFromRevisions(revs, idx, revnumOf)
	log.Seal()

	svnPath := func(id cvsmodel.FileID) (string, bool) { return "a.txt", true }
	leaves := log.BuildLeaves(10, svnPath)
	if leaves["a.txt"].Closing != fillsource.InfiniteClosing {
		t.Fatalf("expected an unbounded closing, got %+v", leaves["a.txt"])
	}

	want := map[string]fillsource.Range{
		"a.txt": {Opening: 2, Closing: fillsource.InfiniteClosing, LOD: cvsmodel.Trunk},
	}
	if diff := cmp.Diff(want, leaves, cmp.Comparer(func(a, b cvsmodel.LOD) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("leaves mismatch (-want +got):\n%s", diff)
	}
}
