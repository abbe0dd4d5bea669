package symbolings

import (
	"testing"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
)

func TestSealSortsBySymbolThenRevnum(t *testing.T) {
	l := New()
	l.RecordOpening(2, 10, 0, 1)
	l.RecordOpening(1, 20, 0, 1)
	l.RecordOpening(1, 5, 0, 1)
	l.Seal()

	r1 := l.Range(1)
	if len(r1) != 2 || r1[0].Revnum != 5 || r1[1].Revnum != 20 {
		t.Fatalf("expected symbol 1's records sorted by revnum, got %+v", r1)
	}
	r2 := l.Range(2)
	if len(r2) != 1 || r2[0].Revnum != 10 {
		t.Fatalf("expected symbol 2's single record, got %+v", r2)
	}
	if l.Range(99) != nil {
		t.Fatalf("expected nil range for unknown symbol")
	}
}

func TestRecordPrimaryCommitOpensSourcedSymbols(t *testing.T) {
	l := New()
	idx := NewSourceIndex([]cvsmodel.CVSSymbol{
		{Symbol: 7, CVSFile: 1, SourceRevision: 100},
	})
	rev := &cvsmodel.CVSRevision{ID: 100, CVSFile: 1, LOD: cvsmodel.Trunk}
	l.RecordPrimaryCommit(rev, 5, idx, nil)
	l.Seal()
	got := l.Range(7)
	if len(got) != 1 || got[0].Kind != Opening || got[0].Revnum != 5 {
		t.Fatalf("expected one opening at revnum 5, got %+v", got)
	}
}

func TestCloseSymbolsSourcedAt(t *testing.T) {
	l := New()
	idx := NewSourceIndex([]cvsmodel.CVSSymbol{
		{Symbol: 7, CVSFile: 1, SourceRevision: 100},
	})
	l.RecordOpening(7, 5, 0, 1)
	l.CloseSymbolsSourcedAt(100, 1, 0, 9, idx)
	l.Seal()
	got := l.Range(7)
	if len(got) != 2 || got[1].Kind != Closing || got[1].Revnum != 9 {
		t.Fatalf("expected opening then closing, got %+v", got)
	}
}

func TestDefaultBranchOpeningClosesOnTrunkTouch(t *testing.T) {
	l := New()
	l.RecordDefaultBranchOpening(3, 2, 1)
	l.CloseDefaultBranchOpening(1, 6)
	l.Seal()
	got := l.Range(3)
	if len(got) != 2 || got[0].Kind != Opening || got[1].Kind != Closing || got[1].Revnum != 6 {
		t.Fatalf("expected default-branch opening then trunk-touch closing, got %+v", got)
	}
}
