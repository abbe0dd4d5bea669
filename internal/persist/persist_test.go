package persist

import "testing"

func TestRevisionMapBindAndLookup(t *testing.T) {
	m := NewRevisionMap()
	if err := m.Bind(5, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revnum, ok := m.Revnum(5); !ok || revnum != 100 {
		t.Fatalf("expected revnum 100, got %d, %v", revnum, ok)
	}
	if rev, ok := m.Revision(100); !ok || rev != 5 {
		t.Fatalf("expected revision 5, got %d, %v", rev, ok)
	}
	if err := m.Bind(5, 100); err != nil {
		t.Fatalf("rebinding to the same revnum should be a no-op: %v", err)
	}
	if err := m.Bind(5, 101); err == nil {
		t.Fatalf("expected error rebinding revision 5 to a different revnum")
	}
}

func TestFillIndexLastFilledAndFilledSince(t *testing.T) {
	idx := NewFillIndex()
	idx.RecordFill(3, 10)
	idx.RecordFill(3, 20)
	idx.RecordFill(3, 35)

	if last, ok := idx.LastFilled(3); !ok || last != 35 {
		t.Fatalf("expected last fill 35, got %d, %v", last, ok)
	}
	if _, ok := idx.LastFilled(99); ok {
		t.Fatalf("expected no fill history for unknown symbol")
	}
	if !idx.FilledSince(3, 15) {
		t.Fatalf("expected a fill at or after revnum 15")
	}
	if idx.FilledSince(3, 36) {
		t.Fatalf("expected no fill at or after revnum 36")
	}
}

func TestCommitStorePutGet(t *testing.T) {
	s := NewCommitStore()
	s.Put(&SVNCommit{Revnum: 7, Kind: Primary})
	c, ok := s.Get(7)
	if !ok || c.Kind != Primary {
		t.Fatalf("expected stored commit at revnum 7")
	}
	if _, ok := s.Get(8); ok {
		t.Fatalf("expected no commit at revnum 8")
	}
}
