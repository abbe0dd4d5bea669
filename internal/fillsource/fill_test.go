package fillsource

import (
	"testing"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/mirror"
)

func lodPath(lod cvsmodel.LOD) string {
	if lod.IsTrunk {
		return "trunk"
	}
	return "branches/B"
}

func TestFillSimpleCopiesFromBestRevnum(t *testing.T) {
	m := mirror.New("trunk", "branches", "tags")
	start := func(revnum int, fn func()) {
		if err := m.StartCommit(revnum, "esr", "msg", "2020-01-01T00:00:00Z"); err != nil {
			t.Fatalf("StartCommit(%d): %v", revnum, err)
		}
		fn()
		m.EndCommit()
	}
	start(1, func() {
		_ = m.Mkdir("trunk")
		_ = m.Mkdir("branches")
		_ = m.AddPath("trunk/a", &mirror.Entry{})
	})
	start(2, func() { _ = m.AddPath("trunk/b", &mirror.Entry{}) })

	leaves := map[string]Range{
		"a": {Opening: 1, Closing: InfiniteClosing, LOD: cvsmodel.Trunk},
		"b": {Opening: 2, Closing: InfiniteClosing, LOD: cvsmodel.Trunk},
	}
	sources := BuildFillSources(leaves)

	if err := m.StartCommit(3, "esr", "fill B", "2020-01-01T00:00:00Z"); err != nil {
		t.Fatalf("StartCommit: %v", err)
	}
	if err := Fill(m, "branches/B", 3, sources, lodPath, "trunk"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	m.EndCommit()

	if !m.PathExists("branches/B/a") || !m.PathExists("branches/B/b") {
		t.Fatalf("expected both a and b filled into branches/B")
	}
}

func TestFillPrunesEntriesOutsideAnyFillSource(t *testing.T) {
	m := mirror.New("trunk", "branches", "tags")
	start := func(revnum int, fn func()) {
		if err := m.StartCommit(revnum, "esr", "msg", "2020-01-01T00:00:00Z"); err != nil {
			t.Fatalf("StartCommit(%d): %v", revnum, err)
		}
		fn()
		m.EndCommit()
	}
	start(1, func() {
		_ = m.Mkdir("trunk")
		_ = m.Mkdir("branches")
		_ = m.AddPath("trunk/keep", &mirror.Entry{})
		_ = m.AddPath("trunk/drop", &mirror.Entry{})
	})

	// Only "keep" has a fill-source range; "drop" (e.g. added to trunk
	// after the branch point, with no symbol occurrence) must be pruned.
	leaves := map[string]Range{
		"keep": {Opening: 1, Closing: InfiniteClosing, LOD: cvsmodel.Trunk},
	}
	sources := BuildFillSources(leaves)

	if err := m.StartCommit(2, "esr", "fill B", "2020-01-01T00:00:00Z"); err != nil {
		t.Fatalf("StartCommit: %v", err)
	}
	if err := Fill(m, "branches/B", 2, sources, lodPath, "trunk"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	m.EndCommit()

	if !m.PathExists("branches/B/keep") {
		t.Fatalf("expected keep to survive pruning")
	}
	if m.PathExists("branches/B/drop") {
		t.Fatalf("expected drop to be pruned: not in any FillSource")
	}
}

func TestFillEmptyCopiesTrunkThenPrunesAll(t *testing.T) {
	m := mirror.New("trunk", "branches", "tags")
	start := func(revnum int, fn func()) {
		if err := m.StartCommit(revnum, "esr", "msg", "2020-01-01T00:00:00Z"); err != nil {
			t.Fatalf("StartCommit(%d): %v", revnum, err)
		}
		fn()
		m.EndCommit()
	}
	start(1, func() {
		_ = m.Mkdir("trunk")
		_ = m.Mkdir("branches")
		_ = m.AddPath("trunk/only.txt", &mirror.Entry{})
	})

	if err := m.StartCommit(2, "esr", "empty fill", "2020-01-01T00:00:00Z"); err != nil {
		t.Fatalf("StartCommit: %v", err)
	}
	if err := Fill(m, "branches/Empty", 2, map[cvsmodel.LOD]*FillSource{}, lodPath, "trunk"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	m.EndCommit()

	if !m.PathExists("branches/Empty") {
		t.Fatalf("expected the fill target directory itself to exist")
	}
	if m.PathExists("branches/Empty/only.txt") {
		t.Fatalf("expected copied trunk contents to be pruned for an empty fill")
	}
}
