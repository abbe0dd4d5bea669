package emitter

import (
	"testing"

	"gitlab.com/esr/cvs2svn/internal/baton"
	"gitlab.com/esr/cvs2svn/internal/convctx"
	"gitlab.com/esr/cvs2svn/internal/convlog"
	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/fillsource"
	"gitlab.com/esr/cvs2svn/internal/mirror"
	"gitlab.com/esr/cvs2svn/internal/persist"
	"gitlab.com/esr/cvs2svn/internal/symbolings"
)

func newTestContext() *convctx.Context {
	log := convlog.New(nil, 0)
	return convctx.New(convctx.DefaultOptions(), log, baton.NewForTest(nil))
}

func lodRoot(lod cvsmodel.LOD) string {
	if lod.IsTrunk {
		return "trunk"
	}
	return "branches/B"
}

func TestEmitInitialProjectCreatesRoots(t *testing.T) {
	ctx := newTestContext()
	m := mirror.New("trunk", "branches", "tags")
	e := New(ctx, m, nil, nil, symbolings.New(), lodRoot, "trunk")
	if err := e.Emit(Commit{Revnum: 1, Kind: persist.InitialProject, Author: "esr", Log: "init", Date: "2020-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.PathExists("trunk") || !m.PathExists("branches") || !m.PathExists("tags") {
		t.Fatalf("expected all three project roots to exist")
	}
}

func TestEmitPrimaryAddThenChange(t *testing.T) {
	ctx := newTestContext()
	m := mirror.New("trunk", "branches", "tags")
	files := map[cvsmodel.FileID]*cvsmodel.CVSFile{1: {ID: 1, SVNPath: "a.txt"}}
	revisions := map[cvsmodel.RevisionID]*cvsmodel.CVSRevision{
		10: {ID: 10, CVSFile: 1, Op: cvsmodel.OpAdd, LOD: cvsmodel.Trunk, DeltatextExists: true},
		11: {ID: 11, CVSFile: 1, Op: cvsmodel.OpChange, LOD: cvsmodel.Trunk},
	}
	e := New(ctx, m, func(id cvsmodel.RevisionID) *cvsmodel.CVSRevision { return revisions[id] },
		func(id cvsmodel.FileID) *cvsmodel.CVSFile { return files[id] }, symbolings.New(), lodRoot, "trunk")

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	must(e.Emit(Commit{Revnum: 1, Kind: persist.InitialProject, Author: "esr", Log: "init", Date: "2020-01-01T00:00:00Z"}))
	must(e.Emit(Commit{Revnum: 2, Kind: persist.Primary, Author: "esr", Log: "add", Date: "2020-01-01T00:00:00Z", Revisions: []cvsmodel.RevisionID{10}}))
	if !m.PathExists("trunk/a.txt") {
		t.Fatalf("expected trunk/a.txt after add")
	}
	must(e.Emit(Commit{Revnum: 3, Kind: persist.Primary, Author: "esr", Log: "change", Date: "2020-01-01T00:00:00Z", Revisions: []cvsmodel.RevisionID{11}}))
	if !m.PathExists("trunk/a.txt") {
		t.Fatalf("expected trunk/a.txt to still exist after change")
	}
}

func TestEmitPrimaryDeleteIsNoOpWhenMissing(t *testing.T) {
	ctx := newTestContext()
	m := mirror.New("trunk", "branches", "tags")
	files := map[cvsmodel.FileID]*cvsmodel.CVSFile{1: {ID: 1, SVNPath: "a.txt"}}
	revisions := map[cvsmodel.RevisionID]*cvsmodel.CVSRevision{
		10: {ID: 10, CVSFile: 1, Op: cvsmodel.OpDelete, LOD: cvsmodel.Trunk},
	}
	e := New(ctx, m, func(id cvsmodel.RevisionID) *cvsmodel.CVSRevision { return revisions[id] },
		func(id cvsmodel.FileID) *cvsmodel.CVSFile { return files[id] }, symbolings.New(), lodRoot, "trunk")

	if err := e.Emit(Commit{Revnum: 1, Kind: persist.InitialProject, Author: "esr", Log: "init", Date: "2020-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Emit(Commit{Revnum: 2, Kind: persist.Primary, Author: "esr", Log: "delete", Date: "2020-01-01T00:00:00Z", Revisions: []cvsmodel.RevisionID{10}}); err != nil {
		t.Fatalf("expected no-op delete, got error: %v", err)
	}
}

func TestEmitSymbolFillDelegatesToFillSource(t *testing.T) {
	ctx := newTestContext()
	m := mirror.New("trunk", "branches", "tags")
	e := New(ctx, m, nil, nil, symbolings.New(), lodRoot, "trunk")

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	must(e.Emit(Commit{Revnum: 1, Kind: persist.InitialProject, Author: "esr", Log: "init", Date: "2020-01-01T00:00:00Z"}))
	if err := m.StartCommit(2, "esr", "seed", "2020-01-01T00:00:00Z"); err != nil {
		t.Fatalf("StartCommit: %v", err)
	}
	must(m.AddPath("trunk/a", &mirror.Entry{}))
	m.EndCommit()

	sources := fillsource.BuildFillSources(map[string]fillsource.Range{
		"a": {Opening: 2, Closing: fillsource.InfiniteClosing, LOD: cvsmodel.Trunk},
	})
	must(e.Emit(Commit{
		Revnum: 3, Kind: persist.SymbolFill, Author: "esr", Log: "fill", Date: "2020-01-01T00:00:00Z",
		TargetPath: "branches/B", Sources: sources,
	}))
	if !m.PathExists("branches/B/a") {
		t.Fatalf("expected branches/B/a after symbol fill")
	}
}
