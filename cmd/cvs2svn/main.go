// cvs2svn is the batch command-line entry point (spec.md §6, A11): parse
// flags, collect a CVS repository's history, run it through C1–C8, and
// write the result as an SVN dumpfile or load it live via `svnadmin load`.
//
// Grounded in the teacher's simple flag-driven batch main()
// (mapper/repomapper.go: flag.StringVar/flag.BoolVar, flag.Parse(),
// "flag.NArg() == 0" usage check, iterate positional args) rather than the
// teacher's other, REPL-oriented main() (surgeon/reposurgeon.go, built on
// kommandant.Kommandant and an interactive command loop): this is a
// single-shot converter, not an interactive surgery tool, so the simpler
// shape is the right fit.
//
// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"gitlab.com/esr/cvs2svn/internal/artifact"
	"gitlab.com/esr/cvs2svn/internal/baton"
	"gitlab.com/esr/cvs2svn/internal/changeset"
	"gitlab.com/esr/cvs2svn/internal/cliopts"
	"gitlab.com/esr/cvs2svn/internal/convctx"
	"gitlab.com/esr/cvs2svn/internal/convlog"
	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/delegate"
	"gitlab.com/esr/cvs2svn/internal/emitter"
	"gitlab.com/esr/cvs2svn/internal/fillsource"
	"gitlab.com/esr/cvs2svn/internal/mirror"
	"gitlab.com/esr/cvs2svn/internal/persist"
	"gitlab.com/esr/cvs2svn/internal/symbolings"
	"gitlab.com/esr/cvs2svn/internal/symstrategy"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "cvs2svn: %s\n", err)
		os.Exit(1)
	}
}

// Collected is the full in-memory model a CVS history collector must
// deliver before conversion can start (spec.md §1: "Out of scope
// (external collaborators): the RCS-file lexer/parser, assumed to deliver
// parsed per-file revision records").
type Collected struct {
	Files     []*cvsmodel.CVSFile
	Revisions []*cvsmodel.CVSRevision
	Symbols   []*cvsmodel.Symbol
	Occurs    []cvsmodel.CVSSymbol
}

// Collector gathers a Collected model from a CVS repository root and
// optional module name.
type Collector interface {
	Collect(cvsRoot, module string) (Collected, error)
}

// historyCollector is the seam an RCS-parsing collaborator plugs into.
// None is bundled with this pipeline (spec.md's stated Non-goal); running
// cvs2svn as shipped reports a clear error rather than silently converting
// nothing.
var historyCollector Collector = unwiredCollector{}

type unwiredCollector struct{}

func (unwiredCollector) Collect(cvsRoot, module string) (Collected, error) {
	return Collected{}, fmt.Errorf(
		"no RCS history collector is wired into this build (cvsRoot=%q module=%q); "+
			"cvs2svn expects an external collector to populate the CVS data model before conversion starts",
		cvsRoot, module)
}

func run(argv []string) error {
	opts, args, err := cliopts.Parse(argv)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: cvs2svn [flags] CVS-REPOSITORY-ROOT [MODULE]")
	}
	cvsRoot := args[0]
	module := ""
	if len(args) > 1 {
		module = args[1]
	}
	if opts.Dumpfile == "" && opts.SVNRepoPath == "" {
		return fmt.Errorf("one of --dumpfile or --svn-repo-path is required")
	}

	logger := convlog.New(os.Stderr, 0)
	var bat *baton.Baton
	if opts.Quiet {
		bat = baton.NewForTest(io.Discard)
	} else {
		bat = baton.New()
	}
	ctx := convctx.New(opts, logger, bat)
	if err := ctx.ValidateLayout(); err != nil {
		return err
	}

	area, err := artifact.New(opts.TmpDir)
	if err != nil {
		return err
	}

	bat.StartProcess("Collecting CVS history")
	collected, err := historyCollector.Collect(cvsRoot, module)
	bat.EndProcess()
	if err != nil {
		_ = area.Close(true)
		return err
	}

	convErr := convert(ctx, collected)
	keep := convErr != nil || ctx.Abort()
	if closeErr := area.Close(keep); closeErr != nil {
		logger.Warn("scratch area %s could not be removed: %s", area.Root, closeErr)
	}
	return convErr
}

// planned is one final, revnum-assigned unit of work the emitter will
// dispatch, built ahead of any mirror mutation so C4's symbolings log can
// be fully assembled before C7 starts consuming it (spec §4.8's
// write-then-read separation).
type planned struct {
	cs               *changeset.Changeset // nil for a synthetic PostCommit
	kind             persist.CommitKind
	revnum           int
	date             string
	motivatingRevnum int
	postRevisions    []cvsmodel.RevisionID // PostCommit payload only
}

func convert(ctx *convctx.Context, col Collected) error {
	files := persist.NewFileStore()
	for _, f := range col.Files {
		files.Put(f)
	}
	svnPathOf := func(id cvsmodel.FileID) (string, bool) {
		f, ok := files.Get(id)
		if !ok {
			return "", false
		}
		return f.SVNPath, true
	}
	fileLookup := func(id cvsmodel.FileID) *cvsmodel.CVSFile {
		f, _ := files.Get(id)
		return f
	}

	symbolsByID := make(map[cvsmodel.SymbolID]*cvsmodel.Symbol, len(col.Symbols))
	for _, s := range col.Symbols {
		symbolsByID[s.ID] = s
	}
	symbolName := func(id cvsmodel.SymbolID) string {
		if s, ok := symbolsByID[id]; ok {
			return s.Name
		}
		return fmt.Sprintf("symbol-%d", id)
	}

	revisions := make(map[cvsmodel.RevisionID]*cvsmodel.CVSRevision, len(col.Revisions))
	for _, r := range col.Revisions {
		revisions[r.ID] = r
	}
	revisionLookup := func(id cvsmodel.RevisionID) *cvsmodel.CVSRevision { return revisions[id] }

	plan, err := classifySymbols(ctx, col, symbolName)
	if err != nil {
		return err
	}

	ordered := scheduleChangesets(ctx, col, plan, revisionLookup)

	plannedCommits := planCommits(ordered, revisions)

	revmap := persist.NewRevisionMap()
	for _, p := range plannedCommits {
		if p.kind != persist.Primary {
			continue
		}
		for _, itemID := range p.cs.Items.Sorted() {
			if err := revmap.Bind(cvsmodel.RevisionID(itemID), p.revnum); err != nil {
				return err
			}
		}
	}
	revnumOf := func(id cvsmodel.RevisionID) (int, bool) { return revmap.Revnum(id) }

	symIdx := symbolings.NewSourceIndex(col.Occurs)
	symlog := symbolings.New()
	symlog.AssembleFromRevisions(col.Revisions, symIdx, revnumOf)
	symlog.Seal()

	lodPath := buildLODPath(ctx.Opts, symbolName)

	m := mirror.New(ctx.Opts.Trunk, ctx.Opts.Branches, ctx.Opts.Tags)
	repoUUID, err := uuid.NewUUID()
	if err != nil {
		return fmt.Errorf("generating repository uuid: %w", err)
	}
	closeDelegate, err := wireDelegate(ctx, m, repoUUID.String())
	if err != nil {
		return err
	}
	defer closeDelegate()

	e := emitter.New(ctx, m, revisionLookup, fileLookup, symlog, lodPath, ctx.Opts.Trunk)

	commits := persist.NewCommitStore()
	fills := persist.NewFillIndex()

	bat := ctx.Baton
	bat.StartProcess("Emitting SVN revisions")
	bat.StartProgress("revisions", uint64(len(plannedCommits)+1))

	initDate := formatDate(earliestTimestamp(col.Revisions) - 1)
	if err := e.Emit(emitter.Commit{
		Revnum: 1, Kind: persist.InitialProject, Author: "cvs2svn",
		Log: "Standard project directories initialized by cvs2svn.", Date: initDate,
	}); err != nil {
		return err
	}
	commits.Put(&persist.SVNCommit{Revnum: 1, Kind: persist.InitialProject})
	bat.Bump()

	for _, p := range plannedCommits {
		commit, err := buildEmitterCommit(ctx, p, symbolName, symlog, svnPathOf)
		if err != nil {
			return err
		}
		if err := e.Emit(commit); err != nil {
			return fmt.Errorf("emitting revnum %d: %w", p.revnum, err)
		}
		record := &persist.SVNCommit{Revnum: p.revnum, Kind: p.kind}
		if p.kind == persist.SymbolFill {
			record.Symbol = p.cs.Symbol
			fills.RecordFill(p.cs.Symbol, p.revnum)
		}
		commits.Put(record)
		bat.Bump()
	}
	bat.EndProgress()
	bat.EndProcess()
	return nil
}

func classifySymbols(ctx *convctx.Context, col Collected, symbolName func(cvsmodel.SymbolID) string) (symstrategy.Plan, error) {
	stats := symstrategy.NewCollector()
	for _, occ := range col.Occurs {
		name := symbolName(occ.Symbol)
		if occ.IsBranch {
			stats.NoteBranch(occ.Symbol, name)
		} else {
			stats.NoteTag(occ.Symbol, name)
		}
	}
	for _, rev := range col.Revisions {
		if rev.LOD.IsTrunk {
			continue
		}
		name := symbolName(rev.LOD.BranchID)
		if rev.Op != cvsmodel.OpNoop {
			stats.NoteCommit(rev.LOD.BranchID, name)
		}
		for _, child := range rev.BranchIDs {
			stats.NoteBlocker(rev.LOD.BranchID, child, name)
		}
	}
	plan := symstrategy.BuildPlan(stats, ctx.Opts)
	if !symstrategy.Report(ctx, plan) {
		return plan, fmt.Errorf("aborting: symbol consistency violations found")
	}
	return plan, nil
}

func scheduleChangesets(ctx *convctx.Context, col Collected, plan symstrategy.Plan, revisionLookup changeset.RevisionLookup) []*changeset.Changeset {
	sorted := append([]*cvsmodel.CVSRevision(nil), col.Revisions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	thresholdSeconds := int64(ctx.Opts.CommitThreshold / time.Second)
	builder := changeset.NewBuilder(thresholdSeconds, revisionLookup)
	for _, rev := range sorted {
		builder.AddRevision(rev)
	}
	builder.Flush()

	var nextID changeset.ID
	for _, cs := range builder.Graph().Nodes() {
		if cs.ID > nextID {
			nextID = cs.ID
		}
	}
	changeset.BuildSymbolChangesets(
		col.Occurs,
		func(id cvsmodel.SymbolID) cvsmodel.SymbolKind { return plan.Classification[id] },
		func(id cvsmodel.RevisionID) int64 { return revisionLookup(id).Timestamp },
		builder.Owner,
		builder.Graph(),
		&nextID,
	)

	return changeset.Schedule(builder.Graph(), &nextID, func(itemID int) int64 {
		return revisionLookup(cvsmodel.RevisionID(itemID)).Timestamp
	})
}

// planCommits assigns the final, gap-free revnum sequence: every scheduled
// changeset gets the next revnum in order, and a Primary changeset
// carrying default-branch revisions is immediately followed by a
// synthetic PostCommit replaying those revisions onto trunk (spec §4.7's
// PostCommit row). The Scheduler's own Changeset.Revnum only fixes
// relative order among Revision/Symbol changesets; PostCommit isn't a
// graph node, so its slot has to be inserted here, after which point
// every following changeset's *real* revnum runs one higher than its
// nominal schedule position.
func planCommits(ordered []*changeset.Changeset, revisions map[cvsmodel.RevisionID]*cvsmodel.CVSRevision) []planned {
	var out []planned
	revnum := 2
	for _, cs := range ordered {
		kind := persist.Primary
		if cs.Kind == changeset.KindBranch || cs.Kind == changeset.KindTag {
			kind = persist.SymbolFill
		}
		date := formatDate(cs.TMax)
		out = append(out, planned{cs: cs, kind: kind, revnum: revnum, date: date})
		motivating := revnum
		revnum++

		if kind != persist.Primary {
			continue
		}
		var defaultBranchRevs []cvsmodel.RevisionID
		for _, itemID := range cs.Items.Sorted() {
			rev := revisions[cvsmodel.RevisionID(itemID)]
			if rev != nil && rev.DefaultBranchRevision {
				defaultBranchRevs = append(defaultBranchRevs, rev.ID)
			}
		}
		if len(defaultBranchRevs) > 0 {
			out = append(out, planned{
				kind: persist.PostCommit, revnum: revnum, date: date,
				motivatingRevnum: motivating, postRevisions: defaultBranchRevs,
			})
			revnum++
		}
	}
	return out
}

func buildEmitterCommit(ctx *convctx.Context, p planned, symbolName func(cvsmodel.SymbolID) string, symlog *symbolings.Log, svnPathOf symbolings.SVNPathOf) (emitter.Commit, error) {
	switch p.kind {
	case persist.Primary:
		meta := ctx.Intern.Metadata(p.cs.MetadataID)
		revisionIDs := make([]cvsmodel.RevisionID, 0, p.cs.Items.Len())
		for _, id := range p.cs.Items.Sorted() {
			revisionIDs = append(revisionIDs, cvsmodel.RevisionID(id))
		}
		return emitter.Commit{
			Revnum: p.revnum, Kind: persist.Primary,
			Author: meta.Author, Log: meta.Log, Date: p.date,
			Revisions: revisionIDs,
		}, nil

	case persist.SymbolFill:
		isTag := p.cs.Kind == changeset.KindTag
		target := symbolTargetPath(ctx.Opts, symbolName(p.cs.Symbol), isTag)
		sources := fillsource.BuildFillSources(symlog.BuildLeaves(p.cs.Symbol, svnPathOf))
		kindWord := "branch"
		if isTag {
			kindWord = "tag"
		}
		return emitter.Commit{
			Revnum: p.revnum, Kind: persist.SymbolFill,
			Author: "cvs2svn",
			Log:    fmt.Sprintf("This commit was manufactured by cvs2svn to create %s '%s'.", kindWord, symbolName(p.cs.Symbol)),
			Date:   p.date, Symbol: p.cs.Symbol, TargetPath: target, Sources: sources,
		}, nil

	case persist.PostCommit:
		return emitter.Commit{
			Revnum: p.revnum, Kind: persist.PostCommit,
			Author: "cvs2svn", Log: "Default-branch content replayed onto trunk by cvs2svn.", Date: p.date,
			Revisions: p.postRevisions, MotivatingRevnum: p.motivatingRevnum,
		}, nil
	}
	return emitter.Commit{}, fmt.Errorf("planCommits produced an unknown commit kind %v", p.kind)
}

func buildLODPath(opts convctx.Options, symbolName func(cvsmodel.SymbolID) string) fillsource.LODPath {
	return func(lod cvsmodel.LOD) string {
		if lod.IsTrunk {
			return opts.Trunk
		}
		return opts.Branches + "/" + symbolName(lod.BranchID)
	}
}

func symbolTargetPath(opts convctx.Options, name string, isTag bool) string {
	if isTag {
		return opts.Tags + "/" + name
	}
	return opts.Branches + "/" + name
}

func earliestTimestamp(revisions []*cvsmodel.CVSRevision) int64 {
	var min int64
	first := true
	for _, r := range revisions {
		if first || r.Timestamp < min {
			min = r.Timestamp
			first = false
		}
	}
	return min
}

func formatDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02T15:04:05.000000Z")
}

func wireDelegate(ctx *convctx.Context, m *mirror.Mirror, repoUUID string) (func(), error) {
	content := delegate.NoContent{}
	switch {
	case ctx.Opts.Dumpfile != "":
		f, err := os.Create(ctx.Opts.Dumpfile)
		if err != nil {
			return nil, fmt.Errorf("creating dumpfile %s: %w", ctx.Opts.Dumpfile, err)
		}
		d, err := delegate.NewDumpfile(f, repoUUID, content)
		if err != nil {
			f.Close()
			return nil, err
		}
		m.AddDelegate(d)
		return func() { f.Close() }, nil

	case ctx.Opts.SVNRepoPath != "":
		live, err := delegate.StartLiveLoad(context.Background(), ctx.Opts.SVNRepoPath, repoUUID, content)
		if err != nil {
			return nil, err
		}
		m.AddDelegate(live)
		return func() {
			if err := live.Close(); err != nil {
				ctx.Log.Warn("svnadmin load: %s", err)
			}
		}, nil
	}
	return nil, fmt.Errorf("one of --dumpfile or --svn-repo-path is required")
}
