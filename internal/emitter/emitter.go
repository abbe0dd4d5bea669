// Package emitter implements C7, the Commit Emitter (spec.md §4.7):
// iterates the scheduled SVNCommit stream in revnum order and dispatches
// each variant's effect onto the mirror.
//
// Grounded in the teacher's dump() driver (go-reposurgeon/goreposurgeon.go
// ~20780-20900): one big per-commit dispatch loop walking fileops and
// calling the matching mirror-ish primitive (dumpNode/directoryCreate/
// filedelete), generalized here from "iterate git fileops and emit SVN
// dump records" to "iterate CVSRevisions/fill-groups and call the mirror
// package directly" — C7 drives mirror.Mirror rather than writing
// dumpformat records itself, leaving format concerns to dumpformat's
// delegate.
//
// SPDX-License-Identifier: BSD-2-Clause
package emitter

import (
	"fmt"

	"gitlab.com/esr/cvs2svn/internal/convctx"
	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/fillsource"
	"gitlab.com/esr/cvs2svn/internal/mirror"
	"gitlab.com/esr/cvs2svn/internal/persist"
	"gitlab.com/esr/cvs2svn/internal/symbolings"
)

// RevisionLookup resolves a RevisionID to its full record, supplied by
// whatever collected the CVS history.
type RevisionLookup func(cvsmodel.RevisionID) *cvsmodel.CVSRevision

// FileLookup resolves a FileID to its CVSFile record.
type FileLookup func(cvsmodel.FileID) *cvsmodel.CVSFile

// Commit is the scheduled unit C3 hands to the emitter: a changeset tagged
// with its variant and payload (spec §4.7's "Dynamic-typed SVNCommit
// variants... tagged sum type").
type Commit struct {
	Revnum int
	Kind   persist.CommitKind
	Author string
	Log    string
	Date   string

	// Primary / PostCommit payload: the CVSRevisions this commit applies.
	Revisions []cvsmodel.RevisionID
	// SymbolFill payload.
	Symbol     cvsmodel.SymbolID
	TargetPath string
	Sources    map[cvsmodel.LOD]*fillsource.FillSource
	// PostCommit payload: the revnum at which the default-branch file is
	// read when this commit copies it onto trunk (spec §4.7: "Uses the
	// motivating revnum as copy source, not revnum - 1").
	MotivatingRevnum int
}

// Emitter drives the mirror from the scheduled commit stream.
type Emitter struct {
	ctx      *convctx.Context
	mirror   *mirror.Mirror
	revision RevisionLookup
	file     FileLookup
	symlog   *symbolings.Log
	lodPath  fillsource.LODPath
	trunk    string
}

// New builds an Emitter.
func New(ctx *convctx.Context, m *mirror.Mirror, revision RevisionLookup, file FileLookup, symlog *symbolings.Log, lodPath fillsource.LODPath, trunkPath string) *Emitter {
	return &Emitter{ctx: ctx, mirror: m, revision: revision, file: file, symlog: symlog, lodPath: lodPath, trunk: trunkPath}
}

// Emit dispatches one scheduled Commit onto the mirror (spec §4.7's
// dispatch table).
func (e *Emitter) Emit(c Commit) error {
	if err := e.mirror.StartCommit(c.Revnum, c.Author, c.Log, c.Date); err != nil {
		return err
	}
	var err error
	switch c.Kind {
	case persist.InitialProject:
		err = e.emitInitialProject()
	case persist.Primary:
		err = e.emitPrimary(c)
	case persist.SymbolFill:
		err = e.emitSymbolFill(c)
	case persist.PostCommit:
		err = e.emitPostCommit(c)
	default:
		err = fmt.Errorf("emitter: unknown commit kind %v at revnum %d", c.Kind, c.Revnum)
	}
	if err != nil {
		return err
	}
	e.mirror.EndCommit()
	return nil
}

func (e *Emitter) emitInitialProject() error {
	if err := e.mirror.Mkdir(e.trunk); err != nil {
		return err
	}
	if !e.ctx.Opts.TrunkOnly {
		if err := e.mirror.Mkdir(e.ctx.Opts.Branches); err != nil {
			return err
		}
		if err := e.mirror.Mkdir(e.ctx.Opts.Tags); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) svnPath(rev *cvsmodel.CVSRevision) string {
	file := e.file(rev.CVSFile)
	return e.lodRoot(rev.LOD) + "/" + file.SVNPath
}

func (e *Emitter) lodRoot(lod cvsmodel.LOD) string {
	return e.lodPath(lod)
}

// emitPrimary applies each CVSRevision's effect (spec §4.7's Primary row).
func (e *Emitter) emitPrimary(c Commit) error {
	for _, revID := range c.Revisions {
		rev := e.revision(revID)
		path := e.svnPath(rev)
		entry := &mirror.Entry{Executable: e.file(rev.CVSFile).Executable, SourceFile: int(rev.CVSFile)}
		switch rev.Op {
		case cvsmodel.OpAdd:
			if !rev.DeltatextExists && e.mirror.PathExists(path) {
				// Vendor-import identity: the synthetic 1.1.1.1 with no
				// deltatext when the path already exists from an earlier
				// primary commit needs no further action.
				continue
			}
			if err := e.mirror.AddPath(path, entry); err != nil {
				return err
			}
		case cvsmodel.OpChange:
			if !e.mirror.PathExists(path) {
				// First-on-trunk-after-dead-branch: trunk never saw this
				// path yet, so the "change" is really an add.
				if err := e.mirror.AddPath(path, entry); err != nil {
					return err
				}
				continue
			}
			if err := e.mirror.ChangePath(path, entry); err != nil {
				return err
			}
		case cvsmodel.OpDelete:
			if e.mirror.PathExists(path) {
				if err := e.mirror.DeletePath(path, !e.ctx.Opts.NoPrune); err != nil {
					return err
				}
			}
		case cvsmodel.OpNoop:
			// No content effect.
		}
	}
	return nil
}

func (e *Emitter) emitSymbolFill(c Commit) error {
	return fillsource.Fill(e.mirror, c.TargetPath, c.Revnum, c.Sources, e.lodPath, e.trunk)
}

// emitPostCommit replays non-trunk default-branch activity onto trunk
// (spec §4.7's PostCommit row).
func (e *Emitter) emitPostCommit(c Commit) error {
	for _, revID := range c.Revisions {
		rev := e.revision(revID)
		file := e.file(rev.CVSFile)
		trunkPath := e.trunk + "/" + file.SVNPath
		branchPath := e.lodRoot(rev.LOD) + "/" + file.SVNPath
		switch rev.Op {
		case cvsmodel.OpAdd:
			if e.mirror.PathExists(trunkPath) {
				if err := e.mirror.DeletePath(trunkPath, true); err != nil {
					return err
				}
			}
			if err := e.mirror.CopyPath(branchPath, c.MotivatingRevnum, trunkPath); err != nil {
				return err
			}
		case cvsmodel.OpChange:
			if e.mirror.PathExists(trunkPath) {
				if err := e.mirror.DeletePath(trunkPath, true); err != nil {
					return err
				}
			}
			if err := e.mirror.CopyPath(branchPath, c.MotivatingRevnum, trunkPath); err != nil {
				return err
			}
		case cvsmodel.OpDelete:
			if e.mirror.PathExists(trunkPath) {
				if err := e.mirror.DeletePath(trunkPath, true); err != nil {
					return err
				}
			}
		case cvsmodel.OpNoop:
		}
	}
	return nil
}
