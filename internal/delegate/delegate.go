// Package delegate implements the two mirror.Delegate sinks spec.md §4.6
// and §6 name: a dumpfile writer and a live `svnadmin load` pipe. Both are
// thin adapters that turn mirror tree-operation callbacks into the A10
// dumpformat token stream; the live delegate additionally pipes that
// stream into a running subprocess via A6's procrunner.Sink instead of a
// plain file.
//
// Grounded in the teacher's single SubversionDumper that writes either to
// an *os.File or, for "preview mode", drives the same encoder into a pipe
// feeding `svnadmin load` (go-reposurgeon/goreposurgeon.go's dump command,
// ~20850-20900: "if the target looks like a repository, open a pipe to
// svnadmin load instead of a dump file"). Here that single type is split
// into two small delegates sharing one dumpWriter helper, since
// mirror.Delegate already gives us the seam the teacher's dump() method
// had to improvise with an if/else on the output target.
//
// SPDX-License-Identifier: BSD-2-Clause
package delegate

import (
	"context"
	"fmt"
	"io"

	"gitlab.com/esr/cvs2svn/internal/dumpformat"
	"gitlab.com/esr/cvs2svn/internal/mirror"
	"gitlab.com/esr/cvs2svn/internal/procrunner"
)

// ContentSource resolves a mirror.Entry's SourceFile id to the bytes that
// should populate a file node's Text-content. Reading CVS revision bodies
// is an external collaborator (spec.md §1: "file content retrieval, an
// abstract reader interface"); this pipeline only depends on the
// interface, not on how a concrete implementation reaches into RCS files.
type ContentSource interface {
	Content(sourceFile int) ([]byte, error)
}

// NoContent is a ContentSource that always returns an empty body, useful
// for structural-only runs (tests, dry-run dumpfile previews) where no
// real RCS collector is wired in.
type NoContent struct{}

func (NoContent) Content(int) ([]byte, error) { return nil, nil }

// dumpWriter is the shared core both delegates drive: write A10 revision
// and node records for whatever the mirror reports.
type dumpWriter struct {
	w       *dumpformat.Writer
	content ContentSource
	pending dumpformat.RevisionHeader
}

func newDumpWriter(w io.Writer, content ContentSource) *dumpWriter {
	return &dumpWriter{w: dumpformat.NewWriter(w), content: content}
}

func (d *dumpWriter) StartCommit(revnum int, author, logMsg, date string) error {
	d.pending = dumpformat.RevisionHeader{Revnum: revnum, Author: author, Log: logMsg, Date: date}
	return d.w.WriteRevision(d.pending)
}

func (d *dumpWriter) Mkdir(path string) error {
	return d.w.WriteNode(dumpformat.Node{Path: path, Kind: dumpformat.KindDir, Action: dumpformat.ActionAdd})
}

func (d *dumpWriter) AddPath(path string, entry *mirror.Entry) error {
	return d.writeFile(path, entry, dumpformat.ActionAdd)
}

func (d *dumpWriter) ChangePath(path string, entry *mirror.Entry) error {
	return d.writeFile(path, entry, dumpformat.ActionChange)
}

func (d *dumpWriter) writeFile(path string, entry *mirror.Entry, action dumpformat.NodeAction) error {
	body, err := d.content.Content(entry.SourceFile)
	if err != nil {
		return fmt.Errorf("delegate: fetching content for %s: %w", path, err)
	}
	var props *dumpformat.Props
	if entry.Executable {
		props = dumpformat.NewProps()
		props.Set("svn:executable", "*")
	}
	return d.w.WriteNode(dumpformat.Node{Path: path, Kind: dumpformat.KindFile, Action: action, Props: props, Content: body})
}

func (d *dumpWriter) DeletePath(path string, prune bool) error {
	return d.w.WriteNode(dumpformat.Node{Path: path, Action: dumpformat.ActionDelete})
}

func (d *dumpWriter) CopyPath(srcPath string, srcRevnum int, destPath string, isDir bool) error {
	kind := dumpformat.KindFile
	if isDir {
		kind = dumpformat.KindDir
	}
	return d.w.WriteNode(dumpformat.Node{
		Path: destPath, Kind: kind, Action: dumpformat.ActionAdd,
		CopyFromRev: srcRevnum, CopyFromPath: srcPath,
	})
}

// Dumpfile is the mirror.Delegate that serialises the whole run to a
// standalone dump file (spec §6's "--dumpfile" mode).
type Dumpfile struct {
	dw *dumpWriter
}

// NewDumpfile wires w with a repository UUID header already written.
func NewDumpfile(w io.Writer, uuid string, content ContentSource) (*Dumpfile, error) {
	dw := newDumpWriter(w, content)
	if err := dw.w.WriteHeader(uuid); err != nil {
		return nil, fmt.Errorf("delegate: writing dump header: %w", err)
	}
	return &Dumpfile{dw: dw}, nil
}

func (d *Dumpfile) StartCommit(revnum int, author, logMsg, date string) error {
	return d.dw.StartCommit(revnum, author, logMsg, date)
}
func (d *Dumpfile) Mkdir(path string) error                  { return d.dw.Mkdir(path) }
func (d *Dumpfile) AddPath(path string, e *mirror.Entry) error    { return d.dw.AddPath(path, e) }
func (d *Dumpfile) ChangePath(path string, e *mirror.Entry) error { return d.dw.ChangePath(path, e) }
func (d *Dumpfile) DeletePath(path string, prune bool) error      { return d.dw.DeletePath(path, prune) }
func (d *Dumpfile) CopyPath(src string, rev int, dest string, isDir bool) error {
	return d.dw.CopyPath(src, rev, dest, isDir)
}
func (d *Dumpfile) Finish() {}

// LiveLoad is the mirror.Delegate that pipes the same token stream
// directly into a running `svnadmin load` subprocess (spec §6's
// "--svn-repo-path" mode), via procrunner.Sink so stdin is guaranteed
// closed before the subprocess is waited on.
type LiveLoad struct {
	sink *procrunner.Sink
	dw   *dumpWriter
}

// StartLiveLoad launches `svnadmin load repoPath` and wires its stdin as
// the dump token sink.
func StartLiveLoad(ctx context.Context, repoPath, uuid string, content ContentSource) (*LiveLoad, error) {
	sink, err := procrunner.StartSink(ctx, fmt.Sprintf("svnadmin load %s", repoPath))
	if err != nil {
		return nil, fmt.Errorf("delegate: starting svnadmin load: %w", err)
	}
	dw := newDumpWriter(sink, content)
	if err := dw.w.WriteHeader(uuid); err != nil {
		_ = sink.Close()
		return nil, fmt.Errorf("delegate: writing dump header: %w", err)
	}
	return &LiveLoad{sink: sink, dw: dw}, nil
}

func (l *LiveLoad) StartCommit(revnum int, author, logMsg, date string) error {
	return l.dw.StartCommit(revnum, author, logMsg, date)
}
func (l *LiveLoad) Mkdir(path string) error                  { return l.dw.Mkdir(path) }
func (l *LiveLoad) AddPath(path string, e *mirror.Entry) error    { return l.dw.AddPath(path, e) }
func (l *LiveLoad) ChangePath(path string, e *mirror.Entry) error { return l.dw.ChangePath(path, e) }
func (l *LiveLoad) DeletePath(path string, prune bool) error      { return l.dw.DeletePath(path, prune) }
func (l *LiveLoad) CopyPath(src string, rev int, dest string, isDir bool) error {
	return l.dw.CopyPath(src, rev, dest, isDir)
}

// Finish is a no-op per commit; Close shuts the subprocess down once the
// whole conversion is done.
func (l *LiveLoad) Finish() {}

// Close closes the subprocess's stdin and waits for `svnadmin load` to
// finish committing the stream (spec §5: "stdin must be closed before
// Wait or svnadmin load blocks forever").
func (l *LiveLoad) Close() error {
	return l.sink.Close()
}
