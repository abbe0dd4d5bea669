// Package mirror implements C6, the SVN Repository Mirror (spec.md §4.6):
// a skeletal versioned directory tree that tracks path existence per
// revision without file contents, validates path operations, and drives
// emission to delegate sinks (dumpfile writer, live loader).
//
// Directly generalized from reposurgeon's PathMap (surgeon/pathmap.go),
// which is itself "a mapping from a set of filenames visible in a
// Subversion revision to some kind of value object" with copy-on-write
// snapshot sharing. The teacher's PathMap.blobs held `interface{}`; here
// the value type is the concrete Entry this pipeline needs (executable
// bit, source file id), and the per-revision root history
// (PathMap itself has no notion of "the tree as of revision N") is added
// as the `revs` store spec §4.6 calls for. The _markShared/snapshot/
// _unshare/copyFrom mechanics are carried over in shape, renamed to match
// this package's vocabulary.
//
// SPDX-License-Identifier: BSD-2-Clause
package mirror

import (
	"fmt"
	"sort"
	"strings"
)

// EntryKind distinguishes a file leaf from a directory node.
type EntryKind int

const (
	// KindFile is a leaf entry (no content is tracked, per spec §4.6).
	KindFile EntryKind = iota
	// KindDir is an internal directory node.
	KindDir
)

// Entry is the value a mirror path maps to: either a file leaf carrying
// bookkeeping about its CVS origin, or implicitly a directory (directories
// have no Entry of their own; they are represented by the presence of a
// node with children).
type Entry struct {
	Executable bool
	SourceFile int // CVSFile id this leaf was populated from, 0 if unknown
}

// node is one directory level of the mirror tree: a copy-on-write map from
// component name to either a child node (subdirectory) or a leaf Entry.
// Mirrors PathMap's dirs/blobs split (surgeon/pathmap.go).
type node struct {
	dirs   map[string]*node
	blobs  map[string]*Entry
	shared bool
}

func newNode() *node {
	return &node{dirs: make(map[string]*node), blobs: make(map[string]*Entry)}
}

func (n *node) markShared() {
	if n.shared {
		return
	}
	n.shared = true
	for _, child := range n.dirs {
		child.markShared()
	}
}

func (n *node) snapshot() *node {
	r := newNode()
	for k, v := range n.dirs {
		r.dirs[k] = v
		v.markShared()
	}
	for k, v := range n.blobs {
		r.blobs[k] = v
	}
	return r
}

func (n *node) unshare() *node {
	if n.shared {
		return n.snapshot()
	}
	return n
}

func (n *node) isEmpty() bool {
	return len(n.dirs) == 0 && len(n.blobs) == 0
}

// PathAlreadyExistsError is raised by AddPath/CopyPath when the
// destination is already occupied (spec §4.6: "add_path / copy_path into
// an existing path is always a bug — raise, do not silently overwrite").
type PathAlreadyExistsError struct{ Path string }

func (e *PathAlreadyExistsError) Error() string {
	return fmt.Sprintf("path already exists: %s", e.Path)
}

// PathMissingError is raised when an operation requires a path that does
// not exist (e.g. change_path's "fails if absent", copy_path's "dest's
// parent must exist").
type PathMissingError struct{ Path string }

func (e *PathMissingError) Error() string {
	return fmt.Sprintf("path does not exist: %s", e.Path)
}

// NotADirectoryError is raised by Mkdir when a path component already
// exists as a file (spec §4.6: "Fails if path exists as a file").
type NotADirectoryError struct{ Path string }

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("path exists as a file, not a directory: %s", e.Path)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// unremovable names roots that pruning must never delete (spec §4.6:
// "The roots trunk, branches, tags are never removed, even via pruning").
type Mirror struct {
	revs       map[int]*node // revnum -> root (immutable once the revision ends)
	youngest   int
	inProgress *node // writable shadow of the root for the in-progress revision; nil if unset ("same as previous")
	unremovable map[string]bool

	delegates []Delegate
}

// New returns an empty Mirror whose top-level project roots (as named by
// the given trunk/branches/tags path components) are protected from
// pruning.
func New(trunk, branches, tags string) *Mirror {
	return &Mirror{
		revs:        make(map[int]*node),
		unremovable: map[string]bool{trunk: true, branches: true, tags: true},
	}
}

// AddDelegate registers a sink to be notified of path operations, in
// registration order (spec §4.6: "The mirror invokes, in registration
// order, ... each delegate").
func (m *Mirror) AddDelegate(d Delegate) {
	m.delegates = append(m.delegates, d)
}

func (m *Mirror) rootAt(revnum int) *node {
	return m.revs[revnum]
}

// currentRoot returns the effective root of the in-progress revision:
// the writable shadow if one exists, else the previous revision's root.
func (m *Mirror) currentRoot() *node {
	if m.inProgress != nil {
		return m.inProgress
	}
	return m.rootAt(m.youngest)
}

// PathExists performs a readonly traversal at youngest (spec §4.6).
func (m *Mirror) PathExists(path string) bool {
	return m.pathExistsAt(m.currentRoot(), path)
}

func (m *Mirror) pathExistsAt(root *node, path string) bool {
	if root == nil {
		return false
	}
	parts := splitPath(path)
	cur := root
	for i, part := range parts {
		if leaf, ok := cur.blobs[part]; ok {
			_ = leaf
			return i == len(parts)-1
		}
		child, ok := cur.dirs[part]
		if !ok {
			return false
		}
		cur = child
	}
	return true
}

// PathExistsAt checks existence against the immutable tree of a past
// revision, for replay-determinism tests (spec §8: "path_exists(P, r)
// returns the same answer regardless of how the mirror was reached").
func (m *Mirror) PathExistsAt(path string, revnum int) bool {
	return m.pathExistsAt(m.rootAt(revnum), path)
}

func (m *Mirror) writableRoot() *node {
	if m.inProgress == nil {
		prev := m.rootAt(m.youngest)
		if prev == nil {
			m.inProgress = newNode()
		} else {
			m.inProgress = prev.snapshot()
		}
	}
	return m.inProgress
}

// createTree ensures the directory hierarchy for path (a slice of
// components) exists under root, unsharing as it descends (PathMap's
// _createTree, surgeon/pathmap.go).
func createTree(root *node, path []string) (*node, error) {
	tree := root
	for _, component := range path {
		if _, isFile := tree.blobs[component]; isFile {
			return nil, &NotADirectoryError{Path: component}
		}
		child, ok := tree.dirs[component]
		if ok {
			child = child.unshare()
		} else {
			child = newNode()
		}
		tree.dirs[component] = child
		tree = child
	}
	return tree, nil
}

// Mkdir creates path's directory components, creating missing ones. Fails
// if path exists as a file (spec §4.6).
func (m *Mirror) Mkdir(path string) error {
	root := m.writableRoot()
	_, err := createTree(root, splitPath(path))
	if err != nil {
		return err
	}
	m.notify(func(d Delegate) error { return d.Mkdir(path) })
	return nil
}

func dirAndName(path string) ([]string, string) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, ""
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// AddPath creates a leaf at path with the given entry. Fails with
// PathAlreadyExistsError if path is already occupied (spec §4.6).
func (m *Mirror) AddPath(path string, entry *Entry) error {
	if m.PathExists(path) {
		return &PathAlreadyExistsError{Path: path}
	}
	root := m.writableRoot()
	dir, name := dirAndName(path)
	parent, err := createTree(root, dir)
	if err != nil {
		return err
	}
	parent.blobs[name] = entry
	m.notify(func(d Delegate) error { return d.AddPath(path, entry) })
	return nil
}

// ChangePath records a content change at path with no structural change to
// the tree. Fails if path is absent (spec §4.6).
func (m *Mirror) ChangePath(path string, entry *Entry) error {
	if !m.PathExists(path) {
		return &PathMissingError{Path: path}
	}
	root := m.writableRoot()
	dir, name := dirAndName(path)
	parent, err := createTree(root, dir)
	if err != nil {
		return err
	}
	parent.blobs[name] = entry
	m.notify(func(d Delegate) error { return d.ChangePath(path, entry) })
	return nil
}

// DeletePath removes path from its parent. If prune is set and the parent
// becomes empty and isn't an unremovable project root, the parent is
// recursively deleted too (spec §4.6, §8: "Delete of a path that does not
// exist in the mirror is a no-op").
func (m *Mirror) DeletePath(path string, prune bool) error {
	if !m.PathExists(path) {
		return nil
	}
	root := m.writableRoot()
	m.deleteRec(root, splitPath(path), prune)
	m.notify(func(d Delegate) error { return d.DeletePath(path, prune) })
	return nil
}

func (m *Mirror) deleteRec(root *node, parts []string, prune bool) {
	if len(parts) == 1 {
		delete(root.dirs, parts[0])
		delete(root.blobs, parts[0])
		return
	}
	child, ok := root.dirs[parts[0]]
	if !ok {
		return
	}
	child = child.unshare()
	root.dirs[parts[0]] = child
	m.deleteRec(child, parts[1:], prune)
	if prune && child.isEmpty() && !m.unremovable[parts[0]] {
		delete(root.dirs, parts[0])
	}
}

// CopyPath shares srcPath's node (or leaf) from revision srcRevnum at
// destPath in the in-progress revision. destPath's parent must exist;
// destPath must not exist (spec §4.6).
func (m *Mirror) CopyPath(srcPath string, srcRevnum int, destPath string) error {
	srcRoot := m.rootAt(srcRevnum)
	if srcRoot == nil {
		return &PathMissingError{Path: srcPath}
	}
	if m.PathExists(destPath) {
		return &PathAlreadyExistsError{Path: destPath}
	}
	destDir, destName := dirAndName(destPath)
	root := m.writableRoot()
	parent, err := createTreeExisting(root, destDir)
	if err != nil {
		return err
	}

	srcDir, srcName := dirAndName(srcPath)
	srcParent := srcRoot
	for _, comp := range srcDir {
		child, ok := srcParent.dirs[comp]
		if !ok {
			return &PathMissingError{Path: srcPath}
		}
		srcParent = child
	}
	var isDir bool
	if leaf, ok := srcParent.blobs[srcName]; ok {
		parent.blobs[destName] = leaf
	} else if child, ok := srcParent.dirs[srcName]; ok {
		child.markShared()
		parent.dirs[destName] = child
		isDir = true
	} else {
		return &PathMissingError{Path: srcPath}
	}

	m.notify(func(d Delegate) error { return d.CopyPath(srcPath, srcRevnum, destPath, isDir) })
	return nil
}

// createTreeExisting requires every path component to already exist as a
// directory (spec §4.6: "dest's parent must exist"), unsharing as it goes.
func createTreeExisting(root *node, path []string) (*node, error) {
	tree := root
	for _, component := range path {
		child, ok := tree.dirs[component]
		if !ok {
			return nil, &PathMissingError{Path: component}
		}
		child = child.unshare()
		tree.dirs[component] = child
		tree = child
	}
	return tree, nil
}

// StartCommit brackets a new SVN revision (spec §4.6).
func (m *Mirror) StartCommit(revnum int, author, logMsg string, date string) error {
	if revnum != m.youngest+1 {
		return fmt.Errorf("mirror: start_commit(%d) out of order, youngest is %d", revnum, m.youngest)
	}
	m.notify(func(d Delegate) error { return d.StartCommit(revnum, author, logMsg, date) })
	return nil
}

// EndCommit finalises the in-progress revision: if nothing was touched, the
// previous root is linked unchanged; otherwise the shadow root is
// materialised and persisted (spec §4.6).
func (m *Mirror) EndCommit() {
	m.youngest++
	if m.inProgress != nil {
		m.revs[m.youngest] = m.inProgress
		m.inProgress = nil
	} else {
		m.revs[m.youngest] = m.rootAt(m.youngest - 1)
	}
	m.notify(func(d Delegate) error { d.Finish(); return nil })
}

// Youngest returns the highest committed revnum.
func (m *Mirror) Youngest() int { return m.youngest }

func (m *Mirror) notify(op func(Delegate) error) {
	for _, d := range m.delegates {
		_ = op(d) // delegates are side-effecting I/O only; the mirror does not await their result (spec §4.6)
	}
}

// Paths returns every file path present at revnum, sorted, for tests and
// diagnostics.
func (m *Mirror) Paths(revnum int) []string {
	return walkPaths(m.rootAt(revnum))
}

// CurrentPaths returns every file path present in the in-progress revision
// (or, between commits, the youngest committed one) — used by delegates
// and callers such as fillsource that must see not-yet-committed state.
func (m *Mirror) CurrentPaths() []string {
	return walkPaths(m.currentRoot())
}

func walkPaths(root *node) []string {
	if root == nil {
		return nil
	}
	var out []string
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		for name, child := range n.dirs {
			p := name
			if prefix != "" {
				p = prefix + "/" + name
			}
			walk(p, child)
		}
		for name := range n.blobs {
			p := name
			if prefix != "" {
				p = prefix + "/" + name
			}
			out = append(out, p)
		}
	}
	walk("", root)
	sort.Strings(out)
	return out
}
