// Package persist implements C8, the run's in-memory mapping and
// bookkeeping store: cvs_rev_id <-> svn_revnum, svn_revnum -> SVNCommit,
// and per-symbol sorted fill-revnum lists supporting last_filled/
// filled_since queries in O(log n) (spec.md §4.8).
//
// Grounded in the teacher's repomapper ContribMap (mapper/repomapper.go):
// a small plain Go map keyed by a stable identifier, with no database
// underneath it — the same shape generalized here from "username ->
// Contributor" to "id -> record", plus a sorted-slice index (the same
// technique symbolings.Log uses for its post-Seal offset index) for the
// range queries C5 needs.
//
// SPDX-License-Identifier: BSD-2-Clause
package persist

import (
	"fmt"
	"sort"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
)

// CommitKind distinguishes the SVNCommit variants spec §4.7 names.
type CommitKind int

const (
	InitialProject CommitKind = iota
	Primary
	SymbolFill
	PostCommit
)

// SVNCommit is the persisted record of one emitted SVN revision.
type SVNCommit struct {
	Revnum   int
	Kind     CommitKind
	MetaID   int
	Symbol   cvsmodel.SymbolID
	Revision cvsmodel.RevisionID // valid for Primary commits
}

// RevisionMap tracks the cvs_rev_id <-> svn_revnum correspondence.
type RevisionMap struct {
	toRevnum map[cvsmodel.RevisionID]int
	toRev    map[int]cvsmodel.RevisionID
}

func NewRevisionMap() *RevisionMap {
	return &RevisionMap{toRevnum: make(map[cvsmodel.RevisionID]int), toRev: make(map[int]cvsmodel.RevisionID)}
}

// Bind records that rev was emitted as revnum. Rebinding a revision to a
// different revnum is a logic error (spec §7: "Internal" class).
func (r *RevisionMap) Bind(rev cvsmodel.RevisionID, revnum int) error {
	if existing, ok := r.toRevnum[rev]; ok && existing != revnum {
		return fmt.Errorf("persist: revision %d already bound to revnum %d, cannot rebind to %d", rev, existing, revnum)
	}
	r.toRevnum[rev] = revnum
	r.toRev[revnum] = rev
	return nil
}

func (r *RevisionMap) Revnum(rev cvsmodel.RevisionID) (int, bool) {
	v, ok := r.toRevnum[rev]
	return v, ok
}

func (r *RevisionMap) Revision(revnum int) (cvsmodel.RevisionID, bool) {
	v, ok := r.toRev[revnum]
	return v, ok
}

// CommitStore maps svn_revnum -> SVNCommit.
type CommitStore struct {
	commits map[int]*SVNCommit
}

func NewCommitStore() *CommitStore {
	return &CommitStore{commits: make(map[int]*SVNCommit)}
}

func (c *CommitStore) Put(commit *SVNCommit) {
	c.commits[commit.Revnum] = commit
}

func (c *CommitStore) Get(revnum int) (*SVNCommit, bool) {
	commit, ok := c.commits[revnum]
	return commit, ok
}

// FillIndex tracks, per symbol, the sorted list of revnums at which a
// SymbolFill commit touched that symbol's directory, so C5 can answer
// last_filled(symbol) and filled_since(symbol, revnum) in O(log n) (spec
// §4.8: "supports... queries in O(log n)").
type FillIndex struct {
	fills map[cvsmodel.SymbolID][]int
}

func NewFillIndex() *FillIndex {
	return &FillIndex{fills: make(map[cvsmodel.SymbolID][]int)}
}

// RecordFill appends revnum to symbol's fill list. Callers are expected to
// record fills in increasing revnum order (true of any single emission
// pass); RecordFill does not re-sort on every insert to keep it O(1).
func (f *FillIndex) RecordFill(symbol cvsmodel.SymbolID, revnum int) {
	f.fills[symbol] = append(f.fills[symbol], revnum)
}

// LastFilled returns the highest recorded fill revnum for symbol, or
// (0, false) if it was never filled.
func (f *FillIndex) LastFilled(symbol cvsmodel.SymbolID) (int, bool) {
	list := f.fills[symbol]
	if len(list) == 0 {
		return 0, false
	}
	return list[len(list)-1], true
}

// FilledSince reports whether symbol was filled at any revnum >= since,
// via binary search over the (assumed sorted) fill list.
func (f *FillIndex) FilledSince(symbol cvsmodel.SymbolID, since int) bool {
	list := f.fills[symbol]
	i := sort.SearchInts(list, since)
	return i < len(list)
}

// FileStore holds the parsed CVS file set, keyed by id, for lookups
// downstream components need by reference rather than by repeated parse.
type FileStore struct {
	files map[cvsmodel.FileID]*cvsmodel.CVSFile
}

func NewFileStore() *FileStore {
	return &FileStore{files: make(map[cvsmodel.FileID]*cvsmodel.CVSFile)}
}

func (s *FileStore) Put(f *cvsmodel.CVSFile) { s.files[f.ID] = f }

func (s *FileStore) Get(id cvsmodel.FileID) (*cvsmodel.CVSFile, bool) {
	f, ok := s.files[id]
	return f, ok
}

func (s *FileStore) All() []*cvsmodel.CVSFile {
	out := make([]*cvsmodel.CVSFile, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
