// Package symbolings implements C4, the Symbolings Log (spec.md §4.4):
// records per-symbol openings and closings for the primary SVN commits
// once their revnums are fixed, ahead of emission, then offers an offset index so C5 (Fill Source Selector) can
// seek directly to one symbol's range.
//
// Grounded in the teacher's write-then-read store discipline (spec §4.8,
// reflected in reposurgeon's own sequential-pass design) and in
// PathMap-style sorted, index-once bookkeeping (surgeon/pathmap.go's
// pathnames(), which sorts once after all mutation is done, the same shape
// used here for the post-sort offset index).
//
// SPDX-License-Identifier: BSD-2-Clause
package symbolings

import (
	"sort"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
)

// EventKind distinguishes an opening from a closing record.
type EventKind byte

const (
	// Opening marks the revision from which a symbol may validly be
	// copied for a given file.
	Opening EventKind = 'O'
	// Closing marks the first revision after which a symbol may no
	// longer be copied from that source (the last valid copy source is
	// the revision before the closing).
	Closing EventKind = 'C'
)

// Record is one symbolings-log line (spec §4.4: "(symbol_id, svn_revnum,
// {O|C}, branch_id_or_*, cvs_file_id)"). BranchID is 0 when the record's
// LOD is trunk (the spec's "*").
type Record struct {
	Symbol   cvsmodel.SymbolID
	Revnum   int
	Kind     EventKind
	BranchID cvsmodel.SymbolID // 0 means trunk
	CVSFile  cvsmodel.FileID
}

// Log accumulates records for the scheduled primary commits (before any of
// them is emitted), then is sorted and indexed once all primary commits
// have been processed.
type Log struct {
	records []Record
	sorted  bool
	index   map[cvsmodel.SymbolID][2]int // symbol -> [start, end) into records

	// defaultBranchOpenings tracks default-branch openings separately
	// until trunk later touches that path (spec §4.4 special case).
	defaultBranchOpenings map[cvsmodel.FileID]Record
}

// New returns an empty Symbolings Log.
func New() *Log {
	return &Log{defaultBranchOpenings: make(map[cvsmodel.FileID]Record)}
}

// RecordOpening appends an opening event. Panics if called after Seal: a
// logic error, not recoverable data (consistent with spec §7's "Internal"
// taxonomy class).
func (l *Log) RecordOpening(symbol cvsmodel.SymbolID, revnum int, branch cvsmodel.SymbolID, file cvsmodel.FileID) {
	l.append(Record{Symbol: symbol, Revnum: revnum, Kind: Opening, BranchID: branch, CVSFile: file})
}

// RecordClosing appends a closing event.
func (l *Log) RecordClosing(symbol cvsmodel.SymbolID, revnum int, branch cvsmodel.SymbolID, file cvsmodel.FileID) {
	l.append(Record{Symbol: symbol, Revnum: revnum, Kind: Closing, BranchID: branch, CVSFile: file})
}

func (l *Log) append(r Record) {
	if l.sorted {
		panic("symbolings: append after Seal")
	}
	l.records = append(l.records, r)
}

// RecordDefaultBranchOpening tracks a default-branch opening for file,
// pending a later close when trunk touches the same path (spec §4.4:
// "default-branch openings are tracked separately and closed when trunk
// later touches that path").
func (l *Log) RecordDefaultBranchOpening(symbol cvsmodel.SymbolID, revnum int, file cvsmodel.FileID) {
	l.defaultBranchOpenings[file] = Record{Symbol: symbol, Revnum: revnum, Kind: Opening, CVSFile: file}
	l.append(l.defaultBranchOpenings[file])
}

// CloseDefaultBranchOpening emits the deferred closing for file once trunk
// touches it at closeRevnum, if an opening is pending.
func (l *Log) CloseDefaultBranchOpening(file cvsmodel.FileID, closeRevnum int) {
	opening, ok := l.defaultBranchOpenings[file]
	if !ok {
		return
	}
	l.RecordClosing(opening.Symbol, closeRevnum, 0, file)
	delete(l.defaultBranchOpenings, file)
}

// Seal sorts the log by (symbol_id, svn_revnum) — spec §4.4: "After all
// primary commits, records are sorted by (symbol_id, svn_revnum)" — and
// builds the per-symbol offset index.
func (l *Log) Seal() {
	sort.SliceStable(l.records, func(i, j int) bool {
		a, b := l.records[i], l.records[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Revnum < b.Revnum
	})
	l.index = make(map[cvsmodel.SymbolID][2]int)
	start := 0
	for i := 1; i <= len(l.records); i++ {
		if i == len(l.records) || l.records[i].Symbol != l.records[start].Symbol {
			if i > start {
				l.index[l.records[start].Symbol] = [2]int{start, i}
			}
			start = i
		}
	}
	l.sorted = true
}

// Range returns the (sorted) records for symbol, or nil if the symbol
// never appears.
func (l *Log) Range(symbol cvsmodel.SymbolID) []Record {
	if !l.sorted {
		panic("symbolings: Range before Seal")
	}
	bounds, ok := l.index[symbol]
	if !ok {
		return nil
	}
	return l.records[bounds[0]:bounds[1]]
}
