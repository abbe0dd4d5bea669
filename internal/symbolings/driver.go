package symbolings

import "gitlab.com/esr/cvs2svn/internal/cvsmodel"

// SourceIndex maps a CVSRevision id to the CVSSymbols it is the source
// revision for (built once from the CVSSymbol records collected during
// CVS parsing).
type SourceIndex map[cvsmodel.RevisionID][]cvsmodel.CVSSymbol

// NewSourceIndex builds a SourceIndex from the full CVSSymbol list.
func NewSourceIndex(symbols []cvsmodel.CVSSymbol) SourceIndex {
	idx := make(SourceIndex)
	for _, s := range symbols {
		idx[s.SourceRevision] = append(idx[s.SourceRevision], s)
	}
	return idx
}

// RevnumOf resolves a CVSRevision id to the SVN revnum it was emitted at;
// supplied by C8 (persist.RevisionMap).
type RevnumOf func(cvsmodel.RevisionID) (int, bool)

// RecordPrimaryCommit is called once per CVSRevision with the revnum of its
// containing primary commit. It records an opening for every symbol this
// revision sources; it records no closings. Closings are recorded by
// CloseSymbolsSourcedAt, which AssembleFromRevisions calls for rev's
// predecessor at rev's revnum.
func (l *Log) RecordPrimaryCommit(rev *cvsmodel.CVSRevision, revnum int, idx SourceIndex, revnumOf RevnumOf) {
	branch := cvsmodel.SymbolID(0)
	if !rev.LOD.IsTrunk {
		branch = rev.LOD.BranchID
	}
	for _, src := range idx[rev.ID] {
		l.RecordOpening(src.Symbol, revnum, branch, rev.CVSFile)
	}
	if rev.HasValidPrev() {
		// If an earlier revision on this LOD opened a symbol here and
		// rev now supersedes it, rev's own revnum is that symbol's
		// closing point. AssembleFromRevisions records that closing by
		// calling CloseSymbolsSourcedAt for rev's predecessor.
	}
}

// CloseSymbolsSourcedAt closes, at closeRevnum, every symbol that was
// opened by the revision at sourceRevID, because rev (at closeRevnum) now
// supersedes it on the same line of development (spec §4.4: "Closing: the
// next SVN revision on the same LOD where F is modified past that
// source").
func (l *Log) CloseSymbolsSourcedAt(sourceRevID cvsmodel.RevisionID, file cvsmodel.FileID, branch cvsmodel.SymbolID, closeRevnum int, idx SourceIndex) {
	for _, src := range idx[sourceRevID] {
		l.RecordClosing(src.Symbol, closeRevnum, branch, file)
	}
}
