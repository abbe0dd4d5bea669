package symbolings

import "gitlab.com/esr/cvs2svn/internal/cvsmodel"

// AssembleFromRevisions populates l with every symbol's opening and
// closing records in one pass over the full CVSRevision set (order does
// not matter: every record is keyed by revnum, not scan position). This
// runs once the Scheduler (C3) has fixed every commit's revnum, per spec
// §4.8's write-then-read separation: closings need "the next SVN revision
// on the same LOD" to already have a revnum, which may not yet have been
// true on a naive single emission pass, so C4's write phase is done ahead
// of C7's emission rather than interleaved with it.
func (l *Log) AssembleFromRevisions(revisions []*cvsmodel.CVSRevision, idx SourceIndex, revnumOf RevnumOf) {
	for _, rev := range revisions {
		revnum, ok := revnumOf(rev.ID)
		if !ok {
			continue
		}
		l.RecordPrimaryCommit(rev, revnum, idx, revnumOf)

		branch := cvsmodel.SymbolID(0)
		if !rev.LOD.IsTrunk {
			branch = rev.LOD.BranchID
		}
		if rev.HasValidPrev() {
			l.CloseSymbolsSourcedAt(rev.PrevID, rev.CVSFile, branch, revnum, idx)
		}

		if rev.DefaultBranchRevision {
			l.RecordDefaultBranchOpening(0, revnum, rev.CVSFile)
		} else if rev.LOD.IsTrunk {
			l.CloseDefaultBranchOpening(rev.CVSFile, revnum)
		}
	}
}
