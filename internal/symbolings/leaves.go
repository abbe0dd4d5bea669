package symbolings

import (
	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/fillsource"
)

// SVNPathOf resolves a CVSFile id to its SVN path stem, backed by C8's
// FileStore.
type SVNPathOf func(cvsmodel.FileID) (string, bool)

// BuildLeaves turns symbol's sealed records into the range_map fillsource
// groups by source LOD (spec §4.5: "the Symbolings Log yields range_map:
// CVSSymbol → SVNRevisionRange(opening_revnum, closing_revnum_or_∞,
// source_lod)"). Each file's records pair an Opening with the Closing that
// follows it on the same LOD; a file left open at the end of the log still
// has an unbounded range (InfiniteClosing).
func (l *Log) BuildLeaves(symbol cvsmodel.SymbolID, svnPath SVNPathOf) map[string]fillsource.Range {
	type openEntry struct {
		revnum int
		branch cvsmodel.SymbolID
	}
	open := make(map[cvsmodel.FileID]openEntry)
	leaves := make(map[string]fillsource.Range)

	lodOf := func(branch cvsmodel.SymbolID) cvsmodel.LOD {
		if branch == 0 {
			return cvsmodel.Trunk
		}
		return cvsmodel.Branch(branch)
	}

	for _, rec := range l.Range(symbol) {
		switch rec.Kind {
		case Opening:
			open[rec.CVSFile] = openEntry{revnum: rec.Revnum, branch: rec.BranchID}
		case Closing:
			entry, ok := open[rec.CVSFile]
			if !ok {
				continue
			}
			delete(open, rec.CVSFile)
			path, ok := svnPath(rec.CVSFile)
			if !ok {
				continue
			}
			leaves[path] = fillsource.Range{Opening: entry.revnum, Closing: rec.Revnum, LOD: lodOf(entry.branch)}
		}
	}
	for file, entry := range open {
		path, ok := svnPath(file)
		if !ok {
			continue
		}
		leaves[path] = fillsource.Range{Opening: entry.revnum, Closing: fillsource.InfiniteClosing, LOD: lodOf(entry.branch)}
	}
	return leaves
}
