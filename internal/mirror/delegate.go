package mirror

// Delegate is implemented by anything that wants to observe mirror
// operations as they happen: the dumpfile writer and the live
// `svnadmin load` pipe (spec §4.6: "Two concrete delegates exist: a
// dumpfile writer and a live loader. Delegates are side-effecting I/O
// only; the mirror does not await their result.").
type Delegate interface {
	StartCommit(revnum int, author, logMsg, date string) error
	Mkdir(path string) error
	AddPath(path string, entry *Entry) error
	ChangePath(path string, entry *Entry) error
	DeletePath(path string, prune bool) error
	CopyPath(srcPath string, srcRevnum int, destPath string, isDir bool) error
	Finish()
}
