// Package cvsmodel holds the data model spec.md §3 describes: CVSFile,
// CVSRevision, CVSSymbol, Symbol/TypedSymbol. These are plain value/pointer
// types created once during collection and read by every later pass — there
// is no reposurgeon analogue for CVS-side history (RCS parsing is an
// external collaborator per spec §1), so these types are original to this
// pipeline, shaped directly from spec.md's field lists rather than adapted
// from teacher code; the *behavior* built on top of them (interning,
// sets, logging) is what's grounded in the teacher.
//
// SPDX-License-Identifier: BSD-2-Clause
package cvsmodel

import "gitlab.com/esr/cvs2svn/internal/symintern"

// FileID identifies a CVSFile.
type FileID int

// RevisionID identifies a CVSRevision.
type RevisionID int

// SymbolID identifies a project-wide Symbol.
type SymbolID int

// Op is the effect of a CVSRevision relative to its predecessor on the
// same line of development.
type Op int

const (
	// OpAdd introduces the file on this LOD.
	OpAdd Op = iota
	// OpChange modifies existing content.
	OpChange
	// OpDelete removes the file from this LOD (an RCS "dead" revision).
	OpDelete
	// OpNoop carries no content change (e.g. a branch-point placeholder).
	OpNoop
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpDelete:
		return "delete"
	case OpNoop:
		return "noop"
	default:
		return "unknown"
	}
}

// CVSFile is a single file tracked by CVS, identified by a stable id.
// Created once during collection; immutable thereafter (spec §3).
type CVSFile struct {
	ID         FileID
	FSPath     string // path under the CVS repository root, including ,v and Attic/ if applicable
	SVNPath    string // normalised project-relative path, the SVN path stem
	Executable bool
	Size       int64
}

// LOD (line of development) is either trunk or a specific branch symbol.
type LOD struct {
	IsTrunk  bool
	BranchID SymbolID // meaningful only when !IsTrunk
}

// Trunk is the canonical trunk LOD value.
var Trunk = LOD{IsTrunk: true}

// Branch returns the LOD for a specific branch symbol.
func Branch(id SymbolID) LOD {
	return LOD{IsTrunk: false, BranchID: id}
}

// Equal reports structural equality of two LODs.
func (l LOD) Equal(o LOD) bool {
	return l.IsTrunk == o.IsTrunk && (l.IsTrunk || l.BranchID == o.BranchID)
}

// CVSRevision is a single revision of a CVSFile (spec §3).
type CVSRevision struct {
	ID         RevisionID
	CVSFile    FileID
	Rev        string // dotted RCS number, e.g. "1.2.3.1"
	Timestamp  int64  // seconds since epoch
	MetadataID symintern.MetadataID
	Op         Op
	PrevID     RevisionID // 0 (invalid) if none
	NextID     RevisionID // 0 (invalid) if none
	LOD        LOD

	BranchIDs       []SymbolID // symbols sprouted as branches from this revision
	TagIDs          []SymbolID // symbols sprouted as tags from this revision
	ClosedSymbolIDs []SymbolID // symbols this revision closes

	DefaultBranchRevision bool
	DeltatextExists       bool
	FirstOnBranch         bool
}

// HasValidPrev reports whether PrevID refers to a real revision.
func (r *CVSRevision) HasValidPrev() bool { return r.PrevID != 0 }

// HasValidNext reports whether NextID refers to a real revision.
func (r *CVSRevision) HasValidNext() bool { return r.NextID != 0 }

// SymbolKind classifies a Symbol after C1 runs (spec §3, §4.1).
type SymbolKind int

const (
	// KindBranch marks a symbol that is filled as /branches/NAME.
	KindBranch SymbolKind = iota
	// KindTag marks a symbol that is filled as /tags/NAME.
	KindTag
	// KindExcluded marks a symbol that takes no part in the conversion.
	KindExcluded
)

func (k SymbolKind) String() string {
	switch k {
	case KindBranch:
		return "branch"
	case KindTag:
		return "tag"
	case KindExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// Symbol is a project-wide symbolic name, before or after classification.
type Symbol struct {
	ID          SymbolID
	Name        string
	CleanedName string // punctuation scrubbed to form a valid SVN path component
	Kind        SymbolKind
	Classified  bool
}

// TypedSymbol is a Symbol together with the post-classification TypedSymbol
// variant spec.md §3 describes ({Branch, Tag, Excluded}); kept as a thin
// accessor rather than a separate struct since Go has no closed sum types
// (DESIGN NOTES §9: "no open inheritance hierarchy" — here, no inheritance
// at all, just a tag field switched on by callers).
func (s *Symbol) TypedSymbol() SymbolKind {
	return s.Kind
}

// CVSSymbol is a per-file occurrence of a tag or branch on a specific
// CVSFile, pointing at its source revision (spec §3).
type CVSSymbol struct {
	Symbol         SymbolID
	CVSFile        FileID
	SourceRevision RevisionID
	IsBranch       bool
}
