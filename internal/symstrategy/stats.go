// Package symstrategy implements C1, Symbol Statistics & Strategy
// (spec.md §4.1): classifying each project-wide Symbol as Branch, Tag, or
// Excluded, and the consistency checks that must all pass before the rest
// of the pipeline runs.
//
// Grounded in the teacher's Control/branchMapping regex handling
// (surgeon/reposurgeon.go, type branchMapping and the --force-tag-style
// handling that inspired it) for the "ordered regex rules take precedence"
// shape, and in the teacher's non-short-circuiting error accumulation style
// used by its own repository consistency checks.
//
// SPDX-License-Identifier: BSD-2-Clause
package symstrategy

import (
	"fmt"
	"regexp"

	"gitlab.com/esr/cvs2svn/internal/convctx"
	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/setutil"
)

// Stats accumulates, for one Symbol, the counts needed to classify it and
// to detect Mismatch/Invalid-tag/Blocked-exclude violations.
type Stats struct {
	Symbol         cvsmodel.SymbolID
	Name           string
	TagCount       int // number of files where this symbol appears as a tag
	BranchCount    int // number of files where this symbol appears as a branch
	CommitCount    int // number of commits made directly on this symbol as a branch
	Blockers       setutil.OrderedIntSet // symbols that sprout from this one, in discovery order
}

// Collector gathers Stats across all files during the collection pass.
type Collector struct {
	stats map[cvsmodel.SymbolID]*Stats
	names map[cvsmodel.SymbolID]string
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		stats: make(map[cvsmodel.SymbolID]*Stats),
		names: make(map[cvsmodel.SymbolID]string),
	}
}

func (c *Collector) entry(id cvsmodel.SymbolID, name string) *Stats {
	s, ok := c.stats[id]
	if !ok {
		s = &Stats{Symbol: id, Name: name}
		c.stats[id] = s
		c.names[id] = name
	}
	return s
}

// NoteTag records an occurrence of symbol as a tag on some file.
func (c *Collector) NoteTag(id cvsmodel.SymbolID, name string) {
	c.entry(id, name).TagCount++
}

// NoteBranch records an occurrence of symbol as a branch on some file.
func (c *Collector) NoteBranch(id cvsmodel.SymbolID, name string) {
	c.entry(id, name).BranchCount++
}

// NoteCommit records a commit made directly on symbol (only meaningful
// once symbol is known to be a branch).
func (c *Collector) NoteCommit(id cvsmodel.SymbolID, name string) {
	c.entry(id, name).CommitCount++
}

// NoteBlocker records that blocker sprouts from symbol, for the
// Blocked-exclude check.
func (c *Collector) NoteBlocker(symbol, blocker cvsmodel.SymbolID, symbolName string) {
	c.entry(symbol, symbolName).Blockers.Add(int(blocker))
}

// All returns every symbol's accumulated Stats.
func (c *Collector) All() map[cvsmodel.SymbolID]*Stats {
	return c.stats
}

// Classify applies spec §4.1's rule: forced patterns (exclude, force-branch,
// force-tag, in that order) take precedence; absent a forced choice, a
// symbol is Branch if it ever appeared as a branch, else Tag.
func Classify(name string, stats *Stats, opts convctx.Options) cvsmodel.SymbolKind {
	if matchesAny(opts.Exclude, name) {
		return cvsmodel.KindExcluded
	}
	if matchesAny(opts.ForceBranch, name) {
		return cvsmodel.KindBranch
	}
	if matchesAny(opts.ForceTag, name) {
		return cvsmodel.KindTag
	}
	if stats.BranchCount > 0 {
		return cvsmodel.KindBranch
	}
	return cvsmodel.KindTag
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, p := range patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// isForced reports whether any force-branch/force-tag/exclude rule matched
// name, i.e. the classification wasn't left to the branch/tag heuristic.
func isForced(opts convctx.Options, name string) bool {
	return matchesAny(opts.Exclude, name) || matchesAny(opts.ForceBranch, name) || matchesAny(opts.ForceTag, name)
}

// Violation is one consistency-check failure (spec §4.1); checks are
// non-short-circuiting, so callers accumulate a slice of these before
// deciding to abort.
type Violation struct {
	Symbol  string
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Symbol, v.Message)
}

// Plan is the outcome of classifying every symbol plus the consistency
// checks that ran over the result.
type Plan struct {
	Classification map[cvsmodel.SymbolID]cvsmodel.SymbolKind
	Violations     []Violation
}

// BuildPlan classifies every collected symbol and runs all three
// consistency checks (Mismatch, Invalid tag, Blocked exclude), reporting
// every violation found rather than stopping at the first (spec §4.1:
// "Checks are non-short-circuiting: all problems are reported before
// exit").
func BuildPlan(c *Collector, opts convctx.Options) Plan {
	plan := Plan{Classification: make(map[cvsmodel.SymbolID]cvsmodel.SymbolKind)}

	for id, s := range c.stats {
		plan.Classification[id] = Classify(s.Name, s, opts)
	}

	// Mismatch: sometimes-branch and sometimes-tag, not forced.
	for id, s := range c.stats {
		if isForced(opts, s.Name) {
			continue
		}
		if s.BranchCount > 0 && s.TagCount > 0 {
			plan.Violations = append(plan.Violations, Violation{
				Symbol: s.Name,
				Message: fmt.Sprintf("symbol is a branch in %d file(s) and a tag in %d file(s); "+
					"use --force-branch or --force-tag to resolve", s.BranchCount, s.TagCount),
			})
		}
		_ = id
	}

	// Invalid tag: classified Tag but has commits on it.
	for id, s := range c.stats {
		if plan.Classification[id] == cvsmodel.KindTag && s.CommitCount > 0 {
			plan.Violations = append(plan.Violations, Violation{
				Symbol:  s.Name,
				Message: fmt.Sprintf("classified as a tag but has %d commit(s) on it", s.CommitCount),
			})
		}
	}

	// Blocked exclude: excluded symbol B is fatal if a non-excluded
	// symbol sprouts from B.
	for id, s := range c.stats {
		if plan.Classification[id] != cvsmodel.KindExcluded {
			continue
		}
		for _, blockerID := range s.Blockers.Values() {
			bid := cvsmodel.SymbolID(blockerID)
			if plan.Classification[bid] != cvsmodel.KindExcluded {
				plan.Violations = append(plan.Violations, Violation{
					Symbol: s.Name,
					Message: fmt.Sprintf("excluded symbol blocks non-excluded symbol %q, which sprouts from it",
						c.names[bid]),
				})
			}
		}
	}

	return plan
}

// Report logs every violation and, if any exist, croaks once with a
// summary so the process exits 1 (spec §4.1, §7: consistency-check
// failures are fatal).
func Report(ctx *convctx.Context, plan Plan) bool {
	if len(plan.Violations) == 0 {
		return true
	}
	for _, v := range plan.Violations {
		ctx.Log.Shout("%s", v.Error())
	}
	ctx.Croak("%d symbol consistency violation(s) found", len(plan.Violations))
	return false
}
