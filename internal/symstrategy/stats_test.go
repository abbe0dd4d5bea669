package symstrategy

import (
	"regexp"
	"testing"

	"gitlab.com/esr/cvs2svn/internal/convctx"
	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
)

func TestClassifyDefaultsToTagWithoutBranchOccurrence(t *testing.T) {
	s := &Stats{TagCount: 3}
	got := Classify("REL1_0", s, convctx.DefaultOptions())
	if got != cvsmodel.KindTag {
		t.Fatalf("expected KindTag, got %v", got)
	}
}

func TestClassifyBranchWhenEverSeenAsBranch(t *testing.T) {
	s := &Stats{BranchCount: 1}
	got := Classify("B1", s, convctx.DefaultOptions())
	if got != cvsmodel.KindBranch {
		t.Fatalf("expected KindBranch, got %v", got)
	}
}

func TestClassifyForceExcludeTakesPrecedence(t *testing.T) {
	opts := convctx.DefaultOptions()
	opts.Exclude = []*regexp.Regexp{regexp.MustCompile("^junk")}
	s := &Stats{BranchCount: 5}
	got := Classify("junk-branch", s, opts)
	if got != cvsmodel.KindExcluded {
		t.Fatalf("expected KindExcluded, got %v", got)
	}
}

func TestMismatchViolation(t *testing.T) {
	c := NewCollector()
	c.NoteBranch(1, "REL")
	c.NoteTag(1, "REL")
	plan := BuildPlan(c, convctx.DefaultOptions())
	if len(plan.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(plan.Violations), plan.Violations)
	}
}

func TestInvalidTagViolation(t *testing.T) {
	opts := convctx.DefaultOptions()
	opts.ForceTag = []*regexp.Regexp{regexp.MustCompile("^REL$")}
	c := NewCollector()
	c.NoteBranch(1, "REL")
	c.NoteCommit(1, "REL")
	plan := BuildPlan(c, opts)
	if len(plan.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(plan.Violations), plan.Violations)
	}
	if plan.Classification[1] != cvsmodel.KindTag {
		t.Fatalf("expected forced Tag classification")
	}
}

func TestBlockedExcludeViolation(t *testing.T) {
	opts := convctx.DefaultOptions()
	opts.Exclude = []*regexp.Regexp{regexp.MustCompile("^old$")}
	c := NewCollector()
	c.NoteBranch(1, "old")
	c.NoteBranch(2, "new")
	c.NoteBlocker(1, 2, "old")
	plan := BuildPlan(c, opts)
	if len(plan.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(plan.Violations), plan.Violations)
	}
}

func TestNonShortCircuitingReportsAllViolations(t *testing.T) {
	c := NewCollector()
	// Symbol 1: mismatch.
	c.NoteBranch(1, "A")
	c.NoteTag(1, "A")
	// Symbol 2: invalid tag (forced).
	opts := convctx.DefaultOptions()
	opts.ForceTag = []*regexp.Regexp{regexp.MustCompile("^B$")}
	c.NoteBranch(2, "B")
	c.NoteCommit(2, "B")
	plan := BuildPlan(c, opts)
	if len(plan.Violations) != 2 {
		t.Fatalf("expected 2 violations reported together, got %d: %v", len(plan.Violations), plan.Violations)
	}
}
