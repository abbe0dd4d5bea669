package cliopts

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultsAndPositional(t *testing.T) {
	opts, args, err := Parse([]string{"--trunk-only", "/path/to/cvsroot"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.TrunkOnly {
		t.Fatalf("expected trunk-only set")
	}
	if opts.Trunk != "trunk" {
		t.Fatalf("expected default trunk path, got %q", opts.Trunk)
	}
	if len(args) != 1 || args[0] != "/path/to/cvsroot" {
		t.Fatalf("expected one positional arg, got %v", args)
	}
}

func TestParseRepeatableExclude(t *testing.T) {
	opts, _, err := Parse([]string{"--exclude", "^RELENG_", "--exclude", "^vendor-"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.Exclude) != 2 {
		t.Fatalf("expected 2 compiled exclude patterns, got %d", len(opts.Exclude))
	}
}

func TestParseSymbolTransform(t *testing.T) {
	opts, _, err := Parse([]string{"--symbol-transform", "^release-(.*)$:REL_$1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.SymbolTransforms) != 1 {
		t.Fatalf("expected one symbol transform, got %d", len(opts.SymbolTransforms))
	}
}

func TestParseBadSymbolTransform(t *testing.T) {
	if _, _, err := Parse([]string{"--symbol-transform", "no-colon-here"}); err == nil {
		t.Fatalf("expected an error for a malformed symbol-transform rule")
	}
}

func TestParseOptionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opts.yaml")
	content := "trunk: mainline\ncommit_threshold: 2m\nquiet: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	opts, _, err := Parse([]string{"--options-file", path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Trunk != "mainline" {
		t.Fatalf("expected trunk overridden from options file, got %q", opts.Trunk)
	}
	if opts.CommitThreshold != 2*time.Minute {
		t.Fatalf("expected commit threshold 2m, got %v", opts.CommitThreshold)
	}
	if !opts.Quiet {
		t.Fatalf("expected quiet set from options file")
	}
}
