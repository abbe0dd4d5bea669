package convctx

import (
	"io"
	"testing"

	"gitlab.com/esr/cvs2svn/internal/baton"
	"gitlab.com/esr/cvs2svn/internal/convlog"
)

func testContext(opts Options) *Context {
	return New(opts, convlog.New(io.Discard, 0), baton.NewForTest(io.Discard))
}

func TestValidateLayoutAcceptsDefaults(t *testing.T) {
	ctx := testContext(DefaultOptions())
	if err := ctx.ValidateLayout(); err != nil {
		t.Fatalf("unexpected error for default layout: %v", err)
	}
	if ctx.Abort() {
		t.Fatalf("default layout should not set abort")
	}
}

func TestValidateLayoutRejectsEqualPaths(t *testing.T) {
	opts := DefaultOptions()
	opts.Branches = "trunk"
	ctx := testContext(opts)
	if err := ctx.ValidateLayout(); err == nil {
		t.Fatalf("expected an error when branches equals trunk")
	}
	if !ctx.Abort() {
		t.Fatalf("expected abort to be set")
	}
}

func TestValidateLayoutRejectsNestedPaths(t *testing.T) {
	opts := DefaultOptions()
	opts.Tags = "trunk/tags"
	ctx := testContext(opts)
	if err := ctx.ValidateLayout(); err == nil {
		t.Fatalf("expected an error when tags nests inside trunk")
	}
}

func TestValidateLayoutRelaxDoesNotAbortButStillErrors(t *testing.T) {
	opts := DefaultOptions()
	opts.Relax = true
	opts.Branches = "tags"
	ctx := testContext(opts)
	if err := ctx.ValidateLayout(); err == nil {
		t.Fatalf("expected an error even under --relax")
	}
	if ctx.Abort() {
		t.Fatalf("--relax should suppress the abort flag")
	}
}
