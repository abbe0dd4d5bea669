// svncvscheck is the round-trip verifier CLI (spec.md §6, A12): check out
// a CVS module and the trunk of the SVN repository a cvs2svn run produced
// from it, then diff the two trees content-for-content.
//
// Grounded in the teacher's subcommand-style main() (tool/repotool.go):
// read os.Args[1] as the operation before parsing the remaining flags,
// rather than the batch, purely-flag-driven shape cvs2svn's own main()
// takes — repotool.go's "checkout"/"compare"/"compare-all" split is the
// precedent for checkout vs compare being distinct operations here too.
//
// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	shellquote "github.com/kballard/go-shellquote"

	"gitlab.com/esr/cvs2svn/internal/procrunner"
	"gitlab.com/esr/cvs2svn/internal/roundtrip"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "svncvscheck: %s\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("%s", explain())
	}
	op := argv[0]
	rest := argv[1:]
	switch op {
	case "checkout":
		return runCheckout(rest)
	case "compare":
		return runCompare(rest)
	case "help", "-h", "--help":
		fmt.Print(explain())
		return nil
	default:
		return fmt.Errorf("unknown operation %q\n%s", op, explain())
	}
}

func explain() string {
	return `svncvscheck commands:

checkout -cvsroot DIR -module NAME -svnrepo DIR -out DIR  - check out both trees side by side
compare  -cvsroot DIR -module NAME -svnrepo DIR            - checkout, then diff content

`
}

func runCheckout(argv []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	cvsRoot := fs.String("cvsroot", "", "CVS repository root")
	module := fs.String("module", "", "CVS module name")
	svnRepo := fs.String("svnrepo", "", "path to the converted svnadmin repository")
	branch := fs.String("branch", "trunk", "SVN branch to compare against (trunk, or branches/NAME)")
	out := fs.String("out", "", "directory to check out both trees under")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if *cvsRoot == "" || *module == "" || *svnRepo == "" || *out == "" {
		return fmt.Errorf("checkout requires -cvsroot, -module, -svnrepo, and -out")
	}
	_, _, err := checkoutBoth(*cvsRoot, *module, *svnRepo, *branch, *out)
	return err
}

func runCompare(argv []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	cvsRoot := fs.String("cvsroot", "", "CVS repository root")
	module := fs.String("module", "", "CVS module name")
	svnRepo := fs.String("svnrepo", "", "path to the converted svnadmin repository")
	branch := fs.String("branch", "trunk", "SVN branch to compare against (trunk, or branches/NAME)")
	verbose := fs.Bool("v", false, "print the full unified diff for every mismatch")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if *cvsRoot == "" || *module == "" || *svnRepo == "" {
		return fmt.Errorf("compare requires -cvsroot, -module, and -svnrepo")
	}

	scratch, err := os.MkdirTemp("", "svncvscheck-")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	cvsDir, svnDir, err := checkoutBoth(*cvsRoot, *module, *svnRepo, *branch, scratch)
	if err != nil {
		return err
	}

	report, err := roundtrip.Compare(cvsDir, svnDir)
	if err != nil {
		return err
	}
	printReport(report, *verbose)
	if !report.Clean() {
		return fmt.Errorf("conversion does not reproduce the CVS tree")
	}
	return nil
}

// checkoutBoth exports a read-only snapshot of a CVS module and of one
// branch of the SVN repository cvs2svn produced, side by side under out,
// so roundtrip.Compare can walk both trees. Arguments are joined with
// shellquote.Join, the same quoting the teacher uses to build a safe
// command line before handing it to procrunner's shlex splitter
// (surgeon/extractor.go's shellquote.Join(cmd...) before runProcess).
func checkoutBoth(cvsRoot, module, svnRepo, branch, out string) (cvsDir, svnDir string, err error) {
	cvsDir = out + "/cvs"
	svnDir = out + "/svn"

	ctx := context.Background()
	if _, err := procrunner.Run(ctx, shellquote.Join(
		"cvs", "-Q", "-d", cvsRoot, "export", "-D", "now", "-d", cvsDir, module)); err != nil {
		return "", "", fmt.Errorf("checking out CVS module: %w", err)
	}

	url := fmt.Sprintf("file://%s/%s", svnRepo, branch)
	if _, err := procrunner.Run(ctx, shellquote.Join("svn", "export", "-q", url, svnDir)); err != nil {
		return "", "", fmt.Errorf("checking out SVN branch: %w", err)
	}
	return cvsDir, svnDir, nil
}

func printReport(r roundtrip.Report, verbose bool) {
	for _, p := range r.SourceOnly {
		fmt.Printf("only in CVS tree: %s\n", p)
	}
	for _, p := range r.TargetOnly {
		fmt.Printf("only in SVN tree: %s\n", p)
	}
	for _, m := range r.Mismatches {
		fmt.Printf("content differs: %s\n", m.Path)
		if verbose && m.Diff != "" {
			fmt.Print(m.Diff)
		}
	}
	if r.Clean() {
		fmt.Println("trees match")
	}
}
