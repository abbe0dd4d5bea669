// Package cliopts implements A4: the CLI surface spec.md §6 names
// (--trunk, --branches, --tags, --trunk-only, --exclude, --force-branch,
// --force-tag, --symbol-transform, --encoding, --fallback-encoding,
// --no-prune, --dumpfile, --svn-repo-path, --tmpdir, --commit-threshold,
// --quiet, --relax), plus an --options-file escape hatch for scripting a
// run from a YAML config instead of a long flag line.
//
// Grounded in two corpus precedents: the teacher's own flag.StringVar/
// flag.BoolVar style (mapper/repomapper.go's flag.StringVar(&host, "h",
// ...)), generalized to the standard library's flag.FlagSet so tests can
// parse an argv slice without touching the process's global flags; and
// gopkg.in/yaml.v2 struct-tag unmarshalling for --options-file, the same
// shape as the pack's own YAML config loader (Config struct with `yaml:"..."`
// tags, yaml.Unmarshal into a defaulted struct).
//
// SPDX-License-Identifier: BSD-2-Clause
package cliopts

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v2"

	"gitlab.com/esr/cvs2svn/internal/convctx"
)

// fileConfig mirrors the subset of convctx.Options that can be supplied
// via --options-file, using yaml struct tags like the pack's Config type.
type fileConfig struct {
	Trunk            string   `yaml:"trunk"`
	Branches         string   `yaml:"branches"`
	Tags             string   `yaml:"tags"`
	TrunkOnly        bool     `yaml:"trunk_only"`
	Exclude          []string `yaml:"exclude"`
	ForceBranch      []string `yaml:"force_branch"`
	ForceTag         []string `yaml:"force_tag"`
	SymbolTransforms []string `yaml:"symbol_transforms"` // "pattern:replacement"
	Encodings        []string `yaml:"encodings"`
	FallbackEncoding string   `yaml:"fallback_encoding"`
	NoPrune          bool     `yaml:"no_prune"`
	Dumpfile         string   `yaml:"dumpfile"`
	SVNRepoPath      string   `yaml:"svn_repo_path"`
	TmpDir           string   `yaml:"tmpdir"`
	CommitThreshold  string   `yaml:"commit_threshold"`
	Quiet            bool     `yaml:"quiet"`
	Relax            bool     `yaml:"relax"`
}

// Parse builds convctx.Options from argv (excluding argv[0]), and returns
// the remaining positional arguments (the CVS repository root and, for
// some invocations, a module name).
func Parse(argv []string) (convctx.Options, []string, error) {
	fs := flag.NewFlagSet("cvs2svn", flag.ContinueOnError)

	opts := convctx.DefaultOptions()
	var exclude, forceBranch, forceTag, symbolTransform, encoding multiFlag
	optionsFile := fs.String("options-file", "", "load options from a YAML file")

	fs.StringVar(&opts.Trunk, "trunk", opts.Trunk, "trunk path within the target SVN tree")
	fs.StringVar(&opts.Branches, "branches", opts.Branches, "branches path within the target SVN tree")
	fs.StringVar(&opts.Tags, "tags", opts.Tags, "tags path within the target SVN tree")
	fs.BoolVar(&opts.TrunkOnly, "trunk-only", opts.TrunkOnly, "convert trunk history only, skipping all symbols")
	fs.Var(&exclude, "exclude", "regex of symbol names to exclude (repeatable)")
	fs.Var(&forceBranch, "force-branch", "regex of symbol names to force-classify as a branch (repeatable)")
	fs.Var(&forceTag, "force-tag", "regex of symbol names to force-classify as a tag (repeatable)")
	fs.Var(&symbolTransform, "symbol-transform", "pattern:replacement rule applied to symbol names (repeatable)")
	fs.Var(&encoding, "encoding", "candidate IANA encoding to try decoding log/content with (repeatable)")
	fs.StringVar(&opts.FallbackEncoding, "fallback-encoding", opts.FallbackEncoding, "encoding used when every --encoding candidate fails")
	fs.BoolVar(&opts.NoPrune, "no-prune", opts.NoPrune, "never prune directories left empty by a delete")
	fs.StringVar(&opts.Dumpfile, "dumpfile", opts.Dumpfile, "write an SVN dumpfile here instead of loading live")
	fs.StringVar(&opts.SVNRepoPath, "svn-repo-path", opts.SVNRepoPath, "svnadmin repository path to load into live")
	fs.StringVar(&opts.TmpDir, "tmpdir", opts.TmpDir, "scratch directory root (defaults to the OS temp dir)")
	threshold := fs.Duration("commit-threshold", opts.CommitThreshold, "max gap between same-author/log revisions grouped into one changeset")
	fs.BoolVar(&opts.Quiet, "quiet", opts.Quiet, "suppress progress output")
	fs.BoolVar(&opts.Relax, "relax", opts.Relax, "log but do not abort on a condition the teacher would treat as fatal")

	if err := fs.Parse(argv); err != nil {
		return convctx.Options{}, nil, err
	}
	opts.CommitThreshold = *threshold

	var err error
	if opts.Exclude, err = compileAll(exclude); err != nil {
		return convctx.Options{}, nil, err
	}
	if opts.ForceBranch, err = compileAll(forceBranch); err != nil {
		return convctx.Options{}, nil, err
	}
	if opts.ForceTag, err = compileAll(forceTag); err != nil {
		return convctx.Options{}, nil, err
	}
	if opts.SymbolTransforms, err = compileTransforms(symbolTransform); err != nil {
		return convctx.Options{}, nil, err
	}
	if len(encoding) > 0 {
		opts.Encodings = []string(encoding)
	}

	if *optionsFile != "" {
		if err := applyOptionsFile(&opts, *optionsFile); err != nil {
			return convctx.Options{}, nil, err
		}
	}

	return opts, fs.Args(), nil
}

func applyOptionsFile(opts *convctx.Options, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cliopts: reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("cliopts: parsing %s: %w", path, err)
	}
	if cfg.Trunk != "" {
		opts.Trunk = cfg.Trunk
	}
	if cfg.Branches != "" {
		opts.Branches = cfg.Branches
	}
	if cfg.Tags != "" {
		opts.Tags = cfg.Tags
	}
	opts.TrunkOnly = opts.TrunkOnly || cfg.TrunkOnly
	opts.NoPrune = opts.NoPrune || cfg.NoPrune
	opts.Quiet = opts.Quiet || cfg.Quiet
	opts.Relax = opts.Relax || cfg.Relax
	if cfg.FallbackEncoding != "" {
		opts.FallbackEncoding = cfg.FallbackEncoding
	}
	if cfg.Dumpfile != "" {
		opts.Dumpfile = cfg.Dumpfile
	}
	if cfg.SVNRepoPath != "" {
		opts.SVNRepoPath = cfg.SVNRepoPath
	}
	if cfg.TmpDir != "" {
		opts.TmpDir = cfg.TmpDir
	}
	if cfg.CommitThreshold != "" {
		d, err := time.ParseDuration(cfg.CommitThreshold)
		if err != nil {
			return fmt.Errorf("cliopts: parsing commit_threshold %q: %w", cfg.CommitThreshold, err)
		}
		opts.CommitThreshold = d
	}
	exclude, err := compileAll(cfg.Exclude)
	if err != nil {
		return err
	}
	opts.Exclude = append(opts.Exclude, exclude...)
	forceBranch, err := compileAll(cfg.ForceBranch)
	if err != nil {
		return err
	}
	opts.ForceBranch = append(opts.ForceBranch, forceBranch...)
	forceTag, err := compileAll(cfg.ForceTag)
	if err != nil {
		return err
	}
	opts.ForceTag = append(opts.ForceTag, forceTag...)
	transforms, err := compileTransforms(cfg.SymbolTransforms)
	if err != nil {
		return err
	}
	opts.SymbolTransforms = append(opts.SymbolTransforms, transforms...)
	opts.Encodings = append(opts.Encodings, cfg.Encodings...)
	return nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("cliopts: compiling %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func compileTransforms(rules []string) ([]convctx.SymbolTransform, error) {
	out := make([]convctx.SymbolTransform, 0, len(rules))
	for _, rule := range rules {
		parts := strings.SplitN(rule, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("cliopts: symbol-transform %q must be PATTERN:REPLACEMENT", rule)
		}
		re, err := regexp.Compile(parts[0])
		if err != nil {
			return nil, fmt.Errorf("cliopts: compiling symbol-transform pattern %q: %w", parts[0], err)
		}
		out = append(out, convctx.SymbolTransform{Match: re, Replace: parts[1]})
	}
	return out, nil
}

// multiFlag collects a repeatable string flag's values, flag.Value style.
type multiFlag []string

func (m *multiFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
