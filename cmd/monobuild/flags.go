// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/monobuild/monobuild/internal/config"
	"github.com/monobuild/monobuild/internal/pipeline"

	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var errInvalidOutput = errors.New("invalid output format")

type (
	// selectFlagValues select what gets planned. Shared by plan, build and graph.
	selectFlagValues struct {
		target   string
		tag      string
		force    bool
		base     string
		head     string
		kinds    []string
		worktree bool
		patch    string
	}

	// buildFlagValues tune execution.
	buildFlagValues struct {
		concurrency int
		policy      string
		action      string
		dryRun      bool
		strict      bool
		push        bool
		registry    string
		noCache     bool
	}
)

func (f *selectFlagValues) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.target, "target", "t", "", "build target: feature, stage, prod, tag or a tag name")
	fs.StringVar(&f.tag, "tag", "", "git tag name (implies --target tag and a full rebuild)")
	fs.BoolVarP(&f.force, "force", "f", false, "rebuild every package regardless of changes")
	fs.StringVar(&f.base, "base", "", "base revision to diff against (default: last built marker, then the target's base ref)")
	fs.StringVar(&f.head, "head", "", "head revision (default: HEAD)")
	fs.StringSliceVarP(&f.kinds, "kind", "k", nil, "only plan packages of these kinds (repeatable)")
	fs.BoolVar(&f.worktree, "worktree", false, "include uncommitted changes")
	fs.StringVar(&f.patch, "patch", "", "read changes from a unified diff file instead of git history ('-' for stdin)")
}

// apply copies explicitly set flags over cfg.
func (f *selectFlagValues) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("target") {
		cfg.Target = f.target
	}
	if fs.Changed("tag") {
		cfg.Tag = f.tag
		if !fs.Changed("target") {
			cfg.Target = "tag"
		}
	}
	if fs.Changed("force") {
		cfg.ForceBuild = config.ForceFlag(fmt.Sprint(f.force))
	}
	if fs.Changed("base") {
		cfg.Base = f.base
	}
	if fs.Changed("head") {
		cfg.Head = f.head
	}
	if fs.Changed("kind") {
		cfg.Kinds = f.kinds
	}
}

func (f *buildFlagValues) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVarP(&f.concurrency, "concurrency", "j", 0, "packages built at once (0: one per CPU)")
	fs.StringVar(&f.policy, "policy", "", "failure policy: fail-fast or continue")
	fs.StringVar(&f.action, "action", "", "build action: auto, image, script or dry-run")
	fs.BoolVarP(&f.dryRun, "dry-run", "n", false, "print what would be built without building")
	fs.BoolVar(&f.strict, "strict", false, "exit non-zero when a package fails")
	fs.BoolVar(&f.push, "push", false, "push built images")
	fs.StringVar(&f.registry, "registry", "", "image registry, e.g. registry.example.com/shop")
	fs.BoolVar(&f.noCache, "no-cache", false, "build images without layer cache")
}

func (f *buildFlagValues) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("concurrency") {
		cfg.Executor.Concurrency = f.concurrency
	}
	if fs.Changed("policy") {
		cfg.Executor.Policy = config.Policy(f.policy)
	}
	if fs.Changed("action") {
		cfg.Executor.Action = config.Action(f.action)
	}
	if fs.Changed("strict") {
		cfg.Executor.Strict = f.strict
	}
	if fs.Changed("push") {
		cfg.Container.Push = f.push
	}
	if fs.Changed("registry") {
		cfg.Container.Registry = f.registry
	}
	if fs.Changed("no-cache") {
		cfg.Container.NoCache = f.noCache
	}
}

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON:
		return nil
	}
	return fmt.Errorf("%w: %q (valid: %s, %s)", errInvalidOutput, format, outputText, outputJSON)
}

// pipelineOptions assembles pipeline options from cfg and the selection
// flags. The returned close func releases an opened patch file.
func (a *App) pipelineOptions(cmd *cobra.Command, flags *rootFlagValues, sel *selectFlagValues, cfg *config.Config) (pipeline.Options, func(), error) {
	opts := pipeline.Options{
		RepoRoot: flags.repoRoot,
		Config:   cfg,
		Worktree: sel.worktree,
		Engine:   a.Engine,
		Stdout:   a.stdout,
		Stderr:   a.stderr,
		Logger:   a.logger(flags),
	}
	closeFn := func() {}

	switch sel.patch {
	case "":
	case "-":
		opts.Patch = cmd.InOrStdin()
	default:
		f, err := os.Open(sel.patch)
		if err != nil {
			return opts, closeFn, fmt.Errorf("opening patch: %w", err)
		}
		opts.Patch = f
		closeFn = func() { _ = f.Close() }
	}
	return opts, closeFn, nil
}

// loadPipeline loads the configuration, applies flag overrides and builds
// a pipeline. Callers must invoke the returned close func.
func (a *App) loadPipeline(cmd *cobra.Command, flags *rootFlagValues, sel *selectFlagValues, build *buildFlagValues) (*pipeline.Pipeline, *config.Config, func(), error) {
	noop := func() {}
	cfg, err := a.loadConfig(cmd.Context(), flags)
	if err != nil {
		return nil, nil, noop, err
	}
	sel.apply(cmd, cfg)
	if build != nil {
		build.apply(cmd, cfg)
	}

	opts, closeFn, err := a.pipelineOptions(cmd, flags, sel, cfg)
	if err != nil {
		return nil, nil, noop, err
	}
	if build != nil {
		opts.DryRun = build.dryRun
	}
	p, err := pipeline.New(opts)
	if err != nil {
		closeFn()
		return nil, nil, noop, err
	}
	return p, cfg, closeFn, nil
}
