// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/monobuild/monobuild/internal/changes"
	"github.com/monobuild/monobuild/internal/dag"
	"github.com/monobuild/monobuild/internal/executor"
	"github.com/monobuild/monobuild/internal/impact"
	"github.com/monobuild/monobuild/internal/plan"
	"github.com/monobuild/monobuild/internal/scan"
	"github.com/monobuild/monobuild/pkg/manifest"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrNoBase is returned when no base revision is configured for the target.
var ErrNoBase = errors.New("no base revision")

type (
	// Pipeline runs one selective rebuild.
	Pipeline struct {
		opts   Options
		runID  string
		target manifest.Target
		tag    string
		kinds  []manifest.Kind
		logger *log.Logger

		detector *changes.Detector
	}

	// PlanResult is everything known once the plan is built.
	PlanResult struct {
		RunID       string
		Target      manifest.Target
		Graph       *dag.Graph
		Diagnostics []scan.Diagnostic
		Changes     *changes.ChangeSet
		Impact      *impact.Set
		// Plan is the ordered plan after kind and target filters.
		Plan *plan.Plan
		// Base is the revision changes were computed from; empty when they
		// did not come from git history.
		Base string
		// Head is the resolved head commit, when a repository is available.
		Head       string
		Versioning executor.Versioning
	}
)

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if opts.RepoRoot == "" {
		opts.RepoRoot = "."
	}
	root, err := filepath.Abs(opts.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}
	opts.RepoRoot = root
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	if ok, errs := opts.Config.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}
	target, tag, err := opts.Config.TargetSelection()
	if err != nil {
		return nil, err
	}
	kinds := make([]manifest.Kind, 0, len(opts.Config.Kinds))
	for _, k := range opts.Config.Kinds {
		kind, err := manifest.ParseKind(k)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}

	runID := uuid.NewString()
	return &Pipeline{
		opts:   opts,
		runID:  runID,
		target: target,
		tag:    tag,
		kinds:  kinds,
		logger: opts.Logger.With("run", runID[:8]),
	}, nil
}

// RunID identifies this run in logs and metrics.
func (p *Pipeline) RunID() string { return p.runID }

// Discover scans the repository and links the packages into a graph.
func (p *Pipeline) Discover(ctx context.Context) (*dag.Graph, []scan.Diagnostic, error) {
	cfg := p.opts.Config
	scanner, err := scan.New(p.opts.RepoRoot, scan.Options{
		Ignore:         cfg.Ignore,
		ProjectName:    cfg.ProjectName,
		GoModulePrefix: cfg.Go.ModulePrefix,
		NodeScope:      cfg.Node.Scope,
		Logger:         p.logger.WithPrefix("scan"),
	})
	if err != nil {
		return nil, nil, err
	}
	scanned, err := scanner.Collect(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, d := range scanned.Diagnostics {
		p.logger.Warn(d.Message, "path", d.Path, "code", d.Code)
	}

	g, err := dag.Build(scanned.Packages)
	if err != nil {
		return nil, scanned.Diagnostics, err
	}
	p.logger.Info("packages discovered", "count", g.Len(), "edges", g.EdgeCount())
	return g, scanned.Diagnostics, nil
}

// Plan runs every stage up to and including the build plan.
func (p *Pipeline) Plan(ctx context.Context) (*PlanResult, error) {
	res := &PlanResult{RunID: p.runID, Target: p.target}

	var err error
	res.Graph, res.Diagnostics, err = p.Discover(ctx)
	if err != nil {
		return nil, err
	}

	res.Changes, res.Base, err = p.detectChanges(ctx)
	if err != nil {
		return nil, err
	}
	res.Head, res.Versioning = p.versioning()

	res.Impact = impact.Resolve(res.Graph, res.Changes)
	full, err := plan.Build(res.Graph, res.Impact)
	if err != nil {
		return nil, err
	}
	byKind, byTarget := plan.ByKind(p.kinds...), plan.ByTarget(p.target)
	res.Plan = full.Filter(func(st plan.Step) bool { return byKind(st) && byTarget(st) })

	p.logger.Info("plan ready",
		"target", p.target,
		"force", res.Changes.IsForce(),
		"changed_files", res.Changes.Len(),
		"impacted", res.Impact.Len(),
		"planned", res.Plan.Len())
	return res, nil
}

// detectChanges picks the change source: explicit paths, force, a patch or
// git history between the base and the head.
func (p *Pipeline) detectChanges(ctx context.Context) (*changes.ChangeSet, string, error) {
	cfg := p.opts.Config
	switch {
	case cfg.Force():
		p.logger.Info("force build", "target", p.target)
		return changes.Force(), "", nil
	case p.opts.Paths != nil:
		return changes.FromPaths(p.opts.Paths...), "", nil
	case p.opts.Patch != nil:
		cs, err := changes.FromPatch(p.opts.Patch)
		return cs, "", err
	}

	d, err := p.openDetector()
	if err != nil {
		return nil, "", err
	}
	base, err := p.resolveBase(ctx)
	if err != nil {
		return nil, "", err
	}
	p.logger.Info("detecting changes", "base", base, "head", cfg.Head, "worktree", p.opts.Worktree)
	cs, err := d.Detect(ctx, changes.Request{Base: base, Head: cfg.Head, IncludeWorktree: p.opts.Worktree})
	if err != nil {
		return nil, "", err
	}
	return cs, base, nil
}

// resolveBase applies the precedence explicit base, last-built marker,
// configured base ref for the target.
func (p *Pipeline) resolveBase(ctx context.Context) (string, error) {
	cfg := p.opts.Config
	if cfg.Base != "" {
		return cfg.Base, nil
	}
	if store := p.markers(); store != nil {
		rev, ok, err := store.Load(ctx, string(p.target))
		if err != nil {
			return "", err
		}
		if ok {
			p.logger.Debug("using last built revision", "rev", rev)
			return rev, nil
		}
	}
	if ref := cfg.BaseRef(string(p.target)); ref != "" {
		return ref, nil
	}
	return "", &changes.RevisionResolutionError{Err: fmt.Errorf("%w configured for target %s", ErrNoBase, p.target)}
}

func (p *Pipeline) openDetector() (*changes.Detector, error) {
	if p.detector != nil {
		return p.detector, nil
	}
	d, err := changes.Open(p.opts.RepoRoot, p.logger.WithPrefix("changes"))
	if err != nil {
		return nil, err
	}
	p.detector = d
	return d, nil
}

// markers returns the marker store, or nil when markers are disabled.
func (p *Pipeline) markers() changes.MarkerStore {
	if !p.opts.Config.Marker.Enabled {
		return nil
	}
	if p.opts.Markers != nil {
		return p.opts.Markers
	}
	dir := p.opts.Config.Marker.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.opts.RepoRoot, dir)
	}
	return changes.FileMarkerStore{Dir: dir}
}

// versioning fills commit and ref slug from the repository where the
// configuration leaves them empty. A missing repository is not an error
// here; image naming reports what it lacks.
func (p *Pipeline) versioning() (string, executor.Versioning) {
	cfg := p.opts.Config
	v := executor.Versioning{
		Registry:  cfg.Container.Registry,
		Target:    p.target,
		CommitSHA: cfg.Version.CommitSHA,
		RefSlug:   cfg.Version.RefSlug,
		Tag:       p.tag,
	}

	d, err := p.openDetector()
	if err != nil {
		p.logger.Debug("no repository for versioning", "err", err)
		return "", v
	}
	hash, branch, err := d.Head()
	if cfg.Head != "" && cfg.Head != changes.DefaultHead {
		hash, err = d.Resolve(cfg.Head)
		branch = ""
	}
	if err != nil {
		p.logger.Debug("no head for versioning", "err", err)
		return "", v
	}
	if v.CommitSHA == "" {
		v.CommitSHA = hash.String()
	}
	if v.RefSlug == "" && branch != "" {
		v.RefSlug = executor.Slug(branch)
	}
	return hash.String(), v
}
