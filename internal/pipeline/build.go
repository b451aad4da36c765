// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/monobuild/monobuild/internal/config"
	"github.com/monobuild/monobuild/internal/container"
	"github.com/monobuild/monobuild/internal/executor"
	"github.com/monobuild/monobuild/internal/metrics"
	"github.com/monobuild/monobuild/internal/plan"
	"github.com/monobuild/monobuild/pkg/types"
)

// Build arguments derived from the configuration.
const (
	BuildArgAccessToken = "GIT_ACCESS_TOKEN"
	BuildArgDepVersion  = "DEP_VERSION"
)

// BuildResult is the outcome of Build.
type BuildResult struct {
	*PlanResult
	Report *executor.Report
	// MarkerSaved is set when the head was recorded as the last built revision.
	MarkerSaved bool
}

// Build plans and executes. The error is non-nil for fatal failures before
// execution and for cancellation; package failures are in the report.
func (p *Pipeline) Build(ctx context.Context) (*BuildResult, error) {
	pr, err := p.Plan(ctx)
	if err != nil {
		return nil, err
	}
	res := &BuildResult{PlanResult: pr}
	if pr.Plan.IsEmpty() {
		p.logger.Info("nothing to build")
		res.Report = &executor.Report{}
		return res, p.saveMarker(ctx, res)
	}

	action, err := p.action(ctx, pr.Plan, pr.Versioning)
	if err != nil {
		return nil, err
	}
	policy, err := executor.ParsePolicy(string(p.opts.Config.Executor.Policy))
	if err != nil {
		return nil, err
	}

	rec := metrics.NewRecorder(p.runID, p.target)
	rec.ObservePlan(pr.Plan)
	pool := executor.NewPool(action, executor.PoolOptions{
		Concurrency: p.opts.Config.Executor.Concurrency,
		Policy:      policy,
		Logger:      p.logger.WithPrefix("executor"),
		Observer:    rec,
	})

	res.Report, err = pool.Execute(ctx, pr.Plan)
	rec.ObserveReport(res.Report)
	if path := p.opts.Config.Metrics.Textfile; path != "" {
		if werr := rec.WriteTextfile(path); werr != nil {
			p.logger.Warn("metrics not written", "err", werr)
		}
	}
	if err != nil {
		return res, err
	}
	return res, p.saveMarker(ctx, res)
}

// saveMarker records the head as built for the target after a fully
// successful run of a real build over git history.
func (p *Pipeline) saveMarker(ctx context.Context, res *BuildResult) error {
	store := p.markers()
	if store == nil || p.opts.DryRun || !p.opts.fromHistory() || res.Head == "" || !res.Report.OK() {
		return nil
	}
	if err := store.Save(ctx, string(p.target), res.Head); err != nil {
		return fmt.Errorf("saving last built revision: %w", err)
	}
	res.MarkerSaved = true
	p.logger.Debug("recorded last built revision", "target", p.target, "rev", res.Head)
	return nil
}

// action builds the executor action selected by the configuration.
func (p *Pipeline) action(ctx context.Context, pl *plan.Plan, v executor.Versioning) (executor.Action, error) {
	cfg := p.opts.Config
	kind := cfg.Executor.Action
	if p.opts.DryRun {
		kind = config.ActionDryRun
	}

	script := executor.NewScriptAction(executor.ScriptOptions{
		RepoRoot:   p.opts.RepoRoot,
		Versioning: v,
		Stdout:     p.opts.Stdout,
		Stderr:     p.opts.Stderr,
	})

	switch kind {
	case config.ActionDryRun:
		return executor.NewDryRunAction(p.logger.WithPrefix("dry-run")), nil
	case config.ActionScript:
		return script, nil
	case config.ActionImage:
		return p.imageAction(ctx, v)
	default:
		if !needsImages(pl) {
			return executor.NewAutoAction(script, nil), nil
		}
		image, err := p.imageAction(ctx, v)
		if err != nil {
			return nil, err
		}
		return executor.NewAutoAction(script, image), nil
	}
}

func (p *Pipeline) imageAction(ctx context.Context, v executor.Versioning) (*executor.ImageAction, error) {
	engine := p.opts.Engine
	if engine == nil {
		var err error
		engine, err = container.NewEngine(ctx, container.EngineType(p.opts.Config.Container.Engine))
		if err != nil {
			return nil, err
		}
	}
	return executor.NewImageAction(engine, executor.ImageOptions{
		RepoRoot:   p.opts.RepoRoot,
		Versioning: v,
		Push:       p.opts.Config.Container.Push,
		NoCache:    p.opts.Config.Container.NoCache,
		BuildArgs:  BuildArgs(p.opts.Config),
		Stdout:     orDiscard(p.opts.Stdout),
		Stderr:     orDiscard(p.opts.Stderr),
		Logger:     p.logger.WithPrefix("image"),
	}), nil
}

// BuildArgs returns the configured build arguments plus the access token
// and dependency version when they are set.
func BuildArgs(cfg *config.Config) map[string]string {
	args := make(map[string]string, len(cfg.Container.BuildArgs)+2)
	for k, v := range cfg.Container.BuildArgs {
		args[k] = v
	}
	if cfg.Container.JobToken != "" {
		args[BuildArgAccessToken] = cfg.Container.JobToken
	}
	if cfg.Container.DepVersion != "" {
		args[BuildArgDepVersion] = cfg.Container.DepVersion
	}
	return args
}

func needsImages(pl *plan.Plan) bool {
	for _, st := range pl.Steps() {
		if st.Package.Script() == "" && st.Package.HasImage() {
			return true
		}
	}
	return false
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// ExitCode maps the result to the process exit status. Package failures
// only count in strict mode.
func (r *BuildResult) ExitCode(strict bool) types.ExitCode {
	if strict && r.Report != nil && r.Report.Err() != nil {
		return types.ExitBuildFailed
	}
	return types.ExitOK
}
