// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"errors"
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/monobuild/monobuild/internal/plan"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type (
	// PoolOptions configures a Pool.
	PoolOptions struct {
		// Concurrency bounds simultaneous builds; 0 means runtime.NumCPU().
		Concurrency int
		Policy      Policy
		Logger      *log.Logger
		Observer    Observer
	}

	// Pool is the default Executor.
	Pool struct {
		action      Action
		concurrency int
		policy      Policy
		logger      *log.Logger
		observer    Observer
	}
)

var _ Executor = (*Pool)(nil)

// NewPool returns a Pool running action for every step.
func NewPool(action Action, opts PoolOptions) *Pool {
	p := &Pool{
		action:      action,
		concurrency: opts.Concurrency,
		policy:      opts.Policy,
		logger:      opts.Logger,
		observer:    opts.Observer,
	}
	if p.concurrency <= 0 {
		p.concurrency = runtime.NumCPU()
	}
	if p.policy == "" {
		p.policy = FailFast
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Concurrency returns the effective worker limit.
func (p *Pool) Concurrency() int { return p.concurrency }

// Execute builds the plan. Ready steps are started in plan order, so with a
// concurrency of one the build order is exactly the plan order.
//
// The error is non-nil only when ctx was canceled; the report then marks every
// step that never started as skipped.
func (p *Pool) Execute(ctx context.Context, pl *plan.Plan) (*Report, error) {
	start := time.Now()
	steps := pl.Steps()
	results := make([]Result, len(steps))

	index := make(map[string]int, len(steps))
	for i, st := range steps {
		index[st.Package.ID()] = i
	}
	unmet := make([]int, len(steps))
	dependents := make([][]int, len(steps))
	var ready []int
	for i, st := range steps {
		unmet[i] = len(st.Needs)
		for _, n := range st.Needs {
			j := index[n]
			dependents[j] = append(dependents[j], i)
		}
		if unmet[i] == 0 {
			ready = append(ready, i)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	done := make(chan int, len(steps))
	inflight := 0
	stopped := false

	p.logger.Info("executing plan", "steps", len(steps), "action", p.action.Name(),
		"concurrency", p.concurrency, "policy", p.policy)

	for {
		for len(ready) > 0 && !stopped && inflight < p.concurrency {
			if runCtx.Err() != nil {
				stopped = true
				break
			}
			i := ready[0]
			ready = ready[1:]
			inflight++
			g.Go(func() error {
				results[i] = p.run(runCtx, steps[i])
				done <- i
				return nil
			})
		}
		if inflight == 0 {
			break
		}

		i := <-done
		inflight--
		switch results[i].Status {
		case StatusSucceeded:
			for _, d := range dependents[i] {
				unmet[d]--
				if unmet[d] == 0 {
					pos, _ := slices.BinarySearch(ready, d)
					ready = slices.Insert(ready, pos, d)
				}
			}
		case StatusFailed:
			if p.policy == FailFast && !stopped {
				p.logger.Warn("stopping after failure", "package", results[i].ID())
				stopped = true
				cancel()
			}
		}
	}
	_ = g.Wait()

	p.markUnstarted(ctx, steps, index, results)

	report := &Report{results: results, Duration: time.Since(start)}
	p.logger.Info("plan executed",
		"succeeded", report.Count(StatusSucceeded),
		"failed", report.Count(StatusFailed),
		"skipped", report.Count(StatusSkipped),
		"duration", report.Duration.Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// run executes one step. A build interrupted by the pool's own cancellation
// is reported as skipped; any other error is a failure.
func (p *Pool) run(ctx context.Context, st plan.Step) Result {
	pkg := st.Package
	if p.observer != nil {
		p.observer.Started(pkg)
	}
	p.logger.Info("building", "package", pkg.ID(), "level", st.Level, "reason", st.Reason)

	began := time.Now()
	outcome, err := p.action.Run(ctx, pkg)
	res := Result{Package: pkg, Outcome: outcome, Duration: time.Since(began)}
	switch {
	case err == nil:
		res.Status = StatusSucceeded
		p.logger.Info("built", "package", pkg.ID(), "duration", res.Duration.Round(time.Millisecond),
			"artifacts", len(outcome.Artifacts))
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		res.Status = StatusSkipped
		res.SkipReason = "canceled"
		p.logger.Warn("canceled", "package", pkg.ID())
	default:
		res.Status = StatusFailed
		res.Err = err
		p.logger.Error("build failed", "package", pkg.ID(), "err", err)
	}

	if p.observer != nil {
		p.observer.Finished(res)
	}
	return res
}

// markUnstarted fills in results for steps that never ran. Plan order is
// topological, so blame propagates in a single pass.
func (p *Pool) markUnstarted(ctx context.Context, steps []plan.Step, index map[string]int, results []Result) {
	blocked := make([]string, len(steps))
	for i, st := range steps {
		if results[i].Status != 0 {
			continue
		}
		for _, n := range st.Needs {
			j := index[n]
			switch {
			case results[j].Status == StatusFailed:
				blocked[i] = n
			case blocked[j] != "":
				blocked[i] = blocked[j]
			}
			if blocked[i] != "" {
				break
			}
		}

		res := Result{Package: st.Package, Status: StatusSkipped}
		switch {
		case blocked[i] != "":
			res.SkipReason = "dependency " + blocked[i] + " failed"
		case ctx.Err() != nil:
			res.SkipReason = "canceled"
		default:
			res.SkipReason = "run stopped after a failure"
		}
		results[i] = res
		if p.observer != nil {
			p.observer.Finished(res)
		}
	}
}
