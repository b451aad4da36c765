// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/monobuild/monobuild/internal/plan"
	"github.com/monobuild/monobuild/pkg/manifest"
)

const (
	StatusSucceeded Status = iota + 1
	StatusFailed
	StatusSkipped
)

type (
	// Executor consumes a plan and reports the outcome of every step.
	// The returned error is reserved for the run itself (cancellation);
	// package failures are reported in the Report.
	Executor interface {
		Execute(ctx context.Context, p *plan.Plan) (*Report, error)
	}

	// Action builds a single package.
	Action interface {
		Name() string
		Run(ctx context.Context, pkg *manifest.Package) (Outcome, error)
	}

	// ActionFunc adapts a function to Action.
	ActionFunc func(ctx context.Context, pkg *manifest.Package) (Outcome, error)

	// Outcome describes what a successful action produced.
	Outcome struct {
		// Artifacts lists produced references, e.g. pushed image tags.
		Artifacts []string
		// Noop is set when the package had nothing to build for this action.
		Noop bool
	}

	// Status is the final state of a step.
	Status int

	// Result is the outcome of one step.
	Result struct {
		Package  *manifest.Package
		Status   Status
		Outcome  Outcome
		Err      error
		Duration time.Duration
		// SkipReason explains StatusSkipped results.
		SkipReason string
	}

	// Observer is notified as steps start and finish. Calls may come from
	// several goroutines at once.
	Observer interface {
		Started(pkg *manifest.Package)
		Finished(r Result)
	}
)

// Name implements Action.
func (f ActionFunc) Name() string { return "func" }

// Run implements Action.
func (f ActionFunc) Run(ctx context.Context, pkg *manifest.Package) (Outcome, error) {
	return f(ctx, pkg)
}

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText renders the status name in JSON output.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ID returns the package identity of the result.
func (r Result) ID() string { return r.Package.ID() }
