// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"io"

	"github.com/monobuild/monobuild/pkg/manifest"

	"github.com/charmbracelet/log"
)

type (
	// AutoAction picks per package: the build script when one is declared,
	// otherwise the image build when the package has a Dockerfile, otherwise nothing.
	AutoAction struct {
		script Action
		image  Action
	}

	// DryRunAction only logs what would be built.
	DryRunAction struct {
		logger *log.Logger
	}
)

// NewAutoAction combines a script and an image action. Either may be nil,
// in which case packages needing it are a no-op.
func NewAutoAction(script, image Action) *AutoAction {
	return &AutoAction{script: script, image: image}
}

// Name implements Action.
func (a *AutoAction) Name() string { return "auto" }

// Run implements Action.
func (a *AutoAction) Run(ctx context.Context, pkg *manifest.Package) (Outcome, error) {
	switch {
	case pkg.Script() != "" && a.script != nil:
		return a.script.Run(ctx, pkg)
	case pkg.HasImage() && a.image != nil:
		return a.image.Run(ctx, pkg)
	default:
		return Outcome{Noop: true}, nil
	}
}

// NewDryRunAction returns a DryRunAction logging to logger.
func NewDryRunAction(logger *log.Logger) *DryRunAction {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &DryRunAction{logger: logger}
}

// Name implements Action.
func (a *DryRunAction) Name() string { return "dry-run" }

// Run implements Action.
func (a *DryRunAction) Run(ctx context.Context, pkg *manifest.Package) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	a.logger.Info("would build", "package", pkg.ID(), "root", pkg.Root(),
		"script", pkg.Script() != "", "image", pkg.HasImage())
	return Outcome{Noop: true}, nil
}
