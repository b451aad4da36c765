// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"fmt"
	"io"
	"maps"
	"path/filepath"

	"github.com/monobuild/monobuild/internal/container"
	"github.com/monobuild/monobuild/pkg/manifest"

	"github.com/charmbracelet/log"
)

type (
	// ImageOptions configures ImageAction.
	ImageOptions struct {
		// RepoRoot is the absolute repository root, used as build context.
		RepoRoot   string
		Versioning Versioning
		Push       bool
		NoCache    bool
		// BuildArgs apply to every package; package build args override them.
		BuildArgs map[string]string
		Stdout    io.Writer
		Stderr    io.Writer
		Logger    *log.Logger
	}

	// ImageAction builds, tags and pushes the container image of a package.
	ImageAction struct {
		engine container.Engine
		opts   ImageOptions
	}
)

// NewImageAction returns an ImageAction driving engine.
func NewImageAction(engine container.Engine, opts ImageOptions) *ImageAction {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &ImageAction{engine: engine, opts: opts}
}

// Name implements Action.
func (a *ImageAction) Name() string { return "image" }

// Run implements Action. Packages without a Dockerfile are a no-op.
//
// For target tag the image is not built: the latest image is pulled and
// pushed again under the release tag.
func (a *ImageAction) Run(ctx context.Context, pkg *manifest.Package) (Outcome, error) {
	if !pkg.HasImage() {
		return Outcome{Noop: true}, nil
	}
	tags, err := a.opts.Versioning.TagsFor(pkg)
	if err != nil {
		return Outcome{}, fmt.Errorf("name image of %s: %w", pkg.ID(), err)
	}

	var out Outcome
	if tags.Retag {
		a.opts.Logger.Debug("pulling", "package", pkg.ID(), "image", tags.Primary)
		if err := a.engine.Pull(ctx, tags.Primary); err != nil {
			return Outcome{}, err
		}
	} else {
		if err := a.engine.Build(ctx, a.buildOptions(pkg, tags.Primary)); err != nil {
			return Outcome{}, err
		}
		if a.opts.Push {
			if err := a.engine.Push(ctx, tags.Primary); err != nil {
				return Outcome{}, err
			}
		}
		out.Artifacts = append(out.Artifacts, string(tags.Primary))
	}

	for _, alias := range tags.Aliases {
		if err := a.engine.Tag(ctx, tags.Primary, alias); err != nil {
			return Outcome{}, fmt.Errorf("tag %s as %s: %w", tags.Primary, alias, err)
		}
		if a.opts.Push {
			if err := a.engine.Push(ctx, alias); err != nil {
				return Outcome{}, err
			}
		}
		out.Artifacts = append(out.Artifacts, string(alias))
	}
	return out, nil
}

func (a *ImageAction) buildOptions(pkg *manifest.Package, primary container.ImageRef) container.BuildOptions {
	args := maps.Clone(a.opts.BuildArgs)
	if args == nil {
		args = map[string]string{}
	}
	maps.Copy(args, pkg.Image().BuildArgs)

	return container.BuildOptions{
		ContextDir: a.opts.RepoRoot,
		Dockerfile: filepath.FromSlash(pkg.Image().Dockerfile.String()),
		Tags:       []container.ImageRef{primary},
		CacheFrom:  []container.ImageRef{primary},
		BuildArgs:  args,
		Pull:       true,
		NoCache:    a.opts.NoCache,
		Stdout:     a.opts.Stdout,
		Stderr:     a.opts.Stderr,
	}
}
