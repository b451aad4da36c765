// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrEngineNotAvailable is the sentinel wrapped by EngineNotAvailableError.
var ErrEngineNotAvailable = errors.New("container engine not available")

type (
	// Engine defines the image operations used by the build executor.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Available checks if the engine CLI is installed and its daemon or service answers.
		Available(ctx context.Context) bool
		Version(ctx context.Context) (string, error)

		// Build builds an image from a Dockerfile and applies every tag in opts.Tags.
		Build(ctx context.Context, opts BuildOptions) error
		// Tag adds target as an additional name for source.
		Tag(ctx context.Context, source, target ImageRef) error
		Push(ctx context.Context, ref ImageRef) error
		Pull(ctx context.Context, ref ImageRef) error
		ImageExists(ctx context.Context, ref ImageRef) (bool, error)
		RemoveImage(ctx context.Context, ref ImageRef, force bool) error
	}

	// ImageRef is a fully qualified image reference, e.g. registry.example.com/shop/api:feature-x.
	ImageRef string

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory.
		ContextDir string
		// Dockerfile is the path to the Dockerfile (relative to ContextDir).
		Dockerfile string
		// Tags names the resulting image; the first tag is the primary one.
		Tags []ImageRef
		// BuildArgs are build-time variables.
		BuildArgs map[string]string
		// CacheFrom lists images whose layers may be reused.
		CacheFrom []ImageRef
		// Pull always attempts to pull a newer version of the base image.
		Pull    bool
		NoCache bool
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// EngineType identifies the container engine type.
	EngineType string

	// EngineNotAvailableError is returned when no usable container engine was found.
	EngineNotAvailableError struct {
		Engine EngineType
		Reason string
	}
)

func (r ImageRef) String() string { return string(r) }

// Validate reports an error if r is empty or contains whitespace.
func (r ImageRef) Validate() error {
	if r == "" {
		return errors.New("image reference is empty")
	}
	for _, c := range r {
		if c == ' ' || c == '\t' || c == '\n' {
			return fmt.Errorf("image reference %q contains whitespace", string(r))
		}
	}
	return nil
}

// Validate checks that opts can produce a build command.
func (o BuildOptions) Validate() error {
	if o.ContextDir == "" {
		return errors.New("build context directory is required")
	}
	if len(o.Tags) == 0 {
		return errors.New("at least one image tag is required")
	}
	var errs []error
	for _, t := range o.Tags {
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range o.CacheFrom {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrEngineNotAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }

// NewEngine returns the preferred engine, falling back to the other one when
// the preferred engine is unavailable.
func NewEngine(ctx context.Context, preferredType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	var preferred, fallback Engine
	switch preferredType {
	case EngineTypeDocker:
		preferred, fallback = NewDockerEngine(opts...), NewPodmanEngine(opts...)
	case EngineTypePodman:
		preferred, fallback = NewPodmanEngine(opts...), NewDockerEngine(opts...)
	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}

	if preferred.Available(ctx) {
		return preferred, nil
	}
	if fallback.Available(ctx) {
		return fallback, nil
	}
	return nil, &EngineNotAvailableError{
		Engine: preferredType,
		Reason: fmt.Sprintf("%s is not installed or not accessible, and %s fallback is also not available",
			preferred.Name(), fallback.Name()),
	}
}
