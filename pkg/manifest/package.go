// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"

	"github.com/monobuild/monobuild/pkg/types"
)

// ErrInvalidPackage is returned by NewPackage for an inconsistent Spec.
var ErrInvalidPackage = errors.New("invalid package")

type (
	// ImageSpec describes the container image built for a package.
	ImageSpec struct {
		// Dockerfile is repository-relative; empty when the package has none.
		Dockerfile types.RepoPath
		// Name is the image name below the registry. Empty for the root package,
		// whose image is the registry image itself.
		Name      string
		BuildArgs map[string]string
	}

	// Spec is the mutable input to NewPackage.
	Spec struct {
		ID             string
		Kind           Kind
		Descriptor     types.RepoPath
		DescriptorKind DescriptorKind
		Root           types.RepoPath
		Dependencies   []string
		Targets        []Target
		Image          ImageSpec
		Script         string
	}

	// Package is one independently buildable unit of the repository.
	// It is immutable; accessors return copies.
	Package struct {
		id             string
		kind           Kind
		descriptor     types.RepoPath
		descriptorKind DescriptorKind
		root           types.RepoPath
		deps           []string
		targets        []Target
		image          ImageSpec
		script         string
	}
)

// NewPackage validates s and freezes it into a Package. Duplicate
// dependencies are dropped keeping first-declaration order.
func NewPackage(s Spec) (*Package, error) {
	if err := ValidateID(s.ID); err != nil {
		return nil, err
	}
	if err := s.Kind.Validate(); err != nil {
		return nil, fmt.Errorf("%w: package %q: %w", ErrInvalidPackage, s.ID, err)
	}
	if err := s.Root.Validate(); err != nil {
		return nil, fmt.Errorf("%w: package %q root: %w", ErrInvalidPackage, s.ID, err)
	}
	if err := s.Descriptor.Validate(); err != nil {
		return nil, fmt.Errorf("%w: package %q descriptor: %w", ErrInvalidPackage, s.ID, err)
	}
	for _, t := range s.Targets {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%w: package %q: %w", ErrInvalidPackage, s.ID, err)
		}
	}
	if s.Image.Dockerfile != "" {
		if err := s.Image.Dockerfile.Validate(); err != nil {
			return nil, fmt.Errorf("%w: package %q dockerfile: %w", ErrInvalidPackage, s.ID, err)
		}
	}

	deps := make([]string, 0, len(s.Dependencies))
	for _, d := range s.Dependencies {
		if err := ValidateID(d); err != nil {
			return nil, fmt.Errorf("%w: package %q dependency: %w", ErrInvalidPackage, s.ID, err)
		}
		if !slices.Contains(deps, d) {
			deps = append(deps, d)
		}
	}

	return &Package{
		id:             s.ID,
		kind:           s.Kind,
		descriptor:     s.Descriptor,
		descriptorKind: s.DescriptorKind,
		root:           s.Root,
		deps:           deps,
		targets:        slices.Clone(s.Targets),
		image: ImageSpec{
			Dockerfile: s.Image.Dockerfile,
			Name:       s.Image.Name,
			BuildArgs:  maps.Clone(s.Image.BuildArgs),
		},
		script: s.Script,
	}, nil
}

// ValidateID checks that id is a usable package identity: non-empty and free of whitespace.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty package name", ErrInvalidPackage)
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: package name %q contains whitespace", ErrInvalidPackage, id)
	}
	return nil
}

func (p *Package) ID() string                     { return p.id }
func (p *Package) Kind() Kind                     { return p.kind }
func (p *Package) Descriptor() types.RepoPath     { return p.descriptor }
func (p *Package) DescriptorKind() DescriptorKind { return p.descriptorKind }

// Root is the directory that owns every file below it, unless a nested
// package root is a longer match.
func (p *Package) Root() types.RepoPath { return p.root }

// Dependencies returns the declared dependency identities in declaration order.
func (p *Package) Dependencies() []string { return slices.Clone(p.deps) }

// Targets returns the targets the package is built for. Empty means all.
func (p *Package) Targets() []Target { return slices.Clone(p.targets) }

// AllowsTarget reports whether the package builds for t.
func (p *Package) AllowsTarget(t Target) bool {
	return len(p.targets) == 0 || slices.Contains(p.targets, t)
}

// Image returns the image settings.
func (p *Package) Image() ImageSpec {
	img := p.image
	img.BuildArgs = maps.Clone(p.image.BuildArgs)
	return img
}

// HasImage reports whether the package has a Dockerfile to build.
func (p *Package) HasImage() bool { return p.image.Dockerfile != "" }

// Script returns the build script, or "" when none is declared.
func (p *Package) Script() string { return p.script }

// String returns "id (kind, root)".
func (p *Package) String() string {
	return fmt.Sprintf("%s (%s, %s)", p.id, p.kind, p.root)
}
