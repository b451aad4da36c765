// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"

	"github.com/monobuild/monobuild/pkg/manifest"
	"github.com/monobuild/monobuild/pkg/types"
)

// Pkg describes a package fixture. Root defaults to the identity and Kind to generic.
type Pkg struct {
	ID      string
	Root    string
	Kind    manifest.Kind
	Deps    []string
	Targets []manifest.Target
	Image   bool
	Script  string
}

// Package builds a manifest.Package from p, failing the test on error.
func Package(tb testing.TB, p Pkg) *manifest.Package {
	tb.Helper()

	root := p.Root
	if root == "" {
		root = p.ID
	}
	kind := p.Kind
	if kind == "" {
		kind = manifest.KindGeneric
	}
	rootPath, err := types.NewRepoPath(root)
	if err != nil {
		tb.Fatalf("fixture %s: %v", p.ID, err)
	}
	spec := manifest.Spec{
		ID:             p.ID,
		Kind:           kind,
		Root:           rootPath,
		Descriptor:     rootPath.Join(string(manifest.DescriptorYAML)),
		DescriptorKind: manifest.DescriptorYAML,
		Dependencies:   p.Deps,
		Targets:        p.Targets,
		Script:         p.Script,
	}
	if p.Image {
		spec.Image = manifest.ImageSpec{Dockerfile: rootPath.Join("Dockerfile")}
		if !rootPath.IsRoot() {
			spec.Image.Name = rootPath.Base()
		}
	}
	pkg, err := manifest.NewPackage(spec)
	if err != nil {
		tb.Fatalf("fixture %s: %v", p.ID, err)
	}
	return pkg
}

// Chain is shorthand for packages whose root equals their identity.
// Each entry maps an identity to its dependencies.
func Chain(tb testing.TB, deps map[string][]string) []*manifest.Package {
	tb.Helper()

	pkgs := make([]*manifest.Package, 0, len(deps))
	for id, d := range deps {
		pkgs = append(pkgs, Package(tb, Pkg{ID: id, Deps: d}))
	}
	return pkgs
}
