// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"fmt"
	"slices"
	"strings"

	"github.com/monobuild/monobuild/pkg/manifest"
)

// Graph is the dependency graph over a package set.
type Graph struct {
	pkgs  []*manifest.Package
	index map[string]int
	// deps[i] holds the handles i depends on; rdeps[i] the handles depending on i.
	// Both are sorted ascending.
	deps  [][]int
	rdeps [][]int
}

// Build constructs the graph. It fails with *UnresolvedDependencyError when a
// dependency names no package in pkgs and with *CyclicDependencyError when the
// dependencies form a cycle (a self-dependency is a cycle of one).
func Build(pkgs []*manifest.Package) (*Graph, error) {
	sorted := slices.Clone(pkgs)
	slices.SortFunc(sorted, func(a, b *manifest.Package) int { return strings.Compare(a.ID(), b.ID()) })

	g := &Graph{
		pkgs:  sorted,
		index: make(map[string]int, len(sorted)),
		deps:  make([][]int, len(sorted)),
		rdeps: make([][]int, len(sorted)),
	}
	for i, p := range sorted {
		if _, dup := g.index[p.ID()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, p.ID())
		}
		g.index[p.ID()] = i
	}

	for i, p := range sorted {
		for _, dep := range p.Dependencies() {
			j, ok := g.index[dep]
			if !ok {
				return nil, &UnresolvedDependencyError{Package: p.ID(), Descriptor: p.Descriptor(), Missing: dep}
			}
			g.deps[i] = append(g.deps[i], j)
		}
		slices.Sort(g.deps[i])
		g.deps[i] = slices.Compact(g.deps[i])
		for _, j := range g.deps[i] {
			g.rdeps[j] = append(g.rdeps[j], i)
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}
	return g, nil
}

// Len returns the number of packages.
func (g *Graph) Len() int { return len(g.pkgs) }

// Package returns the package behind handle h.
func (g *Graph) Package(h int) *manifest.Package { return g.pkgs[h] }

// Lookup returns the handle of the package with identity id.
func (g *Graph) Lookup(id string) (int, bool) {
	h, ok := g.index[id]
	return h, ok
}

// Dependencies returns the handles h depends on, ascending.
func (g *Graph) Dependencies(h int) []int { return slices.Clone(g.deps[h]) }

// Dependents returns the handles depending on h, ascending.
func (g *Graph) Dependents(h int) []int { return slices.Clone(g.rdeps[h]) }

// Packages returns every package in handle order.
func (g *Graph) Packages() []*manifest.Package { return slices.Clone(g.pkgs) }

// IDs returns every identity in handle order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.pkgs))
	for i, p := range g.pkgs {
		ids[i] = p.ID()
	}
	return ids
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, d := range g.deps {
		n += len(d)
	}
	return n
}

// Handles returns the handles of ids, ignoring unknown identities.
func (g *Graph) Handles(ids ...string) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if h, ok := g.index[id]; ok {
			out = append(out, h)
		}
	}
	return out
}
