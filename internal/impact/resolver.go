// SPDX-License-Identifier: MPL-2.0

package impact

import (
	"slices"

	"github.com/monobuild/monobuild/internal/changes"
	"github.com/monobuild/monobuild/internal/dag"
	"github.com/monobuild/monobuild/pkg/types"
)

// Reason records why a package is in a Set.
type Reason uint8

const (
	// Direct means a changed path lies inside the package root (or force).
	Direct Reason = iota + 1
	// Transitive means the package depends, possibly indirectly, on a direct one.
	Transitive
)

// Set is the impacted package set of one ChangeSet over one graph.
type Set struct {
	g       *dag.Graph
	reasons []Reason // indexed by handle; zero means not impacted
	// Unowned lists changed paths outside every package root.
	Unowned []types.RepoPath
}

// Resolve computes the impacted set. It is a pure function of its inputs.
func Resolve(g *dag.Graph, cs *changes.ChangeSet) *Set {
	s := &Set{g: g, reasons: make([]Reason, g.Len())}

	if cs.IsForce() {
		for h := range s.reasons {
			s.reasons[h] = Direct
		}
		return s
	}

	owners := NewOwnerIndex(g)
	var queue []int
	for _, p := range cs.Paths() {
		h, ok := owners.Owner(p)
		if !ok {
			s.Unowned = append(s.Unowned, p)
			continue
		}
		if s.reasons[h] == 0 {
			s.reasons[h] = Direct
			queue = append(queue, h)
		}
	}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		for _, dep := range g.Dependents(h) {
			if s.reasons[dep] == 0 {
				s.reasons[dep] = Transitive
				queue = append(queue, dep)
			}
		}
	}
	return s
}

// Graph returns the graph s was resolved against.
func (s *Set) Graph() *dag.Graph { return s.g }

// Len returns the number of impacted packages.
func (s *Set) Len() int {
	n := 0
	for _, r := range s.reasons {
		if r != 0 {
			n++
		}
	}
	return n
}

// IsEmpty reports whether nothing is impacted.
func (s *Set) IsEmpty() bool { return s.Len() == 0 }

// Contains reports whether handle h is impacted.
func (s *Set) Contains(h int) bool { return h >= 0 && h < len(s.reasons) && s.reasons[h] != 0 }

// Reason returns why h is impacted, or 0.
func (s *Set) Reason(h int) Reason {
	if !s.Contains(h) {
		return 0
	}
	return s.reasons[h]
}

// Handles returns the impacted handles ascending.
func (s *Set) Handles() []int { return s.collect(func(Reason) bool { return true }) }

// IDs returns the impacted identities ascending.
func (s *Set) IDs() []string { return s.ids(s.Handles()) }

// DirectIDs returns the directly changed identities ascending.
func (s *Set) DirectIDs() []string {
	return s.ids(s.collect(func(r Reason) bool { return r == Direct }))
}

// TransitiveIDs returns the identities impacted only through dependencies.
func (s *Set) TransitiveIDs() []string {
	return s.ids(s.collect(func(r Reason) bool { return r == Transitive }))
}

func (s *Set) collect(keep func(Reason) bool) []int {
	var out []int
	for h, r := range s.reasons {
		if r != 0 && keep(r) {
			out = append(out, h)
		}
	}
	return out
}

func (s *Set) ids(handles []int) []string {
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = s.g.Package(h).ID()
	}
	return slices.Clip(out)
}

func (r Reason) String() string {
	switch r {
	case Direct:
		return "direct"
	case Transitive:
		return "transitive"
	}
	return "none"
}
