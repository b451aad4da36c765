// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"fmt"
	"slices"

	"github.com/monobuild/monobuild/internal/dag"
	"github.com/monobuild/monobuild/internal/impact"
	"github.com/monobuild/monobuild/pkg/manifest"
)

type (
	// Step is one package to build.
	Step struct {
		Package *manifest.Package
		// Level is 0 for steps without in-plan dependencies, otherwise one
		// more than the highest level among Needs.
		Level int
		// Needs lists the identities of in-plan dependencies, ascending.
		Needs  []string
		Reason impact.Reason
	}

	// Plan is an ordered list of steps. Read-only once built.
	Plan struct {
		steps []Step
		pos   map[string]int
	}
)

// Build orders the packages of s.
func Build(g *dag.Graph, s *impact.Set) (*Plan, error) {
	handles := s.Handles()
	inPlan := make(map[int]bool, len(handles))
	for _, h := range handles {
		inPlan[h] = true
	}

	indegree := make(map[int]int, len(handles))
	var ready []int
	for _, h := range handles {
		for _, d := range g.Dependencies(h) {
			if inPlan[d] {
				indegree[h]++
			}
		}
		if indegree[h] == 0 {
			ready = append(ready, h)
		}
	}

	order := make([]int, 0, len(handles))
	level := make(map[int]int, len(handles))
	for len(ready) > 0 {
		h := ready[0]
		ready = ready[1:]
		order = append(order, h)

		for _, dep := range g.Dependents(h) {
			if !inPlan[dep] {
				continue
			}
			level[dep] = max(level[dep], level[h]+1)
			indegree[dep]--
			if indegree[dep] == 0 {
				i, _ := slices.BinarySearch(ready, dep)
				ready = slices.Insert(ready, i, dep)
			}
		}
	}

	if len(order) != len(handles) {
		return nil, &InternalOrderingError{Expected: len(handles), Planned: len(order), Detail: "cycle in impacted subgraph"}
	}

	steps := make([]Step, len(order))
	for i, h := range order {
		var needs []string
		for _, d := range g.Dependencies(h) {
			if inPlan[d] {
				needs = append(needs, g.Package(d).ID())
			}
		}
		slices.Sort(needs)
		steps[i] = Step{Package: g.Package(h), Level: level[h], Needs: needs, Reason: s.Reason(h)}
	}

	p := newPlan(steps)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Len() != s.Len() {
		return nil, &InternalOrderingError{Expected: s.Len(), Planned: p.Len()}
	}
	return p, nil
}

func newPlan(steps []Step) *Plan {
	pos := make(map[string]int, len(steps))
	for i, st := range steps {
		pos[st.Package.ID()] = i
	}
	return &Plan{steps: steps, pos: pos}
}

// Validate checks that identities are unique and every step follows the steps it needs.
func (p *Plan) Validate() error {
	if len(p.pos) != len(p.steps) {
		return &InternalOrderingError{Expected: len(p.steps), Planned: len(p.pos), Detail: "duplicate steps"}
	}
	for i, st := range p.steps {
		for _, n := range st.Needs {
			j, ok := p.pos[n]
			if !ok {
				return &InternalOrderingError{Expected: len(p.steps), Planned: len(p.steps),
					Detail: fmt.Sprintf("%s needs %s, which is not planned", st.Package.ID(), n)}
			}
			if j >= i {
				return &InternalOrderingError{Expected: len(p.steps), Planned: len(p.steps),
					Detail: fmt.Sprintf("%s is planned before its dependency %s", st.Package.ID(), n)}
			}
		}
	}
	return nil
}

// Len returns the number of steps.
func (p *Plan) Len() int { return len(p.steps) }

// IsEmpty reports whether there is nothing to build.
func (p *Plan) IsEmpty() bool { return len(p.steps) == 0 }

// Steps returns the steps in build order.
func (p *Plan) Steps() []Step { return slices.Clone(p.steps) }

// IDs returns the identities in build order.
func (p *Plan) IDs() []string {
	ids := make([]string, len(p.steps))
	for i, st := range p.steps {
		ids[i] = st.Package.ID()
	}
	return ids
}

// Step returns the step for id.
func (p *Plan) Step(id string) (Step, bool) {
	i, ok := p.pos[id]
	if !ok {
		return Step{}, false
	}
	return p.steps[i], true
}

// Levels groups the steps by level, each group in build order.
func (p *Plan) Levels() [][]Step {
	var levels [][]Step
	for _, st := range p.steps {
		for len(levels) <= st.Level {
			levels = append(levels, nil)
		}
		levels[st.Level] = append(levels[st.Level], st)
	}
	return levels
}

// Filter returns a plan keeping only the steps for which keep returns true.
// Order is preserved. A kept step that needed a dropped step now needs
// whatever the dropped step needed, so the partial order survives.
func (p *Plan) Filter(keep func(Step) bool) *Plan {
	effective := make(map[string][]string, len(p.steps))
	levelOf := make(map[string]int, len(p.steps))
	var steps []Step

	for _, st := range p.steps {
		var needs []string
		for _, n := range st.Needs {
			needs = append(needs, effective[n]...)
		}
		slices.Sort(needs)
		needs = slices.Compact(needs)

		id := st.Package.ID()
		if !keep(st) {
			effective[id] = needs
			continue
		}
		effective[id] = []string{id}

		level := 0
		for _, n := range needs {
			level = max(level, levelOf[n]+1)
		}
		levelOf[id] = level
		steps = append(steps, Step{Package: st.Package, Level: level, Needs: needs, Reason: st.Reason})
	}
	return newPlan(steps)
}

// ByKind keeps packages whose kind is listed. An empty list keeps everything.
func ByKind(kinds ...manifest.Kind) func(Step) bool {
	return func(st Step) bool {
		return len(kinds) == 0 || slices.Contains(kinds, st.Package.Kind())
	}
}

// ByTarget keeps packages that build for t.
func ByTarget(t manifest.Target) func(Step) bool {
	return func(st Step) bool { return st.Package.AllowsTarget(t) }
}
