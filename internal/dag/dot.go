// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"fmt"
	"io"

	graphlib "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// WriteDOT renders the graph in Graphviz DOT format. Edges point from a
// package to its dependencies. Packages for which highlight returns true are
// drawn filled; highlight may be nil.
func (g *Graph) WriteDOT(w io.Writer, highlight func(id string) bool) error {
	dg := graphlib.New(graphlib.StringHash, graphlib.Directed())

	for _, p := range g.pkgs {
		attrs := []func(*graphlib.VertexProperties){
			graphlib.VertexAttribute("shape", "box"),
			graphlib.VertexAttribute("tooltip", string(p.Kind())+" "+p.Root().String()),
		}
		if highlight != nil && highlight(p.ID()) {
			attrs = append(attrs,
				graphlib.VertexAttribute("style", "filled"),
				graphlib.VertexAttribute("fillcolor", "orange"))
		}
		if err := dg.AddVertex(p.ID(), attrs...); err != nil {
			return fmt.Errorf("dot: adding %s: %w", p.ID(), err)
		}
	}
	for i, deps := range g.deps {
		for _, j := range deps {
			if err := dg.AddEdge(g.pkgs[i].ID(), g.pkgs[j].ID()); err != nil {
				return fmt.Errorf("dot: adding edge %s -> %s: %w", g.pkgs[i].ID(), g.pkgs[j].ID(), err)
			}
		}
	}
	return draw.DOT(dg, w)
}
