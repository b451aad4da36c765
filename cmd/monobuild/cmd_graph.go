// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/monobuild/monobuild/internal/dag"
	"github.com/monobuild/monobuild/pkg/types"

	"github.com/spf13/cobra"
)

func newGraphCommand(app *App, flags *rootFlagValues) *cobra.Command {
	sel := &selectFlagValues{}
	var (
		dot       bool
		impacted  bool
		dependent string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the package dependency graph",
		Long: `Print the dependency graph as an indented tree, or in Graphviz DOT format
with --dot. With --impacted the packages the current changes would rebuild
are highlighted, which takes the same selection flags as 'monobuild plan'.`,
		Example: `  monobuild graph --dot | dot -Tsvg > deps.svg
  monobuild graph --dot --impacted --base origin/develop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, closeFn, err := app.loadPipeline(cmd, flags, sel, nil)
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			defer closeFn()

			var (
				g         *dag.Graph
				highlight func(string) bool
			)
			if impacted {
				res, err := p.Plan(cmd.Context())
				if err != nil {
					return app.fail(cmd, flags, types.ExitFatal, err)
				}
				g = res.Graph
				set := make(map[string]bool, res.Impact.Len())
				for _, id := range res.Impact.IDs() {
					set[id] = true
				}
				highlight = func(id string) bool { return set[id] }
			} else if g, _, err = p.Discover(cmd.Context()); err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}

			if dependent != "" {
				if _, ok := g.Lookup(dependent); !ok {
					return app.fail(cmd, flags, types.ExitFatal, fmt.Errorf("unknown package %q", dependent))
				}
			}
			if dot {
				return g.WriteDOT(app.stdout, highlight)
			}
			renderTree(app.stdout, g, dependent, highlight)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().BoolVar(&dot, "dot", false, "print Graphviz DOT")
	cmd.Flags().BoolVar(&impacted, "impacted", false, "highlight packages impacted by the detected changes")
	cmd.Flags().StringVar(&dependent, "rdeps", "", "print the packages depending on this one instead of the whole graph")
	return cmd
}

// renderTree prints each package with its dependencies nested below it.
// With root set, it prints root's dependents instead. Packages already
// printed are marked and not expanded again.
func renderTree(w io.Writer, g *dag.Graph, root string, highlight func(string) bool) {
	next := g.Dependencies
	var starts []int
	if root != "" {
		h, _ := g.Lookup(root)
		starts = []int{h}
		next = g.Dependents
	} else {
		for h := range g.Len() {
			if len(g.Dependents(h)) == 0 {
				starts = append(starts, h)
			}
		}
	}

	seen := make(map[int]bool, g.Len())
	var walk func(h, depth int)
	walk = func(h, depth int) {
		id := g.Package(h).ID()
		name := PackageStyle.Render(id)
		if highlight != nil && highlight(id) {
			name = WarningStyle.Render(id + " *")
		}
		indent := strings.Repeat("  ", depth)
		if seen[h] && len(next(h)) > 0 {
			fmt.Fprintf(w, "%s%s %s\n", indent, name, SubtitleStyle.Render("(see above)"))
			return
		}
		seen[h] = true
		fmt.Fprintf(w, "%s%s\n", indent, name)
		for _, n := range next(h) {
			walk(n, depth+1)
		}
	}
	for _, h := range starts {
		walk(h, 0)
	}
}
