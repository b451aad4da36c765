// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/monobuild/monobuild/internal/dag"
	"github.com/monobuild/monobuild/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type packageJSON struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Root         string   `json:"root"`
	Descriptor   string   `json:"descriptor"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
	Targets      []string `json:"targets,omitempty"`
	Dockerfile   string   `json:"dockerfile,omitempty"`
	Script       bool     `json:"script,omitempty"`
}

func newListCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the packages of the repository",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			p, _, closeFn, err := app.loadPipeline(cmd, flags, &selectFlagValues{}, nil)
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			defer closeFn()

			g, _, err := p.Discover(cmd.Context())
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			if output == outputJSON {
				return writeJSON(app.stdout, packagesToJSON(g))
			}
			renderPackages(app.stdout, g)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text or json")
	return cmd
}

func packagesToJSON(g *dag.Graph) []packageJSON {
	out := make([]packageJSON, 0, g.Len())
	for h, pkg := range g.Packages() {
		pj := packageJSON{
			ID:           pkg.ID(),
			Kind:         pkg.Kind().String(),
			Root:         pkg.Root().String(),
			Descriptor:   pkg.Descriptor().String(),
			Dependencies: idsOf(g, g.Dependencies(h)),
			Dependents:   idsOf(g, g.Dependents(h)),
			Dockerfile:   pkg.Image().Dockerfile.String(),
			Script:       pkg.Script() != "",
		}
		for _, t := range pkg.Targets() {
			pj.Targets = append(pj.Targets, t.String())
		}
		out = append(out, pj)
	}
	return out
}

func idsOf(g *dag.Graph, handles []int) []string {
	ids := make([]string, len(handles))
	for i, h := range handles {
		ids[i] = g.Package(h).ID()
	}
	return ids
}

func renderPackages(w io.Writer, g *dag.Graph) {
	fmt.Fprintln(w, TitleStyle.Render("Packages")+SubtitleStyle.Render(fmt.Sprintf(" (%d, %d dependencies)", g.Len(), g.EdgeCount())))
	fmt.Fprintln(w)

	idWidth, kindWidth := 0, 0
	for _, pkg := range g.Packages() {
		idWidth = max(idWidth, lipgloss.Width(pkg.ID()))
		kindWidth = max(kindWidth, lipgloss.Width(pkg.Kind().String()))
	}
	idCol := lipgloss.NewStyle().Width(idWidth + 2)
	kindCol := lipgloss.NewStyle().Width(kindWidth + 2)

	for h, pkg := range g.Packages() {
		line := idCol.Render(PackageStyle.Render(pkg.ID())) + kindCol.Render(pkg.Kind().String()) + SubtitleStyle.Render(pkg.Root().String())
		if deps := idsOf(g, g.Dependencies(h)); len(deps) > 0 {
			line += SubtitleStyle.Render(" -> " + strings.Join(deps, ", "))
		}
		fmt.Fprintln(w, line)
	}
}
