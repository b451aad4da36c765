// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/monobuild/monobuild/internal/pipeline"
	"github.com/monobuild/monobuild/pkg/types"

	"github.com/spf13/cobra"
)

type (
	planJSON struct {
		RunID       string           `json:"run_id"`
		Target      string           `json:"target"`
		Base        string           `json:"base,omitempty"`
		Head        string           `json:"head,omitempty"`
		Force       bool             `json:"force"`
		Changes     []string         `json:"changes"`
		Steps       []stepJSON       `json:"steps"`
		Diagnostics []diagnosticJSON `json:"diagnostics,omitempty"`
	}

	stepJSON struct {
		ID     string   `json:"id"`
		Kind   string   `json:"kind"`
		Root   string   `json:"root"`
		Level  int      `json:"level"`
		Needs  []string `json:"needs,omitempty"`
		Reason string   `json:"reason"`
	}

	diagnosticJSON struct {
		Code    string `json:"code"`
		Path    string `json:"path,omitempty"`
		Message string `json:"message"`
	}
)

func newPlanCommand(app *App, flags *rootFlagValues) *cobra.Command {
	sel := &selectFlagValues{}
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which packages would be rebuilt, in build order",
		Long: `Scan the repository, detect changed files and print the ordered build
plan: every package owning a changed file, followed by everything that
depends on it, dependencies first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			p, _, closeFn, err := app.loadPipeline(cmd, flags, sel, nil)
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			defer closeFn()

			res, err := p.Plan(cmd.Context())
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			if output == outputJSON {
				return writeJSON(app.stdout, planToJSON(res))
			}
			renderPlan(app.stdout, res, flags.verbose)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text or json")
	return cmd
}

func planToJSON(res *pipeline.PlanResult) planJSON {
	out := planJSON{
		RunID:   res.RunID,
		Target:  res.Target.String(),
		Base:    res.Base,
		Head:    res.Head,
		Force:   res.Changes.IsForce(),
		Changes: []string{},
		Steps:   []stepJSON{},
	}
	for _, p := range res.Changes.Paths() {
		out.Changes = append(out.Changes, p.String())
	}
	for _, st := range res.Plan.Steps() {
		out.Steps = append(out.Steps, stepJSON{
			ID:     st.Package.ID(),
			Kind:   st.Package.Kind().String(),
			Root:   st.Package.Root().String(),
			Level:  st.Level,
			Needs:  st.Needs,
			Reason: st.Reason.String(),
		})
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticJSON{Code: d.Code, Path: d.Path.String(), Message: d.Message})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderPlan prints the plan for humans. Diagnostics are listed only in
// verbose mode.
func renderPlan(w io.Writer, res *pipeline.PlanResult, verbose bool) {
	fmt.Fprintln(w, TitleStyle.Render("Build plan")+SubtitleStyle.Render(" ("+res.Target.String()+")"))

	switch {
	case res.Changes.IsForce():
		fmt.Fprintln(w, SubtitleStyle.Render("  forced: every package is rebuilt"))
	case res.Base != "":
		fmt.Fprintf(w, "%s %s..%s, %d changed file(s)\n",
			SubtitleStyle.Render("  changes:"), shortRev(res.Base), shortRev(res.Head), res.Changes.Len())
	default:
		fmt.Fprintf(w, "%s %d changed file(s)\n", SubtitleStyle.Render("  changes:"), res.Changes.Len())
	}
	fmt.Fprintln(w)

	if res.Plan.IsEmpty() {
		fmt.Fprintln(w, SuccessStyle.Render("Nothing to build."))
	}
	for i, level := range res.Plan.Levels() {
		fmt.Fprintf(w, "%s\n", SubtitleStyle.Render(fmt.Sprintf("level %d", i)))
		for _, st := range level {
			line := fmt.Sprintf("  %s %s", PackageStyle.Render(st.Package.ID()),
				SubtitleStyle.Render(fmt.Sprintf("[%s, %s]", st.Package.Kind(), st.Reason)))
			if len(st.Needs) > 0 {
				line += SubtitleStyle.Render(" after " + strings.Join(st.Needs, ", "))
			}
			fmt.Fprintln(w, line)
		}
	}

	if len(res.Diagnostics) == 0 {
		return
	}
	if !verbose {
		fmt.Fprintf(w, "\n%s\n", WarningStyle.Render(fmt.Sprintf("%d scan diagnostic(s), use -v to show", len(res.Diagnostics))))
		return
	}
	fmt.Fprintln(w)
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "%s %s: %s\n", WarningStyle.Render(d.Code), d.Path, d.Message)
	}
}

func shortRev(rev string) string {
	if len(rev) == 40 {
		return rev[:8]
	}
	return rev
}
