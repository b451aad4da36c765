// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/monobuild/monobuild/internal/executor"
	"github.com/monobuild/monobuild/internal/pipeline"
	"github.com/monobuild/monobuild/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type (
	buildJSON struct {
		planJSON
		Results     []resultJSON `json:"results"`
		MarkerSaved bool         `json:"marker_saved"`
		DurationMS  int64        `json:"duration_ms"`
	}

	resultJSON struct {
		ID         string          `json:"id"`
		Status     executor.Status `json:"status"`
		Artifacts  []string        `json:"artifacts,omitempty"`
		Noop       bool            `json:"noop,omitempty"`
		Error      string          `json:"error,omitempty"`
		SkipReason string          `json:"skip_reason,omitempty"`
		DurationMS int64           `json:"duration_ms"`
	}
)

func newBuildCommand(app *App, flags *rootFlagValues) *cobra.Command {
	sel := &selectFlagValues{}
	bf := &buildFlagValues{}
	var output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild the packages affected by the detected changes",
		Long: `Plan like 'monobuild plan', then build every planned package with the
configured action, dependencies first and independent packages in
parallel. After a fully successful build the head revision is recorded
as the last built revision of the target.

Package failures are reported but exit 0 unless --strict is set, which
exits 2. Scan, graph and revision errors always exit 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			p, cfg, closeFn, err := app.loadPipeline(cmd, flags, sel, bf)
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			defer closeFn()

			res, err := p.Build(cmd.Context())
			if err != nil {
				if res != nil && res.Report != nil && output == outputText {
					renderReport(app.stdout, res)
				}
				return app.fail(cmd, flags, types.ExitFatal, err)
			}

			if output == outputJSON {
				if err := writeJSON(app.stdout, buildToJSON(res)); err != nil {
					return err
				}
			} else {
				renderReport(app.stdout, res)
			}

			if code := res.ExitCode(cfg.Executor.Strict); code != types.ExitOK {
				return app.fail(cmd, flags, code, res.Report.Err())
			}
			return nil
		},
	}
	sel.register(cmd)
	bf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text or json")
	return cmd
}

func buildToJSON(res *pipeline.BuildResult) buildJSON {
	out := buildJSON{
		planJSON:    planToJSON(res.PlanResult),
		Results:     []resultJSON{},
		MarkerSaved: res.MarkerSaved,
		DurationMS:  res.Report.Duration.Milliseconds(),
	}
	for _, r := range res.Report.Results() {
		rj := resultJSON{
			ID:         r.ID(),
			Status:     r.Status,
			Artifacts:  r.Outcome.Artifacts,
			Noop:       r.Outcome.Noop,
			SkipReason: r.SkipReason,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			rj.Error = r.Err.Error()
		}
		out.Results = append(out.Results, rj)
	}
	return out
}

// renderReport prints one line per package and a summary.
func renderReport(w io.Writer, res *pipeline.BuildResult) {
	report := res.Report
	if report.Len() == 0 {
		fmt.Fprintln(w, SuccessStyle.Render("Nothing to build."))
		return
	}

	idWidth := 0
	for _, r := range report.Results() {
		idWidth = max(idWidth, lipgloss.Width(r.ID()))
	}
	idCol := lipgloss.NewStyle().Width(idWidth + 2)

	for _, r := range report.Results() {
		var mark, detail string
		switch r.Status {
		case executor.StatusSucceeded:
			mark = SuccessStyle.Render("ok")
			detail = r.Duration.Round(time.Millisecond).String()
			if r.Outcome.Noop {
				detail = "nothing to build"
			}
			for _, a := range r.Outcome.Artifacts {
				detail += "\n" + idCol.Render("") + "      " + a
			}
		case executor.StatusFailed:
			mark = ErrorStyle.Render("FAIL")
			detail = r.Err.Error()
		default:
			mark = WarningStyle.Render("skip")
			detail = r.SkipReason
		}
		fmt.Fprintf(w, "%s %s %s\n", statusStyle.Render(mark), idCol.Render(PackageStyle.Render(r.ID())), SubtitleStyle.Render(detail))
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d succeeded, %d failed, %d skipped in %s",
		report.Count(executor.StatusSucceeded), report.Count(executor.StatusFailed),
		report.Count(executor.StatusSkipped), report.Duration.Round(time.Millisecond))
	if report.OK() {
		fmt.Fprintln(w, SuccessStyle.Render(summary))
	} else {
		fmt.Fprintln(w, ErrorStyle.Render(summary))
	}
	if res.MarkerSaved {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("recorded last built revision"), shortRev(res.Head))
	}
}
