// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/monobuild/monobuild/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every command.
type rootFlagValues struct {
	verbose    bool
	configPath string
	repoRoot   string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	root := &cobra.Command{
		Use:   "monobuild",
		Short: "Rebuild only what changed in a monorepo",
		Long: TitleStyle.Render("monobuild") + SubtitleStyle.Render(" - selective rebuilds for monorepos") + `

monobuild discovers the packages of a repository from their descriptors
(monobuild.cue/yaml/hcl, go.mod, package.json, Cargo.toml, Dockerfile),
links them into a dependency graph, finds the files changed since the last
build and rebuilds the affected packages and everything depending on them,
dependencies first.

` + SubtitleStyle.Render("Examples:") + `
  monobuild plan                    Show what would be rebuilt
  monobuild build --target stage    Build, tag and push for stage
  monobuild build --force           Rebuild every package
  monobuild graph --dot | dot -Tsvg > deps.svg`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: <repo>/.monobuild/config.cue, then the user config dir)")
	root.PersistentFlags().StringVarP(&flags.repoRoot, "repo", "C", ".", "repository root to operate on")

	root.AddCommand(
		newPlanCommand(app, flags),
		newBuildCommand(app, flags),
		newListCommand(app, flags),
		newGraphCommand(app, flags),
		newWatchCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the resulting status.
func Execute() {
	app := NewApp(Dependencies{})
	os.Exit(int(run(context.Background(), NewRootCommand(app))))
}

// run executes root through fang and maps the outcome to an exit code.
func run(ctx context.Context, root *cobra.Command) types.ExitCode {
	err := fang.Execute(ctx, root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	return exitCodeOf(err)
}

// exitCodeOf maps an error to the process status: ExitError carries its own
// code, anything else is fatal.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitFatal
}
