// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/monobuild/monobuild/internal/changes"
	"github.com/monobuild/monobuild/internal/config"
	"github.com/monobuild/monobuild/internal/pipeline"
	"github.com/monobuild/monobuild/internal/watch"
	"github.com/monobuild/monobuild/pkg/manifest"
	"github.com/monobuild/monobuild/pkg/types"

	"github.com/spf13/cobra"
)

// errWatchTagTarget rejects target "tag" in watch mode: it forces, so every
// save would retag every image.
var errWatchTagTarget = errors.New("watch does not support target tag or a tag name as target")

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	sel := &selectFlagValues{}
	bf := &buildFlagValues{}
	var (
		build    bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-plan (or rebuild) whenever files change",
		Long: `Watch the repository and, after every burst of file changes, print the
plan for exactly the changed files. With --build the planned packages are
built as well. Watch mode never records a last built revision.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			sel.apply(cmd, cfg)
			bf.apply(cmd, cfg)
			// Changes come from the watcher; forcing would rebuild everything on every save.
			cfg.ForceBuild = ""
			target, _, err := cfg.TargetSelection()
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			if target == manifest.TargetTag {
				return app.fail(cmd, flags, types.ExitFatal, errWatchTagTarget)
			}

			onChange := func(ctx context.Context, cs *changes.ChangeSet) error {
				fmt.Fprintf(app.stdout, "\n%s %d changed file(s)\n", TitleStyle.Render("→"), cs.Len())
				if err := app.watchRound(ctx, cmd, flags, sel, cfg, cs, build, bf.dryRun); err != nil {
					renderError(app.stderr, err, flags.verbose)
				}
				fmt.Fprintf(app.stdout, "\n%s Watching for changes...\n", SubtitleStyle.Render("→"))
				return nil
			}

			w, err := watch.New(watch.Config{
				RepoRoot: flags.repoRoot,
				Ignore:   cfg.Ignore,
				Debounce: debounce,
				OnChange: onChange,
				Logger:   app.logger(flags).WithPrefix("watch"),
			})
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, fmt.Errorf("failed to start watcher: %w", err))
			}
			fmt.Fprintf(app.stdout, "%s Watching %s for changes (Ctrl+C to stop)...\n", TitleStyle.Render("→"), flags.repoRoot)
			return w.Run(cmd.Context())
		},
	}
	bf.register(cmd)
	cmd.Flags().StringVarP(&sel.target, "target", "t", "", "build target: feature, stage or prod")
	cmd.Flags().StringSliceVarP(&sel.kinds, "kind", "k", nil, "only plan packages of these kinds (repeatable)")
	cmd.Flags().BoolVar(&build, "build", false, "build the planned packages after each change")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a burst of changes is processed")
	return cmd
}

// watchRound plans, and with build set executes, one batch of watched changes.
func (a *App) watchRound(ctx context.Context, cmd *cobra.Command, flags *rootFlagValues, sel *selectFlagValues,
	cfg *config.Config, cs *changes.ChangeSet, build, dryRun bool,
) error {
	opts, closeFn, err := a.pipelineOptions(cmd, flags, sel, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	opts.Paths = []string{}
	for _, p := range cs.Paths() {
		opts.Paths = append(opts.Paths, p.String())
	}
	opts.DryRun = dryRun
	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	if !build {
		res, err := p.Plan(ctx)
		if err != nil {
			return err
		}
		renderPlan(a.stdout, res, flags.verbose)
		return nil
	}
	res, err := p.Build(ctx)
	if err != nil {
		return err
	}
	renderReport(a.stdout, res)
	return nil
}
