// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/monobuild/monobuild/internal/config"
	"github.com/monobuild/monobuild/pkg/types"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `monobuild config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage monobuild configuration",
		Long: `Manage monobuild configuration.

Configuration is read from the first of:
  - the file given with --config
  - <repo>/.monobuild/config.cue
  - the user config directory (e.g. ~/.config/monobuild/config.cue)

Environment variables (MONOBUILD_TARGET, MONOBUILD_EXECUTOR_POLICY, ...)
and the CI variables GITLAB_TARGET, GITLAB_FORCE_BUILD, CI_COMMIT_SHA and
CI_COMMIT_REF_SLUG override file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			path, _ := config.Locate(config.LoadOptions{ConfigFilePath: flags.configPath, RepoRoot: flags.repoRoot})
			showConfig(app, cfg, path)
			return nil
		},
	})

	var user, overwrite bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(flags.repoRoot, config.RepoConfigDir, config.ConfigFileName+"."+config.ConfigFileExt)
			if user {
				dir, err := config.ConfigDir()
				if err != nil {
					return app.fail(cmd, flags, types.ExitFatal, err)
				}
				path = filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
			}
			if err := config.WriteFile(path, config.DefaultConfig(), overwrite); err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&user, "user", false, "write to the user config directory instead of the repository")
	initCmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Locate(config.LoadOptions{ConfigFilePath: flags.configPath, RepoRoot: flags.repoRoot})
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			if path == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no config file, using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, types.ExitFatal, err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Output the CUE schema configuration files are validated against",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprint(app.stdout, config.Schema())
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, cfg *config.Config, path string) {
	w := app.stdout
	key := PackageStyle.Render
	value := SuccessStyle.Render
	line := func(indent, k string, v any) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, key(k), value(fmt.Sprint(v)))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path == "" {
		fmt.Fprintf(w, "%s: %s\n", key("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", key("Config file"), path)
	}
	fmt.Fprintln(w)

	line("", "project_name", cfg.ProjectName)
	target, tag, err := cfg.TargetSelection()
	if err != nil {
		line("", "target", cfg.Target)
	} else {
		line("", "target", target)
	}
	if tag != "" {
		line("", "tag", tag)
	}
	line("", "force_build", cfg.Force())
	if len(cfg.Kinds) > 0 {
		line("", "kinds", strings.Join(cfg.Kinds, ", "))
	}
	if cfg.Base != "" {
		line("", "base", cfg.Base)
	}

	fmt.Fprintf(w, "\n%s:\n", key("base_refs"))
	for _, t := range slices.Sorted(maps.Keys(cfg.BaseRefs)) {
		line("  ", t, cfg.BaseRefs[t])
	}

	fmt.Fprintf(w, "\n%s:\n", key("executor"))
	line("  ", "action", cfg.Executor.Action)
	line("  ", "concurrency", cfg.Executor.Concurrency)
	line("  ", "policy", cfg.Executor.Policy)
	line("  ", "strict", cfg.Executor.Strict)

	fmt.Fprintf(w, "\n%s:\n", key("container"))
	line("  ", "engine", cfg.Container.Engine)
	line("  ", "registry", cfg.Container.Registry)
	line("  ", "push", cfg.Container.Push)

	fmt.Fprintf(w, "\n%s:\n", key("marker"))
	line("  ", "enabled", cfg.Marker.Enabled)
	line("  ", "dir", cfg.Marker.Dir)
}
