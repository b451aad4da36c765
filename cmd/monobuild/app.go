// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/monobuild/monobuild/internal/config"
	"github.com/monobuild/monobuild/internal/container"
	"github.com/monobuild/monobuild/internal/issue"

	"github.com/charmbracelet/log"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App is the composition root of the CLI. Command handlers receive it
	// instead of reaching for globals.
	App struct {
		Config ConfigProvider
		// Engine, when set, replaces container engine discovery.
		Engine container.Engine
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config ConfigProvider
		Engine container.Engine
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		Engine: deps.Engine,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads the configuration for the repository selected by flags
// and applies verbose from the config file when the flag is unset.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		RepoRoot:       flags.repoRoot,
	})
	if err != nil {
		return nil, newServiceError(
			issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(flags.configPath).
				WithSuggestions(
					"Run 'monobuild config path' to see which file is used",
					"Run 'monobuild config init' to write a fresh default file",
				).
				Wrap(err).
				BuildError(),
			issue.ConfigLoadFailedId)
	}
	if !flags.verbose && cfg.UI.Verbose {
		flags.verbose = true
	}
	return cfg, nil
}

// logger returns the CLI logger writing to stderr.
func (a *App) logger(flags *rootFlagValues) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "monobuild",
		ReportTimestamp: flags.verbose,
	})
	if flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
