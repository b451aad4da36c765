// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"io"

	"github.com/monobuild/monobuild/internal/changes"
	"github.com/monobuild/monobuild/internal/config"
	"github.com/monobuild/monobuild/internal/container"

	"github.com/charmbracelet/log"
)

// Options configures a Pipeline. Config is required; everything else is optional.
type Options struct {
	// RepoRoot is the directory scanned for packages. Defaults to ".".
	RepoRoot string
	Config   *config.Config

	// Worktree adds uncommitted changes to the detected ones.
	Worktree bool
	// Patch, when set, replaces git history as the change source.
	Patch io.Reader
	// Paths, when non-nil, are taken as the changed files (watch mode).
	Paths []string

	// DryRun forces the dry-run action and never saves the marker.
	DryRun bool

	// Engine overrides container engine discovery.
	Engine container.Engine
	// Markers overrides the file marker store below Config.Marker.Dir.
	Markers changes.MarkerStore

	// Stdout and Stderr receive build output. Nil discards.
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// fromHistory reports whether changes come from git history, which is the
// only case where the head may be recorded as built.
func (o Options) fromHistory() bool {
	return o.Patch == nil && o.Paths == nil && !o.Worktree
}
