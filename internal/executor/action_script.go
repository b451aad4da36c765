// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/monobuild/monobuild/pkg/manifest"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Environment variables exported to build scripts.
const (
	EnvPackage = "MONOBUILD_PACKAGE"
	EnvTarget  = "MONOBUILD_TARGET"
	EnvVersion = "MONOBUILD_VERSION"
	EnvRoot    = "MONOBUILD_ROOT"
)

// ErrScriptExit is wrapped by errors for scripts that exit non-zero.
var ErrScriptExit = errors.New("build script exited with non-zero status")

type (
	// ScriptOptions configures ScriptAction.
	ScriptOptions struct {
		RepoRoot   string
		Versioning Versioning
		// Env is the base environment; nil means the process environment.
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// ScriptAction runs the package build script in an embedded POSIX shell
	// with the package root as working directory.
	ScriptAction struct {
		opts ScriptOptions
	}
)

// NewScriptAction returns a ScriptAction.
func NewScriptAction(opts ScriptOptions) *ScriptAction {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &ScriptAction{opts: opts}
}

// Name implements Action.
func (a *ScriptAction) Name() string { return "script" }

// Run implements Action. Packages without a script are a no-op.
func (a *ScriptAction) Run(ctx context.Context, pkg *manifest.Package) (Outcome, error) {
	script := pkg.Script()
	if strings.TrimSpace(script) == "" {
		return Outcome{Noop: true}, nil
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), pkg.Descriptor().String())
	if err != nil {
		return Outcome{}, fmt.Errorf("parse build script of %s: %w", pkg.ID(), err)
	}

	// Version is informative for scripts; a missing one is exported empty.
	version, _ := a.opts.Versioning.Version()
	env := append([]string(nil), a.opts.Env...)
	env = append(env,
		EnvPackage+"="+pkg.ID(),
		EnvTarget+"="+string(a.opts.Versioning.Target),
		EnvVersion+"="+version,
		EnvRoot+"="+a.opts.RepoRoot,
	)

	runner, err := interp.New(
		interp.Dir(filepath.Join(a.opts.RepoRoot, filepath.FromSlash(pkg.Root().String()))),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, a.opts.Stdout, a.opts.Stderr),
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return Outcome{}, fmt.Errorf("%w: %s exited %d", ErrScriptExit, pkg.ID(), uint8(exitStatus))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		return Outcome{}, fmt.Errorf("run build script of %s: %w", pkg.ID(), err)
	}
	return Outcome{}, nil
}
