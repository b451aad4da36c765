// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/monobuild/monobuild/internal/issue"
)

const (
	// DefaultRetryAttempts is how often registry operations (push, pull) are tried.
	DefaultRetryAttempts = 3
	// DefaultRetryBackoff is the delay before the first retry; it doubles per attempt.
	DefaultRetryBackoff = 2 * time.Second
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// ArgsTransformer modifies build arguments after they're built.
	// Used by Podman to force the docker image format.
	ArgsTransformer func(args []string) []string

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides the common implementation for CLI-based container engines.
	// Docker and Podman engines embed this struct; engine-specific methods
	// (Available, Version, ImageExists) remain on the concrete types.
	BaseCLIEngine struct {
		name                 string // engine name for error messages (e.g., "docker", "podman")
		binaryPath           string
		execCommand          ExecCommandFunc
		buildArgsTransformer ArgsTransformer
		retryAttempts        int
		retryBackoff         time.Duration
	}
)

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithBinaryPath overrides the binary found on PATH.
func WithBinaryPath(path string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.binaryPath = path
	}
}

// WithBuildArgsTransformer sets a transformer applied to every build command line.
func WithBuildArgsTransformer(fn ArgsTransformer) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.buildArgsTransformer = fn
	}
}

// WithRetry configures retries of transient push and pull failures.
// attempts below 1 are treated as 1.
func WithRetry(attempts int, backoff time.Duration) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.retryAttempts = max(attempts, 1)
		e.retryBackoff = backoff
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:           binaryPath,
		execCommand:          exec.CommandContext,
		buildArgsTransformer: func(args []string) []string { return args },
		retryAttempts:        DefaultRetryAttempts,
		retryBackoff:         DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// --- Argument Builders ---

// BuildArgs constructs arguments for a container build command.
// Build arguments are emitted in key order so command lines are reproducible.
//
// Generated command: <binary> build [options] <context>
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}

	if opts.Dockerfile != "" {
		// Resolve Dockerfile path relative to context directory.
		dockerfilePath := opts.Dockerfile
		if !filepath.IsAbs(dockerfilePath) && opts.ContextDir != "" {
			dockerfilePath = filepath.Join(opts.ContextDir, dockerfilePath)
		}
		args = append(args, "-f", dockerfilePath)
	}

	for _, tag := range opts.Tags {
		args = append(args, "-t", string(tag))
	}

	if opts.Pull {
		args = append(args, "--pull")
	}

	if opts.NoCache {
		args = append(args, "--no-cache")
	}

	for _, c := range opts.CacheFrom {
		args = append(args, "--cache-from", string(c))
	}

	for _, k := range slices.Sorted(maps.Keys(opts.BuildArgs)) {
		args = append(args, "--build-arg", k+"="+opts.BuildArgs[k])
	}

	args = append(args, opts.ContextDir)

	return e.buildArgsTransformer(args)
}

// TagArgs constructs arguments for an image tag command.
func (e *BaseCLIEngine) TagArgs(source, target ImageRef) []string {
	return []string{"tag", string(source), string(target)}
}

// PushArgs constructs arguments for an image push command.
func (e *BaseCLIEngine) PushArgs(ref ImageRef) []string {
	return []string{"push", string(ref)}
}

// PullArgs constructs arguments for an image pull command.
func (e *BaseCLIEngine) PullArgs(ref ImageRef) []string {
	return []string{"pull", string(ref)}
}

// RemoveImageArgs constructs arguments for an image remove command.
func (e *BaseCLIEngine) RemoveImageArgs(ref ImageRef, force bool) []string {
	args := []string{"rmi"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, string(ref))
	return args
}

// --- Command Execution ---

// RunCommandCombined executes a command and returns combined stdout/stderr.
// On failure the output is folded into the error.
func (e *BaseCLIEngine) RunCommandCombined(ctx context.Context, args ...string) ([]byte, error) {
	cmd := e.CreateCommand(ctx, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return out, fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
		}
		return out, fmt.Errorf("command %s %v failed: %w: %s", e.binaryPath, args, err, msg)
	}
	return out, nil
}

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// --- Promoted Engine Methods (shared by Docker and Podman) ---

// Build builds an image from a Dockerfile.
// It validates BuildOptions before executing to catch invalid fields early.
func (e *BaseCLIEngine) Build(ctx context.Context, opts BuildOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	cmd := e.CreateCommand(ctx, e.BuildArgs(opts)...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		return buildContainerError(e.name, opts, err)
	}

	return nil
}

// Tag adds target as a name of source.
func (e *BaseCLIEngine) Tag(ctx context.Context, source, target ImageRef) error {
	if err := errors.Join(source.Validate(), target.Validate()); err != nil {
		return err
	}
	_, err := e.RunCommandCombined(ctx, e.TagArgs(source, target)...)
	return err
}

// Push uploads ref to its registry, retrying transient failures.
func (e *BaseCLIEngine) Push(ctx context.Context, ref ImageRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if err := e.withRetry(ctx, e.PushArgs(ref)); err != nil {
		return registryError(e.name, "push image", ref, err)
	}
	return nil
}

// Pull downloads ref from its registry, retrying transient failures.
func (e *BaseCLIEngine) Pull(ctx context.Context, ref ImageRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if err := e.withRetry(ctx, e.PullArgs(ref)); err != nil {
		return registryError(e.name, "pull image", ref, err)
	}
	return nil
}

// RemoveImage removes an image.
func (e *BaseCLIEngine) RemoveImage(ctx context.Context, ref ImageRef, force bool) error {
	return e.RunCommandStatus(ctx, e.RemoveImageArgs(ref, force)...)
}

// imageExists runs an inspection command: a non-zero exit means the image is
// absent, any other failure is reported.
func (e *BaseCLIEngine) imageExists(ctx context.Context, args ...string) (bool, error) {
	err := e.RunCommandStatus(ctx, args...)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

func (e *BaseCLIEngine) withRetry(ctx context.Context, args []string) error {
	return RetryWithBackoff(ctx, e.retryAttempts, e.retryBackoff, func(int) (bool, error) {
		_, err := e.RunCommandCombined(ctx, args...)
		if err == nil {
			return false, nil
		}
		return IsTransientError(err), err
	})
}

// buildContainerError creates an actionable error for image build failures.
func buildContainerError(engine string, opts BuildOptions, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("build container image")

	switch {
	case opts.Dockerfile != "":
		ctx.WithResource(opts.Dockerfile)
	case len(opts.Tags) > 0:
		ctx.WithResource(string(opts.Tags[0]))
	}

	ctx.WithSuggestion("Check Dockerfile syntax for errors")
	ctx.WithSuggestion("Ensure base images are available (try: " + engine + " pull <base-image>)")
	ctx.WithSuggestion("Re-run with --verbose to see the full build output")

	return ctx.Wrap(cause).BuildError()
}

// registryError creates an actionable error for push and pull failures.
func registryError(engine, operation string, ref ImageRef, cause error) error {
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(string(ref)).
		WithSuggestion("Check that you are logged in (try: " + engine + " login <registry>)").
		WithSuggestion("Verify the registry in container.registry or CI_REGISTRY_IMAGE").
		Wrap(cause).
		BuildError()
}
