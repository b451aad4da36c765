// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/monobuild/monobuild/pkg/manifest"
)

const (
	// ContainerEngineDocker uses the docker CLI for image builds.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses the podman CLI for image builds.
	ContainerEnginePodman ContainerEngine = "podman"

	// PolicyFailFast cancels the run at the first failed package.
	PolicyFailFast Policy = "fail-fast"
	// PolicyContinue keeps building packages that do not depend on a failed one.
	PolicyContinue Policy = "continue"

	ActionAuto   Action = "auto"
	ActionImage  Action = "image"
	ActionScript Action = "script"
	ActionDryRun Action = "dry-run"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidPolicy is returned when a Policy value is not recognized.
	ErrInvalidPolicy = errors.New("invalid failure policy")
	// ErrInvalidAction is returned when an Action value is not recognized.
	ErrInvalidAction = errors.New("invalid build action")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container CLI builds images.
	ContainerEngine string

	// Policy decides what happens to the rest of a run after a package fails.
	Policy string

	// Action selects what "building a package" means.
	Action string

	// ForceFlag is the raw value of force_build. Environment variables such as
	// GITLAB_FORCE_BUILD arrive as arbitrary strings, so truthiness is decided by Enabled.
	ForceFlag string

	// InvalidValueError reports a configuration value outside its closed set.
	// It wraps the sentinel of the offending type.
	InvalidValueError struct {
		Field string
		Value string
		Valid []string
		err   error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects every field error.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		ProjectName string `json:"project_name" mapstructure:"project_name"`
		// Target is the build target: feature, stage, prod or tag.
		Target string `json:"target" mapstructure:"target"`
		// Tag is the git tag name for target "tag".
		Tag        string            `json:"tag" mapstructure:"tag"`
		ForceBuild ForceFlag         `json:"force_build" mapstructure:"force_build"`
		Kinds      []string          `json:"kinds" mapstructure:"kinds"`
		Ignore     []string          `json:"ignore" mapstructure:"ignore"`
		Base       string            `json:"base" mapstructure:"base"`
		Head       string            `json:"head" mapstructure:"head"`
		BaseRefs   map[string]string `json:"base_refs" mapstructure:"base_refs"`

		Marker    MarkerConfig    `json:"marker" mapstructure:"marker"`
		Go        GoConfig        `json:"go" mapstructure:"go"`
		Node      NodeConfig      `json:"node" mapstructure:"node"`
		Executor  ExecutorConfig  `json:"executor" mapstructure:"executor"`
		Container ContainerConfig `json:"container" mapstructure:"container"`
		Version   VersionConfig   `json:"version" mapstructure:"version"`
		Metrics   MetricsConfig   `json:"metrics" mapstructure:"metrics"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// MarkerConfig controls the per-target last-built marker.
	MarkerConfig struct {
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Dir is relative to the repository root unless absolute.
		Dir string `json:"dir" mapstructure:"dir"`
	}

	GoConfig struct {
		// ModulePrefix marks which go.mod requirements are in-repository packages.
		ModulePrefix string `json:"module_prefix" mapstructure:"module_prefix"`
	}

	NodeConfig struct {
		Scope string `json:"scope" mapstructure:"scope"`
	}

	// ExecutorConfig configures the build executor.
	ExecutorConfig struct {
		Action Action `json:"action" mapstructure:"action"`
		// Concurrency is the number of packages built at once; 0 means one per CPU.
		Concurrency int    `json:"concurrency" mapstructure:"concurrency"`
		Policy      Policy `json:"policy" mapstructure:"policy"`
		// Strict turns package build failures into a non-zero exit.
		Strict bool `json:"strict" mapstructure:"strict"`
	}

	// ContainerConfig configures image builds.
	ContainerConfig struct {
		Engine ContainerEngine `json:"engine" mapstructure:"engine"`
		// Registry is the image repository prefix, e.g. registry.example.com/group/project.
		Registry string `json:"registry" mapstructure:"registry"`
		Push     bool   `json:"push" mapstructure:"push"`
		NoCache  bool   `json:"no_cache" mapstructure:"no_cache"`
		// JobToken is passed to builds as the GIT_ACCESS_TOKEN build argument.
		JobToken string `json:"job_token" mapstructure:"job_token"`
		// DepVersion is passed to builds as the DEP_VERSION build argument.
		DepVersion string            `json:"dep_version" mapstructure:"dep_version"`
		BuildArgs  map[string]string `json:"build_args" mapstructure:"build_args"`
	}

	// VersionConfig supplies the values image tags are derived from.
	// Empty fields are filled from the checked-out repository.
	VersionConfig struct {
		CommitSHA string `json:"commit_sha" mapstructure:"commit_sha"`
		RefSlug   string `json:"ref_slug" mapstructure:"ref_slug"`
	}

	MetricsConfig struct {
		// Textfile, when set, receives the run metrics in Prometheus text format.
		Textfile string `json:"textfile" mapstructure:"textfile"`
	}

	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Enabled reports whether the flag is set to a truthy value. Anything non-empty
// except 0, false, no and off (case-insensitive) counts as true.
func (f ForceFlag) Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(string(f))) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func (f ForceFlag) String() string { return string(f) }

func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is a supported engine.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{invalid("container.engine", string(ce), ErrInvalidContainerEngine,
			ContainerEngineDocker, ContainerEnginePodman)}
	}
}

func (p Policy) String() string { return string(p) }

// IsValid returns whether the Policy is a known failure policy.
func (p Policy) IsValid() (bool, []error) {
	switch p {
	case PolicyFailFast, PolicyContinue:
		return true, nil
	default:
		return false, []error{invalid("executor.policy", string(p), ErrInvalidPolicy, PolicyFailFast, PolicyContinue)}
	}
}

func (a Action) String() string { return string(a) }

// IsValid returns whether the Action is a known build action.
func (a Action) IsValid() (bool, []error) {
	switch a {
	case ActionAuto, ActionImage, ActionScript, ActionDryRun:
		return true, nil
	default:
		return false, []error{invalid("executor.action", string(a), ErrInvalidAction,
			ActionAuto, ActionImage, ActionScript, ActionDryRun)}
	}
}

func invalid[T ~string](field, value string, sentinel error, valid ...T) *InvalidValueError {
	names := make([]string, len(valid))
	for i, v := range valid {
		names[i] = string(v)
	}
	return &InvalidValueError{Field: field, Value: value, Valid: names, err: sentinel}
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: invalid value %q (valid: %s)", e.Field, e.Value, strings.Join(e.Valid, ", "))
}

// Unwrap returns the sentinel of the offending type.
func (e *InvalidValueError) Unwrap() error { return e.err }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return "invalid config: " + e.FieldErrors[0].Error()
	}
	return fmt.Sprintf("invalid config: %d field errors", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid validates values that can reach the Config without passing the CUE
// schema, i.e. environment variables and flags.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if _, _, err := c.TargetSelection(); err != nil {
		errs = append(errs, fmt.Errorf("target: %w", err))
	}
	for target := range c.BaseRefs {
		if _, err := manifest.ParseTarget(target); err != nil {
			errs = append(errs, fmt.Errorf("base_refs: %w", err))
		}
	}
	for _, k := range c.Kinds {
		if _, err := manifest.ParseKind(k); err != nil {
			errs = append(errs, fmt.Errorf("kinds: %w", err))
		}
	}
	if _, fieldErrs := c.Executor.Action.IsValid(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs...)
	}
	if _, fieldErrs := c.Executor.Policy.IsValid(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs...)
	}
	if c.Executor.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("executor.concurrency: must be >= 0, got %d", c.Executor.Concurrency))
	}
	if _, fieldErrs := c.Container.Engine.IsValid(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Force reports whether every package is to be rebuilt regardless of changes.
// Target "tag" only retags existing images and therefore always forces.
func (c Config) Force() bool {
	if c.ForceBuild.Enabled() {
		return true
	}
	t, _, err := c.TargetSelection()
	return err == nil && t == manifest.TargetTag
}

// TargetSelection resolves Target into a build target and the tag name used
// by target "tag". Keywords match case-insensitively and take the tag name
// from Tag. Any other value is itself a tag name and selects target "tag".
// An empty Target selects feature.
func (c Config) TargetSelection() (manifest.Target, string, error) {
	raw := strings.TrimSpace(c.Target)
	if raw == "" {
		return manifest.TargetFeature, c.Tag, nil
	}
	if t, err := manifest.ParseTarget(raw); err == nil {
		return t, c.Tag, nil
	}
	if !isTagName(raw) {
		return "", "", fmt.Errorf("%w: %q is neither a target keyword nor a valid tag name", manifest.ErrInvalidTarget, raw)
	}
	return manifest.TargetTag, raw, nil
}

// isTagName reports whether s can name both a git tag and an image tag:
// [A-Za-z0-9_][A-Za-z0-9_.-]{0,127}.
func isTagName(s string) bool {
	if s == "" || len(s) > 128 || s[0] == '.' || s[0] == '-' {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '.', r == '-':
		default:
			return false
		}
	}
	return !strings.Contains(s, "..")
}

// BaseRef returns the configured fallback base revision for target.
func (c Config) BaseRef(target string) string {
	return c.BaseRefs[target]
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Target: string(manifest.TargetFeature),
		Kinds:  []string{},
		Ignore: []string{},
		Head:   "HEAD",
		BaseRefs: map[string]string{
			string(manifest.TargetFeature): "develop",
			string(manifest.TargetStage):   "master",
			string(manifest.TargetProd):    "HEAD~1",
		},
		Marker: MarkerConfig{
			Enabled: true,
			Dir:     ".monobuild/state",
		},
		Executor: ExecutorConfig{
			Action:      ActionAuto,
			Concurrency: 0,
			Policy:      PolicyFailFast,
		},
		Container: ContainerConfig{
			Engine:    ContainerEngineDocker,
			Push:      true,
			BuildArgs: map[string]string{},
		},
	}
}
