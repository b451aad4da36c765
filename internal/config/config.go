// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/monobuild/monobuild/internal/issue"
	"github.com/monobuild/monobuild/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "monobuild"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// RepoConfigDir is the repository-local configuration directory.
	RepoConfigDir = ".monobuild"
	// EnvPrefix prefixes every environment override, e.g. MONOBUILD_EXECUTOR_POLICY.
	EnvPrefix = "MONOBUILD"
)

//go:embed config_schema.cue
var configSchema string

// envAliases maps config keys to the CI variables that may set them. The
// MONOBUILD_ variable always takes precedence over its aliases.
var envAliases = map[string][]string{
	"project_name":          {"CI_PROJECT_NAME"},
	"tag":                   {"CI_COMMIT_TAG"},
	"force_build":           {"GITLAB_FORCE_BUILD"},
	"container.registry":    {"CI_REGISTRY_IMAGE"},
	"container.job_token":   {"CI_JOB_TOKEN"},
	"container.dep_version": {"DEP_VERSION"},
	"version.commit_sha":    {"CI_COMMIT_SHA"},
	"version.ref_slug":      {"CI_COMMIT_REF_SLUG"},
}

// Schema returns the CUE source of the #Config schema.
func Schema() string { return configSchema }

// ConfigDir returns the user-level monobuild configuration directory.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Locate returns the config file Load would read, or "" when none exists and
// defaults apply. Lookup order: explicit file, repository file, user file.
func Locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'monobuild config path' to see where configuration is looked up").
				Wrap(fmt.Errorf("config file not found: %s: %w", opts.ConfigFilePath, fs.ErrNotExist)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	fileName := ConfigFileName + "." + ConfigFileExt
	if opts.RepoRoot != "" {
		repoPath := filepath.Join(opts.RepoRoot, RepoConfigDir, fileName)
		if fileExists(repoPath) {
			return repoPath, nil
		}
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			// No user config directory (e.g. HOME unset in a CI container): defaults only.
			return "", nil //nolint:nilerr // absence of a user dir is not an error
		}
		cfgDir = dir
	}
	userPath := filepath.Join(cfgDir, fileName)
	if fileExists(userPath) {
		return userPath, nil
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading and returns the file
// that was read ("" for defaults only).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	if err := bindEnv(v); err != nil {
		return nil, "", err
	}

	path, err := Locate(opts)
	if err != nil {
		return nil, "", err
	}

	var fileBuildArgs map[string]string
	if path != "" {
		fileBuildArgs, err = loadCUEIntoViper(v, path)
		if err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare the file against 'monobuild config dump --schema'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	// viper lowercases map keys; build argument names are case-sensitive.
	if fileBuildArgs != nil {
		cfg.Container.BuildArgs = fileBuildArgs
	}

	if _, errs := cfg.IsValid(); len(errs) > 0 {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check MONOBUILD_* and CI environment variables for typos").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("project_name", d.ProjectName)
	v.SetDefault("target", d.Target)
	v.SetDefault("tag", d.Tag)
	v.SetDefault("force_build", string(d.ForceBuild))
	v.SetDefault("kinds", d.Kinds)
	v.SetDefault("ignore", d.Ignore)
	v.SetDefault("base", d.Base)
	v.SetDefault("head", d.Head)
	v.SetDefault("base_refs", d.BaseRefs)
	v.SetDefault("marker.enabled", d.Marker.Enabled)
	v.SetDefault("marker.dir", d.Marker.Dir)
	v.SetDefault("go.module_prefix", d.Go.ModulePrefix)
	v.SetDefault("node.scope", d.Node.Scope)
	v.SetDefault("executor.action", string(d.Executor.Action))
	v.SetDefault("executor.concurrency", d.Executor.Concurrency)
	v.SetDefault("executor.policy", string(d.Executor.Policy))
	v.SetDefault("executor.strict", d.Executor.Strict)
	v.SetDefault("container.engine", string(d.Container.Engine))
	v.SetDefault("container.registry", d.Container.Registry)
	v.SetDefault("container.push", d.Container.Push)
	v.SetDefault("container.no_cache", d.Container.NoCache)
	v.SetDefault("container.job_token", d.Container.JobToken)
	v.SetDefault("container.dep_version", d.Container.DepVersion)
	v.SetDefault("container.build_args", d.Container.BuildArgs)
	v.SetDefault("version.commit_sha", d.Version.CommitSHA)
	v.SetDefault("version.ref_slug", d.Version.RefSlug)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range slices.Sorted(maps.Keys(envAliases)) {
		names := append([]string{EnvName(key)}, envAliases[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind environment for %s: %w", key, err)
		}
	}
	return nil
}

// EnvName returns the MONOBUILD_ environment variable for a config key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// EnvAliases returns the CI variables accepted for key, in precedence order.
func EnvAliases(key string) []string {
	return slices.Clone(envAliases[key])
}

// loadCUEIntoViper parses a CUE file, validates it against #Config and merges
// it into v. It returns container.build_args as written, since viper folds key case.
func loadCUEIntoViper(v *viper.Viper, path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	configMap, err := decodeConfig(data, path)
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	return buildArgsOf(configMap), nil
}

// decodeConfig validates CUE source against #Config without requiring
// concreteness for absent optional fields.
func decodeConfig(data []byte, path string) (map[string]any, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return nil, cueutil.FormatError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return nil, cueutil.FormatError(err, path)
	}
	return configMap, nil
}

func buildArgsOf(configMap map[string]any) map[string]string {
	container, ok := configMap["container"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := container["build_args"].(map[string]any)
	if !ok {
		return nil
	}
	args := make(map[string]string, len(raw))
	for k, val := range raw {
		args[k] = fmt.Sprint(val)
	}
	return args
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteFile writes cfg as CUE to path, creating parent directories. An
// existing file is only replaced when overwrite is set.
func WriteFile(path string, cfg *Config, overwrite bool) error {
	if !overwrite && fileExists(path) {
		return fmt.Errorf("config file already exists: %s: %w", path, fs.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg as a config file that validates against #Config.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// monobuild configuration\n\n")

	if cfg.ProjectName != "" {
		fmt.Fprintf(&sb, "project_name: %q\n", cfg.ProjectName)
	}
	fmt.Fprintf(&sb, "target: %q\n", cfg.Target)
	if cfg.Tag != "" {
		fmt.Fprintf(&sb, "tag: %q\n", cfg.Tag)
	}
	fmt.Fprintf(&sb, "force_build: %v\n", cfg.ForceBuild.Enabled())
	writeList(&sb, "", "kinds", cfg.Kinds)
	writeList(&sb, "", "ignore", cfg.Ignore)
	if cfg.Base != "" {
		fmt.Fprintf(&sb, "base: %q\n", cfg.Base)
	}
	fmt.Fprintf(&sb, "head: %q\n", cfg.Head)
	writeMap(&sb, "", "base_refs", cfg.BaseRefs)

	sb.WriteString("\nmarker: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Marker.Enabled)
	fmt.Fprintf(&sb, "\tdir: %q\n", cfg.Marker.Dir)
	sb.WriteString("}\n")

	if cfg.Go.ModulePrefix != "" {
		fmt.Fprintf(&sb, "\ngo: module_prefix: %q\n", cfg.Go.ModulePrefix)
	}
	if cfg.Node.Scope != "" {
		fmt.Fprintf(&sb, "\nnode: scope: %q\n", cfg.Node.Scope)
	}

	sb.WriteString("\nexecutor: {\n")
	fmt.Fprintf(&sb, "\taction: %q\n", cfg.Executor.Action)
	fmt.Fprintf(&sb, "\tconcurrency: %d\n", cfg.Executor.Concurrency)
	fmt.Fprintf(&sb, "\tpolicy: %q\n", cfg.Executor.Policy)
	fmt.Fprintf(&sb, "\tstrict: %v\n", cfg.Executor.Strict)
	sb.WriteString("}\n")

	sb.WriteString("\ncontainer: {\n")
	fmt.Fprintf(&sb, "\tengine: %q\n", cfg.Container.Engine)
	if cfg.Container.Registry != "" {
		fmt.Fprintf(&sb, "\tregistry: %q\n", cfg.Container.Registry)
	}
	fmt.Fprintf(&sb, "\tpush: %v\n", cfg.Container.Push)
	fmt.Fprintf(&sb, "\tno_cache: %v\n", cfg.Container.NoCache)
	if cfg.Container.DepVersion != "" {
		fmt.Fprintf(&sb, "\tdep_version: %q\n", cfg.Container.DepVersion)
	}
	writeMap(&sb, "\t", "build_args", cfg.Container.BuildArgs)
	sb.WriteString("}\n")

	if cfg.Metrics.Textfile != "" {
		fmt.Fprintf(&sb, "\nmetrics: textfile: %q\n", cfg.Metrics.Textfile)
	}

	fmt.Fprintf(&sb, "\nui: verbose: %v\n", cfg.UI.Verbose)

	return sb.String()
}

func writeList(sb *strings.Builder, indent, key string, values []string) {
	if len(values) == 0 {
		return
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(sb, "%s%s: [%s]\n", indent, key, strings.Join(quoted, ", "))
}

func writeMap(sb *strings.Builder, indent, key string, values map[string]string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s%s: {\n", indent, key)
	for _, k := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(sb, "%s\t%q: %q\n", indent, k, values[k])
	}
	fmt.Fprintf(sb, "%s}\n", indent)
}
