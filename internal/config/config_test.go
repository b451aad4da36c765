// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cuelang.org/go/cue/cuecontext"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// isolated returns options that never reach the real user config directory.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{RepoRoot: t.TempDir(), ConfigDirPath: t.TempDir()}
}

func TestSchemaCompiles(t *testing.T) {
	t.Parallel()

	v := cuecontext.New().CompileString(Schema())
	if err := v.Err(); err != nil {
		t.Fatalf("schema does not compile: %v", err)
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	got, err := Locate(opts)
	if err != nil || got != "" {
		t.Fatalf("Locate() with no files = %q, %v", got, err)
	}

	userPath := filepath.Join(opts.ConfigDirPath, "config.cue")
	writeConfig(t, userPath, "")
	if got, _ := Locate(opts); got != userPath {
		t.Errorf("Locate() = %q, want user file %q", got, userPath)
	}

	repoPath := filepath.Join(opts.RepoRoot, ".monobuild", "config.cue")
	writeConfig(t, repoPath, "")
	if got, _ := Locate(opts); got != repoPath {
		t.Errorf("Locate() = %q, want repository file %q", got, repoPath)
	}

	explicit := filepath.Join(t.TempDir(), "custom.cue")
	writeConfig(t, explicit, "")
	opts.ConfigFilePath = explicit
	if got, _ := Locate(opts); got != explicit {
		t.Errorf("Locate() = %q, want explicit file %q", got, explicit)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")
	_, err := NewProvider().Load(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist, got %v", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_FileValues(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	writeConfig(t, filepath.Join(opts.RepoRoot, ".monobuild", "config.cue"), `
project_name: "shop"
kinds: ["go", "docker"]
ignore: ["examples/**"]
base_refs: feature: "main"
go: module_prefix: "example.com/shop"
executor: {
	policy:      "continue"
	concurrency: 4
}
container: build_args: {
	GO_VERSION: "1.25"
}
`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProjectName != "shop" {
		t.Errorf("ProjectName = %q", cfg.ProjectName)
	}
	if strings.Join(cfg.Kinds, ",") != "go,docker" {
		t.Errorf("Kinds = %v", cfg.Kinds)
	}
	if cfg.Executor.Policy != PolicyContinue || cfg.Executor.Concurrency != 4 {
		t.Errorf("Executor = %+v", cfg.Executor)
	}
	if cfg.Executor.Action != ActionAuto {
		t.Errorf("unset action should keep its default, got %q", cfg.Executor.Action)
	}
	if cfg.BaseRef("feature") != "main" {
		t.Errorf("BaseRef(feature) = %q, want main", cfg.BaseRef("feature"))
	}
	if cfg.BaseRef("stage") != "master" {
		t.Errorf("partial base_refs must keep other defaults, BaseRef(stage) = %q", cfg.BaseRef("stage"))
	}
	if cfg.Container.BuildArgs["GO_VERSION"] != "1.25" {
		t.Errorf("BuildArgs = %v, want case-preserved GO_VERSION", cfg.Container.BuildArgs)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown policy", `executor: policy: "sometimes"`},
		{"unknown field", `colour: "red"`},
		{"negative concurrency", `executor: concurrency: -2`},
		{"malformed target", `target: "v1 2"`},
		{"malformed tag", `tag: "-rc"`},
		{"syntax error", `target: "feature`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			opts.ConfigFilePath = filepath.Join(t.TempDir(), "config.cue")
			writeConfig(t, opts.ConfigFilePath, tt.content)
			if _, err := NewProvider().Load(context.Background(), opts); err == nil {
				t.Errorf("Load() accepted %q", tt.content)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MONOBUILD_EXECUTOR_POLICY", "continue")
	t.Setenv("MONOBUILD_KINDS", "go,node")
	t.Setenv("GITLAB_FORCE_BUILD", "1")
	t.Setenv("CI_REGISTRY_IMAGE", "registry.example.com/shop")
	t.Setenv("CI_COMMIT_SHA", "from-ci")
	t.Setenv("MONOBUILD_VERSION_COMMIT_SHA", "from-monobuild")
	t.Setenv("CI_JOB_TOKEN", "secret")

	cfg, err := NewProvider().Load(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Executor.Policy != PolicyContinue {
		t.Errorf("Policy = %q, want continue", cfg.Executor.Policy)
	}
	if strings.Join(cfg.Kinds, ",") != "go,node" {
		t.Errorf("Kinds = %v", cfg.Kinds)
	}
	if !cfg.Force() {
		t.Error("GITLAB_FORCE_BUILD=1 should force")
	}
	if cfg.Container.Registry != "registry.example.com/shop" {
		t.Errorf("Registry = %q", cfg.Container.Registry)
	}
	if cfg.Version.CommitSHA != "from-monobuild" {
		t.Errorf("CommitSHA = %q, MONOBUILD_ variable must win over the CI alias", cfg.Version.CommitSHA)
	}
	if cfg.Container.JobToken != "secret" {
		t.Errorf("JobToken = %q", cfg.Container.JobToken)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MONOBUILD_TARGET", "stage")

	opts := isolated(t)
	writeConfig(t, filepath.Join(opts.RepoRoot, ".monobuild", "config.cue"), `target: "prod"`)
	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Target != "stage" {
		t.Errorf("Target = %q, want the environment value", cfg.Target)
	}
}

func TestLoad_TagNameTarget(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	writeConfig(t, filepath.Join(opts.RepoRoot, ".monobuild", "config.cue"), `target: "v1.2.3"`)
	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	target, tag, err := cfg.TargetSelection()
	if err != nil {
		t.Fatalf("TargetSelection() error = %v", err)
	}
	if target != "tag" || tag != "v1.2.3" {
		t.Errorf("TargetSelection() = %q, %q; want tag, v1.2.3", target, tag)
	}
	if !cfg.Force() {
		t.Error("a tag name target must force")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("MONOBUILD_EXECUTOR_ACTION", "deploy")

	_, err := NewProvider().Load(context.Background(), isolated(t))
	if !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Load() error = %v, want ErrInvalidAction", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ProjectName = "shop"
	cfg.Kinds = []string{"rust"}
	cfg.Ignore = []string{"docs/**"}
	cfg.Base = "origin/main"
	cfg.Go.ModulePrefix = "example.com/shop"
	cfg.Node.Scope = "@shop"
	cfg.Executor.Concurrency = 3
	cfg.Executor.Strict = true
	cfg.Container.Engine = ContainerEnginePodman
	cfg.Container.Registry = "registry.example.com/shop"
	cfg.Container.BuildArgs = map[string]string{"NODE_ENV": "production"}
	cfg.Metrics.Textfile = "/var/lib/node_exporter/monobuild.prom"

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "config.cue")
	if err := WriteFile(opts.ConfigFilePath, cfg, false); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() of generated file error = %v\n%s", err, GenerateCUE(cfg))
	}
	if got.ProjectName != cfg.ProjectName || got.Base != cfg.Base || got.Node.Scope != cfg.Node.Scope ||
		got.Go.ModulePrefix != cfg.Go.ModulePrefix || got.Metrics.Textfile != cfg.Metrics.Textfile {
		t.Errorf("scalar fields differ after round trip: %+v", got)
	}
	if got.Executor != cfg.Executor {
		t.Errorf("Executor = %+v, want %+v", got.Executor, cfg.Executor)
	}
	if got.Container.Engine != ContainerEnginePodman || got.Container.BuildArgs["NODE_ENV"] != "production" {
		t.Errorf("Container = %+v", got.Container)
	}
}

func TestWriteFile_NoOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	if err := WriteFile(path, DefaultConfig(), false); err != nil {
		t.Fatalf("first WriteFile() error = %v", err)
	}
	if err := WriteFile(path, DefaultConfig(), false); !errors.Is(err, fs.ErrExist) {
		t.Errorf("second WriteFile() error = %v, want fs.ErrExist", err)
	}
	if err := WriteFile(path, DefaultConfig(), true); err != nil {
		t.Errorf("WriteFile(overwrite) error = %v", err)
	}
}

func TestEnvNames(t *testing.T) {
	t.Parallel()

	if got := EnvName("executor.policy"); got != "MONOBUILD_EXECUTOR_POLICY" {
		t.Errorf("EnvName() = %q", got)
	}
	aliases := EnvAliases("force_build")
	if len(aliases) != 1 || aliases[0] != "GITLAB_FORCE_BUILD" {
		t.Errorf("EnvAliases(force_build) = %v", aliases)
	}
}
