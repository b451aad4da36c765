// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"slices"
	"testing"

	"github.com/monobuild/monobuild/internal/issue"
)

func TestBaseCLIEngine_BuildArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/docker")
	got := e.BuildArgs(BuildOptions{
		ContextDir: "/repo",
		Dockerfile: "services/api/Dockerfile",
		Tags:       []ImageRef{"reg/api:abc", "reg/api:stage"},
		CacheFrom:  []ImageRef{"reg/api:stage"},
		BuildArgs:  map[string]string{"Z": "1", "A": "2"},
		Pull:       true,
		NoCache:    true,
	})
	want := []string{
		"build",
		"-f", "/repo/services/api/Dockerfile",
		"-t", "reg/api:abc",
		"-t", "reg/api:stage",
		"--pull",
		"--no-cache",
		"--cache-from", "reg/api:stage",
		"--build-arg", "A=2",
		"--build-arg", "Z=1",
		"/repo",
	}
	if !slices.Equal(got, want) {
		t.Errorf("BuildArgs() =\n%v\nwant\n%v", got, want)
	}
}

func TestBaseCLIEngine_SimpleArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker")
	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"tag", e.TagArgs("a:1", "a:2"), []string{"tag", "a:1", "a:2"}},
		{"push", e.PushArgs("a:1"), []string{"push", "a:1"}},
		{"pull", e.PullArgs("a:1"), []string{"pull", "a:1"}},
		{"rmi", e.RemoveImageArgs("a:1", false), []string{"rmi", "a:1"}},
		{"rmi force", e.RemoveImageArgs("a:1", true), []string{"rmi", "-f", "a:1"}},
	}
	for _, tt := range tests {
		if !slices.Equal(tt.got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPodmanEngine_UsesDockerFormat(t *testing.T) {
	t.Parallel()

	e := NewPodmanEngine(WithBinaryPath("/usr/bin/podman"))
	args := e.BuildArgs(BuildOptions{ContextDir: ".", Tags: []ImageRef{"x:1"}})
	if len(args) < 3 || args[0] != "build" || args[1] != "--format" || args[2] != "docker" {
		t.Errorf("BuildArgs() = %v, want build --format docker ...", args)
	}
	if got := dockerFormat([]string{"push", "x"}); !slices.Equal(got, []string{"push", "x"}) {
		t.Errorf("dockerFormat must only touch build commands, got %v", got)
	}
}

func TestBuildOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    BuildOptions
		wantErr bool
	}{
		{"valid", BuildOptions{ContextDir: ".", Tags: []ImageRef{"a:1"}}, false},
		{"no context", BuildOptions{Tags: []ImageRef{"a:1"}}, true},
		{"no tags", BuildOptions{ContextDir: "."}, true},
		{"empty tag", BuildOptions{ContextDir: ".", Tags: []ImageRef{""}}, true},
		{"whitespace cache ref", BuildOptions{ContextDir: ".", Tags: []ImageRef{"a:1"}, CacheFrom: []ImageRef{"a b"}}, true},
	}
	for _, tt := range tests {
		if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestDockerEngine_Build(t *testing.T) {
	t.Parallel()

	e, rec := newMockDocker(t)
	err := e.Build(t.Context(), BuildOptions{ContextDir: "/repo", Dockerfile: "Dockerfile", Tags: []ImageRef{"reg:abc"}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !rec.HasArgPair("-t", "reg:abc") {
		t.Errorf("build args missing tag: %v", rec.LastArgs())
	}
	if inv := rec.Invocations(); len(inv) != 1 || inv[0].Name != "/usr/bin/docker" {
		t.Errorf("invocations = %+v", inv)
	}
}

func TestDockerEngine_BuildFailure(t *testing.T) {
	t.Parallel()

	e, rec := newMockDocker(t)
	rec.Failures["build"] = []int{1}
	err := e.Build(t.Context(), BuildOptions{ContextDir: "/repo", Dockerfile: "svc/Dockerfile", Tags: []ImageRef{"reg/svc:abc"}})
	if err == nil {
		t.Fatal("Build() should fail")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if ae.Resource != "svc/Dockerfile" || !ae.HasSuggestions() {
		t.Errorf("ActionableError = %+v", ae)
	}
}

func TestDockerEngine_BuildRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	e, rec := newMockDocker(t)
	if err := e.Build(t.Context(), BuildOptions{ContextDir: "/repo"}); err == nil {
		t.Error("Build() without tags should fail")
	}
	if n := len(rec.Invocations()); n != 0 {
		t.Errorf("invalid options must not reach the engine, got %d invocations", n)
	}
}

func TestDockerEngine_PushRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	e, rec := newMockDocker(t)
	rec.Failures["push"] = []int{1, 1}
	rec.Stderr = "received unexpected HTTP status: 503 Service Unavailable"

	if err := e.Push(t.Context(), "reg/api:abc"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if got := rec.Subcommands(); !slices.Equal(got, []string{"push", "push", "push"}) {
		t.Errorf("Subcommands() = %v, want three pushes", got)
	}
}

func TestDockerEngine_PushPermanentFailure(t *testing.T) {
	t.Parallel()

	e, rec := newMockDocker(t)
	rec.Failures["push"] = []int{1}
	rec.Stderr = "unauthorized: authentication required"

	err := e.Push(t.Context(), "reg/api:abc")
	if err == nil {
		t.Fatal("Push() should fail")
	}
	if got := rec.Subcommands(); len(got) != 1 {
		t.Errorf("permanent failures must not be retried, got %v", got)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Operation != "push image" {
		t.Errorf("error = %v, want actionable push error", err)
	}
}

func TestDockerEngine_PullAndTag(t *testing.T) {
	t.Parallel()

	e, rec := newMockDocker(t)
	if err := e.Pull(t.Context(), "reg/api:latest"); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if err := e.Tag(t.Context(), "reg/api:latest", "reg/api:v1.2.0"); err != nil {
		t.Fatalf("Tag() error = %v", err)
	}
	if err := e.Tag(t.Context(), "reg/api:latest", ""); err == nil {
		t.Error("Tag() with empty target should fail")
	}
	if got := rec.Subcommands(); !slices.Equal(got, []string{"pull", "tag"}) {
		t.Errorf("Subcommands() = %v", got)
	}
	if !slices.Equal(rec.LastArgs(), []string{"tag", "reg/api:latest", "reg/api:v1.2.0"}) {
		t.Errorf("LastArgs() = %v", rec.LastArgs())
	}
}

func TestEngines_ImageExists(t *testing.T) {
	t.Parallel()

	d, drec := newMockDocker(t)
	ok, err := d.ImageExists(t.Context(), "reg/api:abc")
	if err != nil || !ok {
		t.Errorf("ImageExists() = %v, %v; want true", ok, err)
	}
	drec.AssertArgsContain(t, "image inspect reg/api:abc")

	drec.Failures["image"] = []int{1}
	ok, err = d.ImageExists(t.Context(), "reg/api:missing")
	if err != nil || ok {
		t.Errorf("ImageExists(missing) = %v, %v; want false, nil", ok, err)
	}

	prec := NewMockCommandRecorder()
	p := NewPodmanEngine(WithBinaryPath("/usr/bin/podman"), WithExecCommand(prec.CommandFunc(t)))
	if ok, err := p.ImageExists(t.Context(), "reg/api:abc"); err != nil || !ok {
		t.Errorf("podman ImageExists() = %v, %v", ok, err)
	}
	prec.AssertArgsContain(t, "image exists reg/api:abc")
}

func TestDockerEngine_Version(t *testing.T) {
	t.Parallel()

	rec := NewMockCommandRecorder()
	rec.Stdout = "27.1.1\n"
	e := NewDockerEngine(WithBinaryPath("/usr/bin/docker"), WithExecCommand(rec.CommandFunc(t)))
	v, err := e.Version(t.Context())
	if err != nil || v != "27.1.1" {
		t.Errorf("Version() = %q, %v", v, err)
	}
	if !e.Available(t.Context()) {
		t.Error("Available() should be true when version succeeds")
	}
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(t.Context(), "containerd"); err == nil {
		t.Error("NewEngine(unknown) should fail")
	}

	// No binary for either engine.
	_, err := NewEngine(t.Context(), EngineTypeDocker, WithBinaryPath(""))
	if !errors.Is(err, ErrEngineNotAvailable) {
		t.Fatalf("NewEngine() error = %v, want ErrEngineNotAvailable", err)
	}

	// Preferred podman is unavailable (its version check fails), docker answers.
	rec := NewMockCommandRecorder()
	rec.Failures["version"] = []int{1}
	eng, err := NewEngine(t.Context(), EngineTypePodman, WithBinaryPath("/bin/engine"), WithExecCommand(rec.CommandFunc(t)))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if eng.Name() != "docker" {
		t.Errorf("NewEngine() picked %q, want the docker fallback", eng.Name())
	}
}
