// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"slices"
	"testing"

	"github.com/monobuild/monobuild/pkg/types"
)

func TestParse_NativeFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind DescriptorKind
		data string
	}{
		{
			name: "cue",
			kind: DescriptorCUE,
			data: `
name:       "api"
kind:       "go"
depends_on: ["core", "proto"]
targets:    ["stage", "prod"]
image: {
	dockerfile: "build/Dockerfile"
	build_args: {FOO: "bar"}
}
build: script: "make image"
`,
		},
		{
			name: "yaml",
			kind: DescriptorYAML,
			data: `
name: api
kind: go
depends_on: [core, proto]
targets: [stage, prod]
image:
  dockerfile: build/Dockerfile
  build_args:
    FOO: bar
build:
  script: make image
`,
		},
		{
			name: "hcl",
			kind: DescriptorHCL,
			data: `
name       = "api"
kind       = "go"
depends_on = ["core", "proto"]
targets    = ["stage", "prod"]

image {
  dockerfile = "build/Dockerfile"
  build_args = { FOO = "bar" }
}

build {
  script = "make image"
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pc := ParseContext{Dir: "services/api"}
			pkg, err := Parse(tt.kind, pc, []byte(tt.data))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if pkg.ID() != "api" || pkg.Kind() != KindGo {
				t.Errorf("identity = %s/%s", pkg.ID(), pkg.Kind())
			}
			if got := pkg.Dependencies(); !slices.Equal(got, []string{"core", "proto"}) {
				t.Errorf("Dependencies() = %v", got)
			}
			if pkg.Root() != "services/api" {
				t.Errorf("Root() = %q", pkg.Root())
			}
			if pkg.Descriptor() != types.RepoPath("services/api/"+string(tt.kind)) {
				t.Errorf("Descriptor() = %q", pkg.Descriptor())
			}
			if pkg.AllowsTarget(TargetFeature) || !pkg.AllowsTarget(TargetProd) {
				t.Errorf("Targets() = %v", pkg.Targets())
			}
			img := pkg.Image()
			if img.Dockerfile != "services/api/build/Dockerfile" {
				t.Errorf("Image().Dockerfile = %q", img.Dockerfile)
			}
			if img.Name != "api" {
				t.Errorf("Image().Name = %q, want directory name", img.Name)
			}
			if img.BuildArgs["FOO"] != "bar" {
				t.Errorf("Image().BuildArgs = %v", img.BuildArgs)
			}
			if pkg.Script() != "make image" {
				t.Errorf("Script() = %q", pkg.Script())
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind DescriptorKind
		data string
	}{
		{"cue missing name", DescriptorCUE, `kind: "go"`},
		{"cue unknown kind", DescriptorCUE, `name: "x", kind: "cobol"`},
		{"cue unknown field", DescriptorCUE, `name: "x", kind: "go", colour: "red"`},
		{"cue syntax", DescriptorCUE, `name: `},
		{"yaml unknown field", DescriptorYAML, "name: x\nkind: go\ncolour: red\n"},
		{"yaml missing kind", DescriptorYAML, "name: x\n"},
		{"yaml bad target", DescriptorYAML, "name: x\nkind: go\ntargets: [nightly]\n"},
		{"hcl missing kind", DescriptorHCL, `name = "x"`},
		{"hcl syntax", DescriptorHCL, `name = `},
		{"gomod no module", DescriptorGoMod, "go 1.22\n"},
		{"gomod syntax", DescriptorGoMod, "module\n"},
		{"npm no name", DescriptorNPM, `{"version": "1.0.0"}`},
		{"npm not json", DescriptorNPM, `{`},
		{"cargo no package", DescriptorCargo, "[dependencies]\nserde = \"1\"\n"},
		{"cargo not toml", DescriptorCargo, "[package\n"},
		{"unknown descriptor", DescriptorKind("BUILD.bazel"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.kind, ParseContext{Dir: "pkg"}, []byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrManifestParse) {
				t.Errorf("error should wrap ErrManifestParse: %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error should be *ParseError, got %T", err)
			}
			if pe.Path != types.RepoPath("pkg").Join(string(tt.kind)) {
				t.Errorf("ParseError.Path = %q", pe.Path)
			}
		})
	}
}

func TestParse_GoMod(t *testing.T) {
	t.Parallel()

	data := `module example.com/mono/api

go 1.22

require (
	example.com/mono/core v0.0.0
	example.com/mono/proto v0.0.0
	github.com/spf13/cobra v1.8.0
)

replace example.com/shared/log => ../../libs/log

replace github.com/pkg/errors => github.com/pkg/errors v0.9.1
`
	pc := ParseContext{Dir: "services/api", GoModulePrefix: "example.com/mono/", HasDockerfile: true}
	pkg, err := Parse(DescriptorGoMod, pc, []byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg.ID() != "example.com/mono/api" {
		t.Errorf("ID() = %q", pkg.ID())
	}
	want := []string{"example.com/mono/core", "example.com/mono/proto", "example.com/shared/log"}
	if got := pkg.Dependencies(); !slices.Equal(got, want) {
		t.Errorf("Dependencies() = %v, want %v", got, want)
	}
	if pkg.Image().Dockerfile != "services/api/Dockerfile" {
		t.Errorf("sibling Dockerfile not recorded: %q", pkg.Image().Dockerfile)
	}
}

func TestParse_GoModWithoutPrefixKeepsOnlyLocalReplaces(t *testing.T) {
	t.Parallel()

	data := "module example.com/mono/api\n\ngo 1.22\n\nrequire example.com/mono/core v0.0.0\n"
	pkg, err := Parse(DescriptorGoMod, ParseContext{Dir: "api"}, []byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if deps := pkg.Dependencies(); len(deps) != 0 {
		t.Errorf("Dependencies() = %v, want none", deps)
	}
}

func TestParse_NPM(t *testing.T) {
	t.Parallel()

	data := `{
  "name": "@acme/web",
  "dependencies": {
    "@acme/ui": "^1.0.0",
    "react": "^18.0.0",
    "shared-utils": "workspace:*"
  },
  "devDependencies": {
    "local-lint": "file:../lint",
    "typescript": "^5.0.0"
  }
}`
	pkg, err := Parse(DescriptorNPM, ParseContext{Dir: "apps/web", NodeScope: "@acme"}, []byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"@acme/ui", "local-lint", "shared-utils"}
	if got := pkg.Dependencies(); !slices.Equal(got, want) {
		t.Errorf("Dependencies() = %v, want %v", got, want)
	}
	if pkg.Kind() != KindNode {
		t.Errorf("Kind() = %q", pkg.Kind())
	}
}

func TestParse_Cargo(t *testing.T) {
	t.Parallel()

	data := `
[package]
name = "engine"
version = "0.1.0"

[dependencies]
serde = "1"
geometry = { path = "../geometry" }
net = { path = "../net-core", package = "net-core" }

[dev-dependencies]
testkit = { path = "../testkit" }
tokio = { version = "1", features = ["full"] }
`
	pkg, err := Parse(DescriptorCargo, ParseContext{Dir: "crates/engine"}, []byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"geometry", "net-core", "testkit"}
	if got := pkg.Dependencies(); !slices.Equal(got, want) {
		t.Errorf("Dependencies() = %v, want %v", got, want)
	}
}

func TestParse_CargoVirtualWorkspace(t *testing.T) {
	t.Parallel()

	pkg, err := Parse(DescriptorCargo, ParseContext{Dir: types.RootRepoPath}, []byte("[workspace]\nmembers = [\"crates/*\"]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg != nil {
		t.Errorf("virtual workspace should declare no package, got %v", pkg)
	}
}

func TestParse_Dockerfile(t *testing.T) {
	t.Parallel()

	data := "# depends-on: core, proto\n# Depends-On: auth\nFROM alpine\nRUN echo '# depends-on: ignored'\n"
	pkg, err := Parse(DescriptorDockerfile, ParseContext{Dir: "services/api", HasDockerfile: true}, []byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg.ID() != "api" || pkg.Kind() != KindDocker {
		t.Errorf("identity = %s/%s", pkg.ID(), pkg.Kind())
	}
	if got := pkg.Dependencies(); !slices.Equal(got, []string{"core", "proto", "auth"}) {
		t.Errorf("Dependencies() = %v", got)
	}
	if !pkg.HasImage() {
		t.Error("Dockerfile package must have an image")
	}
}

func TestParse_RootDockerfile(t *testing.T) {
	t.Parallel()

	pkg, err := Parse(DescriptorDockerfile, ParseContext{Dir: types.RootRepoPath, ProjectName: "shop", HasDockerfile: true}, []byte("FROM scratch\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg.ID() != "shop" {
		t.Errorf("ID() = %q, want project name", pkg.ID())
	}
	if pkg.Image().Name != "" {
		t.Errorf("root image name = %q, want empty", pkg.Image().Name)
	}

	if _, err := Parse(DescriptorDockerfile, ParseContext{Dir: types.RootRepoPath}, []byte("FROM scratch\n")); err == nil {
		t.Error("root Dockerfile without project name should fail")
	}
}
