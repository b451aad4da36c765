// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestNewRepoPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    RepoPath
		wantErr bool
	}{
		{"root", ".", RootRepoPath, false},
		{"simple", "core", "core", false},
		{"nested", "services/api", "services/api", false},
		{"trailing slash cleaned", "services/api/", "services/api", false},
		{"dot segments cleaned", "./services//api/../web", "services/web", false},
		{"empty", "", "", true},
		{"whitespace", "  ", "", true},
		{"absolute", "/etc/passwd", "", true},
		{"escapes root", "../outside", "", true},
		{"parent only", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewRepoPath(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewRepoPath(%q) = %q, want error", tt.in, got)
				}
				if !errors.Is(err, ErrInvalidRepoPath) {
					t.Errorf("error should wrap ErrInvalidRepoPath, got: %v", err)
				}
				var rpErr *InvalidRepoPathError
				if !errors.As(err, &rpErr) {
					t.Errorf("error should be *InvalidRepoPathError, got: %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRepoPath(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NewRepoPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepoPath_Within(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, dir RepoPath
		want      bool
	}{
		{"core/lib.go", "core", true},
		{"core", "core", true},
		{"core2/lib.go", "core", false},
		{"services/api/main.go", "services/api", true},
		{"services/api2/main.go", "services/api", false},
		{"services/main.go", "services/api", false},
		{"README.md", RootRepoPath, true},
		{"a/b/c", RootRepoPath, true},
	}

	for _, tt := range tests {
		if got := tt.path.Within(tt.dir); got != tt.want {
			t.Errorf("RepoPath(%q).Within(%q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}

func TestRepoPath_Depth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path RepoPath
		want int
	}{
		{RootRepoPath, 0},
		{"core", 1},
		{"services/api", 2},
		{"a/b/c", 3},
	}
	for _, tt := range tests {
		if got := tt.path.Depth(); got != tt.want {
			t.Errorf("RepoPath(%q).Depth() = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestRepoPath_JoinAndBase(t *testing.T) {
	t.Parallel()

	if got := RootRepoPath.Join("Dockerfile"); got != "Dockerfile" {
		t.Errorf("root Join = %q, want %q", got, "Dockerfile")
	}
	if got := RepoPath("services/api").Join("Dockerfile"); got != "services/api/Dockerfile" {
		t.Errorf("Join = %q", got)
	}
	if got := RepoPath("services/api").Base(); got != "api" {
		t.Errorf("Base = %q, want api", got)
	}
}

func TestMustRepoPathPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustRepoPath should panic on invalid input")
		}
	}()
	MustRepoPath("../x")
}
