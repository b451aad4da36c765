// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/monobuild/monobuild/internal/container"
	"github.com/monobuild/monobuild/internal/testutil"
	"github.com/monobuild/monobuild/pkg/manifest"
)

func TestVersioning_TagsFor(t *testing.T) {
	t.Parallel()

	svc := testutil.Package(t, testutil.Pkg{ID: "svc", Root: "services/svc", Image: true})
	root := testutil.Package(t, testutil.Pkg{ID: "shop", Root: ".", Image: true})

	base := Versioning{Registry: "registry.example.com/shop/", CommitSHA: "abc123", RefSlug: "feature-x", Tag: "v1.2.0"}

	tests := []struct {
		name        string
		target      manifest.Target
		pkg         *manifest.Package
		wantPrimary container.ImageRef
		wantAliases []container.ImageRef
		wantRetag   bool
	}{
		{
			name: "feature uses ref slug", target: manifest.TargetFeature, pkg: svc,
			wantPrimary: "registry.example.com/shop/svc:feature-x",
		},
		{
			name: "stage uses sha with stage alias", target: manifest.TargetStage, pkg: svc,
			wantPrimary: "registry.example.com/shop/svc:abc123",
			wantAliases: []container.ImageRef{"registry.example.com/shop/svc:stage"},
		},
		{
			name: "prod uses sha with latest alias", target: manifest.TargetProd, pkg: svc,
			wantPrimary: "registry.example.com/shop/svc:abc123",
			wantAliases: []container.ImageRef{"registry.example.com/shop/svc:latest"},
		},
		{
			name: "tag retags latest", target: manifest.TargetTag, pkg: svc,
			wantPrimary: "registry.example.com/shop/svc:latest",
			wantAliases: []container.ImageRef{"registry.example.com/shop/svc:v1.2.0"},
			wantRetag:   true,
		},
		{
			name: "root package is the registry image", target: manifest.TargetFeature, pkg: root,
			wantPrimary: "registry.example.com/shop:feature-x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := base
			v.Target = tt.target
			got, err := v.TagsFor(tt.pkg)
			if err != nil {
				t.Fatalf("TagsFor() error = %v", err)
			}
			if got.Primary != tt.wantPrimary {
				t.Errorf("Primary = %q, want %q", got.Primary, tt.wantPrimary)
			}
			if !slices.Equal(got.Aliases, tt.wantAliases) {
				t.Errorf("Aliases = %v, want %v", got.Aliases, tt.wantAliases)
			}
			if got.Retag != tt.wantRetag {
				t.Errorf("Retag = %v, want %v", got.Retag, tt.wantRetag)
			}
		})
	}
}

func TestVersioning_TagsForErrors(t *testing.T) {
	t.Parallel()

	svc := testutil.Package(t, testutil.Pkg{ID: "svc", Image: true})

	tests := []struct {
		name    string
		v       Versioning
		wantErr error
	}{
		{"no registry", Versioning{Target: manifest.TargetFeature, RefSlug: "x"}, ErrNoRegistry},
		{"feature without slug", Versioning{Registry: "r", Target: manifest.TargetFeature}, ErrMissingVersion},
		{"stage without sha", Versioning{Registry: "r", Target: manifest.TargetStage}, ErrMissingVersion},
		{"tag without name", Versioning{Registry: "r", Target: manifest.TargetTag}, ErrMissingVersion},
		{"unknown target", Versioning{Registry: "r", Target: "nightly"}, manifest.ErrInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := tt.v.TagsFor(svc); !errors.Is(err, tt.wantErr) {
				t.Errorf("TagsFor() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"main", "main"},
		{"feature/JIRA-12_login", "feature-jira-12-login"},
		{"/leading/and/trailing/", "leading-and-trailing"},
		{"Release 1.2", "release-1-2"},
		{strings.Repeat("a", 70), strings.Repeat("a", 63)},
		{strings.Repeat("a", 62) + "/b", strings.Repeat("a", 62)},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
