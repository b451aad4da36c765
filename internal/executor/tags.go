// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/monobuild/monobuild/internal/container"
	"github.com/monobuild/monobuild/pkg/manifest"
)

const (
	stageAlias  = "stage"
	latestAlias = "latest"
	maxSlugLen  = 63
)

var (
	// ErrNoRegistry is returned when an image must be named but no registry is configured.
	ErrNoRegistry = errors.New("no image registry configured")
	// ErrMissingVersion is returned when the value an image tag derives from is empty.
	ErrMissingVersion = errors.New("missing image version")
)

type (
	// Versioning holds the run-wide inputs image tags are derived from.
	Versioning struct {
		Registry  string
		Target    manifest.Target
		CommitSHA string
		RefSlug   string
		// Tag is the release tag for target tag.
		Tag string
	}

	// ImageTags is the naming decision for one package.
	ImageTags struct {
		// Primary is built (or, for target tag, pulled) and pushed.
		Primary container.ImageRef
		// Aliases are applied to Primary and pushed after it.
		Aliases []container.ImageRef
		// Retag is set for target tag: Primary is pulled instead of built.
		Retag bool
	}
)

// Version returns the primary tag version for the target: the ref slug for
// feature builds, the commit for stage and prod, "latest" for tag promotion.
func (v Versioning) Version() (string, error) {
	var version, source string
	switch v.Target {
	case manifest.TargetFeature, "":
		version, source = v.RefSlug, "ref slug"
	case manifest.TargetStage, manifest.TargetProd:
		version, source = v.CommitSHA, "commit sha"
	case manifest.TargetTag:
		version = latestAlias
	default:
		return "", fmt.Errorf("%w: unknown target %q", manifest.ErrInvalidTarget, v.Target)
	}
	if version == "" {
		return "", fmt.Errorf("%w: target %s needs a %s", ErrMissingVersion, v.Target, source)
	}
	return version, nil
}

// TagsFor names the images of pkg.
func (v Versioning) TagsFor(pkg *manifest.Package) (ImageTags, error) {
	if v.Registry == "" {
		return ImageTags{}, ErrNoRegistry
	}
	version, err := v.Version()
	if err != nil {
		return ImageTags{}, err
	}

	name := pkg.Image().Name
	tags := ImageTags{Primary: imageRef(v.Registry, name, version)}
	switch v.Target {
	case manifest.TargetStage:
		tags.Aliases = []container.ImageRef{imageRef(v.Registry, name, stageAlias)}
	case manifest.TargetProd:
		tags.Aliases = []container.ImageRef{imageRef(v.Registry, name, latestAlias)}
	case manifest.TargetTag:
		if v.Tag == "" {
			return ImageTags{}, fmt.Errorf("%w: target tag needs a tag name", ErrMissingVersion)
		}
		tags.Aliases = []container.ImageRef{imageRef(v.Registry, name, v.Tag)}
		tags.Retag = true
	}
	return tags, nil
}

// imageRef is {registry}/{name}:{version}, or {registry}:{version} for the
// repository root package.
func imageRef(registry, name, version string) container.ImageRef {
	registry = strings.TrimSuffix(registry, "/")
	if name == "" {
		return container.ImageRef(registry + ":" + version)
	}
	return container.ImageRef(registry + "/" + name + ":" + version)
}

// Slug turns a ref name into a tag-safe slug: lowercase, every character
// outside [a-z0-9] replaced by '-', at most 63 characters, no leading or
// trailing '-'.
func Slug(ref string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(ref) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('-')
		}
	}
	s := sb.String()
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return strings.Trim(s, "-")
}
