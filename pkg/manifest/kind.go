// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	KindGo      Kind = "go"
	KindNode    Kind = "node"
	KindPython  Kind = "python"
	KindRust    Kind = "rust"
	KindDocker  Kind = "docker"
	KindGeneric Kind = "generic"

	DescriptorCUE        DescriptorKind = "monobuild.cue"
	DescriptorYAML       DescriptorKind = "monobuild.yaml"
	DescriptorHCL        DescriptorKind = "monobuild.hcl"
	DescriptorGoMod      DescriptorKind = "go.mod"
	DescriptorNPM        DescriptorKind = "package.json"
	DescriptorCargo      DescriptorKind = "Cargo.toml"
	DescriptorDockerfile DescriptorKind = "Dockerfile"

	// TargetFeature builds feature branches, tagged with the ref slug.
	TargetFeature Target = "feature"
	// TargetStage builds the staging branch, tagged with the commit sha and "stage".
	TargetStage Target = "stage"
	// TargetProd builds the production branch, tagged with the commit sha and "latest".
	TargetProd Target = "prod"
	// TargetTag promotes the latest images to a release tag without building.
	TargetTag Target = "tag"
)

var (
	// ErrInvalidKind is returned for an ecosystem kind outside the known set.
	ErrInvalidKind = errors.New("invalid package kind")
	// ErrInvalidTarget is returned for a build target outside the known set.
	ErrInvalidTarget = errors.New("invalid build target")

	descriptorPrecedence = []DescriptorKind{
		DescriptorCUE,
		DescriptorYAML,
		DescriptorHCL,
		DescriptorGoMod,
		DescriptorNPM,
		DescriptorCargo,
		DescriptorDockerfile,
	}
)

type (
	// Kind is the ecosystem a package belongs to. It drives --kind filtering.
	Kind string

	// DescriptorKind identifies the descriptor file a package was declared by.
	// The value is the file name.
	DescriptorKind string

	// Target selects the build flavour: feature, stage, prod or tag.
	Target string
)

// Kinds returns all valid ecosystem kinds.
func Kinds() []Kind {
	return []Kind{KindGo, KindNode, KindPython, KindRust, KindDocker, KindGeneric}
}

// ParseKind converts s to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

// Validate returns ErrInvalidKind if k is unknown.
func (k Kind) Validate() error {
	if slices.Contains(Kinds(), k) {
		return nil
	}
	return fmt.Errorf("%w: %q (expected one of %s)", ErrInvalidKind, string(k), joinKinds())
}

func (k Kind) String() string { return string(k) }

func joinKinds() string {
	names := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

// DescriptorKinds returns every descriptor kind in precedence order.
func DescriptorKinds() []DescriptorKind {
	return slices.Clone(descriptorPrecedence)
}

// DescriptorKindFor returns the descriptor kind for a file name.
func DescriptorKindFor(fileName string) (DescriptorKind, bool) {
	k := DescriptorKind(fileName)
	return k, slices.Contains(descriptorPrecedence, k)
}

// IsNative reports whether k is one of monobuild's own descriptor formats.
func (k DescriptorKind) IsNative() bool {
	return k == DescriptorCUE || k == DescriptorYAML || k == DescriptorHCL
}

// Precedence returns the rank of k; lower wins. Unknown kinds rank last.
func (k DescriptorKind) Precedence() int {
	if i := slices.Index(descriptorPrecedence, k); i >= 0 {
		return i
	}
	return len(descriptorPrecedence)
}

func (k DescriptorKind) String() string { return string(k) }

// Targets returns all build targets.
func Targets() []Target {
	return []Target{TargetFeature, TargetStage, TargetProd, TargetTag}
}

// ParseTarget converts s to a Target.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate returns ErrInvalidTarget if t is unknown.
func (t Target) Validate() error {
	if slices.Contains(Targets(), t) {
		return nil
	}
	return fmt.Errorf("%w: %q (expected feature, stage, prod or tag)", ErrInvalidTarget, string(t))
}

func (t Target) String() string { return string(t) }
