// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"path"
	"strings"

	"github.com/monobuild/monobuild/pkg/types"
)

type (
	// ParseContext carries what a descriptor parser needs besides the file bytes.
	ParseContext struct {
		// Dir is the repository-relative directory holding the descriptor.
		Dir types.RepoPath
		// HasDockerfile reports whether Dir contains a Dockerfile.
		HasDockerfile bool
		// ProjectName names the package rooted at the repository root when the
		// descriptor itself carries no name (bare Dockerfile).
		ProjectName string
		// GoModulePrefix selects go.mod requirements that are workspace packages.
		GoModulePrefix string
		// NodeScope selects package.json dependencies that are workspace packages ("acme" or "@acme").
		NodeScope string
	}

	parseFunc func(pc ParseContext, data []byte) (*Spec, error)
)

// Parse turns the bytes of a descriptor of kind k found in pc.Dir into a
// Package. It returns (nil, nil) when the descriptor is valid but declares no
// package, e.g. a Cargo virtual workspace manifest. Every failure is a *ParseError.
func Parse(k DescriptorKind, pc ParseContext, data []byte) (*Package, error) {
	descPath := pc.Dir.Join(string(k))

	var parse parseFunc
	switch k {
	case DescriptorCUE:
		parse = parseCUE
	case DescriptorYAML:
		parse = parseYAML
	case DescriptorHCL:
		parse = parseHCL
	case DescriptorGoMod:
		parse = parseGoMod
	case DescriptorNPM:
		parse = parseNPM
	case DescriptorCargo:
		parse = parseCargo
	case DescriptorDockerfile:
		parse = parseDockerfile
	default:
		return nil, &ParseError{Path: descPath, Kind: k, Err: fmt.Errorf("unknown descriptor kind %q", string(k))}
	}

	spec, err := parse(pc, data)
	if err != nil {
		return nil, &ParseError{Path: descPath, Kind: k, Err: err}
	}
	if spec == nil {
		return nil, nil
	}

	spec.Descriptor = descPath
	spec.DescriptorKind = k
	spec.Root = pc.Dir
	if spec.Image.Dockerfile == "" && pc.HasDockerfile {
		spec.Image.Dockerfile = pc.Dir.Join(string(DescriptorDockerfile))
	}
	if spec.Image.Name == "" && !pc.Dir.IsRoot() {
		spec.Image.Name = pc.Dir.Base()
	}

	pkg, err := NewPackage(*spec)
	if err != nil {
		return nil, &ParseError{Path: descPath, Kind: k, Err: err}
	}
	return pkg, nil
}

// packageRelative resolves a path written inside a descriptor against the
// descriptor's directory.
func packageRelative(dir types.RepoPath, p string) (types.RepoPath, error) {
	if path.IsAbs(p) {
		return "", fmt.Errorf("path %q must be relative to the package directory", p)
	}
	return types.NewRepoPath(path.Join(string(dir), p))
}

// splitList splits "a, b c" into ["a" "b" "c"].
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
}
