// SPDX-License-Identifier: MPL-2.0

package scan

import "github.com/monobuild/monobuild/pkg/types"

const (
	// CodeDescriptorShadowed marks a descriptor ignored because a higher
	// precedence descriptor declares the package in the same directory.
	CodeDescriptorShadowed = "descriptor_shadowed"
	// CodeNotAPackage marks a valid descriptor that declares no package.
	CodeNotAPackage = "descriptor_not_a_package"
)

// Diagnostic is a non-fatal observation made while scanning.
type Diagnostic struct {
	// Code is a machine-readable identifier such as CodeDescriptorShadowed.
	Code    string
	Message string
	Path    types.RepoPath
}
