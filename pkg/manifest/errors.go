// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"

	"github.com/monobuild/monobuild/pkg/types"
)

// ErrManifestParse is the sentinel wrapped by every ParseError.
var ErrManifestParse = errors.New("malformed package descriptor")

// ParseError reports a descriptor that exists but cannot be turned into a Package.
// It is fatal: a malformed package is never silently skipped.
type ParseError struct {
	Path types.RepoPath
	Kind DescriptorKind
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrManifestParse, e.Path, e.Err)
}

// Unwrap exposes both ErrManifestParse and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrManifestParse, e.Err} }
