// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"errors"
	"fmt"

	"github.com/monobuild/monobuild/pkg/types"
)

// ErrDuplicatePackage is the sentinel wrapped by DuplicatePackageError.
var ErrDuplicatePackage = errors.New("duplicate package identity")

// DuplicatePackageError reports two descriptors declaring the same identity.
type DuplicatePackageError struct {
	ID     string
	First  types.RepoPath
	Second types.RepoPath
}

// Error implements the error interface.
func (e *DuplicatePackageError) Error() string {
	return fmt.Sprintf("%s %q: declared by %s and %s", ErrDuplicatePackage, e.ID, e.First, e.Second)
}

// Unwrap returns ErrDuplicatePackage.
func (e *DuplicatePackageError) Unwrap() error { return ErrDuplicatePackage }
