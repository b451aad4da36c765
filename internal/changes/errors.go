// SPDX-License-Identifier: MPL-2.0

package changes

import (
	"errors"
	"fmt"
)

// ErrRevisionResolution is the sentinel wrapped by RevisionResolutionError.
var ErrRevisionResolution = errors.New("cannot resolve revision")

// RevisionResolutionError reports a revision marker that does not name a commit.
type RevisionResolutionError struct {
	Revision string
	Err      error
}

// Error implements the error interface.
func (e *RevisionResolutionError) Error() string {
	if e.Revision == "" {
		return fmt.Sprintf("%s: %v", ErrRevisionResolution, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", ErrRevisionResolution, e.Revision, e.Err)
}

// Unwrap exposes both ErrRevisionResolution and the cause.
func (e *RevisionResolutionError) Unwrap() []error { return []error{ErrRevisionResolution, e.Err} }
