// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInternalOrdering is the sentinel wrapped by InternalOrderingError.
var ErrInternalOrdering = errors.New("internal ordering error")

// InternalOrderingError reports a plan that is not a dependency-respecting
// permutation of the impacted set. It indicates a bug, never bad input.
type InternalOrderingError struct {
	Expected int
	Planned  int
	Detail   string
}

// Error implements the error interface.
func (e *InternalOrderingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: planned %d of %d packages", ErrInternalOrdering, e.Planned, e.Expected)
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	return b.String()
}

// Unwrap returns ErrInternalOrdering.
func (e *InternalOrderingError) Unwrap() error { return ErrInternalOrdering }
