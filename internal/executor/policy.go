// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"errors"
	"fmt"
)

const (
	// FailFast stops scheduling at the first failure and cancels running builds.
	FailFast Policy = "fail-fast"
	// Continue builds every package that does not depend on a failed one.
	Continue Policy = "continue"
)

// ErrInvalidPolicy is returned by ParsePolicy.
var ErrInvalidPolicy = errors.New("invalid failure policy")

// Policy decides how a run proceeds after a package fails.
type Policy string

// ParsePolicy validates s.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case FailFast, Continue:
		return p, nil
	case "":
		return FailFast, nil
	default:
		return "", fmt.Errorf("%w %q (valid: fail-fast, continue)", ErrInvalidPolicy, s)
	}
}

func (p Policy) String() string { return string(p) }
