// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/monobuild/monobuild/pkg/types"
)

var (
	// ErrUnresolvedDependency is the sentinel wrapped by UnresolvedDependencyError.
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	// ErrCyclicDependency is the sentinel wrapped by CyclicDependencyError.
	ErrCyclicDependency = errors.New("dependency cycle detected")
	// ErrDuplicateNode is returned by Build when two packages share an identity.
	ErrDuplicateNode = errors.New("duplicate package in graph")
)

type (
	// UnresolvedDependencyError reports a declared dependency naming no known package.
	UnresolvedDependencyError struct {
		Package    string
		Descriptor types.RepoPath
		Missing    string
	}

	// CyclicDependencyError reports a dependency cycle. Cycle lists the
	// participating identities in edge order; the last one depends on the first.
	CyclicDependencyError struct {
		Cycle []string
	}
)

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("%s: package %q (%s) depends on unknown package %q",
		ErrUnresolvedDependency, e.Package, e.Descriptor, e.Missing)
}

func (e *UnresolvedDependencyError) Unwrap() error { return ErrUnresolvedDependency }

func (e *CyclicDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return ErrCyclicDependency.Error()
	}
	return fmt.Sprintf("%s: %s -> %s", ErrCyclicDependency, strings.Join(e.Cycle, " -> "), e.Cycle[0])
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }
