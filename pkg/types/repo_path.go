// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// RootRepoPath is the RepoPath of the repository root itself.
const RootRepoPath RepoPath = "."

// ErrInvalidRepoPath is the sentinel error wrapped by InvalidRepoPathError.
var ErrInvalidRepoPath = errors.New("invalid repository path")

type (
	// RepoPath is a repository-relative, slash-separated, cleaned path.
	// The repository root is ".". Absolute paths and paths escaping the
	// root ("../x") are invalid.
	RepoPath string

	// InvalidRepoPathError is returned when a RepoPath is empty, absolute or
	// escapes the repository root.
	InvalidRepoPathError struct {
		Value  RepoPath
		Reason string
	}
)

// NewRepoPath cleans p (slash or OS separators) into a RepoPath and validates it.
func NewRepoPath(p string) (RepoPath, error) {
	if strings.TrimSpace(p) == "" {
		return "", &InvalidRepoPathError{Value: RepoPath(p), Reason: "must be non-empty"}
	}
	cleaned := RepoPath(path.Clean(filepath.ToSlash(p)))
	if err := cleaned.Validate(); err != nil {
		return "", err
	}
	return cleaned, nil
}

// MustRepoPath is NewRepoPath for literals known to be valid. It panics otherwise.
func MustRepoPath(p string) RepoPath {
	rp, err := NewRepoPath(p)
	if err != nil {
		panic(err)
	}
	return rp
}

// String returns the string representation of the RepoPath.
func (p RepoPath) String() string { return string(p) }

// Validate returns an error if the path is empty, absolute, not clean or escapes the root.
func (p RepoPath) Validate() error {
	s := string(p)
	switch {
	case strings.TrimSpace(s) == "":
		return &InvalidRepoPathError{Value: p, Reason: "must be non-empty"}
	case path.IsAbs(s) || filepath.IsAbs(s):
		return &InvalidRepoPathError{Value: p, Reason: "must be relative to the repository root"}
	case s == ".." || strings.HasPrefix(s, "../"):
		return &InvalidRepoPathError{Value: p, Reason: "escapes the repository root"}
	case path.Clean(s) != s:
		return &InvalidRepoPathError{Value: p, Reason: "must be clean and slash separated"}
	}
	return nil
}

// IsRoot reports whether p is the repository root.
func (p RepoPath) IsRoot() bool { return p == RootRepoPath }

// Within reports whether p equals dir or lies below it on a path-segment
// boundary. "services/api2/x" is not within "services/api". Every path is
// within the root.
func (p RepoPath) Within(dir RepoPath) bool {
	if dir.IsRoot() || p == dir {
		return true
	}
	return strings.HasPrefix(string(p), string(dir)+"/")
}

// Depth returns the number of path segments; the root has depth 0.
func (p RepoPath) Depth() int {
	if p.IsRoot() || p == "" {
		return 0
	}
	return strings.Count(string(p), "/") + 1
}

// Join appends slash-separated elements to p.
func (p RepoPath) Join(elem ...string) RepoPath {
	return RepoPath(path.Join(append([]string{string(p)}, elem...)...))
}

// Base returns the last element of p. The root's base is ".".
func (p RepoPath) Base() string { return path.Base(string(p)) }

// Error implements the error interface for InvalidRepoPathError.
func (e *InvalidRepoPathError) Error() string {
	return fmt.Sprintf("invalid repository path %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidRepoPath for errors.Is() compatibility.
func (e *InvalidRepoPathError) Unwrap() error { return ErrInvalidRepoPath }
