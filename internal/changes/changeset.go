// SPDX-License-Identifier: MPL-2.0

package changes

import (
	"slices"
	"strings"

	"github.com/monobuild/monobuild/pkg/types"
)

const (
	Added    Kind = "added"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
	Renamed  Kind = "renamed"
)

type (
	// Kind classifies a change.
	Kind string

	// Change is one changed path. OldPath is set for renames only.
	Change struct {
		Path    types.RepoPath
		OldPath types.RepoPath
		Kind    Kind
	}

	// ChangeSet is a set of changes keyed by path, or the force sentinel.
	ChangeSet struct {
		force   bool
		changes []Change
	}
)

// Force returns the sentinel ChangeSet that impacts every package.
func Force() *ChangeSet { return &ChangeSet{force: true} }

// NewChangeSet returns a ChangeSet holding cs sorted by path. When a path
// appears more than once the first occurrence wins.
func NewChangeSet(cs ...Change) *ChangeSet {
	out := make([]Change, 0, len(cs))
	seen := make(map[types.RepoPath]bool, len(cs))
	for _, c := range cs {
		if seen[c.Path] {
			continue
		}
		seen[c.Path] = true
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Change) int { return strings.Compare(string(a.Path), string(b.Path)) })
	return &ChangeSet{changes: out}
}

// IsForce reports whether cs is the force sentinel.
func (cs *ChangeSet) IsForce() bool { return cs != nil && cs.force }

// IsEmpty reports whether cs holds no change and is not the force sentinel.
func (cs *ChangeSet) IsEmpty() bool { return cs == nil || (!cs.force && len(cs.changes) == 0) }

// Len returns the number of changes. The force sentinel has none.
func (cs *ChangeSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.changes)
}

// Changes returns the changes sorted by path.
func (cs *ChangeSet) Changes() []Change {
	if cs == nil {
		return nil
	}
	return slices.Clone(cs.changes)
}

// Paths returns every path touched by cs, old rename paths included, sorted and unique.
func (cs *ChangeSet) Paths() []types.RepoPath {
	if cs == nil {
		return nil
	}
	paths := make([]types.RepoPath, 0, len(cs.changes))
	for _, c := range cs.changes {
		paths = append(paths, c.Path)
		if c.OldPath != "" {
			paths = append(paths, c.OldPath)
		}
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}

// Merge returns the union of cs and other. Force absorbs everything.
func (cs *ChangeSet) Merge(other *ChangeSet) *ChangeSet {
	if cs.IsForce() || other.IsForce() {
		return Force()
	}
	return NewChangeSet(append(cs.Changes(), other.Changes()...)...)
}

// FromPaths builds a ChangeSet marking every path as modified. Invalid
// paths (absolute or outside the repository) are dropped.
func FromPaths(paths ...string) *ChangeSet {
	cs := make([]Change, 0, len(paths))
	for _, p := range paths {
		rp, err := types.NewRepoPath(p)
		if err != nil {
			continue
		}
		cs = append(cs, Change{Path: rp, Kind: Modified})
	}
	return NewChangeSet(cs...)
}
