// SPDX-License-Identifier: MPL-2.0

package impact

import (
	"cmp"
	"slices"

	"github.com/monobuild/monobuild/internal/dag"
	"github.com/monobuild/monobuild/pkg/types"
)

// OwnerIndex attributes repository paths to packages.
type OwnerIndex struct {
	// roots is sorted deepest first so the first match is the longest prefix.
	roots []ownedRoot
}

type ownedRoot struct {
	root   types.RepoPath
	handle int
}

// NewOwnerIndex indexes the package roots of g.
func NewOwnerIndex(g *dag.Graph) *OwnerIndex {
	roots := make([]ownedRoot, 0, g.Len())
	for h := range g.Len() {
		roots = append(roots, ownedRoot{root: g.Package(h).Root(), handle: h})
	}
	slices.SortStableFunc(roots, func(a, b ownedRoot) int {
		if c := cmp.Compare(b.root.Depth(), a.root.Depth()); c != 0 {
			return c
		}
		return cmp.Compare(len(b.root), len(a.root))
	})
	return &OwnerIndex{roots: roots}
}

// Owner returns the handle of the package owning p.
func (o *OwnerIndex) Owner(p types.RepoPath) (int, bool) {
	for _, r := range o.roots {
		if p.Within(r.root) {
			return r.handle, true
		}
	}
	return 0, false
}
