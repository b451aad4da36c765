// SPDX-License-Identifier: MPL-2.0

// Package impact maps a ChangeSet onto the packages it affects.
//
// Each changed path belongs to the package whose root is its longest
// segment-aligned prefix; a rename also charges its old path. Every package
// reachable backwards over dependency edges from a directly changed package
// is transitively impacted. The force ChangeSet impacts every package.
package impact
