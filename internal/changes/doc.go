// SPDX-License-Identifier: MPL-2.0

// Package changes computes the set of repository paths changed between two
// revisions.
//
// The primary source is the git history read through go-git. A unified diff
// (FromPatch) or an explicit path list (FromPaths) can stand in for it. The
// Force ChangeSet is a sentinel meaning "treat every package as changed" and
// never touches history.
//
// MarkerStore persists the last successfully built revision per target so the
// next run can diff from it.
package changes
