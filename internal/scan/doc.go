// SPDX-License-Identifier: MPL-2.0

// Package scan walks a repository tree and yields one manifest.Package per
// directory holding a build descriptor.
//
// The walk is read-only and deterministic: directories are visited in
// lexical order, version-control and dependency-cache directories are never
// entered, and user ignore globs (doublestar syntax) prune whole subtrees.
// A malformed descriptor stops the scan with a *manifest.ParseError; two
// packages with the same identity make Collect fail with a
// *DuplicatePackageError.
package scan
