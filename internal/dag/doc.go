// SPDX-License-Identifier: MPL-2.0

// Package dag builds the inter-package dependency graph.
//
// Packages live in an arena indexed by integer handles assigned in ascending
// identity order, so iterating handles is iterating identities in order.
// Forward edges point from a package to what it depends on; reverse edges
// point to its dependents. A Graph returned by Build is complete (every
// endpoint is a known package), acyclic and read-only.
package dag
