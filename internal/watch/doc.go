// SPDX-License-Identifier: MPL-2.0

// Package watch turns filesystem activity below a repository root into
// debounced change sets.
//
// Events inside the debounce window are coalesced, so a burst of writes
// (an editor saving through a temp file, a checkout) produces a single
// callback with every path touched.
package watch
