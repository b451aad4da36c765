// SPDX-License-Identifier: MPL-2.0

// Package testutil holds fixtures shared by monobuild's package tests:
// in-memory package sets and throwaway git repositories.
package testutil
