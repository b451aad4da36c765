// SPDX-License-Identifier: MPL-2.0

// Package issue holds the user-facing remediation pages shown when a run
// aborts, rendered as terminal markdown with glamour, and ActionableError,
// an error carrying the failed operation and suggestions for the CLI layer.
package issue
