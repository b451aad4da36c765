// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the monobuild CLI.
//
// Commands are thin: they load configuration, apply flag overrides and hand
// off to internal/pipeline. Rendering (text, JSON, DOT) and the mapping of
// errors to exit codes and issue pages live here.
package cmd
