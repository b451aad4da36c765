// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs a selective rebuild end to end: scan the repository,
// build the dependency graph, detect changes, resolve the impacted set,
// order it into a plan and hand the plan to the executor.
//
// Every stage before execution is fatal on error. Package build failures are
// reported, not returned.
package pipeline
