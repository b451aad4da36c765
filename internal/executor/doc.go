// SPDX-License-Identifier: MPL-2.0

// Package executor builds the packages of a plan.
//
// Pool runs an Action for every step with bounded concurrency, starting a step
// only after all steps it needs have succeeded. What happens after a failure is
// decided by the Policy: FailFast cancels the run, Continue keeps building
// everything that does not depend on the failed package. Either way every step
// ends up in the Report as succeeded, failed or skipped.
//
// Actions: ImageAction (container image build, tag and push), ScriptAction
// (build script in the embedded POSIX shell), DryRun and Auto.
package executor
