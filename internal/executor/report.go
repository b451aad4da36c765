// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrBuildFailed is the sentinel wrapped by BuildFailedError.
var ErrBuildFailed = errors.New("package build failed")

type (
	// Report holds one Result per plan step, in plan order.
	Report struct {
		results  []Result
		Duration time.Duration
	}

	// BuildFailedError lists packages whose build failed.
	BuildFailedError struct {
		Failed  []string
		Skipped int
	}
)

// Results returns a copy of all results in plan order.
func (r *Report) Results() []Result { return slices.Clone(r.results) }

// Len is the number of steps reported.
func (r *Report) Len() int { return len(r.results) }

// Result returns the result for package id.
func (r *Report) Result(id string) (Result, bool) {
	for _, res := range r.results {
		if res.ID() == id {
			return res, true
		}
	}
	return Result{}, false
}

// IDs returns the identities with status s, in plan order.
func (r *Report) IDs(s Status) []string {
	var out []string
	for _, res := range r.results {
		if res.Status == s {
			out = append(out, res.ID())
		}
	}
	return out
}

// Count returns how many steps ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// OK reports whether every step succeeded.
func (r *Report) OK() bool { return r.Count(StatusSucceeded) == len(r.results) }

// Err returns a *BuildFailedError when any step failed, nil otherwise.
// Steps skipped without a failure (cancellation) do not count.
func (r *Report) Err() error {
	failed := r.IDs(StatusFailed)
	if len(failed) == 0 {
		return nil
	}
	return &BuildFailedError{Failed: failed, Skipped: r.Count(StatusSkipped)}
}

func (e *BuildFailedError) Error() string {
	msg := fmt.Sprintf("%d package(s) failed: %s", len(e.Failed), strings.Join(e.Failed, ", "))
	if e.Skipped > 0 {
		msg += fmt.Sprintf(" (%d skipped)", e.Skipped)
	}
	return msg
}

// Unwrap returns ErrBuildFailed for errors.Is() compatibility.
func (e *BuildFailedError) Unwrap() error { return ErrBuildFailed }
