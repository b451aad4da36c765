// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/monobuild/monobuild/pkg/types"
)

// ExitError carries the process status of a command whose error has already
// been rendered. Code is types.ExitFatal when the run aborted before building
// and types.ExitBuildFailed when a strict run had failed packages.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	switch e.Code {
	case types.ExitFatal:
		return "run aborted"
	case types.ExitBuildFailed:
		return "one or more packages failed to build"
	default:
		return fmt.Sprintf("exit status %d", e.Code)
	}
}

func (e *ExitError) Unwrap() error { return e.Err }
