// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"

	"github.com/monobuild/monobuild/pkg/types"
)

func TestExitError_Error(t *testing.T) {
	t.Parallel()

	cause := errors.New("dependency core failed")
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{"cause wins", &ExitError{Code: types.ExitBuildFailed, Err: cause}, "dependency core failed"},
		{"fatal", &ExitError{Code: types.ExitFatal}, "run aborted"},
		{"strict build failure", &ExitError{Code: types.ExitBuildFailed}, "one or more packages failed to build"},
		{"other code", &ExitError{Code: 42}, "exit status 42"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
	if !errors.Is(&ExitError{Code: types.ExitBuildFailed, Err: cause}, cause) {
		t.Error("ExitError must unwrap to its cause")
	}
}
