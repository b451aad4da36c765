// SPDX-License-Identifier: MPL-2.0

package testutil

import "testing"

func TestContainerParallelism(t *testing.T) {
	tests := []struct {
		env  string
		want func(int) bool
	}{
		{env: "5", want: func(n int) bool { return n == 5 }},
		{env: "0", want: func(n int) bool { return n >= 1 && n <= 2 }},
		{env: "many", want: func(n int) bool { return n >= 1 && n <= 2 }},
		{env: "", want: func(n int) bool { return n >= 1 && n <= 2 }},
	}
	for _, tt := range tests {
		t.Setenv("MONOBUILD_TEST_CONTAINER_PARALLEL", tt.env)
		if got := containerParallelism(); !tt.want(got) {
			t.Errorf("containerParallelism() with %q = %d", tt.env, got)
		}
	}
}
