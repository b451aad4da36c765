// SPDX-License-Identifier: MPL-2.0

package changes

import (
	"strings"
	"testing"
)

const samplePatch = `diff --git a/core/lib.go b/core/lib.go
index 3b18e51..a5c1966 100644
--- a/core/lib.go
+++ b/core/lib.go
@@ -1 +1 @@
-package core
+package core // v2
diff --git a/web/new.ts b/web/new.ts
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/web/new.ts
@@ -0,0 +1 @@
+export {}
diff --git a/api/gone.go b/api/gone.go
deleted file mode 100644
index 3b18e51..0000000
--- a/api/gone.go
+++ /dev/null
@@ -1 +0,0 @@
-package api
`

func TestFromPatch(t *testing.T) {
	t.Parallel()

	cs, err := FromPatch(strings.NewReader(samplePatch))
	if err != nil {
		t.Fatalf("FromPatch() error = %v", err)
	}

	got := map[string]Kind{}
	for _, c := range cs.Changes() {
		got[c.Path.String()] = c.Kind
	}
	want := map[string]Kind{
		"core/lib.go": Modified,
		"web/new.ts":  Added,
		"api/gone.go": Deleted,
	}
	for p, k := range want {
		if got[p] != k {
			t.Errorf("%s: kind = %q, want %q (all: %v)", p, got[p], k, got)
		}
	}
	if cs.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", cs.Len(), len(want))
	}
}

func TestFromPatch_Empty(t *testing.T) {
	t.Parallel()

	cs, err := FromPatch(strings.NewReader(""))
	if err != nil {
		t.Fatalf("FromPatch() error = %v", err)
	}
	if !cs.IsEmpty() {
		t.Errorf("expected empty change set, got %v", cs.Paths())
	}
}
