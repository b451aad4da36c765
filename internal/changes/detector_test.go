// SPDX-License-Identifier: MPL-2.0

package changes

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/monobuild/monobuild/internal/testutil"
)

func kinds(cs *ChangeSet) map[string]Change {
	out := map[string]Change{}
	for _, c := range cs.Changes() {
		out[c.Path.String()] = c
	}
	return out
}

func TestDetect_CommitRange(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	base := repo.Commit("initial", map[string]string{
		"core/lib.go":  "package core\n",
		"core/old.go":  "package core\n\n// a file long enough to be recognised when renamed\nfunc Old() {}\n",
		"api/main.go":  "package main\n",
		"web/index.ts": "export {}\n",
	})
	repo.Remove("web/index.ts", "core/old.go")
	repo.Commit("change", map[string]string{
		"core/lib.go": "package core // v2\n",
		"api/new.go":  "package main\n",
		"core/new.go": "package core\n\n// a file long enough to be recognised when renamed\nfunc Old() {}\n",
	})

	d, err := Open(repo.Dir, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cs, err := d.Detect(context.Background(), Request{Base: base.String()})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	got := kinds(cs)
	if got["core/lib.go"].Kind != Modified {
		t.Errorf("core/lib.go = %+v", got["core/lib.go"])
	}
	if got["api/new.go"].Kind != Added {
		t.Errorf("api/new.go = %+v", got["api/new.go"])
	}
	if got["web/index.ts"].Kind != Deleted {
		t.Errorf("web/index.ts = %+v", got["web/index.ts"])
	}
	if c := got["core/new.go"]; c.Kind != Renamed || c.OldPath != "core/old.go" {
		t.Errorf("core/new.go = %+v, want rename from core/old.go", c)
	}
	if _, ok := got["api/main.go"]; ok {
		t.Error("unchanged file reported")
	}
}

func TestDetect_BranchAndRelativeRevisions(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("initial", map[string]string{"core/lib.go": "v1\n"})
	repo.Branch("develop")
	repo.Commit("second", map[string]string{"api/main.go": "v1\n"})

	d, err := Open(repo.Dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, base := range []string{"develop", "HEAD~1"} {
		cs, err := d.Detect(context.Background(), Request{Base: base, Head: "HEAD"})
		if err != nil {
			t.Fatalf("Detect(%s) error = %v", base, err)
		}
		if cs.Len() != 1 || cs.Changes()[0].Path != "api/main.go" {
			t.Errorf("Detect(%s) = %v", base, cs.Paths())
		}
	}
}

func TestDetect_UnknownRevision(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("initial", map[string]string{"a.txt": "a\n"})

	d, err := Open(repo.Dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, base := range []string{"no-such-branch", ""} {
		_, err = d.Detect(context.Background(), Request{Base: base})
		if !errors.Is(err, ErrRevisionResolution) {
			t.Fatalf("Detect(base=%q) error = %v, want ErrRevisionResolution", base, err)
		}
		var re *RevisionResolutionError
		if !errors.As(err, &re) || re.Revision != base {
			t.Errorf("RevisionResolutionError = %+v", re)
		}
	}
}

func TestDetect_ForceSkipsHistory(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("initial", map[string]string{"a.txt": "a\n"})

	d, err := Open(repo.Dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	cs, err := d.Detect(context.Background(), Request{Force: true, Base: "does-not-exist"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !cs.IsForce() {
		t.Error("expected force sentinel")
	}
}

func TestDetect_Worktree(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	repo.Commit("initial", map[string]string{"core/lib.go": "v1\n", "api/main.go": "v1\n"})
	repo.Write(map[string]string{
		"core/lib.go":  "v2\n",
		"web/draft.ts": "export {}\n",
	})

	d, err := Open(repo.Dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	cs, err := d.Detect(context.Background(), Request{Base: "HEAD", IncludeWorktree: true})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	got := kinds(cs)
	if got["core/lib.go"].Kind != Modified || got["web/draft.ts"].Kind != Added {
		t.Errorf("worktree changes = %v", got)
	}
	if _, ok := got["api/main.go"]; ok {
		t.Error("clean file reported")
	}
}

func TestDetect_SubdirectoryRoot(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	base := repo.Commit("initial", map[string]string{
		"mono/core/lib.go": "v1\n",
		"other/x.txt":      "v1\n",
	})
	repo.Commit("change", map[string]string{
		"mono/core/lib.go": "v2\n",
		"other/x.txt":      "v2\n",
	})

	d, err := Open(filepath.Join(repo.Dir, "mono"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cs, err := d.Detect(context.Background(), Request{Base: base.String()})
	if err != nil {
		t.Fatal(err)
	}
	paths := cs.Paths()
	if len(paths) != 1 || paths[0] != "core/lib.go" {
		t.Errorf("Paths() = %v, want [core/lib.go]", paths)
	}
}

func TestOpen_NotARepository(t *testing.T) {
	t.Parallel()

	if _, err := Open(t.TempDir(), nil); err == nil {
		t.Error("expected error outside a git repository")
	}
}

func TestDetector_Head(t *testing.T) {
	t.Parallel()

	repo := testutil.NewGitRepo(t)
	h := repo.Commit("initial", map[string]string{"a.txt": "a\n"})

	d, err := Open(repo.Dir, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, branch, err := d.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if got != h {
		t.Errorf("Head() hash = %s, want %s", got, h)
	}
	if branch != "master" {
		t.Errorf("Head() branch = %q, want master", branch)
	}
}

func TestDetector_HeadOfEmptyRepository(t *testing.T) {
	t.Parallel()

	d, err := Open(testutil.NewGitRepo(t).Dir, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, _, err := d.Head(); !errors.Is(err, ErrRevisionResolution) {
		t.Errorf("Head() error = %v, want ErrRevisionResolution", err)
	}
}
