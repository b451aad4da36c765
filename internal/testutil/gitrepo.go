// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitRepo is a throwaway repository in a temporary directory.
type GitRepo struct {
	tb   testing.TB
	Dir  string
	Repo *git.Repository
	wt   *git.Worktree
	tick int
}

// NewGitRepo initializes an empty repository.
func NewGitRepo(tb testing.TB) *GitRepo {
	tb.Helper()

	dir := tb.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		tb.Fatalf("git init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		tb.Fatalf("git worktree: %v", err)
	}
	return &GitRepo{tb: tb, Dir: dir, Repo: repo, wt: wt}
}

// Write creates or overwrites files (slash paths relative to the repo root) without committing.
func (r *GitRepo) Write(files map[string]string) {
	r.tb.Helper()

	for name, content := range files {
		p := filepath.Join(r.Dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			r.tb.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			r.tb.Fatalf("write %s: %v", name, err)
		}
	}
}

// Remove deletes files and stages the deletion without committing.
func (r *GitRepo) Remove(names ...string) {
	r.tb.Helper()

	for _, name := range names {
		if _, err := r.wt.Remove(name); err != nil {
			r.tb.Fatalf("git rm %s: %v", name, err)
		}
	}
}

// Commit writes files, stages them and commits.
// It returns the new commit hash.
func (r *GitRepo) Commit(msg string, files map[string]string) plumbing.Hash {
	r.tb.Helper()

	r.Write(files)
	if err := r.wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		r.tb.Fatalf("git add: %v", err)
	}
	r.tick++
	h, err := r.wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "monobuild test",
			Email: "test@monobuild.invalid",
			When:  time.Date(2024, 1, 1, 0, 0, r.tick, 0, time.UTC),
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.tb.Fatalf("git commit: %v", err)
	}
	return h
}

// Branch creates a branch pointing at HEAD.
func (r *GitRepo) Branch(name string) {
	r.tb.Helper()

	head, err := r.Repo.Head()
	if err != nil {
		r.tb.Fatalf("git head: %v", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	if err := r.Repo.Storer.SetReference(ref); err != nil {
		r.tb.Fatalf("git branch %s: %v", name, err)
	}
}
