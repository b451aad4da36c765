// SPDX-License-Identifier: MPL-2.0

package changes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/monobuild/monobuild/pkg/types"
)

// DefaultHead is the head revision used when a Request leaves Head empty.
const DefaultHead = "HEAD"

type (
	// Request selects what Detect compares.
	Request struct {
		// Base and Head are any revision go-git can resolve: branch, tag,
		// sha, "HEAD~1", ... Head defaults to DefaultHead.
		Base string
		Head string
		// Force short-circuits detection and returns Force().
		Force bool
		// IncludeWorktree adds staged, unstaged and untracked changes.
		IncludeWorktree bool
	}

	// Detector reads change sets from a git repository.
	Detector struct {
		repo   *git.Repository
		wt     *git.Worktree
		prefix string
		logger *log.Logger
	}
)

// Open locates the git repository enclosing root. Paths reported by the
// Detector are relative to root; changes outside root are dropped.
func Open(root string, logger *log.Logger) (*Detector, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", root, err)
	}

	d := &Detector{repo: repo, prefix: ".", logger: logger}
	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	d.wt = wt

	prefix, err := relativePrefix(wt.Filesystem.Root(), root)
	if err != nil {
		return nil, err
	}
	d.prefix = prefix
	return d, nil
}

// relativePrefix returns root relative to the worktree as a slash path.
func relativePrefix(wtRoot, root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = r
	}
	if r, err := filepath.EvalSymlinks(wtRoot); err == nil {
		wtRoot = r
	}
	rel, err := filepath.Rel(wtRoot, absRoot)
	if err != nil {
		return "", fmt.Errorf("locating %s in worktree %s: %w", root, wtRoot, err)
	}
	return filepath.ToSlash(rel), nil
}

// Resolve returns the commit hash a revision names.
func (d *Detector) Resolve(rev string) (plumbing.Hash, error) {
	if rev == "" {
		return plumbing.ZeroHash, &RevisionResolutionError{Err: errors.New("no revision given")}
	}
	h, err := d.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, &RevisionResolutionError{Revision: rev, Err: err}
	}
	return *h, nil
}

// Detect returns the changes between req.Base and req.Head.
func (d *Detector) Detect(ctx context.Context, req Request) (*ChangeSet, error) {
	if req.Force {
		d.logger.Info("force build requested, skipping change detection")
		return Force(), nil
	}
	head := req.Head
	if head == "" {
		head = DefaultHead
	}

	baseTree, err := d.tree(req.Base)
	if err != nil {
		return nil, err
	}
	headTree, err := d.tree(head)
	if err != nil {
		return nil, err
	}

	diff, err := object.DiffTreeWithOptions(ctx, baseTree, headTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", req.Base, head, err)
	}

	var out []Change
	for _, ch := range diff {
		c, err := toChange(ch)
		if err != nil {
			return nil, err
		}
		if c, ok := d.rebase(c); ok {
			out = append(out, c)
		}
	}

	if req.IncludeWorktree {
		wtChanges, err := d.worktreeChanges()
		if err != nil {
			return nil, err
		}
		out = append(wtChanges, out...)
	}

	cs := NewChangeSet(out...)
	d.logger.Debug("detected changes", "base", req.Base, "head", head, "count", cs.Len())
	return cs, nil
}

func (d *Detector) tree(rev string) (*object.Tree, error) {
	h, err := d.Resolve(rev)
	if err != nil {
		return nil, err
	}
	commit, err := d.repo.CommitObject(h)
	if err != nil {
		return nil, &RevisionResolutionError{Revision: rev, Err: err}
	}
	t, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", rev, err)
	}
	return t, nil
}

func toChange(ch *object.Change) (Change, error) {
	action, err := ch.Action()
	if err != nil {
		return Change{}, fmt.Errorf("classifying change: %w", err)
	}
	switch action {
	case merkletrie.Insert:
		return Change{Path: types.RepoPath(ch.To.Name), Kind: Added}, nil
	case merkletrie.Delete:
		return Change{Path: types.RepoPath(ch.From.Name), Kind: Deleted}, nil
	default:
		if ch.From.Name != ch.To.Name {
			return Change{Path: types.RepoPath(ch.To.Name), OldPath: types.RepoPath(ch.From.Name), Kind: Renamed}, nil
		}
		return Change{Path: types.RepoPath(ch.To.Name), Kind: Modified}, nil
	}
}

// rebase maps worktree-relative paths onto the scan root. A rename keeps
// whichever side lies inside the root.
func (d *Detector) rebase(c Change) (Change, bool) {
	p, inNew := d.strip(c.Path)
	old, inOld := d.strip(c.OldPath)
	switch {
	case inNew && inOld:
		return Change{Path: p, OldPath: old, Kind: c.Kind}, true
	case inNew:
		kind := c.Kind
		if kind == Renamed {
			kind = Added
		}
		return Change{Path: p, Kind: kind}, true
	case inOld && c.Kind == Renamed:
		return Change{Path: old, Kind: Deleted}, true
	}
	return Change{}, false
}

func (d *Detector) strip(p types.RepoPath) (types.RepoPath, bool) {
	if p == "" {
		return "", false
	}
	if d.prefix == "." {
		return p, true
	}
	if rest, ok := strings.CutPrefix(string(p), d.prefix+"/"); ok {
		return types.RepoPath(rest), true
	}
	return "", false
}

func (d *Detector) worktreeChanges() ([]Change, error) {
	if d.wt == nil {
		return nil, nil
	}
	st, err := d.wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading worktree status: %w", err)
	}

	var out []Change
	for name, fs := range st {
		code := fs.Worktree
		if code == git.Unmodified {
			code = fs.Staging
		}
		c := Change{Path: types.RepoPath(name)}
		switch code {
		case git.Unmodified:
			continue
		case git.Untracked, git.Added:
			c.Kind = Added
		case git.Deleted:
			c.Kind = Deleted
		case git.Renamed:
			c.Kind = Renamed
			c.OldPath = types.RepoPath(fs.Extra)
		default:
			c.Kind = Modified
		}
		if c, ok := d.rebase(c); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Head returns the commit HEAD points at and, when HEAD is a branch, the
// branch's short name. A detached HEAD yields an empty name.
func (d *Detector) Head() (plumbing.Hash, string, error) {
	ref, err := d.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, "", &RevisionResolutionError{Revision: DefaultHead, Err: err}
	}
	if ref.Name().IsBranch() {
		return ref.Hash(), ref.Name().Short(), nil
	}
	return ref.Hash(), "", nil
}
