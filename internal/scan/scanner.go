// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/monobuild/monobuild/pkg/manifest"
	"github.com/monobuild/monobuild/pkg/types"
)

// skippedDirs are never descended into, wherever they appear.
var skippedDirs = []string{"node_modules", "vendor", "target", "dist", "__pycache__"}

type (
	// Options configures a Scanner.
	Options struct {
		// Ignore holds doublestar globs matched against repository-relative
		// directory paths, e.g. "examples/**" or "**/testdata".
		Ignore []string
		// ProjectName names a package declared by a Dockerfile at the root.
		ProjectName string
		// GoModulePrefix and NodeScope are forwarded to the descriptor parsers.
		GoModulePrefix string
		NodeScope      string
		// Logger receives debug output. Nil discards.
		Logger *log.Logger
	}

	// Scanner discovers packages below a root. Every iteration walks the
	// tree anew, so one Scanner may be drained from several goroutines.
	Scanner struct {
		fsys   fs.FS
		opts   Options
		logger *log.Logger

		mu          sync.Mutex
		diagnostics []Diagnostic
	}

	// Result is the materialized outcome of Collect.
	Result struct {
		// Packages is sorted by identity.
		Packages    []*manifest.Package
		Diagnostics []Diagnostic
	}
)

// New creates a Scanner over the directory root.
func New(root string, opts Options) (*Scanner, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}
	return NewFS(os.DirFS(root), opts)
}

// NewFS creates a Scanner over fsys, whose root is the repository root.
func NewFS(fsys fs.FS, opts Options) (*Scanner, error) {
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scanner{fsys: fsys, opts: opts, logger: logger}, nil
}

// Packages lazily yields every package in walk order. After the first
// non-nil error nothing else is yielded. Diagnostics are available from
// Diagnostics once the sequence has ended.
func (s *Scanner) Packages(ctx context.Context) iter.Seq2[*manifest.Package, error] {
	return func(yield func(*manifest.Package, error) bool) {
		var notes []Diagnostic
		defer func() {
			s.mu.Lock()
			s.diagnostics = notes
			s.mu.Unlock()
		}()
		s.walk(ctx, &notes)(yield)
	}
}

// walk is the iteration behind Packages; diagnostics are appended to notes.
func (s *Scanner) walk(ctx context.Context, notes *[]Diagnostic) iter.Seq2[*manifest.Package, error] {
	return func(yield func(*manifest.Package, error) bool) {
		stopped := false

		walkErr := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !d.IsDir() {
				return nil
			}
			if p != "." && s.skipDir(p, d.Name()) {
				s.logger.Debug("skipping directory", "dir", p)
				return fs.SkipDir
			}

			pkg, err := s.scanDir(types.RepoPath(p), notes)
			if err != nil {
				stopped = true
				yield(nil, err)
				return fs.SkipAll
			}
			if pkg == nil {
				return nil
			}
			s.logger.Debug("found package", "id", pkg.ID(), "descriptor", pkg.Descriptor())
			if !yield(pkg, nil) {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})
		if walkErr != nil && !stopped {
			yield(nil, fmt.Errorf("scanning repository: %w", walkErr))
		}
	}
}

// Diagnostics returns the observations of the most recently ended iteration.
func (s *Scanner) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.diagnostics)
}

// Collect drains Packages and enforces identity uniqueness.
func (s *Scanner) Collect(ctx context.Context) (*Result, error) {
	seen := map[string]*manifest.Package{}
	var (
		pkgs  []*manifest.Package
		notes []Diagnostic
	)
	for pkg, err := range s.walk(ctx, &notes) {
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[pkg.ID()]; dup {
			return nil, &DuplicatePackageError{ID: pkg.ID(), First: prev.Descriptor(), Second: pkg.Descriptor()}
		}
		seen[pkg.ID()] = pkg
		pkgs = append(pkgs, pkg)
	}
	slices.SortFunc(pkgs, func(a, b *manifest.Package) int { return strings.Compare(a.ID(), b.ID()) })
	s.mu.Lock()
	s.diagnostics = slices.Clone(notes)
	s.mu.Unlock()
	return &Result{Packages: pkgs, Diagnostics: notes}, nil
}

func (s *Scanner) skipDir(p, name string) bool {
	if strings.HasPrefix(name, ".") || slices.Contains(skippedDirs, name) {
		return true
	}
	for _, pattern := range s.opts.Ignore {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// scanDir returns the package declared in dir, or nil.
func (s *Scanner) scanDir(dir types.RepoPath, notes *[]Diagnostic) (*manifest.Package, error) {
	entries, err := fs.ReadDir(s.fsys, string(dir))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var found []manifest.DescriptorKind
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if k, ok := manifest.DescriptorKindFor(e.Name()); ok {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	slices.SortFunc(found, func(a, b manifest.DescriptorKind) int { return a.Precedence() - b.Precedence() })

	if len(found) > 1 && found[0].IsNative() && found[1].IsNative() {
		return nil, &manifest.ParseError{
			Path: dir.Join(string(found[1])),
			Kind: found[1],
			Err:  fmt.Errorf("conflicts with %s in the same directory", found[0]),
		}
	}

	pc := manifest.ParseContext{
		Dir:            dir,
		HasDockerfile:  slices.Contains(found, manifest.DescriptorDockerfile),
		ProjectName:    s.opts.ProjectName,
		GoModulePrefix: s.opts.GoModulePrefix,
		NodeScope:      s.opts.NodeScope,
	}

	for i, kind := range found {
		descPath := dir.Join(string(kind))
		data, err := fs.ReadFile(s.fsys, string(descPath))
		if err != nil {
			return nil, &manifest.ParseError{Path: descPath, Kind: kind, Err: err}
		}
		pkg, err := manifest.Parse(kind, pc, data)
		if err != nil {
			return nil, err
		}
		if pkg == nil {
			s.note(notes, CodeNotAPackage, descPath, "descriptor declares no package")
			continue
		}
		for _, shadowed := range found[i+1:] {
			if shadowed == manifest.DescriptorDockerfile {
				continue
			}
			s.note(notes, CodeDescriptorShadowed, dir.Join(string(shadowed)), "shadowed by "+path.Base(string(descPath)))
		}
		return pkg, nil
	}
	return nil, nil
}

func (s *Scanner) note(notes *[]Diagnostic, code string, p types.RepoPath, msg string) {
	s.logger.Debug(msg, "path", p, "code", code)
	*notes = append(*notes, Diagnostic{Code: code, Message: msg, Path: p})
}
