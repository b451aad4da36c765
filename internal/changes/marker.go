// SPDX-License-Identifier: MPL-2.0

package changes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var markerKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type (
	// MarkerStore persists the last successfully built revision per key
	// (one key per build target).
	MarkerStore interface {
		// Load returns the stored revision. ok is false when none was stored.
		Load(ctx context.Context, key string) (rev string, ok bool, err error)
		// Save stores rev under key.
		Save(ctx context.Context, key, rev string) error
	}

	// FileMarkerStore keeps one file per key in Dir.
	FileMarkerStore struct {
		Dir string
	}
)

// Load implements MarkerStore.
func (s FileMarkerStore) Load(_ context.Context, key string) (string, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading marker %s: %w", p, err)
	}
	rev := strings.TrimSpace(string(data))
	return rev, rev != "", nil
}

// Save implements MarkerStore. The file is replaced atomically.
func (s FileMarkerStore) Save(_ context.Context, key, rev string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating marker directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, "."+key+".*")
	if err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	if _, err := tmp.WriteString(rev + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing marker: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing marker: %w", err)
	}
	return nil
}

func (s FileMarkerStore) path(key string) (string, error) {
	if !markerKeyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid marker key %q", key)
	}
	return filepath.Join(s.Dir, key), nil
}
