// SPDX-License-Identifier: MPL-2.0

package changes

import (
	"fmt"
	"io"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/monobuild/monobuild/pkg/types"
)

const devNull = "/dev/null"

// FromPatch reads a unified multi-file diff (git diff, git format-patch,
// diff -ruN) and returns the files it touches.
func FromPatch(r io.Reader) (*ChangeSet, error) {
	fileDiffs, err := diff.NewMultiFileDiffReader(r).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parsing patch: %w", err)
	}

	out := make([]Change, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		orig, origOK := patchPath(fd.OrigName)
		next, nextOK := patchPath(fd.NewName)
		var c Change
		switch {
		case !origOK && nextOK:
			c = Change{Path: next, Kind: Added}
		case origOK && !nextOK:
			c = Change{Path: orig, Kind: Deleted}
		case origOK && nextOK && orig != next:
			c = Change{Path: next, OldPath: orig, Kind: Renamed}
		case nextOK:
			c = Change{Path: next, Kind: Modified}
		default:
			continue
		}
		out = append(out, c)
	}
	return NewChangeSet(out...), nil
}

// patchPath strips the a/ or b/ prefix git adds and rejects /dev/null.
func patchPath(name string) (types.RepoPath, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name == devNull {
		return "", false
	}
	if rest, ok := strings.CutPrefix(name, "a/"); ok {
		name = rest
	} else if rest, ok := strings.CutPrefix(name, "b/"); ok {
		name = rest
	}
	p, err := types.NewRepoPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}
