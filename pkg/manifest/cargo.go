// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

type cargoManifest struct {
	Package           *cargoPackage  `toml:"package"`
	Workspace         map[string]any `toml:"workspace"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

type cargoPackage struct {
	Name string `toml:"name"`
}

// parseCargo declares the crate name as identity and every path dependency
// as a workspace dependency. A virtual workspace manifest declares no package.
func parseCargo(_ ParseContext, data []byte) (*Spec, error) {
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding Cargo.toml: %w", err)
	}
	if m.Package == nil {
		if m.Workspace != nil {
			return nil, nil
		}
		return nil, errors.New("missing [package] table")
	}
	if m.Package.Name == "" {
		return nil, errors.New("package.name is required")
	}

	deps := map[string]bool{}
	for _, section := range []map[string]any{m.Dependencies, m.DevDependencies, m.BuildDependencies} {
		for key, v := range section {
			table, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if _, isPath := table["path"].(string); !isPath {
				continue
			}
			name := key
			if renamed, ok := table["package"].(string); ok && renamed != "" {
				name = renamed
			}
			deps[name] = true
		}
	}

	return &Spec{ID: m.Package.Name, Kind: KindRust, Dependencies: slices.Sorted(maps.Keys(deps))}, nil
}
