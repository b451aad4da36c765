// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var localVersionPrefixes = []string{"workspace:", "file:", "link:", "portal:"}

type packageJSON struct {
	Name                 string            `json:"name"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// parseNPM declares the package name as identity. A dependency is a
// workspace package when its version uses a local protocol (workspace:,
// file:, link:, portal:) or its name sits in the configured scope.
func parseNPM(pc ParseContext, data []byte) (*Spec, error) {
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("decoding package.json: %w", err)
	}
	if pj.Name == "" {
		return nil, errors.New(`"name" is required`)
	}

	scope := strings.TrimPrefix(strings.TrimSuffix(pc.NodeScope, "/"), "@")
	local := map[string]bool{}
	for _, section := range []map[string]string{pj.Dependencies, pj.DevDependencies, pj.PeerDependencies, pj.OptionalDependencies} {
		for name, version := range section {
			if name == pj.Name {
				continue
			}
			if isLocalVersion(version) || (scope != "" && strings.HasPrefix(name, "@"+scope+"/")) {
				local[name] = true
			}
		}
	}

	return &Spec{ID: pj.Name, Kind: KindNode, Dependencies: slices.Sorted(maps.Keys(local))}, nil
}

func isLocalVersion(v string) bool {
	for _, p := range localVersionPrefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}
