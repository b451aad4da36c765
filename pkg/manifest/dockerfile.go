// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// dependsOnDirective declares dependencies from inside a Dockerfile:
//
//	# depends-on: core, proto
const dependsOnDirective = "depends-on:"

// parseDockerfile names the package after its directory, or after the
// project at the repository root.
func parseDockerfile(pc ParseContext, data []byte) (*Spec, error) {
	id := pc.Dir.Base()
	if pc.Dir.IsRoot() {
		id = pc.ProjectName
	}
	if id == "" {
		return nil, errors.New("a Dockerfile at the repository root needs a project name")
	}

	var deps []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if len(body) >= len(dependsOnDirective) && strings.EqualFold(body[:len(dependsOnDirective)], dependsOnDirective) {
			deps = append(deps, splitList(body[len(dependsOnDirective):])...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return &Spec{ID: id, Kind: KindDocker, Dependencies: deps}, nil
}
