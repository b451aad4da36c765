// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"strings"

	"golang.org/x/mod/modfile"
)

// parseGoMod declares the module path as identity. Dependencies are the
// requirements below GoModulePrefix plus every module replaced by a local
// directory, both of which live in the same repository.
func parseGoMod(pc ParseContext, data []byte) (*Spec, error) {
	f, err := modfile.Parse(string(DescriptorGoMod), data, nil)
	if err != nil {
		return nil, err
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return nil, errors.New("missing module directive")
	}
	self := f.Module.Mod.Path

	var deps []string
	add := func(p string) {
		if p != self {
			deps = append(deps, p)
		}
	}
	for _, r := range f.Require {
		if underPrefix(r.Mod.Path, pc.GoModulePrefix) {
			add(r.Mod.Path)
		}
	}
	for _, r := range f.Replace {
		if modfile.IsDirectoryPath(r.New.Path) {
			add(r.Old.Path)
		}
	}

	return &Spec{ID: self, Kind: KindGo, Dependencies: deps}, nil
}

func underPrefix(modPath, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return modPath == prefix || strings.HasPrefix(modPath, prefix+"/")
}
