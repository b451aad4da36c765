// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles user CUE files against an embedded schema and
// decodes them into Go values. Both package descriptors (monobuild.cue) and
// configuration files (.monobuild/config.cue) go through it:
//
//	//go:embed descriptor_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Descriptor](schema, data, "#Package",
//	    cueutil.WithFilename("services/api/monobuild.cue"))
//
// Errors carry the offending field in JSON-path notation, e.g.
// "services/api/monobuild.cue: depends_on[1]: conflicting values".
package cueutil
