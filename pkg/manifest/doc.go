// SPDX-License-Identifier: MPL-2.0

// Package manifest defines the Package record and parses the build
// descriptors that declare packages in a monorepo.
//
// Descriptor kinds form a closed set (see DescriptorKind). Inside a single
// directory the first descriptor in precedence order wins:
//
//	monobuild.cue, monobuild.yaml, monobuild.hcl   native descriptors
//	go.mod                                         Go module
//	package.json                                   npm / yarn / pnpm package
//	Cargo.toml                                     Rust crate
//	Dockerfile                                     bare container image
//
// Native descriptors share one shape:
//
//	name:       "api"
//	kind:       "go"
//	depends_on: ["core"]
//	targets:    ["stage", "prod"]
//	image: { dockerfile: "build/Dockerfile", build_args: { FOO: "bar" } }
//	build: { script: "make test image" }
package manifest
