// SPDX-License-Identifier: MPL-2.0

// Package container drives image builds through a container engine CLI (docker or podman).
//
// The Engine interface covers what the image build action needs: Build, Tag, Push and
// Pull plus image inspection. DockerEngine and PodmanEngine embed BaseCLIEngine, which
// owns argument construction and command execution so both engines stay testable
// through an injected ExecCommandFunc.
//
// Engine selection uses NewEngine(EngineType) with fallback to the other engine when
// the preferred one is not installed.
package container
