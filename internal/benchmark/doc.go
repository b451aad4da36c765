// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the hot paths of a selective rebuild:
//   - descriptor parsing (CUE, YAML, go.mod)
//   - repository scanning and graph construction
//   - impact resolution and build planning
//   - plan execution with in-process scripts
//
// To generate a profile, run:
//
//	go test -run=^$ -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark
