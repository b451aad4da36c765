// SPDX-License-Identifier: MPL-2.0

// Package metrics records build runs as Prometheus metrics.
//
// A Recorder owns its own registry, so several runs in one process (watch
// mode, tests) never collide. Results are written in the text exposition
// format for the node-exporter textfile collector.
package metrics
