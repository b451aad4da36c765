// SPDX-License-Identifier: MPL-2.0

// Package plan orders an impacted package set into a BuildPlan.
//
// The order is a topological sort of the subgraph induced by the impacted
// set (Kahn's algorithm): a package comes after every impacted package it
// depends on. Among packages that are ready at the same time the smallest
// identity goes first, so the plan is a deterministic function of the graph
// and the change set. Each step also carries its level, the length of the
// longest in-plan dependency chain below it; steps on the same level never
// depend on each other and can be built in parallel.
package plan
