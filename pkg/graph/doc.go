// Package graph provides the node-link model for research experiment graphs.
//
// This package defines the canonical wire format for biolens graph data, used
// for JSON files, API responses, and caching, plus the two pure derivation
// steps every visualization starts from:
//
//   - [Build]: normalize raw experiment records into fully-defaulted nodes and
//     edges (the data adapter)
//   - [Select]: derive the filtered subgraph for a category predicate
//
// # Core Types
//
//   - [Record]: raw experiment record as served by a data source
//   - [Node], [Edge]: normalized graph elements
//   - [Category]: experiment category with its fixed display color
//   - [Filter]: "all" or exactly one category value
//
// # Normalization
//
// Build is the single point where optional record fields are defaulted, so
// every downstream component operates on one fully-defaulted node shape:
//
//	nodes, edges, diag := graph.Build(records)
//	visible, visEdges := graph.Select(nodes, edges, graph.FilterAll)
//
// Edges are only materialized when both endpoints resolve to known node IDs;
// unresolved references are dropped silently and surfaced as a count in
// [Diagnostics].
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
// Node position fields are mutated by layouts and gestures; those writers
// run on a single event loop.
package graph
