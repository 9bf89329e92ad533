// Package internal contains the core implementation packages for synthdom.
//
// # Package Organization
//
// The model:
//
//   - tree: Generic queries over id-bearing trees
//   - graph: Read-only accessor over the source dependency graph
//   - synthetic: Synthetic document nodes, classification and source queries
//   - resolver: Component instance and override resolution
//   - memo: Identity-keyed caches that never extend an object's lifetime
//
// Editing:
//
//   - ot: Edit scripts between synthetic trees (diff and copy-on-write patch)
//   - document: Upsert of re-evaluated documents and the document store
//   - history: Undo and redo over document collections
//
// Boundaries:
//
//   - fixture: Graphs and documents loaded from YAML, JSON(C) and HTML
//   - render: Synthetic trees rendered to HTML with per-node error markers
//   - snapshot: Deterministic binary snapshots and content fingerprints
//   - watcher: Debounced file system monitoring
//
// Support:
//
//   - config: Configuration from files, environment and flags
//   - errors: Typed errors and error collection
//   - logging: Structured logging with component context
//   - version: Build information
//   - testutils: Shared test fixtures
//
// # Design Principles
//
// Synthetic trees and graph snapshots are immutable once published. Every
// change produces new nodes along the changed path and shares the rest, so
// node identity doubles as a cache key and as a cheap "unchanged" test.
// Queries over the source graph fail soft, because live editing routinely
// refers to source nodes that were just deleted.
package internal
