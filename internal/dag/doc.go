// Package dag is a small, concurrency-safe directed acyclic graph keyed by
// string ids. It detects cycles and produces a deterministic topological
// order, which the traversal engine uses to order strategies declared with
// "must run before/after" constraints.
package dag
