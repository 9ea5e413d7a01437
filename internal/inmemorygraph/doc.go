// Package inmemorygraph provides a thread-safe, in-memory implementation
// of the graphstore.Store interface. It is designed for graphs that fit
// comfortably in memory and for test fixtures; all listings are ordered by
// element id so traversal output is deterministic.
package inmemorygraph
