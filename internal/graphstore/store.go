// Package graphstore defines the interface through which traversals read the
// graph they walk.
//
// # Why Graph Store Exists
//
// The traversal engine never owns graph data. Source steps and expansion
// steps reach the graph only through this narrow, read-only contract, so the
// physical storage (in-memory, cached, remote) can be swapped without touching
// any step.
//
// # Lifecycle and Usage
//
// A store is:
//  1. **Populated** by its owner before any traversal runs (fixtures, loaders)
//  2. **Read** synchronously by steps during the pull loop
//  3. **Shared** by every clone of a traversal, which is why implementations
//     must be safe for concurrent reads
package graphstore

import (
	"context"
	"errors"

	"github.com/specialistvlad/burstgraph/internal/structure"
)

// ErrElementNotFound is returned when an id does not resolve to an element.
// Expansion steps treat it as a filtered-out traverser, not as a failure.
var ErrElementNotFound = errors.New("graphstore: element not found")

// Store is the read contract of the graph data collaborator.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent reads: partitioned execution runs
// several clones of a traversal against the same store at once.
//
// # Typical Implementation
//
// See internal/inmemorygraph for the reference implementation and
// internal/cachedgraph for an adjacency-caching decorator.
type Store interface {
	// Vertex looks up a single vertex by id.
	Vertex(ctx context.Context, id structure.ID) (*structure.Vertex, bool)

	// Edge looks up a single edge by id.
	Edge(ctx context.Context, id structure.ID) (*structure.Edge, bool)

	// Vertices returns the vertices with the given ids in the order the ids
	// were given, skipping unknown ids. With no ids it returns every vertex
	// ordered by id.
	Vertices(ctx context.Context, ids ...structure.ID) []*structure.Vertex

	// Edges behaves like Vertices for edges.
	Edges(ctx context.Context, ids ...structure.ID) []*structure.Edge

	// IncidentEdges returns the edges incident to the vertex in the given
	// direction, restricted to the given labels when any are supplied, ordered
	// by edge id.
	//
	// Returns ErrElementNotFound (possibly wrapped) if the vertex does not exist.
	IncidentEdges(ctx context.Context, vertexID structure.ID, dir structure.Direction, labels ...string) ([]*structure.Edge, error)
}
