package testutil

import (
	"context"
	"testing"

	"github.com/specialistvlad/burstgraph/internal/inmemorygraph"
	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/stretchr/testify/require"
)

// NeighborGraph builds the three-vertex, two-edge fixture used by the
// end-to-end neighbour tests:
//
//	v[1] name=marko --knows--> v[2] name=josh <--knows-- v[3] name=marko
//
// Vertex 2 has two neighbours that share one name, so counting distinct
// neighbour names yields 1 for every vertex while counting neighbours
// yields 2 for vertex 2.
func NeighborGraph(t testing.TB) *inmemorygraph.Store {
	t.Helper()
	ctx := context.Background()
	g := inmemorygraph.New()
	require.NoError(t, g.AddVertex(ctx, &structure.Vertex{ID: 1, Label: "person", Properties: map[string]any{"name": "marko", "age": int64(29)}}))
	require.NoError(t, g.AddVertex(ctx, &structure.Vertex{ID: 2, Label: "person", Properties: map[string]any{"name": "josh", "age": int64(32)}}))
	require.NoError(t, g.AddVertex(ctx, &structure.Vertex{ID: 3, Label: "person", Properties: map[string]any{"name": "marko", "age": int64(35)}}))
	require.NoError(t, g.AddEdge(ctx, &structure.Edge{ID: 10, Label: "knows", OutV: 1, InV: 2}))
	require.NoError(t, g.AddEdge(ctx, &structure.Edge{ID: 11, Label: "knows", OutV: 3, InV: 2}))
	return g
}

// ChainGraph builds a path 1 -> 2 -> 3 -> ... -> n of "next" edges, with
// every vertex labeled "node" and carrying its position as "pos".
func ChainGraph(t testing.TB, n int) *inmemorygraph.Store {
	t.Helper()
	ctx := context.Background()
	g := inmemorygraph.New()
	for i := 1; i <= n; i++ {
		require.NoError(t, g.AddVertex(ctx, &structure.Vertex{ID: structure.ID(i), Label: "node", Properties: map[string]any{"pos": int64(i)}}))
	}
	for i := 1; i < n; i++ {
		require.NoError(t, g.AddEdge(ctx, &structure.Edge{ID: structure.ID(100 + i), Label: "next", OutV: structure.ID(i), InV: structure.ID(i + 1)}))
	}
	return g
}

// IDs extracts element ids from a result list, failing on non-elements.
func IDs(t testing.TB, results []any) []structure.ID {
	t.Helper()
	out := make([]structure.ID, 0, len(results))
	for _, r := range results {
		e, ok := r.(structure.Element)
		require.Truef(t, ok, "result %v (%T) is not an element", r, r)
		out = append(out, e.ElementID())
	}
	return out
}

// NeighborGraphHCL is NeighborGraph written as an HCL workspace, together
// with a traversal counting the distinct neighbour names of every vertex.
const NeighborGraphHCL = `
vertex "1" {
  label      = "person"
  properties = { name = "marko", age = 29 }
}

vertex "2" {
  label      = "person"
  properties = { name = "josh", age = 32 }
}

vertex "3" {
  label      = "person"
  properties = { name = "marko", age = 35 }
}

edge "10" {
  label = "knows"
  out_v = 1
  in_v  = 2
}

edge "11" {
  label = "knows"
  out_v = 3
  in_v  = 2
}

traversal "distinct_neighbour_names" {
  step "identity" {
    as = ["node"]
  }
  step "local" {
    as = ["distinct"]
    step "both" {}
    step "values" {
      keys = ["name"]
    }
    step "dedup" {}
    step "count" {}
  }
  step "select" {
    labels = ["node", "distinct"]
  }
}
`
