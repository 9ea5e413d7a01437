package cachedgraph

import (
	"context"
	"testing"

	"github.com/specialistvlad/burstgraph/internal/graphstore"
	"github.com/specialistvlad/burstgraph/internal/inmemorygraph"
	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how often the underlying adjacency lookup runs.
type countingStore struct {
	graphstore.Store
	calls int
}

func (c *countingStore) IncidentEdges(ctx context.Context, id structure.ID, dir structure.Direction, labels ...string) ([]*structure.Edge, error) {
	c.calls++
	return c.Store.IncidentEdges(ctx, id, dir, labels...)
}

func newBase(t *testing.T) *countingStore {
	t.Helper()
	ctx := context.Background()
	g := inmemorygraph.New()
	require.NoError(t, g.AddVertex(ctx, &structure.Vertex{ID: 1}))
	require.NoError(t, g.AddVertex(ctx, &structure.Vertex{ID: 2}))
	require.NoError(t, g.AddEdge(ctx, &structure.Edge{ID: 3, Label: "knows", OutV: 1, InV: 2}))
	return &countingStore{Store: g}
}

func TestIncidentEdges_CachesByVertexDirectionAndLabels(t *testing.T) {
	base := newBase(t)
	s, err := New(base, 8)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := s.IncidentEdges(ctx, 1, structure.DirectionOut)
	require.NoError(t, err)
	second, err := s.IncidentEdges(ctx, 1, structure.DirectionOut)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, base.calls)

	_, err = s.IncidentEdges(ctx, 1, structure.DirectionOut, "knows")
	require.NoError(t, err)
	_, err = s.IncidentEdges(ctx, 1, structure.DirectionIn)
	require.NoError(t, err)
	assert.Equal(t, 3, base.calls)
	assert.Equal(t, 3, s.Len())
}

func TestIncidentEdges_ErrorsAreNotCached(t *testing.T) {
	base := newBase(t)
	s, err := New(base, 8)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.IncidentEdges(ctx, 99, structure.DirectionOut)
	assert.ErrorIs(t, err, graphstore.ErrElementNotFound)
	_, err = s.IncidentEdges(ctx, 99, structure.DirectionOut)
	assert.ErrorIs(t, err, graphstore.ErrElementNotFound)
	assert.Equal(t, 2, base.calls)
	assert.Zero(t, s.Len())
}

func TestFresh_DoesNotShareEntries(t *testing.T) {
	base := newBase(t)
	s, err := New(base, 8)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.IncidentEdges(ctx, 1, structure.DirectionOut)
	require.NoError(t, err)

	fresh, err := s.Fresh()
	require.NoError(t, err)
	assert.Zero(t, fresh.Len())
	assert.Equal(t, 1, s.Len())
	assert.Same(t, base, fresh.Base())
}

func TestNew_RejectsInvalidSize(t *testing.T) {
	_, err := New(newBase(t), 0)
	assert.Error(t, err)

	_, err = New(nil, 4)
	assert.ErrorContains(t, err, "base store is required")
}
