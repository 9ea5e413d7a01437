package inmemorygraph

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/burstgraph/internal/graphstore"
	"github.com/specialistvlad/burstgraph/internal/structure"
)

// Store implements the graphstore.Store interface using maps and a mutex
// for thread-safe concurrent access.
type Store struct {
	mu       sync.RWMutex
	vertices map[structure.ID]*structure.Vertex
	edges    map[structure.ID]*structure.Edge
	outE     map[structure.ID][]structure.ID // Key: vertex ID, Value: outgoing edge IDs
	inE      map[structure.ID][]structure.ID // Key: vertex ID, Value: incoming edge IDs
}

// New creates a new, empty in-memory graph store.
func New() *Store {
	return &Store{
		vertices: make(map[structure.ID]*structure.Vertex),
		edges:    make(map[structure.ID]*structure.Edge),
		outE:     make(map[structure.ID][]structure.ID),
		inE:      make(map[structure.ID][]structure.ID),
	}
}

var _ graphstore.Store = (*Store)(nil)

// AddVertex adds a vertex to the store. Adding a vertex whose id is already
// present returns an error.
func (s *Store) AddVertex(ctx context.Context, v *structure.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.vertices[v.ID]; exists {
		return fmt.Errorf("vertex %d already exists", v.ID)
	}
	if v.Properties == nil {
		v.Properties = make(map[string]any)
	}
	s.vertices[v.ID] = v
	return nil
}

// AddEdge adds an edge between two existing vertices.
func (s *Store) AddEdge(ctx context.Context, e *structure.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.edges[e.ID]; exists {
		return fmt.Errorf("edge %d already exists", e.ID)
	}
	if _, exists := s.vertices[e.OutV]; !exists {
		return fmt.Errorf("edge %d out vertex %d: %w", e.ID, e.OutV, graphstore.ErrElementNotFound)
	}
	if _, exists := s.vertices[e.InV]; !exists {
		return fmt.Errorf("edge %d in vertex %d: %w", e.ID, e.InV, graphstore.ErrElementNotFound)
	}
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}

	s.edges[e.ID] = e
	s.outE[e.OutV] = insertSorted(s.outE[e.OutV], e.ID)
	s.inE[e.InV] = insertSorted(s.inE[e.InV], e.ID)
	return nil
}

// RemoveVertex deletes a vertex and every edge incident to it.
func (s *Store) RemoveVertex(ctx context.Context, id structure.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.vertices[id]; !exists {
		return false
	}
	for _, eid := range slices.Concat(s.outE[id], s.inE[id]) {
		e, ok := s.edges[eid]
		if !ok {
			continue
		}
		delete(s.edges, eid)
		s.outE[e.OutV] = slices.DeleteFunc(s.outE[e.OutV], func(x structure.ID) bool { return x == eid })
		s.inE[e.InV] = slices.DeleteFunc(s.inE[e.InV], func(x structure.ID) bool { return x == eid })
	}
	delete(s.outE, id)
	delete(s.inE, id)
	delete(s.vertices, id)
	return true
}

// Vertex retrieves a single vertex by id.
func (s *Store) Vertex(ctx context.Context, id structure.ID) (*structure.Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vertices[id]
	return v, ok
}

// Edge retrieves a single edge by id.
func (s *Store) Edge(ctx context.Context, id structure.ID) (*structure.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.edges[id]
	return e, ok
}

// Vertices returns the requested vertices, or every vertex ordered by id.
func (s *Store) Vertices(ctx context.Context, ids ...structure.ID) []*structure.Vertex {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		ids = sortedIDs(s.vertices)
	}
	out := make([]*structure.Vertex, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.vertices[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Edges returns the requested edges, or every edge ordered by id.
func (s *Store) Edges(ctx context.Context, ids ...structure.ID) []*structure.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		ids = sortedIDs(s.edges)
	}
	out := make([]*structure.Edge, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.edges[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// IncidentEdges returns the edges incident to a vertex.
func (s *Store) IncidentEdges(ctx context.Context, vertexID structure.ID, dir structure.Direction, labels ...string) ([]*structure.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.vertices[vertexID]; !exists {
		return nil, fmt.Errorf("vertex %d: %w", vertexID, graphstore.ErrElementNotFound)
	}

	var ids []structure.ID
	switch dir {
	case structure.DirectionOut:
		ids = s.outE[vertexID]
	case structure.DirectionIn:
		ids = s.inE[vertexID]
	default:
		ids = slices.Concat(s.outE[vertexID], s.inE[vertexID])
	}

	out := make([]*structure.Edge, 0, len(ids))
	for _, id := range ids {
		e := s.edges[id]
		if len(labels) > 0 && !slices.Contains(labels, e.Label) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Len returns the number of vertices and edges in the store.
func (s *Store) Len() (vertices, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vertices), len(s.edges)
}

func insertSorted(ids []structure.ID, id structure.ID) []structure.ID {
	i, _ := slices.BinarySearch(ids, id)
	return slices.Insert(ids, i, id)
}

func sortedIDs[T any](m map[structure.ID]T) []structure.ID {
	ids := make([]structure.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
