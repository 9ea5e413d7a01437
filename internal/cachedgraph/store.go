// Package cachedgraph decorates a graphstore.Store with a bounded LRU cache of
// incident-edge lookups.
//
// A local traversal whose owning pipeline performs at most one expansion
// before it only ever reads the neighbourhood of the vertex it was seeded
// with. Caching that neighbourhood lets repeated seeds of the same vertex skip
// the underlying store.
package cachedgraph

import (
	"context"
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/specialistvlad/burstgraph/internal/graphstore"
	"github.com/specialistvlad/burstgraph/internal/structure"
)

// Store caches IncidentEdges results; every other call goes straight to the
// wrapped store.
type Store struct {
	graphstore.Store
	cache *lru.Cache
	size  int
}

var _ graphstore.Store = (*Store)(nil)

type cacheKey struct {
	vertex structure.ID
	dir    structure.Direction
	labels string
}

// New wraps base with an LRU cache holding at most size adjacency lists.
func New(base graphstore.Store, size int) (*Store, error) {
	if base == nil {
		return nil, fmt.Errorf("cachedgraph: base store is required")
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("cachedgraph: %w", err)
	}
	return &Store{Store: base, cache: cache, size: size}, nil
}

// IncidentEdges serves the lookup from the cache when possible. Lookups that
// fail are not cached.
func (s *Store) IncidentEdges(ctx context.Context, vertexID structure.ID, dir structure.Direction, labels ...string) ([]*structure.Edge, error) {
	key := cacheKey{vertex: vertexID, dir: dir, labels: labelKey(labels)}
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*structure.Edge), nil
	}

	edges, err := s.Store.IncidentEdges(ctx, vertexID, dir, labels...)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, edges)
	return edges, nil
}

// Len returns the number of cached adjacency lists.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Purge drops every cached entry.
func (s *Store) Purge() {
	s.cache.Purge()
}

// Fresh returns a new Store over the same base with an empty cache of the
// same size. Clones of a traversal use it so they never share cache state.
func (s *Store) Fresh() (*Store, error) {
	return New(s.Store, s.size)
}

// Base returns the wrapped store.
func (s *Store) Base() graphstore.Store {
	return s.Store
}

func labelKey(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	sorted := slices.Clone(labels)
	slices.Sort(sorted)
	return strings.Join(sorted, "\x00")
}
