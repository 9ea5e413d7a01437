package strategy

import (
	"fmt"

	"github.com/specialistvlad/burstgraph/internal/cachedgraph"
	"github.com/specialistvlad/burstgraph/internal/process"
)

// LocalNeighborhoodCache gives the child of every local step that only ever
// sees one vertex's neighbourhood its own LRU cache of adjacency lookups.
// Re-seeding the child with a vertex it has already expanded then skips the
// graph store.
type LocalNeighborhoodCache struct {
	// Size bounds the number of cached adjacency lists per child.
	Size int
}

func (LocalNeighborhoodCache) Name() string               { return NameLocalNeighborhoodCache }
func (LocalNeighborhoodCache) Category() process.Category { return process.CategoryFinalization }
func (LocalNeighborhoodCache) Priors() []string           { return nil }
func (LocalNeighborhoodCache) Posteriors() []string       { return nil }

func (s LocalNeighborhoodCache) Apply(t *process.Traversal) error {
	if s.Size <= 0 {
		return nil
	}
	store := t.Store()
	if store == nil {
		return nil
	}
	for _, step := range t.Steps() {
		ls, ok := step.(*process.LocalStep)
		if !ok || !ls.IsIsolatedToOneExpansion() {
			continue
		}
		if _, cached := ls.Child().Store().(*cachedgraph.Store); cached {
			continue
		}
		c, err := cachedgraph.New(store, s.Size)
		if err != nil {
			return fmt.Errorf("neighbourhood cache: %w", err)
		}
		if err := ls.Child().UseStore(c); err != nil {
			return err
		}
	}
	return nil
}
