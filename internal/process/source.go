package process

import (
	"github.com/specialistvlad/burstgraph/internal/graphstore"
	"github.com/specialistvlad/burstgraph/internal/structure"
)

type sideEffectSpec struct {
	key     string
	initial any
	reducer Reducer
}

// Source spawns root traversals over one graph store with a common
// configuration. A Source is immutable; the With methods return copies.
type Source struct {
	store       graphstore.Store
	strategies  *Strategies
	sideEffects []sideEffectSpec
	sackInit    func() any
}

// NewSource creates a source reading from store and rewriting every spawned
// traversal with strategies.
func NewSource(store graphstore.Store, strategies ...Strategy) *Source {
	return &Source{store: store, strategies: NewStrategies(strategies...)}
}

func (s *Source) clone() *Source {
	c := *s
	c.strategies = s.strategies.Clone()
	c.sideEffects = append([]sideEffectSpec(nil), s.sideEffects...)
	return &c
}

// Store returns the graph store.
func (s *Source) Store() graphstore.Store { return s.store }

// Strategies returns the strategies given to spawned traversals.
func (s *Source) Strategies() *Strategies { return s.strategies }

// WithStrategies adds or replaces strategies.
func (s *Source) WithStrategies(ss ...Strategy) *Source {
	c := s.clone()
	c.strategies = c.strategies.With(ss...)
	return c
}

// WithoutStrategies removes strategies by name.
func (s *Source) WithoutStrategies(names ...string) *Source {
	c := s.clone()
	c.strategies = c.strategies.Without(names...)
	return c
}

// WithSideEffect pre-registers a side-effect on every spawned traversal.
func (s *Source) WithSideEffect(key string, initial any, reducer Reducer) *Source {
	c := s.clone()
	c.sideEffects = append(c.sideEffects, sideEffectSpec{key: key, initial: initial, reducer: reducer})
	return c
}

// WithSack gives every traverser a sack, initialized by init.
func (s *Source) WithSack(init func() any) *Source {
	c := s.clone()
	c.sackInit = init
	return c
}

func (s *Source) spawn(start Step) *Traversal {
	t := newTraversal()
	t.store = s.store
	t.strategies = s.strategies.Clone()
	t.sackInit = s.sackInit
	for _, se := range s.sideEffects {
		if err := t.sideEffects.Register(se.key, se.initial, se.reducer); err != nil {
			return t.fail(err)
		}
	}
	return t.add(start)
}

// V starts a traversal over vertices, all of them when no ids are given.
func (s *Source) V(ids ...structure.ID) *Traversal {
	return s.spawn(NewGraphStep(structure.KindVertex, ids...))
}

// E starts a traversal over edges, all of them when no ids are given.
func (s *Source) E(ids ...structure.ID) *Traversal {
	return s.spawn(NewGraphStep(structure.KindEdge, ids...))
}

// Inject starts a traversal over literal values.
func (s *Source) Inject(values ...any) *Traversal {
	return s.spawn(NewInjectStep(values...))
}
