package process

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/burstgraph/internal/dag"
)

// Category groups strategies. Categories always run in this order;
// Priors and Posteriors only order strategies inside one category.
type Category int

const (
	CategoryDecoration Category = iota
	CategoryOptimization
	CategoryFinalization
	CategoryVerification
)

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case CategoryDecoration:
		return "decoration"
	case CategoryOptimization:
		return "optimization"
	case CategoryFinalization:
		return "finalization"
	case CategoryVerification:
		return "verification"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Strategy rewrites a traversal before its first execution.
type Strategy interface {
	// Name identifies the strategy in ordering constraints.
	Name() string
	Category() Category
	// Priors names strategies that must run before this one.
	Priors() []string
	// Posteriors names strategies that must run after this one.
	Posteriors() []string
	// Apply rewrites t in place through its step mutators.
	Apply(t *Traversal) error
}

// Strategies is an ordered set of strategies keyed by name. It is treated as
// immutable: With and Without return new sets.
type Strategies struct {
	list []Strategy
}

// NewStrategies builds a set from ss. A later strategy replaces an earlier
// one with the same name.
func NewStrategies(ss ...Strategy) *Strategies {
	return (&Strategies{}).With(ss...)
}

// With returns a copy of the set with ss added or replaced.
func (s *Strategies) With(ss ...Strategy) *Strategies {
	out := s.Clone()
	for _, st := range ss {
		if i := out.indexOf(st.Name()); i >= 0 {
			out.list[i] = st
			continue
		}
		out.list = append(out.list, st)
	}
	return out
}

// Without returns a copy of the set without the named strategies.
func (s *Strategies) Without(names ...string) *Strategies {
	out := s.Clone()
	out.list = slices.DeleteFunc(out.list, func(st Strategy) bool {
		return slices.Contains(names, st.Name())
	})
	return out
}

// Clone returns a copy of the set.
func (s *Strategies) Clone() *Strategies {
	if s == nil {
		return &Strategies{}
	}
	return &Strategies{list: slices.Clone(s.list)}
}

// Len returns the number of strategies.
func (s *Strategies) Len() int { return len(s.list) }

// Names returns the strategy names in registration order.
func (s *Strategies) Names() []string {
	names := make([]string, len(s.list))
	for i, st := range s.list {
		names[i] = st.Name()
	}
	return names
}

func (s *Strategies) indexOf(name string) int {
	return slices.IndexFunc(s.list, func(st Strategy) bool { return st.Name() == name })
}

// Sorted returns the strategies in application order: by category first,
// then topologically by Priors and Posteriors, then by registration order.
// Constraints naming strategies that are not registered, or registered in
// another category, are ignored. A cycle of constraints is an error.
func (s *Strategies) Sorted() ([]Strategy, error) {
	byCategory := make(map[Category][]Strategy)
	var categories []Category
	for _, st := range s.list {
		c := st.Category()
		if _, seen := byCategory[c]; !seen {
			categories = append(categories, c)
		}
		byCategory[c] = append(byCategory[c], st)
	}
	slices.Sort(categories)

	out := make([]Strategy, 0, len(s.list))
	for _, c := range categories {
		group := byCategory[c]
		g := dag.New()
		byName := make(map[string]Strategy, len(group))
		for _, st := range group {
			g.AddNode(st.Name())
			byName[st.Name()] = st
		}
		for _, st := range group {
			for _, prior := range st.Priors() {
				if g.HasNode(prior) {
					if err := g.AddEdge(prior, st.Name()); err != nil {
						return nil, fmt.Errorf("ordering strategy %s: %w", st.Name(), err)
					}
				}
			}
			for _, posterior := range st.Posteriors() {
				if g.HasNode(posterior) {
					if err := g.AddEdge(st.Name(), posterior); err != nil {
						return nil, fmt.Errorf("ordering strategy %s: %w", st.Name(), err)
					}
				}
			}
		}
		order, err := g.TopologicalOrder()
		if err != nil {
			var cycle *dag.CycleError
			if errors.As(err, &cycle) {
				if after, derr := g.Dependencies(cycle.Node); derr == nil {
					return nil, fmt.Errorf("ordering %s strategies: %w: %s runs after %s", c, err, cycle.Node, strings.Join(after, ", "))
				}
			}
			return nil, fmt.Errorf("ordering %s strategies: %w", c, err)
		}
		for _, name := range order {
			out = append(out, byName[name])
		}
	}
	return out, nil
}
