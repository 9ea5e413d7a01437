package process

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// drainAll pulls every remaining traverser from upstream.
func (b *stepBase) drainAll() ([]traverser.Traverser, error) {
	var out []traverser.Traverser
	for {
		t, err := b.pull()
		if errors.Is(err, ErrNoMoreResults) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

// CountStep reduces its input to the total bulk, as an int64.
type CountStep struct {
	stepBase
	done bool
}

func NewCountStep() *CountStep { return &CountStep{} }

func (s *CountStep) barrier() {}

func (s *CountStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireBulk)
}

func (s *CountStep) processNext() (traverser.Traverser, error) {
	if s.done {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	all, err := s.drainAll()
	if err != nil {
		return traverser.Traverser{}, err
	}
	var n int64
	for _, t := range all {
		n += int64(t.Bulk())
	}
	s.done = true
	return s.generate(n), nil
}

// Combine sums per-partition counts.
func (s *CountStep) Combine(partials []any) (any, error) {
	var n int64
	for _, p := range partials {
		c, ok := p.(int64)
		if !ok {
			return nil, fmt.Errorf("%w: count partial is %T", ErrUnexpectedValue, p)
		}
		n += c
	}
	return n, nil
}

func (s *CountStep) resetState() { s.done = false }

func (s *CountStep) Clone() (Step, error) { return shallowClone(s), nil }

// FoldStep reduces its input to a single list, repeating each value by its
// bulk.
type FoldStep struct {
	stepBase
	done bool
}

func NewFoldStep() *FoldStep { return &FoldStep{} }

func (s *FoldStep) barrier() {}

func (s *FoldStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireBulk)
}

func (s *FoldStep) processNext() (traverser.Traverser, error) {
	if s.done {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	all, err := s.drainAll()
	if err != nil {
		return traverser.Traverser{}, err
	}
	list := []any{}
	for _, t := range all {
		for range t.Bulk() {
			list = append(list, t.Value())
		}
	}
	s.done = true
	return s.generate(list), nil
}

// Combine concatenates per-partition lists in partition order.
func (s *FoldStep) Combine(partials []any) (any, error) {
	list := []any{}
	for _, p := range partials {
		l, ok := p.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: fold partial is %T", ErrUnexpectedValue, p)
		}
		list = append(list, l...)
	}
	return list, nil
}

func (s *FoldStep) resetState() { s.done = false }

func (s *FoldStep) Clone() (Step, error) { return shallowClone(s), nil }

// Order is a sort direction.
type Order int

const (
	Asc Order = iota
	Desc
)

// OrderStep sorts its whole input, by value or by a property of elements
// and maps. The sort is stable; values that cannot be compared keep their
// arrival order.
type OrderStep struct {
	stepBase
	by    string
	order Order

	sorted []traverser.Traverser
	loaded bool
}

// NewOrderStep sorts by the traverser value when by is empty, otherwise by
// the named property.
func NewOrderStep(by string, order Order) *OrderStep {
	return &OrderStep{stepBase: stepBase{role: rolePass}, by: by, order: order}
}

func (s *OrderStep) barrier() {}

func (s *OrderStep) processNext() (traverser.Traverser, error) {
	if !s.loaded {
		all, err := s.drainAll()
		if err != nil {
			return traverser.Traverser{}, err
		}
		slices.SortStableFunc(all, func(a, b traverser.Traverser) int {
			c, _ := compareValues(s.key(a), s.key(b))
			if s.order == Desc {
				return -c
			}
			return c
		})
		s.sorted = all
		s.loaded = true
	}
	if len(s.sorted) == 0 {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	t := s.sorted[0]
	s.sorted = s.sorted[1:]
	return t, nil
}

func (s *OrderStep) key(t traverser.Traverser) any {
	if s.by == "" {
		return t.Value()
	}
	switch v := t.Value().(type) {
	case structure.Element:
		p, _ := v.Property(s.by)
		return p
	case map[string]any:
		return v[s.by]
	}
	return nil
}

func (s *OrderStep) resetState() {
	s.sorted = nil
	s.loaded = false
}

func (s *OrderStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.sorted = cloneTraversers(s.sorted)
	return c, nil
}

func (s *OrderStep) args() string {
	dir := "asc"
	if s.order == Desc {
		dir = "desc"
	}
	if s.by == "" {
		return dir
	}
	return s.by + "," + dir
}

// NoOpBarrierStep drains its input and merges equal traversers into one
// with the combined bulk, emitting them in first-seen order. It changes the
// shape of the stream, not its logical content.
type NoOpBarrierStep struct {
	stepBase
	merged []traverser.Traverser
	loaded bool
}

func NewNoOpBarrierStep() *NoOpBarrierStep {
	return &NoOpBarrierStep{stepBase: stepBase{role: rolePass}}
}

func (s *NoOpBarrierStep) barrier() {}

func (s *NoOpBarrierStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireBulk)
}

func (s *NoOpBarrierStep) processNext() (traverser.Traverser, error) {
	if !s.loaded {
		all, err := s.drainAll()
		if err != nil {
			return traverser.Traverser{}, err
		}
		s.merged = mergeTraversers(all)
		s.loaded = true
	}
	if len(s.merged) == 0 {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	t := s.merged[0]
	s.merged = s.merged[1:]
	return t, nil
}

// mergeTraversers folds equal traversers together, bucketing by value key
// so that only traversers with equal values are compared.
func mergeTraversers(all []traverser.Traverser) []traverser.Traverser {
	var out []traverser.Traverser
	buckets := make(map[any][]int)
	for _, t := range all {
		key := traverser.Key(t.Value())
		merged := false
		for _, i := range buckets[key] {
			if out[i].Merge(t) {
				merged = true
				break
			}
		}
		if !merged {
			buckets[key] = append(buckets[key], len(out))
			out = append(out, t)
		}
	}
	return out
}

func (s *NoOpBarrierStep) resetState() {
	s.merged = nil
	s.loaded = false
}

func (s *NoOpBarrierStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.merged = cloneTraversers(s.merged)
	return c, nil
}
