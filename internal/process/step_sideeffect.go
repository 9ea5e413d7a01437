package process

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// SackOperator combines a traverser's sack with an operand.
type SackOperator func(sack, operand any) (any, error)

// SackSum adds the operand to the sack.
func SackSum(sack, operand any) (any, error) { return SumReducer(sack, operand) }

// SackAssign replaces the sack with the operand.
func SackAssign(_, operand any) (any, error) { return operand, nil }

// SackStep updates each traverser's sack with an operator applied to the
// traverser value, or to one of its properties when by is set.
type SackStep struct {
	stepBase
	op SackOperator
	by string
}

func NewSackStep(op SackOperator, by string) *SackStep {
	return &SackStep{stepBase: stepBase{role: rolePass}, op: op, by: by}
}

func (s *SackStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireSack)
}

func (s *SackStep) processNext() (traverser.Traverser, error) {
	for {
		t, err := s.pull()
		if err != nil {
			return t, err
		}
		sack, ok := t.Sack()
		if !ok {
			return traverser.Traverser{}, fmt.Errorf("%w: SackStep received a traverser without a sack", ErrRequirementViolation)
		}
		operand := t.Value()
		if s.by != "" {
			var found bool
			switch v := operand.(type) {
			case structure.Element:
				operand, found = v.Property(s.by)
			case map[string]any:
				operand, found = v[s.by]
			}
			if !found {
				continue
			}
		}
		next, err := s.op(sack, operand)
		if err != nil {
			return traverser.Traverser{}, fmt.Errorf("sack: %w", err)
		}
		return t.WithSack(next), nil
	}
}

func (s *SackStep) Clone() (Step, error) { return shallowClone(s), nil }

// AggregateStep drains its input into a list side-effect and then emits the
// input unchanged. The key is registered with ConcatReducer on first use.
type AggregateStep struct {
	stepBase
	key     string
	pending []traverser.Traverser
	loaded  bool
}

func NewAggregateStep(key string) *AggregateStep {
	return &AggregateStep{stepBase: stepBase{role: rolePass}, key: key}
}

// Key returns the side-effect key written by the step.
func (s *AggregateStep) Key() string { return s.key }

func (s *AggregateStep) barrier() {}

func (s *AggregateStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireSideEffects, traverser.RequireBulk)
}

func (s *AggregateStep) processNext() (traverser.Traverser, error) {
	if !s.loaded {
		all, err := s.drainAll()
		if err != nil {
			return traverser.Traverser{}, err
		}
		se := s.owner.SideEffects()
		if !se.Registered(s.key) {
			if err := se.Register(s.key, []any{}, ConcatReducer); err != nil {
				return traverser.Traverser{}, err
			}
		}
		var values []any
		for _, t := range all {
			for range t.Bulk() {
				values = append(values, t.Value())
			}
		}
		if len(values) > 0 {
			if err := se.Add(s.key, values); err != nil {
				return traverser.Traverser{}, err
			}
		}
		s.pending = all
		s.loaded = true
	}
	if len(s.pending) == 0 {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	t := s.pending[0]
	s.pending = s.pending[1:]
	return t, nil
}

func (s *AggregateStep) resetState() {
	s.pending = nil
	s.loaded = false
}

func (s *AggregateStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.pending = cloneTraversers(s.pending)
	return c, nil
}

func (s *AggregateStep) args() string { return s.key }

// SideEffectFunc runs for every traverser passing a SideEffectStep.
type SideEffectFunc func(t traverser.Traverser, se *SideEffects) error

// SideEffectStep calls a function for every traverser and emits it
// unchanged.
type SideEffectStep struct {
	stepBase
	fn SideEffectFunc
}

func NewSideEffectStep(fn SideEffectFunc) *SideEffectStep {
	return &SideEffectStep{stepBase: stepBase{role: rolePass}, fn: fn}
}

func (s *SideEffectStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireSideEffects)
}

func (s *SideEffectStep) processNext() (traverser.Traverser, error) {
	t, err := s.pull()
	if err != nil {
		return t, err
	}
	if err := s.fn(t, s.owner.SideEffects()); err != nil {
		return traverser.Traverser{}, err
	}
	return t, nil
}

func (s *SideEffectStep) Clone() (Step, error) { return shallowClone(s), nil }

// CapStep drains its input and then emits the value of one side-effect, or
// a map of several keyed by name. Unknown keys are reported as errors.
type CapStep struct {
	stepBase
	keys []string
	done bool
}

func NewCapStep(keys ...string) *CapStep { return &CapStep{keys: keys} }

// Keys returns the side-effect keys emitted by the step.
func (s *CapStep) Keys() []string { return slices.Clone(s.keys) }

func (s *CapStep) barrier() {}

func (s *CapStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireSideEffects)
}

func (s *CapStep) processNext() (traverser.Traverser, error) {
	if s.done {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	if _, err := s.drainAll(); err != nil {
		return traverser.Traverser{}, err
	}
	s.done = true

	se := s.owner.SideEffects()
	values := make(map[string]any, len(s.keys))
	for _, k := range s.keys {
		v, ok := se.Get(k)
		if !ok {
			return traverser.Traverser{}, fmt.Errorf("cap: side-effect %q does not exist", k)
		}
		// Results never alias the live side-effect value.
		cp, err := deepCopy(v)
		if err != nil {
			return traverser.Traverser{}, fmt.Errorf("cap: side-effect %q: %w", k, err)
		}
		values[k] = cp
	}
	if len(s.keys) == 1 {
		return s.generate(values[s.keys[0]]), nil
	}
	return s.generate(values), nil
}

func (s *CapStep) resetState() { s.done = false }

func (s *CapStep) Clone() (Step, error) { return shallowClone(s), nil }

func (s *CapStep) args() string { return fmt.Sprint(s.keys) }
