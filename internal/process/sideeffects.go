package process

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/copystructure"

	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// Reducer combines two values of one side-effect. Reducers must be
// associative and commutative so clones can be merged in any grouping. acc
// is nil when the key holds no value yet and stands for the empty value.
type Reducer func(acc, v any) (any, error)

// SideEffects is a set of named values shared by the steps of a traversal.
// Every key has an initial value, restored by Reset, and a reducer used by
// Add and Merge.
type SideEffects struct {
	keys     []string
	values   map[string]any
	initial  map[string]any
	reducers map[string]Reducer
}

// NewSideEffects returns an empty set.
func NewSideEffects() *SideEffects {
	return &SideEffects{
		values:   make(map[string]any),
		initial:  make(map[string]any),
		reducers: make(map[string]Reducer),
	}
}

// Register declares key with its initial value and reducer. Registering an
// existing key replaces its reducer and initial value but keeps its current
// value. The current value of a new key is a deep copy of initial.
func (s *SideEffects) Register(key string, initial any, reducer Reducer) error {
	if !slices.Contains(s.keys, key) {
		cp, err := deepCopy(initial)
		if err != nil {
			return fmt.Errorf("side-effect %q: %w", key, err)
		}
		s.keys = append(s.keys, key)
		s.values[key] = cp
	}
	s.initial[key] = initial
	s.reducers[key] = reducer
	return nil
}

// Registered reports whether key has been declared.
func (s *SideEffects) Registered(key string) bool {
	return slices.Contains(s.keys, key)
}

// Keys returns the registered keys in registration order.
func (s *SideEffects) Keys() []string { return slices.Clone(s.keys) }

// Get returns the current value of key.
func (s *SideEffects) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set overwrites the value of key, registering it without a reducer when it
// is unknown.
func (s *SideEffects) Set(key string, v any) {
	if !s.Registered(key) {
		s.keys = append(s.keys, key)
		s.initial[key] = nil
		s.reducers[key] = nil
	}
	s.values[key] = v
}

// Add folds v into the value of key with the key's reducer.
func (s *SideEffects) Add(key string, v any) error {
	if !s.Registered(key) {
		return fmt.Errorf("side-effect %q is not registered", key)
	}
	reducer := s.reducers[key]
	if reducer == nil {
		return fmt.Errorf("side-effect %q has no reducer", key)
	}
	next, err := reducer(s.values[key], v)
	if err != nil {
		return fmt.Errorf("side-effect %q: %w", key, err)
	}
	s.values[key] = next
	return nil
}

// Clear drops every current value but keeps the keys, their initial values
// and reducers. The next Add on a cleared key reduces into a nil
// accumulator; Get reports the key as absent until then.
func (s *SideEffects) Clear() {
	clear(s.values)
}

// Reset restores every key to a copy of its initial value.
func (s *SideEffects) Reset() error {
	for _, k := range s.keys {
		v, err := deepCopy(s.initial[k])
		if err != nil {
			return fmt.Errorf("side-effect %q: %w", k, err)
		}
		s.values[k] = v
	}
	return nil
}

// Clone returns a deep copy. Values are copied with copystructure; a value
// that cannot be copied fails the whole clone.
func (s *SideEffects) Clone() (*SideEffects, error) {
	c := NewSideEffects()
	c.keys = slices.Clone(s.keys)
	for _, k := range s.keys {
		c.initial[k] = s.initial[k]
		c.reducers[k] = s.reducers[k]
		v, ok := s.values[k]
		if !ok {
			continue
		}
		cp, err := deepCopy(v)
		if err != nil {
			return nil, fmt.Errorf("side-effect %q: %w", k, err)
		}
		c.values[k] = cp
	}
	return c, nil
}

// Merge folds the values of other into s key by key. Keys other holds no
// value for are skipped, keys unknown to s are adopted as they are. Every
// key is attempted; failures are returned together.
func (s *SideEffects) Merge(other *SideEffects) error {
	var result *multierror.Error
	for _, k := range other.keys {
		v, ok := other.values[k]
		if !ok {
			continue
		}
		if !s.Registered(k) {
			s.keys = append(s.keys, k)
			s.initial[k] = other.initial[k]
			s.reducers[k] = other.reducers[k]
		}
		if _, has := s.values[k]; !has {
			s.values[k] = v
			continue
		}
		if err := s.Add(k, v); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// SumReducer adds numbers. Integers stay int64 unless either side is a
// float.
func SumReducer(acc, v any) (any, error) {
	if acc == nil {
		return v, nil
	}
	ai, aInt := asInt64(acc)
	vi, vInt := asInt64(v)
	if aInt && vInt {
		return ai + vi, nil
	}
	af, aok := asFloat64(acc)
	vf, vok := asFloat64(v)
	if !aok || !vok {
		return nil, fmt.Errorf("cannot sum %T and %T", acc, v)
	}
	return af + vf, nil
}

// ConcatReducer appends to a list. A list operand is appended element by
// element.
func ConcatReducer(acc, v any) (any, error) {
	var list []any
	if acc != nil {
		l, ok := acc.([]any)
		if !ok {
			return nil, fmt.Errorf("cannot append to %T", acc)
		}
		list = l
	}
	if items, ok := v.([]any); ok {
		return append(slices.Clip(list), items...), nil
	}
	return append(slices.Clip(list), v), nil
}

// UnionReducer appends the elements of v that acc does not hold yet.
func UnionReducer(acc, v any) (any, error) {
	var list []any
	if acc != nil {
		l, ok := acc.([]any)
		if !ok {
			return nil, fmt.Errorf("cannot union into %T", acc)
		}
		list = slices.Clone(l)
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	for _, it := range items {
		if !slices.ContainsFunc(list, func(x any) bool { return traverser.Equal(x, it) }) {
			list = append(list, it)
		}
	}
	return list, nil
}

func deepCopy(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return copystructure.Copy(v)
}
