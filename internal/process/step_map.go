package process

import (
	"fmt"
	"iter"
	"slices"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// IdentityStep emits its input unchanged.
type IdentityStep struct{ stepBase }

func NewIdentityStep() *IdentityStep {
	return &IdentityStep{stepBase{role: rolePass}}
}

func (s *IdentityStep) processNext() (traverser.Traverser, error) { return s.pull() }

func (s *IdentityStep) Clone() (Step, error) { return shallowClone(s), nil }

// IDStep maps an element to its id.
type IDStep struct{ stepBase }

func NewIDStep() *IDStep { return &IDStep{} }

func (s *IDStep) processNext() (traverser.Traverser, error) {
	t, err := s.pull()
	if err != nil {
		return t, err
	}
	e, ok := t.Value().(structure.Element)
	if !ok {
		return traverser.Traverser{}, fmt.Errorf("%w: IDStep expects an element, got %T", ErrUnexpectedValue, t.Value())
	}
	return t.Split(e.ElementID()), nil
}

func (s *IDStep) Clone() (Step, error) { return shallowClone(s), nil }

// LabelStep maps an element to its label.
type LabelStep struct{ stepBase }

func NewLabelStep() *LabelStep { return &LabelStep{} }

func (s *LabelStep) processNext() (traverser.Traverser, error) {
	t, err := s.pull()
	if err != nil {
		return t, err
	}
	e, ok := t.Value().(structure.Element)
	if !ok {
		return traverser.Traverser{}, fmt.Errorf("%w: LabelStep expects an element, got %T", ErrUnexpectedValue, t.Value())
	}
	return t.Split(e.ElementLabel()), nil
}

func (s *LabelStep) Clone() (Step, error) { return shallowClone(s), nil }

// ConstantStep maps every traverser to the same value.
type ConstantStep struct {
	stepBase
	value any
}

func NewConstantStep(v any) *ConstantStep { return &ConstantStep{value: v} }

func (s *ConstantStep) processNext() (traverser.Traverser, error) {
	t, err := s.pull()
	if err != nil {
		return t, err
	}
	return t.Split(s.value), nil
}

func (s *ConstantStep) Clone() (Step, error) { return shallowClone(s), nil }

func (s *ConstantStep) args() string { return fmt.Sprint(s.value) }

// PathStep maps a traverser to its path history.
type PathStep struct{ stepBase }

func NewPathStep() *PathStep { return &PathStep{} }

func (s *PathStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequirePath)
}

func (s *PathStep) processNext() (traverser.Traverser, error) {
	t, err := s.pull()
	if err != nil {
		return t, err
	}
	if !t.TracksPath() {
		return traverser.Traverser{}, fmt.Errorf("%w: PathStep received a traverser without a path", ErrRequirementViolation)
	}
	return t.Split(t.Path()), nil
}

func (s *PathStep) Clone() (Step, error) { return shallowClone(s), nil }

// SelectStep maps a traverser to the values labeled earlier in its path.
// One label yields the value itself; several yield a map keyed by label.
// Traversers missing any of the labels are filtered out.
type SelectStep struct {
	stepBase
	selectLabels []string
}

func NewSelectStep(labels ...string) *SelectStep {
	return &SelectStep{selectLabels: labels}
}

// SelectLabels returns the labels the step reads.
func (s *SelectStep) SelectLabels() []string { return slices.Clone(s.selectLabels) }

func (s *SelectStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireLabeledPath)
}

func (s *SelectStep) processNext() (traverser.Traverser, error) {
	for {
		t, err := s.pull()
		if err != nil {
			return t, err
		}
		if !t.TracksPath() {
			return traverser.Traverser{}, fmt.Errorf("%w: SelectStep received a traverser without a path", ErrRequirementViolation)
		}
		path := t.Path()
		if len(s.selectLabels) == 1 {
			v, ok := path.Get(s.selectLabels[0])
			if !ok {
				continue
			}
			return t.Split(v), nil
		}
		out := make(map[string]any, len(s.selectLabels))
		complete := true
		for _, l := range s.selectLabels {
			v, ok := path.Get(l)
			if !ok {
				complete = false
				break
			}
			out[l] = v
		}
		if complete {
			return t.Split(out), nil
		}
	}
}

func (s *SelectStep) Clone() (Step, error) { return shallowClone(s), nil }

func (s *SelectStep) args() string { return fmt.Sprint(s.selectLabels) }

// SackValueStep maps a traverser to its sack.
type SackValueStep struct{ stepBase }

func NewSackValueStep() *SackValueStep { return &SackValueStep{} }

func (s *SackValueStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireSack)
}

func (s *SackValueStep) processNext() (traverser.Traverser, error) {
	t, err := s.pull()
	if err != nil {
		return t, err
	}
	sack, ok := t.Sack()
	if !ok {
		return traverser.Traverser{}, fmt.Errorf("%w: SackValueStep received a traverser without a sack", ErrRequirementViolation)
	}
	return t.Split(sack), nil
}

func (s *SackValueStep) Clone() (Step, error) { return shallowClone(s), nil }

// MapFunc computes a new value for a traverser.
type MapFunc func(t traverser.Traverser) (any, error)

// MapStep applies a MapFunc to every traverser.
type MapStep struct {
	stepBase
	fn MapFunc
}

func NewMapStep(fn MapFunc) *MapStep { return &MapStep{fn: fn} }

func (s *MapStep) processNext() (traverser.Traverser, error) {
	t, err := s.pull()
	if err != nil {
		return t, err
	}
	v, err := s.fn(t)
	if err != nil {
		return traverser.Traverser{}, err
	}
	return t.Split(v), nil
}

func (s *MapStep) Clone() (Step, error) { return shallowClone(s), nil }

// PropertiesStep emits the values of the named properties of an element or
// map, in key order. Without keys it emits every property.
type PropertiesStep struct {
	stepBase
	keys   []string
	buffer []traverser.Traverser
}

func NewPropertiesStep(keys ...string) *PropertiesStep {
	return &PropertiesStep{keys: keys}
}

// Keys returns the requested property keys.
func (s *PropertiesStep) Keys() []string { return slices.Clone(s.keys) }

func (s *PropertiesStep) processNext() (traverser.Traverser, error) {
	for {
		if len(s.buffer) > 0 {
			t := s.buffer[0]
			s.buffer = s.buffer[1:]
			return t, nil
		}
		t, err := s.pull()
		if err != nil {
			return t, err
		}
		switch v := t.Value().(type) {
		case structure.Element:
			keys := s.keys
			if len(keys) == 0 {
				keys = v.PropertyKeys()
			}
			for _, k := range keys {
				if pv, ok := v.Property(k); ok {
					s.buffer = append(s.buffer, t.Split(pv))
				}
			}
		case map[string]any:
			keys := s.keys
			if len(keys) == 0 {
				keys = sortedMapKeys(v)
			}
			for _, k := range keys {
				if pv, ok := v[k]; ok {
					s.buffer = append(s.buffer, t.Split(pv))
				}
			}
		default:
			return traverser.Traverser{}, fmt.Errorf("%w: PropertiesStep expects an element or a map, got %T", ErrUnexpectedValue, t.Value())
		}
	}
}

func (s *PropertiesStep) resetState() { s.buffer = nil }

func (s *PropertiesStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.buffer = cloneTraversers(s.buffer)
	return c, nil
}

func (s *PropertiesStep) args() string { return fmt.Sprint(s.keys) }

// UnfoldStep flattens lists and sequences into their elements. Other values
// pass through unchanged.
type UnfoldStep struct {
	stepBase
	buffer []traverser.Traverser
}

func NewUnfoldStep() *UnfoldStep { return &UnfoldStep{} }

func (s *UnfoldStep) processNext() (traverser.Traverser, error) {
	for {
		if len(s.buffer) > 0 {
			t := s.buffer[0]
			s.buffer = s.buffer[1:]
			return t, nil
		}
		t, err := s.pull()
		if err != nil {
			return t, err
		}
		switch v := t.Value().(type) {
		case []any:
			for _, item := range v {
				s.buffer = append(s.buffer, t.Split(item))
			}
		case iter.Seq[any]:
			for item := range v {
				s.buffer = append(s.buffer, t.Split(item))
			}
		default:
			return t, nil
		}
	}
}

func (s *UnfoldStep) resetState() { s.buffer = nil }

func (s *UnfoldStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.buffer = cloneTraversers(s.buffer)
	return c, nil
}

// FlatMapFunc expands a traverser into zero or more values.
type FlatMapFunc func(t traverser.Traverser) ([]any, error)

// FlatMapStep applies a FlatMapFunc and emits every resulting value.
type FlatMapStep struct {
	stepBase
	fn     FlatMapFunc
	buffer []traverser.Traverser
}

func NewFlatMapStep(fn FlatMapFunc) *FlatMapStep { return &FlatMapStep{fn: fn} }

func (s *FlatMapStep) processNext() (traverser.Traverser, error) {
	for {
		if len(s.buffer) > 0 {
			t := s.buffer[0]
			s.buffer = s.buffer[1:]
			return t, nil
		}
		t, err := s.pull()
		if err != nil {
			return t, err
		}
		values, err := s.fn(t)
		if err != nil {
			return traverser.Traverser{}, err
		}
		for _, v := range values {
			s.buffer = append(s.buffer, t.Split(v))
		}
	}
}

func (s *FlatMapStep) resetState() { s.buffer = nil }

func (s *FlatMapStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.buffer = cloneTraversers(s.buffer)
	return c, nil
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
