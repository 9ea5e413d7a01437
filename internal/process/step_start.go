package process

import (
	"fmt"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// GraphStep starts a traversal with vertices or edges read from the graph
// store, optionally restricted to a list of ids.
type GraphStep struct {
	stepBase
	kind       structure.Kind
	ids        []structure.ID
	partition  int
	partitions int

	loaded   bool
	elements []any
	cursor   int
}

// NewGraphStep creates a start step over vertices or edges.
func NewGraphStep(kind structure.Kind, ids ...structure.ID) *GraphStep {
	return &GraphStep{kind: kind, ids: ids, partitions: 1}
}

// Kind returns whether the step emits vertices or edges.
func (s *GraphStep) Kind() structure.Kind { return s.kind }

// IDs returns the requested ids; empty means every element.
func (s *GraphStep) IDs() []structure.ID { return s.ids }

// SetPartition restricts the step to the elements whose position in id
// order is i modulo n.
func (s *GraphStep) SetPartition(i, n int) error {
	if err := validatePartition(i, n); err != nil {
		return err
	}
	if s.loaded {
		return fmt.Errorf("process: cannot partition a started GraphStep")
	}
	s.partition, s.partitions = i, n
	return nil
}

func (s *GraphStep) processNext() (traverser.Traverser, error) {
	if err := s.checkInterrupt(); err != nil {
		return traverser.Traverser{}, err
	}
	if !s.loaded {
		if err := s.load(); err != nil {
			return traverser.Traverser{}, err
		}
	}
	if s.cursor >= len(s.elements) {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	e := s.elements[s.cursor]
	s.cursor++
	return s.generate(e), nil
}

func (s *GraphStep) load() error {
	store, err := s.store()
	if err != nil {
		return err
	}
	ctx := s.owner.context()
	var all []any
	if s.kind == structure.KindEdge {
		for _, e := range store.Edges(ctx, s.ids...) {
			all = append(all, e)
		}
	} else {
		for _, v := range store.Vertices(ctx, s.ids...) {
			all = append(all, v)
		}
	}
	s.elements = s.elements[:0]
	for i, e := range all {
		if i%s.partitions == s.partition {
			s.elements = append(s.elements, e)
		}
	}
	s.loaded = true
	return nil
}

func (s *GraphStep) resetState() {
	s.loaded = false
	s.elements = nil
	s.cursor = 0
}

// Clone copies the step, including the elements already loaded.
func (s *GraphStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.elements = append([]any(nil), s.elements...)
	return c, nil
}

func (s *GraphStep) args() string {
	if len(s.ids) == 0 {
		return s.kind.String()
	}
	return fmt.Sprintf("%s,%v", s.kind, s.ids)
}

// InjectStep starts a traversal with literal values.
type InjectStep struct {
	stepBase
	values     []any
	partition  int
	partitions int
	cursor     int
}

// NewInjectStep creates a start step emitting values in order.
func NewInjectStep(values ...any) *InjectStep {
	return &InjectStep{values: values, partitions: 1}
}

// SetPartition restricts the step to the values whose position is i
// modulo n.
func (s *InjectStep) SetPartition(i, n int) error {
	if err := validatePartition(i, n); err != nil {
		return err
	}
	s.partition, s.partitions = i, n
	s.cursor = i
	return nil
}

func (s *InjectStep) processNext() (traverser.Traverser, error) {
	if s.cursor < s.partition {
		s.cursor = s.partition
	}
	if s.cursor >= len(s.values) {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	v := s.values[s.cursor]
	s.cursor += s.partitions
	return s.generate(v), nil
}

func (s *InjectStep) resetState() { s.cursor = s.partition }

// Clone copies the step and its cursor.
func (s *InjectStep) Clone() (Step, error) {
	return shallowClone(s), nil
}

func (s *InjectStep) args() string { return fmt.Sprint(s.values) }

func validatePartition(i, n int) error {
	if n < 1 || i < 0 || i >= n {
		return fmt.Errorf("process: invalid partition %d of %d", i, n)
	}
	return nil
}
