package process

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/burstgraph/internal/graphstore"
	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// VertexStep expands a vertex into its adjacent vertices or incident edges.
// It is the only step that walks adjacency in the graph store, and the one
// counted by LocalStep.IsIsolatedToOneExpansion.
type VertexStep struct {
	stepBase
	direction    structure.Direction
	edgeLabels   []string
	returnsEdges bool

	buffer []traverser.Traverser
}

// NewVertexStep creates an expansion step. With returnsEdges the step emits
// incident edges instead of adjacent vertices.
func NewVertexStep(dir structure.Direction, returnsEdges bool, edgeLabels ...string) *VertexStep {
	return &VertexStep{direction: dir, returnsEdges: returnsEdges, edgeLabels: edgeLabels}
}

// Direction returns the direction the step walks.
func (s *VertexStep) Direction() structure.Direction { return s.direction }

// EdgeLabels returns the edge label filter.
func (s *VertexStep) EdgeLabels() []string { return slices.Clone(s.edgeLabels) }

// ReturnsEdges reports whether the step emits edges.
func (s *VertexStep) ReturnsEdges() bool { return s.returnsEdges }

func (s *VertexStep) processNext() (traverser.Traverser, error) {
	for {
		if len(s.buffer) > 0 {
			t := s.buffer[0]
			s.buffer = s.buffer[1:]
			return t, nil
		}
		if err := s.checkInterrupt(); err != nil {
			return traverser.Traverser{}, err
		}
		t, err := s.pull()
		if err != nil {
			return traverser.Traverser{}, err
		}
		if err := s.expand(t); err != nil {
			return traverser.Traverser{}, err
		}
	}
}

func (s *VertexStep) expand(t traverser.Traverser) error {
	v, ok := t.Value().(*structure.Vertex)
	if !ok {
		return fmt.Errorf("%w: VertexStep expects a vertex, got %T", ErrUnexpectedValue, t.Value())
	}
	store, err := s.store()
	if err != nil {
		return err
	}
	ctx := s.owner.context()
	edges, err := store.IncidentEdges(ctx, v.ID, s.direction, s.edgeLabels...)
	if errors.Is(err, graphstore.ErrElementNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range edges {
		if s.returnsEdges {
			s.buffer = append(s.buffer, t.Split(e))
			continue
		}
		adj, found := store.Vertex(ctx, e.OtherVertexID(v.ID))
		if !found {
			continue
		}
		s.buffer = append(s.buffer, t.Split(adj))
	}
	return nil
}

func (s *VertexStep) resetState() { s.buffer = nil }

// Clone copies the step and its pending output.
func (s *VertexStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.buffer = cloneTraversers(s.buffer)
	return c, nil
}

func (s *VertexStep) args() string {
	to := "vertex"
	if s.returnsEdges {
		to = "edge"
	}
	if len(s.edgeLabels) == 0 {
		return fmt.Sprintf("%s,%s", s.direction, to)
	}
	return fmt.Sprintf("%s,%v,%s", s.direction, s.edgeLabels, to)
}

// EdgeVertexStep maps an edge to the vertex at one or both of its ends.
type EdgeVertexStep struct {
	stepBase
	direction structure.Direction

	buffer []traverser.Traverser
}

// NewEdgeVertexStep creates a step emitting the out vertex, the in vertex
// or both (out first).
func NewEdgeVertexStep(dir structure.Direction) *EdgeVertexStep {
	return &EdgeVertexStep{direction: dir}
}

// Direction returns the end of the edge the step emits.
func (s *EdgeVertexStep) Direction() structure.Direction { return s.direction }

func (s *EdgeVertexStep) processNext() (traverser.Traverser, error) {
	for {
		if len(s.buffer) > 0 {
			t := s.buffer[0]
			s.buffer = s.buffer[1:]
			return t, nil
		}
		if err := s.checkInterrupt(); err != nil {
			return traverser.Traverser{}, err
		}
		t, err := s.pull()
		if err != nil {
			return traverser.Traverser{}, err
		}
		e, ok := t.Value().(*structure.Edge)
		if !ok {
			return traverser.Traverser{}, fmt.Errorf("%w: EdgeVertexStep expects an edge, got %T", ErrUnexpectedValue, t.Value())
		}
		store, err := s.store()
		if err != nil {
			return traverser.Traverser{}, err
		}
		ends := []structure.ID{e.VertexID(s.direction)}
		if s.direction == structure.DirectionBoth {
			ends = []structure.ID{e.OutV, e.InV}
		}
		for _, id := range ends {
			if v, found := store.Vertex(s.owner.context(), id); found {
				s.buffer = append(s.buffer, t.Split(v))
			}
		}
	}
}

func (s *EdgeVertexStep) resetState() { s.buffer = nil }

// Clone copies the step and its pending output.
func (s *EdgeVertexStep) Clone() (Step, error) {
	c := shallowClone(s)
	c.buffer = cloneTraversers(s.buffer)
	return c, nil
}

func (s *EdgeVertexStep) args() string { return s.direction.String() }

func cloneTraversers(ts []traverser.Traverser) []traverser.Traverser {
	if ts == nil {
		return nil
	}
	out := make([]traverser.Traverser, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}
