package strategy

import (
	"github.com/specialistvlad/burstgraph/internal/process"
	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// IdentityRemoval drops unlabeled IdentitySteps.
type IdentityRemoval struct{}

func (IdentityRemoval) Name() string               { return NameIdentityRemoval }
func (IdentityRemoval) Category() process.Category { return process.CategoryOptimization }
func (IdentityRemoval) Priors() []string           { return nil }
func (IdentityRemoval) Posteriors() []string       { return nil }

func (IdentityRemoval) Apply(t *process.Traversal) error {
	for i := t.Len() - 1; i >= 0; i-- {
		s := t.Step(i)
		if _, ok := s.(*process.IdentityStep); !ok || len(s.Labels()) > 0 {
			continue
		}
		if _, err := t.RemoveStep(i); err != nil {
			return err
		}
	}
	return nil
}

// IncidentToAdjacent rewrites outE().inV() into out() and inE().outV() into
// in(), skipping the edge traversers entirely.
type IncidentToAdjacent struct{}

func (IncidentToAdjacent) Name() string               { return NameIncidentToAdjacent }
func (IncidentToAdjacent) Category() process.Category { return process.CategoryOptimization }
func (IncidentToAdjacent) Priors() []string           { return nil }
func (IncidentToAdjacent) Posteriors() []string       { return nil }

func (IncidentToAdjacent) Apply(t *process.Traversal) error {
	if tracksPath(t) {
		return nil
	}
	for i := 0; i+1 < t.Len(); i++ {
		vs, ok := t.Step(i).(*process.VertexStep)
		if !ok || !vs.ReturnsEdges() || len(vs.Labels()) > 0 {
			continue
		}
		ev, ok := t.Step(i + 1).(*process.EdgeVertexStep)
		if !ok {
			continue
		}
		dir := vs.Direction()
		if dir == structure.DirectionBoth || ev.Direction() != dir.Opposite() {
			continue
		}
		if _, err := t.RemoveStep(i); err != nil {
			return err
		}
		// The adjacent step takes over the labels of the vertex step it
		// replaces.
		if err := t.ReplaceStep(i, process.NewVertexStep(dir, false, vs.EdgeLabels()...)); err != nil {
			return err
		}
	}
	return nil
}

// AdjacentToIncident rewrites out().count() into outE().count(): counting
// edges gives the same number without loading the adjacent vertices.
type AdjacentToIncident struct{}

func (AdjacentToIncident) Name() string               { return NameAdjacentToIncident }
func (AdjacentToIncident) Category() process.Category { return process.CategoryOptimization }
func (AdjacentToIncident) Priors() []string           { return []string{NameIncidentToAdjacent} }
func (AdjacentToIncident) Posteriors() []string       { return nil }

func (AdjacentToIncident) Apply(t *process.Traversal) error {
	for i := 0; i+1 < t.Len(); i++ {
		vs, ok := t.Step(i).(*process.VertexStep)
		if !ok || vs.ReturnsEdges() || len(vs.Labels()) > 0 {
			continue
		}
		if _, ok := t.Step(i + 1).(*process.CountStep); !ok {
			continue
		}
		if err := t.ReplaceStep(i, process.NewVertexStep(vs.Direction(), true, vs.EdgeLabels()...)); err != nil {
			return err
		}
	}
	return nil
}

// LazyBarrier inserts a NoOpBarrierStep after every expansion of a root
// traversal, so that traversers reaching the same element are merged into
// one with a larger bulk before the next step runs. Traversals whose
// traversers carry paths or sacks are left alone, since those traversers
// rarely merge.
type LazyBarrier struct{}

func (LazyBarrier) Name() string               { return NameLazyBarrier }
func (LazyBarrier) Category() process.Category { return process.CategoryOptimization }
func (LazyBarrier) Priors() []string {
	return []string{NameIdentityRemoval, NameIncidentToAdjacent, NameAdjacentToIncident}
}
func (LazyBarrier) Posteriors() []string { return nil }

func (LazyBarrier) Apply(t *process.Traversal) error {
	if !t.IsRoot() {
		return nil
	}
	reqs := t.Requirements()
	if reqs.TracksPath() || reqs.Has(traverser.RequireSack) {
		return nil
	}
	for i := 0; i+1 < t.Len(); i++ {
		if _, ok := t.Step(i).(*process.VertexStep); !ok {
			continue
		}
		if _, ok := t.Step(i + 1).(process.Barrier); ok {
			continue
		}
		if err := t.InsertStep(i+1, process.NewNoOpBarrierStep()); err != nil {
			return err
		}
		i++
	}
	return nil
}
