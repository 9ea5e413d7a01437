package process

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// SideEffectScope decides which side-effects the child of a LocalStep sees.
type SideEffectScope int

const (
	// SideEffectsIsolated gives the child its own side-effects, restored to
	// their initial values every time the child is re-seeded.
	SideEffectsIsolated SideEffectScope = iota
	// SideEffectsInherited makes the child read and write the side-effects
	// of the traversal owning the LocalStep.
	SideEffectsInherited
)

// String returns the configuration name of the scope.
func (s SideEffectScope) String() string {
	if s == SideEffectsInherited {
		return "inherited"
	}
	return "isolated"
}

// ParseSideEffectScope parses "isolated" or "inherited". The empty string
// selects the default, isolated.
func ParseSideEffectScope(raw string) (SideEffectScope, error) {
	switch raw {
	case "", "isolated":
		return SideEffectsIsolated, nil
	case "inherited":
		return SideEffectsInherited, nil
	default:
		return 0, fmt.Errorf("invalid side-effect scope %q: must be 'isolated' or 'inherited'", raw)
	}
}

// LocalStep runs a child traversal once per incoming traverser. For every
// traverser pulled from upstream it resets the child, seeds it with that
// traverser alone and emits the child's output, so no state from one
// traverser's computation reaches another's.
//
// Outputs descend from the incoming traverser: they keep its path and carry
// the child result as value, with the child's bulk multiplied by the
// incoming bulk.
type LocalStep struct {
	stepBase
	child *Traversal
	scope SideEffectScope

	// seed resets and re-seeds child. It is bound to this step's child and
	// rebuilt by Clone.
	seed func(t traverser.Traverser) error

	head    traverser.Traverser
	hasHead bool
}

// NewLocalStep creates a local step owning child. The child must not belong
// to another step.
func NewLocalStep(child *Traversal, scope SideEffectScope) *LocalStep {
	s := &LocalStep{child: child, scope: scope}
	child.holder = s
	child.inheritSideEffects = scope == SideEffectsInherited
	s.seed = s.seedFunc()
	return s
}

// Child returns the nested traversal.
func (s *LocalStep) Child() *Traversal { return s.child }

// Children implements TraversalHolder.
func (s *LocalStep) Children() []*Traversal { return []*Traversal{s.child} }

// Scope returns the side-effect scope of the child.
func (s *LocalStep) Scope() SideEffectScope { return s.scope }

// Requirements are those of the child traversal.
func (s *LocalStep) Requirements() traverser.Requirements {
	return s.child.Requirements()
}

func (s *LocalStep) seedFunc() func(t traverser.Traverser) error {
	child := s.child
	isolated := s.scope == SideEffectsIsolated
	return func(t traverser.Traverser) error {
		child.Reset()
		if isolated {
			if err := child.sideEffects.Reset(); err != nil {
				return err
			}
		}
		single, err := t.WithBulk(1)
		if err != nil {
			return err
		}
		child.AddStart(single)
		return nil
	}
}

func (s *LocalStep) processNext() (traverser.Traverser, error) {
	for {
		if s.hasHead {
			out, err := s.child.Next()
			if err == nil {
				return s.descend(out)
			}
			if !errors.Is(err, ErrNoMoreResults) {
				return traverser.Traverser{}, err
			}
			s.hasHead = false
		}

		t, err := s.pull()
		if err != nil {
			return t, err
		}
		ctxlog.FromContext(s.owner.context()).Debug("Re-seeding local traversal.", "value", t.Value(), "bulk", t.Bulk())
		if err := s.seed(t); err != nil {
			return traverser.Traverser{}, err
		}
		s.head = t
		s.hasHead = true
	}
}

func (s *LocalStep) descend(out traverser.Traverser) (traverser.Traverser, error) {
	hi, bulk := bits.Mul64(out.Bulk(), s.head.Bulk())
	if hi != 0 {
		return traverser.Traverser{}, fmt.Errorf("%w: bulk %d times %d overflows", ErrBulkOverflow, out.Bulk(), s.head.Bulk())
	}
	t, err := s.head.Split(out.Value()).WithBulk(bulk)
	if err != nil {
		return traverser.Traverser{}, err
	}
	if sack, ok := out.Sack(); ok {
		t = t.WithSack(sack)
	}
	return t, nil
}

func (s *LocalStep) resetState() {
	s.child.Reset()
	s.head = traverser.Traverser{}
	s.hasHead = false
}

// Clone deep-copies the child traversal, points the copy's holder at the
// cloned step and rebuilds the seed function around the copied child.
func (s *LocalStep) Clone() (Step, error) {
	child, err := s.child.Clone()
	if err != nil {
		return nil, err
	}
	c := shallowClone(s)
	c.child = child
	child.holder = c
	c.head = s.head.Clone()
	c.seed = c.seedFunc()
	return c, nil
}

// IsIsolatedToOneExpansion reports whether at most one VertexStep precedes
// this step in its owning traversal. When it holds, the child only ever
// reads the neighbourhood of the vertex it was seeded with.
func (s *LocalStep) IsIsolatedToOneExpansion() bool {
	if s.owner == nil {
		return true
	}
	expansions := 0
	for _, step := range s.owner.steps[:s.index] {
		if _, ok := step.(*VertexStep); ok {
			expansions++
			if expansions > 1 {
				return false
			}
		}
	}
	return true
}
