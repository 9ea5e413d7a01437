package process

import (
	"fmt"

	"github.com/specialistvlad/burstgraph/internal/structure"
)

// add appends a step and records any failure for Err and Next.
func (t *Traversal) add(s Step) *Traversal {
	if t.err != nil {
		return t
	}
	if err := t.AddStep(s); err != nil {
		return t.fail(err)
	}
	return t
}

// As labels the last step. Labeled values can be read back with Select.
func (t *Traversal) As(labels ...string) *Traversal {
	if t.err != nil {
		return t
	}
	if t.applied {
		return t.fail(ErrTraversalLocked)
	}
	if len(t.steps) == 0 {
		return t.fail(fmt.Errorf("process: As(%v) needs a preceding step", labels))
	}
	t.steps[len(t.steps)-1].base().addLabels(labels...)
	return t
}

func (t *Traversal) Out(edgeLabels ...string) *Traversal {
	return t.add(NewVertexStep(structure.DirectionOut, false, edgeLabels...))
}

func (t *Traversal) In(edgeLabels ...string) *Traversal {
	return t.add(NewVertexStep(structure.DirectionIn, false, edgeLabels...))
}

func (t *Traversal) Both(edgeLabels ...string) *Traversal {
	return t.add(NewVertexStep(structure.DirectionBoth, false, edgeLabels...))
}

func (t *Traversal) OutE(edgeLabels ...string) *Traversal {
	return t.add(NewVertexStep(structure.DirectionOut, true, edgeLabels...))
}

func (t *Traversal) InE(edgeLabels ...string) *Traversal {
	return t.add(NewVertexStep(structure.DirectionIn, true, edgeLabels...))
}

func (t *Traversal) BothE(edgeLabels ...string) *Traversal {
	return t.add(NewVertexStep(structure.DirectionBoth, true, edgeLabels...))
}

func (t *Traversal) OutV() *Traversal {
	return t.add(NewEdgeVertexStep(structure.DirectionOut))
}

func (t *Traversal) InV() *Traversal {
	return t.add(NewEdgeVertexStep(structure.DirectionIn))
}

func (t *Traversal) BothV() *Traversal {
	return t.add(NewEdgeVertexStep(structure.DirectionBoth))
}

func (t *Traversal) Values(keys ...string) *Traversal {
	return t.add(NewPropertiesStep(keys...))
}

// Has keeps elements whose property key satisfies p.
func (t *Traversal) Has(key string, p P) *Traversal {
	return t.add(NewHasStep(key, p))
}

func (t *Traversal) HasLabel(labels ...string) *Traversal {
	return t.add(NewHasLabelStep(labels...))
}

func (t *Traversal) Is(p P) *Traversal { return t.add(NewIsStep(p)) }

func (t *Traversal) Dedup() *Traversal { return t.add(NewDedupStep()) }

func (t *Traversal) Count() *Traversal { return t.add(NewCountStep()) }

func (t *Traversal) Fold() *Traversal { return t.add(NewFoldStep()) }

func (t *Traversal) Unfold() *Traversal { return t.add(NewUnfoldStep()) }

// Order sorts by value, or by property by when it is not empty.
func (t *Traversal) Order(by string, order Order) *Traversal {
	return t.add(NewOrderStep(by, order))
}

// Range keeps results in positions [low, high); high < 0 means unbounded.
func (t *Traversal) Range(low, high int64) *Traversal {
	return t.add(NewRangeStep(low, high))
}

// Limit keeps the first n results.
func (t *Traversal) Limit(n int64) *Traversal { return t.Range(0, n) }

func (t *Traversal) Select(labels ...string) *Traversal {
	return t.add(NewSelectStep(labels...))
}

func (t *Traversal) Path() *Traversal { return t.add(NewPathStep()) }

func (t *Traversal) Identity() *Traversal { return t.add(NewIdentityStep()) }

func (t *Traversal) ID() *Traversal { return t.add(NewIDStep()) }

func (t *Traversal) Label() *Traversal { return t.add(NewLabelStep()) }

func (t *Traversal) Constant(v any) *Traversal { return t.add(NewConstantStep(v)) }

func (t *Traversal) Map(fn MapFunc) *Traversal { return t.add(NewMapStep(fn)) }

func (t *Traversal) FlatMap(fn FlatMapFunc) *Traversal { return t.add(NewFlatMapStep(fn)) }

func (t *Traversal) Filter(fn FilterFunc) *Traversal { return t.add(NewFilterStep(fn)) }

func (t *Traversal) SideEffect(fn SideEffectFunc) *Traversal {
	return t.add(NewSideEffectStep(fn))
}

func (t *Traversal) Aggregate(key string) *Traversal { return t.add(NewAggregateStep(key)) }

func (t *Traversal) Cap(keys ...string) *Traversal { return t.add(NewCapStep(keys...)) }

// Barrier inserts an explicit NoOpBarrierStep.
func (t *Traversal) Barrier() *Traversal { return t.add(NewNoOpBarrierStep()) }

// Sack updates traverser sacks with op; by selects a property operand.
func (t *Traversal) Sack(op SackOperator, by string) *Traversal {
	return t.add(NewSackStep(op, by))
}

// SackValue maps each traverser to its sack.
func (t *Traversal) SackValue() *Traversal { return t.add(NewSackValueStep()) }

// Local runs child once per traverser with isolated side-effects.
func (t *Traversal) Local(child *Traversal) *Traversal {
	return t.LocalWithScope(child, SideEffectsIsolated)
}

// LocalWithScope runs child once per traverser with the given side-effect
// scope.
func (t *Traversal) LocalWithScope(child *Traversal, scope SideEffectScope) *Traversal {
	if t.err != nil {
		return t
	}
	if child.err != nil {
		return t.fail(child.err)
	}
	if child.holder != nil {
		return t.fail(fmt.Errorf("%w: child traversal is already nested", ErrStepOwned))
	}
	return t.add(NewLocalStep(child, scope))
}
