package process

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/burstgraph/internal/graphstore"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// Step is one stage of a traversal pipeline. Steps pull traversers from
// their predecessor on demand and yield transformed traversers to their
// successor.
//
// The set of step kinds is closed: every implementation lives in this
// package and embeds stepBase.
type Step interface {
	// Next returns the next output traverser or ErrNoMoreResults once the
	// step is exhausted. Exhaustion and failures are sticky until Reset.
	Next() (traverser.Traverser, error)
	// HasNext reports whether Next would return a traverser or a failure.
	HasNext() bool
	// Reset discards buffered execution state.
	Reset()
	// Clone returns a copy with independent execution state. The copy has
	// no owner until it is added to a traversal.
	Clone() (Step, error)
	// Requirements returns what traversers flowing through the step need.
	Requirements() traverser.Requirements
	// Labels returns the step labels assigned with As.
	Labels() []string
	// Traversal returns the owning traversal, or nil for a detached step.
	Traversal() *Traversal
	// Index returns the position of the step inside its owner.
	Index() int

	base() *stepBase
	processNext() (traverser.Traverser, error)
	resetState()
}

// TraversalHolder is implemented by steps that own child traversals.
type TraversalHolder interface {
	Step
	Children() []*Traversal
}

// Combiner is implemented by reducing barriers whose per-partition results
// can be folded into a single result.
type Combiner interface {
	Step
	Combine(partials []any) (any, error)
}

// Barrier is implemented by steps that drain their predecessor before
// emitting anything.
type Barrier interface {
	Step
	barrier()
}

// Partitionable is implemented by start steps that can restrict themselves
// to one share of their input.
type Partitionable interface {
	Step
	// SetPartition limits the step to share i of n.
	SetPartition(i, n int) error
}

// role decides how a step's output is recorded in a traverser path.
type role int

const (
	// roleExtend steps produce a new value and append a path entry in full
	// path mode.
	roleExtend role = iota
	// rolePass steps emit the traversers they receive; their labels are
	// attached to the latest path entry in full path mode.
	rolePass
)

// stepBase holds the state shared by every step: the non-owning link back
// to the owning traversal, the position in its step slice, labels and the
// pull protocol's peek and sticky-error slots.
type stepBase struct {
	owner  *Traversal
	index  int
	self   Step
	role   role
	labels []string

	peeked    traverser.Traverser
	hasPeeked bool
	err       error
}

func (b *stepBase) base() *stepBase { return b }

func (b *stepBase) bind(owner *Traversal, index int, self Step) {
	b.owner = owner
	b.index = index
	b.self = self
}

func (b *stepBase) unbind() {
	b.owner = nil
	b.index = 0
	b.self = nil
}

// shallowClone copies a step whose state has no reference fields that need
// deep copying. The copy is detached.
func shallowClone[S any, P interface {
	*S
	Step
}](s P) P {
	c := P(new(S))
	*c = *s
	c.base().unbind()
	c.base().labels = slices.Clone(s.base().labels)
	return c
}

// Traversal returns the owning traversal.
func (b *stepBase) Traversal() *Traversal { return b.owner }

// Index returns the position of the step inside its owner.
func (b *stepBase) Index() int { return b.index }

// Labels returns a copy of the step labels.
func (b *stepBase) Labels() []string { return slices.Clone(b.labels) }

// Requirements of most steps are empty.
func (b *stepBase) Requirements() traverser.Requirements { return 0 }

func (b *stepBase) addLabels(labels ...string) {
	for _, l := range labels {
		if !slices.Contains(b.labels, l) {
			b.labels = append(b.labels, l)
		}
	}
}

func (b *stepBase) resetState() {}

// Reset clears the pull state and the step's own buffers.
func (b *stepBase) Reset() {
	b.hasPeeked = false
	b.peeked = traverser.Traverser{}
	b.err = nil
	if b.self != nil {
		b.self.resetState()
	}
}

// Next implements the pull protocol on top of the step's processNext.
func (b *stepBase) Next() (traverser.Traverser, error) {
	if b.hasPeeked {
		t := b.peeked
		b.hasPeeked = false
		b.peeked = traverser.Traverser{}
		return t, nil
	}
	if b.err != nil {
		return traverser.Traverser{}, b.err
	}
	if b.self == nil || b.owner == nil {
		return traverser.Traverser{}, fmt.Errorf("process: step %s is not attached to a traversal", stepName(b.self))
	}

	t, err := b.self.processNext()
	if err == nil {
		t, err = b.recordPath(t)
	}
	if err != nil {
		b.err = err
		return traverser.Traverser{}, err
	}
	return t, nil
}

// HasNext peeks one traverser ahead. A failure other than exhaustion makes
// HasNext return true so that the following Next call surfaces it.
func (b *stepBase) HasNext() bool {
	if b.hasPeeked {
		return true
	}
	t, err := b.Next()
	if err == nil {
		b.peeked = t
		b.hasPeeked = true
		return true
	}
	return !errors.Is(err, ErrNoMoreResults)
}

// recordPath applies the path tracking mode of the root traversal to an
// outgoing traverser.
func (b *stepBase) recordPath(t traverser.Traverser) (traverser.Traverser, error) {
	reqs := b.owner.root().Requirements()
	switch {
	case reqs.Has(traverser.RequirePath):
		if !t.TracksPath() {
			return t, fmt.Errorf("%w: %s emitted a traverser without a path", ErrRequirementViolation, stepName(b.self))
		}
		if b.role == roleExtend || t.Path().Len() == 0 {
			return t.WithPathEntry(b.labels, t.Value())
		}
		if len(b.labels) > 0 {
			return t.WithLabels(b.labels...)
		}
	case reqs.Has(traverser.RequireLabeledPath):
		if len(b.labels) == 0 {
			return t, nil
		}
		if !t.TracksPath() {
			return t, fmt.Errorf("%w: %s emitted a traverser without a path", ErrRequirementViolation, stepName(b.self))
		}
		return t.WithPathEntry(b.labels, t.Value())
	}
	return t, nil
}

// pull returns the next traverser from the predecessor, or from the owner's
// start buffer for the head step.
func (b *stepBase) pull() (traverser.Traverser, error) {
	if b.index == 0 {
		return b.owner.nextStart()
	}
	return b.owner.steps[b.index-1].Next()
}

// checkInterrupt fails with ErrInterrupted once the root traversal has been
// interrupted or its context is done.
func (b *stepBase) checkInterrupt() error {
	return b.owner.root().checkInterrupt()
}

func (b *stepBase) store() (graphstore.Store, error) {
	s := b.owner.Store()
	if s == nil {
		return nil, fmt.Errorf("process: %s needs a graph store but none is bound", stepName(b.self))
	}
	return s, nil
}

// generate creates a traverser with the root traversal's requirements and
// initial sack.
func (b *stepBase) generate(value any) traverser.Traverser {
	root := b.owner.root()
	t := traverser.New(value, root.Requirements())
	if root.sackInit != nil {
		t = t.WithSack(root.sackInit())
	}
	return t
}

func stepName(s Step) string {
	if s == nil {
		return "<nil>"
	}
	name := fmt.Sprintf("%T", s)
	return strings.TrimPrefix(name, "*process.")
}

// describe renders a step for logs and for Traversal.String.
func describe(s Step) string {
	var sb strings.Builder
	sb.WriteString(stepName(s))
	if d, ok := s.(interface{ args() string }); ok {
		if a := d.args(); a != "" {
			sb.WriteString("(" + a + ")")
		}
	}
	if h, ok := s.(TraversalHolder); ok {
		for _, c := range h.Children() {
			sb.WriteString(c.String())
		}
	}
	if labels := s.Labels(); len(labels) > 0 {
		sb.WriteString("@" + strings.Join(labels, ","))
	}
	return sb.String()
}
