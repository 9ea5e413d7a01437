package process

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/specialistvlad/burstgraph/internal/cachedgraph"
	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/graphstore"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// Traversal is an ordered sequence of steps plus the strategies that rewrite
// it and the side-effects its steps share. It is the unit of compilation,
// cloning and execution.
//
// A Traversal is not safe for concurrent use. Run clones in parallel
// instead.
type Traversal struct {
	steps       []Step
	strategies  *Strategies
	sideEffects *SideEffects
	// inheritSideEffects makes SideEffects resolve to the holder's owner.
	inheritSideEffects bool

	// holder is the step owning this traversal when it is a child.
	holder TraversalHolder
	// store is only set on roots and on children with their own view of
	// the graph; everyone else resolves it through the holder chain.
	store    graphstore.Store
	sackInit func() any

	starts []traverser.Traverser

	applied   bool
	reqs      traverser.Requirements
	reqsValid bool

	ctx         context.Context
	interrupted *atomic.Bool

	// err records the first failure of a fluent builder call. It is
	// returned by ApplyStrategies and every subsequent Next.
	err error
}

func newTraversal() *Traversal {
	return &Traversal{
		strategies:  NewStrategies(),
		sideEffects: NewSideEffects(),
		interrupted: &atomic.Bool{},
	}
}

// Anon returns an empty traversal meant to be nested inside another one,
// for example as the child of Local.
func Anon() *Traversal {
	return newTraversal()
}

// Err returns the first error recorded by a builder call.
func (t *Traversal) Err() error { return t.err }

func (t *Traversal) fail(err error) *Traversal {
	if t.err == nil {
		t.err = err
	}
	return t
}

// root returns the outermost traversal of a nesting chain.
func (t *Traversal) root() *Traversal {
	cur := t
	for cur.holder != nil && cur.holder.Traversal() != nil {
		cur = cur.holder.Traversal()
	}
	return cur
}

// Root returns the outermost traversal. Path tracking and sacks are decided
// there.
func (t *Traversal) Root() *Traversal { return t.root() }

// Parent returns the traversal owning this one's holder step, or nil for a
// root traversal.
func (t *Traversal) Parent() *Traversal {
	if t.holder == nil {
		return nil
	}
	return t.holder.Traversal()
}

// Holder returns the step that owns this traversal, or nil for a root.
func (t *Traversal) Holder() TraversalHolder { return t.holder }

// IsRoot reports whether the traversal is not nested in another one.
func (t *Traversal) IsRoot() bool { return t.Parent() == nil }

// Steps returns a copy of the step sequence.
func (t *Traversal) Steps() []Step { return slices.Clone(t.steps) }

// Len returns the number of steps.
func (t *Traversal) Len() int { return len(t.steps) }

// Step returns the step at position i.
func (t *Traversal) Step(i int) Step { return t.steps[i] }

// StepNames returns the type names of the steps, in order.
func (t *Traversal) StepNames() []string {
	names := make([]string, len(t.steps))
	for i, s := range t.steps {
		names[i] = stepName(s)
	}
	return names
}

// String renders the step sequence, including nested traversals.
func (t *Traversal) String() string {
	parts := make([]string, len(t.steps))
	for i, s := range t.steps {
		parts[i] = describe(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Store returns the graph the traversal reads from.
func (t *Traversal) Store() graphstore.Store {
	for cur := t; cur != nil; cur = cur.Parent() {
		if cur.store != nil {
			return cur.store
		}
	}
	return nil
}

// UseStore binds a graph store to this traversal. A child traversal with its
// own store no longer reads through its parent's.
func (t *Traversal) UseStore(s graphstore.Store) error {
	if t.applied {
		return ErrTraversalLocked
	}
	t.store = s
	return nil
}

// SideEffects returns the side-effects visible to the traversal's steps.
func (t *Traversal) SideEffects() *SideEffects {
	if t.inheritSideEffects {
		if p := t.Parent(); p != nil {
			return p.SideEffects()
		}
	}
	return t.sideEffects
}

// Strategies returns the strategy set that ApplyStrategies uses.
func (t *Traversal) Strategies() *Strategies { return t.strategies }

// WithStrategies registers additional strategies. It fails once strategies
// have been applied.
func (t *Traversal) WithStrategies(ss ...Strategy) error {
	if t.applied {
		return ErrTraversalLocked
	}
	t.strategies = t.strategies.With(ss...)
	t.inheritStrategies()
	return nil
}

// WithoutStrategies drops strategies by name. It fails once strategies have
// been applied.
func (t *Traversal) WithoutStrategies(names ...string) error {
	if t.applied {
		return ErrTraversalLocked
	}
	t.strategies = t.strategies.Without(names...)
	t.inheritStrategies()
	return nil
}

// inheritStrategies copies this traversal's strategies into every nested
// traversal, recursively.
func (t *Traversal) inheritStrategies() {
	for _, s := range t.steps {
		h, ok := s.(TraversalHolder)
		if !ok {
			continue
		}
		for _, c := range h.Children() {
			if c.applied {
				continue
			}
			c.strategies = t.strategies.Clone()
			c.inheritStrategies()
		}
	}
}

// Applied reports whether strategies have been applied.
func (t *Traversal) Applied() bool { return t.applied }

// AddStep appends s to the step sequence.
func (t *Traversal) AddStep(s Step) error {
	return t.InsertStep(len(t.steps), s)
}

// InsertStep inserts s at position i.
func (t *Traversal) InsertStep(i int, s Step) error {
	if t.applied {
		return ErrTraversalLocked
	}
	if i < 0 || i > len(t.steps) {
		return fmt.Errorf("process: step index %d out of range [0,%d]", i, len(t.steps))
	}
	if owner := s.Traversal(); owner != nil {
		return fmt.Errorf("%w: %s", ErrStepOwned, stepName(s))
	}
	t.steps = slices.Insert(t.steps, i, s)
	t.rebind()
	if h, ok := s.(TraversalHolder); ok {
		for _, c := range h.Children() {
			c.strategies = t.strategies.Clone()
			c.inheritStrategies()
		}
	}
	t.invalidate()
	return nil
}

// RemoveStep detaches and returns the step at position i. The returned step
// may be added to another traversal.
func (t *Traversal) RemoveStep(i int) (Step, error) {
	if t.applied {
		return nil, ErrTraversalLocked
	}
	if i < 0 || i >= len(t.steps) {
		return nil, fmt.Errorf("process: step index %d out of range [0,%d)", i, len(t.steps))
	}
	s := t.steps[i]
	t.steps = slices.Delete(t.steps, i, i+1)
	s.base().unbind()
	t.rebind()
	t.invalidate()
	return s, nil
}

// ReplaceStep swaps the step at position i for s, carrying its labels over.
func (t *Traversal) ReplaceStep(i int, s Step) error {
	old, err := t.RemoveStep(i)
	if err != nil {
		return err
	}
	s.base().addLabels(old.Labels()...)
	return t.InsertStep(i, s)
}

func (t *Traversal) rebind() {
	for i, s := range t.steps {
		s.base().bind(t, i, s)
	}
}

// invalidate drops cached requirements here and in every enclosing
// traversal, since theirs include ours.
func (t *Traversal) invalidate() {
	for cur := t; cur != nil; cur = cur.Parent() {
		cur.reqsValid = false
	}
}

// Requirements returns the union of the requirements of every step,
// including steps of nested traversals. The result is cached until the
// step sequence changes.
func (t *Traversal) Requirements() traverser.Requirements {
	if t.reqsValid {
		return t.reqs
	}
	var reqs traverser.Requirements
	for _, s := range t.steps {
		reqs = reqs.Union(s.Requirements())
	}
	if t.sackInit != nil {
		reqs = reqs.With(traverser.RequireSack)
	}
	t.reqs = reqs
	t.reqsValid = true
	return reqs
}

// ApplyStrategies runs every registered strategy once, in sorted order, and
// then applies the nested traversals' strategies. Calling it again is a
// no-op. After it returns the step sequence is locked.
func (t *Traversal) ApplyStrategies() error {
	if t.applied {
		return nil
	}
	if t.err != nil {
		return t.err
	}

	sorted, err := t.strategies.Sorted()
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(t.context())
	for _, s := range sorted {
		logger.Debug("Applying traversal strategy.", "strategy", s.Name(), "category", s.Category().String(), "root", t.IsRoot())
		if err := s.Apply(t); err != nil {
			return fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
	}
	if len(t.steps) == 0 {
		if err := t.AddStep(NewIdentityStep()); err != nil {
			return err
		}
	}
	for _, s := range t.steps {
		h, ok := s.(TraversalHolder)
		if !ok {
			continue
		}
		for _, c := range h.Children() {
			if err := c.ApplyStrategies(); err != nil {
				return err
			}
		}
	}

	t.applied = true
	t.invalidate()
	return nil
}

// AddStart seeds the head of the pipeline with one traverser. Path and sack
// slots are added when the root traversal needs them.
func (t *Traversal) AddStart(tr traverser.Traverser) {
	root := t.root()
	reqs := root.Requirements()
	if reqs.TracksPath() && !tr.TracksPath() {
		tr = tr.WithPath(traverser.Path{})
	}
	if _, ok := tr.Sack(); !ok && root.sackInit != nil {
		tr = tr.WithSack(root.sackInit())
	}
	t.starts = append(t.starts, tr)
}

func (t *Traversal) nextStart() (traverser.Traverser, error) {
	if len(t.starts) == 0 {
		return traverser.Traverser{}, ErrNoMoreResults
	}
	tr := t.starts[0]
	t.starts = t.starts[1:]
	return tr, nil
}

// Reset clears the execution state of every step and the start buffer. The
// step sequence, strategies and side-effects are kept.
func (t *Traversal) Reset() {
	for _, s := range t.steps {
		s.Reset()
	}
	t.starts = nil
}

// Next applies strategies on first use and pulls the next traverser from
// the last step.
func (t *Traversal) Next() (traverser.Traverser, error) {
	if t.err != nil {
		return traverser.Traverser{}, t.err
	}
	if err := t.ApplyStrategies(); err != nil {
		return traverser.Traverser{}, err
	}
	return t.steps[len(t.steps)-1].Next()
}

// HasNext reports whether Next would return a traverser or a failure.
func (t *Traversal) HasNext() bool {
	if t.err != nil {
		return true
	}
	if err := t.ApplyStrategies(); err != nil {
		return true
	}
	return t.steps[len(t.steps)-1].HasNext()
}

// Traversers drains the traversal and returns its output traversers. ctx
// bounds the run: once it is done the traversal fails with ErrInterrupted.
func (t *Traversal) Traversers(ctx context.Context) ([]traverser.Traverser, error) {
	t.bind(ctx)
	var out []traverser.Traverser
	for {
		tr, err := t.Next()
		if errors.Is(err, ErrNoMoreResults) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
}

// ToList drains the traversal and returns its results, repeating each value
// as many times as its traverser's bulk.
func (t *Traversal) ToList(ctx context.Context) ([]any, error) {
	trs, err := t.Traversers(ctx)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, tr := range trs {
		for range tr.Bulk() {
			out = append(out, tr.Value())
		}
	}
	return out, nil
}

// Iterate drains the traversal for its side-effects only.
func (t *Traversal) Iterate(ctx context.Context) error {
	_, err := t.Traversers(ctx)
	return err
}

func (t *Traversal) bind(ctx context.Context) {
	t.root().ctx = ctx
}

func (t *Traversal) context() context.Context {
	if r := t.root(); r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// Interrupt asks the traversal to stop. Expansion steps notice it before
// their next graph access and fail with ErrInterrupted. It is safe to call
// from another goroutine.
func (t *Traversal) Interrupt() {
	t.root().interrupted.Store(true)
}

// Interrupted reports whether Interrupt was called.
func (t *Traversal) Interrupted() bool {
	return t.root().interrupted.Load()
}

func (t *Traversal) checkInterrupt() error {
	if t.interrupted.Load() {
		return ErrInterrupted
	}
	if t.ctx != nil {
		if err := t.ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the traversal: steps, their buffers, nested
// traversals and side-effects are all copied, and every step of the copy is
// bound to the copy. Either everything is copied or an error wrapping
// ErrCloneFailed is returned.
func (t *Traversal) Clone() (*Traversal, error) {
	c := &Traversal{
		strategies:         t.strategies.Clone(),
		inheritSideEffects: t.inheritSideEffects,
		holder:             t.holder,
		store:              t.store,
		sackInit:           t.sackInit,
		applied:            t.applied,
		reqs:               t.reqs,
		reqsValid:          t.reqsValid,
		ctx:                t.ctx,
		interrupted:        &atomic.Bool{},
		err:                t.err,
	}
	c.interrupted.Store(t.interrupted.Load())

	sideEffects, err := t.sideEffects.Clone()
	if err != nil {
		return nil, fmt.Errorf("%w: side-effects: %w", ErrCloneFailed, err)
	}
	c.sideEffects = sideEffects

	if cached, ok := t.store.(*cachedgraph.Store); ok {
		fresh, err := cached.Fresh()
		if err != nil {
			return nil, fmt.Errorf("%w: adjacency cache: %w", ErrCloneFailed, err)
		}
		c.store = fresh
	}

	c.starts = make([]traverser.Traverser, len(t.starts))
	for i, s := range t.starts {
		c.starts[i] = s.Clone()
	}

	c.steps = make([]Step, len(t.steps))
	for i, s := range t.steps {
		cs, err := s.Clone()
		if err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %w", ErrCloneFailed, i, stepName(s), err)
		}
		c.steps[i] = cs
	}
	c.rebind()
	return c, nil
}
