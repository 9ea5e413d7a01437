// Package partition runs one traversal as several independent clones, each
// reading a share of the start step's input, and folds the clones' results
// back together.
//
// Every clone is a deep copy of the compiled template, so clones share no
// step buffers, nested traversals or side-effects. Side-effects are merged
// with their reducers only after every clone has finished.
package partition

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/process"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// ErrNotPartitionable is returned for traversals whose results would change
// if their input were split.
var ErrNotPartitionable = errors.New("partition: traversal cannot be partitioned")

// Result is the combined output of a partitioned run.
type Result struct {
	// Traversers are the outputs of every partition in partition order, or
	// the single combined output of a reducing tail step.
	Traversers []traverser.Traverser
	// SideEffects holds the side-effects of all partitions merged with
	// their reducers.
	SideEffects *process.SideEffects
}

// Values expands the result traversers by bulk.
func (r *Result) Values() []any {
	var out []any
	for _, t := range r.Traversers {
		for range t.Bulk() {
			out = append(out, t.Value())
		}
	}
	return out
}

// Run clones template n times and drains the clones concurrently. The
// template itself is only read, so one template may serve concurrent runs.
// When any partition fails the others are interrupted through ctx and the
// first failure is returned.
//
// Only the first clone starts from the template's side-effect values; the
// others start cleared, so merging counts every starting value once.
func Run(ctx context.Context, template *process.Traversal, n int) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	if n < 1 {
		return nil, fmt.Errorf("partition: invalid partition count %d", n)
	}
	first, err := template.Clone()
	if err != nil {
		return nil, err
	}
	if err := first.ApplyStrategies(); err != nil {
		return nil, err
	}
	if err := Check(first); err != nil {
		return nil, err
	}
	reqs := first.Requirements()

	clones := make([]*process.Traversal, n)
	for i := range clones {
		c := first
		if i > 0 {
			if c, err = first.Clone(); err != nil {
				return nil, err
			}
			c.SideEffects().Clear()
		}
		clones[i] = c
	}
	for i, c := range clones {
		head := c.Step(0).(process.Partitionable)
		if err := head.SetPartition(i, n); err != nil {
			return nil, err
		}
	}

	outputs := make([][]traverser.Traverser, n)
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range clones {
		g.Go(func() error {
			partLogger := logger.With("partition", i, "partitions", n)
			partLogger.Debug("Partition started.")
			out, err := c.Traversers(ctxlog.WithLogger(gctx, partLogger))
			if err != nil {
				partLogger.Debug("Partition failed.", "error", err)
				return fmt.Errorf("partition %d: %w", i, err)
			}
			outputs[i] = out
			partLogger.Debug("Partition finished.", "traversers", len(out))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	if combiner, ok := first.Step(first.Len() - 1).(process.Combiner); ok {
		combined, err := combine(combiner, outputs)
		if err != nil {
			return nil, err
		}
		res.Traversers = []traverser.Traverser{traverser.New(combined, reqs)}
	} else {
		for _, out := range outputs {
			res.Traversers = append(res.Traversers, out...)
		}
	}

	merged, err := mergeSideEffects(clones)
	if err != nil {
		return nil, err
	}
	res.SideEffects = merged
	logger.Debug("Partitioned run finished.", "partitions", n, "traversers", len(res.Traversers))
	return res, nil
}

// Check reports whether t can be split across partitions: its head must be
// a partitionable start step and no step may need the whole input at once,
// except a reducing tail step whose partial results can be combined.
func Check(t *process.Traversal) error {
	if t.Len() == 0 {
		return fmt.Errorf("%w: no steps", ErrNotPartitionable)
	}
	if _, ok := t.Step(0).(process.Partitionable); !ok {
		return fmt.Errorf("%w: %T cannot be split", ErrNotPartitionable, t.Step(0))
	}
	last := t.Len() - 1
	for i, s := range t.Steps() {
		switch s.(type) {
		case *process.OrderStep, *process.DedupStep, *process.RangeStep, *process.CapStep:
			return fmt.Errorf("%w: step %d (%T) needs the whole input", ErrNotPartitionable, i, s)
		case process.Combiner:
			if i != last {
				return fmt.Errorf("%w: step %d (%T) reduces before the end of the traversal", ErrNotPartitionable, i, s)
			}
		}
	}
	return nil
}

func combine(c process.Combiner, outputs [][]traverser.Traverser) (any, error) {
	partials := make([]any, 0, len(outputs))
	for _, out := range outputs {
		for _, t := range out {
			partials = append(partials, t.Value())
		}
	}
	return c.Combine(partials)
}

// mergeSideEffects folds the side-effects of every clone into a copy of the
// first clone's, in partition order. Later clones only hold what their own
// partition added. Failures of all keys and partitions are reported
// together.
func mergeSideEffects(clones []*process.Traversal) (*process.SideEffects, error) {
	merged, err := clones[0].SideEffects().Clone()
	if err != nil {
		return nil, fmt.Errorf("partition: side-effects: %w", err)
	}
	var result *multierror.Error
	for i, c := range clones[1:] {
		if err := merged.Merge(c.SideEffects()); err != nil {
			result = multierror.Append(result, fmt.Errorf("partition %d: %w", i+1, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return merged, nil
}
