package process

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// filterBase is embedded by steps that keep or drop traversers without
// changing them.
type filterBase struct {
	stepBase
}

func newFilterBase() filterBase { return filterBase{stepBase{role: rolePass}} }

// pullMatching pulls until keep accepts a traverser.
func (b *filterBase) pullMatching(keep func(t traverser.Traverser) (bool, error)) (traverser.Traverser, error) {
	for {
		t, err := b.pull()
		if err != nil {
			return t, err
		}
		ok, err := keep(t)
		if err != nil {
			return traverser.Traverser{}, err
		}
		if ok {
			return t, nil
		}
	}
}

// HasStep keeps elements whose property satisfies a predicate. Elements
// without the property are dropped.
type HasStep struct {
	filterBase
	key       string
	predicate P
}

func NewHasStep(key string, p P) *HasStep {
	return &HasStep{filterBase: newFilterBase(), key: key, predicate: p}
}

func (s *HasStep) processNext() (traverser.Traverser, error) {
	return s.pullMatching(func(t traverser.Traverser) (bool, error) {
		var (
			v  any
			ok bool
		)
		switch x := t.Value().(type) {
		case structure.Element:
			v, ok = x.Property(s.key)
		case map[string]any:
			v, ok = x[s.key]
		}
		return ok && s.predicate.Test(v), nil
	})
}

func (s *HasStep) Clone() (Step, error) { return shallowClone(s), nil }

func (s *HasStep) args() string { return fmt.Sprintf("%s,%s", s.key, s.predicate) }

// HasLabelStep keeps elements carrying one of the labels.
type HasLabelStep struct {
	filterBase
	elementLabels []string
}

func NewHasLabelStep(labels ...string) *HasLabelStep {
	return &HasLabelStep{filterBase: newFilterBase(), elementLabels: labels}
}

func (s *HasLabelStep) processNext() (traverser.Traverser, error) {
	return s.pullMatching(func(t traverser.Traverser) (bool, error) {
		e, ok := t.Value().(structure.Element)
		return ok && slices.Contains(s.elementLabels, e.ElementLabel()), nil
	})
}

func (s *HasLabelStep) Clone() (Step, error) { return shallowClone(s), nil }

func (s *HasLabelStep) args() string { return fmt.Sprint(s.elementLabels) }

// IsStep keeps traversers whose value satisfies a predicate.
type IsStep struct {
	filterBase
	predicate P
}

func NewIsStep(p P) *IsStep {
	return &IsStep{filterBase: newFilterBase(), predicate: p}
}

func (s *IsStep) processNext() (traverser.Traverser, error) {
	return s.pullMatching(func(t traverser.Traverser) (bool, error) {
		return s.predicate.Test(t.Value()), nil
	})
}

func (s *IsStep) Clone() (Step, error) { return shallowClone(s), nil }

func (s *IsStep) args() string { return s.predicate.String() }

// FilterFunc decides whether a traverser is kept.
type FilterFunc func(t traverser.Traverser) (bool, error)

// FilterStep keeps traversers accepted by a FilterFunc.
type FilterStep struct {
	filterBase
	fn FilterFunc
}

func NewFilterStep(fn FilterFunc) *FilterStep {
	return &FilterStep{filterBase: newFilterBase(), fn: fn}
}

func (s *FilterStep) processNext() (traverser.Traverser, error) {
	return s.pullMatching(s.fn)
}

func (s *FilterStep) Clone() (Step, error) { return shallowClone(s), nil }

// DedupStep emits each distinct value once, with bulk 1.
type DedupStep struct {
	filterBase
	seen map[any]struct{}
}

func NewDedupStep() *DedupStep {
	return &DedupStep{filterBase: newFilterBase()}
}

func (s *DedupStep) processNext() (traverser.Traverser, error) {
	t, err := s.pullMatching(func(t traverser.Traverser) (bool, error) {
		key := traverser.Key(t.Value())
		if _, dup := s.seen[key]; dup {
			return false, nil
		}
		if s.seen == nil {
			s.seen = make(map[any]struct{})
		}
		s.seen[key] = struct{}{}
		return true, nil
	})
	if err != nil {
		return t, err
	}
	return t.WithBulk(1)
}

func (s *DedupStep) resetState() { s.seen = nil }

func (s *DedupStep) Clone() (Step, error) {
	c := shallowClone(s)
	if s.seen != nil {
		c.seen = make(map[any]struct{}, len(s.seen))
		for k := range s.seen {
			c.seen[k] = struct{}{}
		}
	}
	return c, nil
}

// RangeStep keeps the logical results in positions [low, high). A negative
// high means no upper bound. Positions count bulk, so a traverser straddling
// a bound is emitted with the part of its bulk inside the range.
type RangeStep struct {
	filterBase
	low, high int64
	counter   int64
}

func NewRangeStep(low, high int64) *RangeStep {
	return &RangeStep{filterBase: newFilterBase(), low: low, high: high}
}

// Bounds returns the range bounds.
func (s *RangeStep) Bounds() (low, high int64) { return s.low, s.high }

func (s *RangeStep) Requirements() traverser.Requirements {
	return traverser.NewRequirements(traverser.RequireBulk)
}

func (s *RangeStep) processNext() (traverser.Traverser, error) {
	for {
		if s.high >= 0 && s.counter >= s.high {
			return traverser.Traverser{}, ErrNoMoreResults
		}
		t, err := s.pull()
		if err != nil {
			return t, err
		}
		start := s.counter
		end := start + int64(t.Bulk())
		s.counter = end
		if end <= s.low {
			continue
		}
		from := max(start, s.low)
		to := end
		if s.high >= 0 {
			to = min(end, s.high)
		}
		if to <= from {
			continue
		}
		if keep := uint64(to - from); keep < t.Bulk() {
			return t.SplitBulk(keep)
		}
		return t, nil
	}
}

func (s *RangeStep) resetState() { s.counter = 0 }

func (s *RangeStep) Clone() (Step, error) { return shallowClone(s), nil }

func (s *RangeStep) args() string { return fmt.Sprintf("%d,%d", s.low, s.high) }
