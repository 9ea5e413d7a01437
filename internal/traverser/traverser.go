// Package traverser defines the token that flows through a traversal
// pipeline, the optional path history it carries and the requirement flags
// that decide which of its optional parts are present.
package traverser

import (
	"fmt"
)

// Traverser represents bulk identical logical results holding the same value.
// It is a value type: every transformation returns a new Traverser, and the
// only methods with pointer receivers are the bulk operations used by
// barriers and range steps on traversers they own.
type Traverser struct {
	value   any
	bulk    uint64
	path    *Path
	sack    any
	hasSack bool
}

// New creates a traverser with bulk 1. Path and sack slots are allocated
// according to reqs.
func New(value any, reqs Requirements) Traverser {
	t := Traverser{value: value, bulk: 1}
	if reqs.TracksPath() {
		t.path = &Path{}
	}
	if reqs.Has(RequireSack) {
		t.hasSack = true
	}
	return t
}

// Value returns the payload.
func (t Traverser) Value() any { return t.value }

// Bulk returns the multiplicity. It is never zero for an observable
// traverser.
func (t Traverser) Bulk() uint64 { return t.bulk }

// TracksPath reports whether the traverser carries a path.
func (t Traverser) TracksPath() bool { return t.path != nil }

// Path returns the path history. It is empty when the path is not tracked.
func (t Traverser) Path() Path {
	if t.path == nil {
		return Path{}
	}
	return *t.path
}

// Sack returns the sack value and whether the traverser has a sack.
func (t Traverser) Sack() (any, bool) { return t.sack, t.hasSack }

// Split returns a traverser descending from t that holds value. Bulk, path
// and sack are inherited.
func (t Traverser) Split(value any) Traverser {
	t.value = value
	return t
}

// WithBulk returns a copy of t with the given bulk. A zero bulk is rejected.
func (t Traverser) WithBulk(bulk uint64) (Traverser, error) {
	if bulk == 0 {
		return Traverser{}, fmt.Errorf("%w: bulk must be at least 1", ErrInvalidSplit)
	}
	t.bulk = bulk
	return t, nil
}

// WithSack returns a copy of t with its sack set to v.
func (t Traverser) WithSack(v any) Traverser {
	t.sack = v
	t.hasSack = true
	return t
}

// WithPathEntry returns a copy of t whose path has one more entry.
func (t Traverser) WithPathEntry(labels []string, value any) (Traverser, error) {
	if t.path == nil {
		return Traverser{}, ErrPathNotTracked
	}
	p := t.path.Extend(labels, value)
	t.path = &p
	return t, nil
}

// WithLabels returns a copy of t whose latest path entry also carries labels.
func (t Traverser) WithLabels(labels ...string) (Traverser, error) {
	if t.path == nil {
		return Traverser{}, ErrPathNotTracked
	}
	p := t.path.AddLabels(labels...)
	t.path = &p
	return t, nil
}

// WithPath returns a copy of t carrying p as its full history. It turns path
// tracking on.
func (t Traverser) WithPath(p Path) Traverser {
	t.path = &p
	return t
}

// Clone returns an independent copy of t. Paths are never mutated in place,
// so sharing the underlying entries is safe; the pointer is still fresh.
func (t Traverser) Clone() Traverser {
	if t.path != nil {
		p := *t.path
		t.path = &p
	}
	return t
}

// Mergeable reports whether t and other represent the same logical result.
func (t Traverser) Mergeable(other Traverser) bool {
	if !Equal(t.value, other.value) {
		return false
	}
	if (t.path == nil) != (other.path == nil) {
		return false
	}
	return t.path == nil || t.path.Equal(*other.path)
}

// Merge folds other into t when both hold equal values and paths, adding the
// bulks. It returns false and leaves t unchanged otherwise.
func (t *Traverser) Merge(other Traverser) bool {
	if !t.Mergeable(other) {
		return false
	}
	t.bulk += other.bulk
	return true
}

// SplitBulk detaches n of t's bulk into a new traverser and decrements t.
// It fails when n is zero or n >= t.Bulk(), since either side would be left
// with no bulk.
func (t *Traverser) SplitBulk(n uint64) (Traverser, error) {
	if n == 0 || n >= t.bulk {
		return Traverser{}, fmt.Errorf("%w: cannot detach %d of bulk %d", ErrInvalidSplit, n, t.bulk)
	}
	detached := t.Clone()
	detached.bulk = n
	t.bulk -= n
	return detached, nil
}

// String renders the traverser for logs.
func (t Traverser) String() string {
	if t.bulk == 1 {
		return fmt.Sprintf("%v", t.value)
	}
	return fmt.Sprintf("%v x%d", t.value, t.bulk)
}
