package traverser

import (
	"slices"
)

// PathEntry is one step of a traverser's history: the value it held and the
// labels of the step that produced it.
type PathEntry struct {
	Labels []string
	Value  any
}

// Path is the ordered history of a traverser. It is append-only: every
// mutating method returns a new Path and leaves the receiver untouched.
type Path struct {
	entries []PathEntry
}

// NewPath builds a path from entries, copying them.
func NewPath(entries ...PathEntry) Path {
	p := Path{}
	for _, e := range entries {
		p = p.Extend(e.Labels, e.Value)
	}
	return p
}

// Len returns the number of entries.
func (p Path) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the entries in order.
func (p Path) Entries() []PathEntry {
	out := make([]PathEntry, len(p.entries))
	for i, e := range p.entries {
		out[i] = PathEntry{Labels: slices.Clone(e.Labels), Value: e.Value}
	}
	return out
}

// Objects returns the values of every entry in order.
func (p Path) Objects() []any {
	out := make([]any, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Value
	}
	return out
}

// Get returns the value of the most recent entry carrying label.
func (p Path) Get(label string) (any, bool) {
	for i := len(p.entries) - 1; i >= 0; i-- {
		if slices.Contains(p.entries[i].Labels, label) {
			return p.entries[i].Value, true
		}
	}
	return nil, false
}

// HasLabel reports whether any entry carries label.
func (p Path) HasLabel(label string) bool {
	_, ok := p.Get(label)
	return ok
}

// Extend returns a new path with one more entry.
func (p Path) Extend(labels []string, value any) Path {
	entries := make([]PathEntry, len(p.entries), len(p.entries)+1)
	copy(entries, p.entries)
	entries = append(entries, PathEntry{Labels: slices.Clone(labels), Value: value})
	return Path{entries: entries}
}

// AddLabels returns a new path whose last entry also carries labels. An empty
// path is returned unchanged.
func (p Path) AddLabels(labels ...string) Path {
	if len(p.entries) == 0 || len(labels) == 0 {
		return p
	}
	entries := slices.Clone(p.entries)
	last := &entries[len(entries)-1]
	merged := slices.Clone(last.Labels)
	for _, l := range labels {
		if !slices.Contains(merged, l) {
			merged = append(merged, l)
		}
	}
	last.Labels = merged
	return Path{entries: entries}
}

// Equal reports whether both paths hold the same labels and values.
func (p Path) Equal(other Path) bool {
	if len(p.entries) != len(other.entries) {
		return false
	}
	for i := range p.entries {
		if !slices.Equal(p.entries[i].Labels, other.entries[i].Labels) {
			return false
		}
		if !Equal(p.entries[i].Value, other.entries[i].Value) {
			return false
		}
	}
	return true
}
