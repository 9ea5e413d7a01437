package traverser

import (
	"strings"
)

// Requirement is a capability that traversers flowing through a traversal
// must support.
type Requirement uint16

const (
	// RequireObject is set by steps that read the payload. Every non-trivial
	// pipeline has it.
	RequireObject Requirement = 1 << iota
	// RequireBulk is set by steps whose result depends on multiplicity.
	RequireBulk
	// RequirePath turns on full path tracking: every step appends an entry.
	RequirePath
	// RequireLabeledPath tracks only the entries of labeled steps.
	RequireLabeledPath
	// RequireSack gives every traverser a sack.
	RequireSack
	// RequireSideEffects is set by steps that read or write side-effects.
	RequireSideEffects
)

var requirementNames = []struct {
	r    Requirement
	name string
}{
	{RequireObject, "object"},
	{RequireBulk, "bulk"},
	{RequirePath, "path"},
	{RequireLabeledPath, "labeled_path"},
	{RequireSack, "sack"},
	{RequireSideEffects, "side_effects"},
}

// Requirements is a set of Requirement flags.
type Requirements uint16

// NewRequirements builds a set from individual requirements.
func NewRequirements(rs ...Requirement) Requirements {
	var set Requirements
	for _, r := range rs {
		set |= Requirements(r)
	}
	return set
}

// Has reports whether r is in the set.
func (s Requirements) Has(r Requirement) bool {
	return s&Requirements(r) != 0
}

// Union returns the union of both sets.
func (s Requirements) Union(other Requirements) Requirements {
	return s | other
}

// With returns the set extended with rs.
func (s Requirements) With(rs ...Requirement) Requirements {
	return s.Union(NewRequirements(rs...))
}

// TracksPath reports whether traversers need a path at all.
func (s Requirements) TracksPath() bool {
	return s.Has(RequirePath) || s.Has(RequireLabeledPath)
}

// String lists the set members, e.g. "{bulk,path}".
func (s Requirements) String() string {
	var names []string
	for _, rn := range requirementNames {
		if s.Has(rn.r) {
			names = append(names, rn.name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}
