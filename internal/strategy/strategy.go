// Package strategy holds the traversal strategies applied by the engine
// before a traversal first runs. Each strategy rewrites a single traversal
// through the process package's step mutators; nested traversals receive
// the same strategies and are rewritten on their own.
package strategy

import (
	"github.com/specialistvlad/burstgraph/internal/process"
)

const (
	NameIdentityRemoval        = "IdentityRemoval"
	NameIncidentToAdjacent     = "IncidentToAdjacent"
	NameAdjacentToIncident     = "AdjacentToIncident"
	NameLazyBarrier            = "LazyBarrier"
	NameLocalNeighborhoodCache = "LocalNeighborhoodCache"
	NameLabelVerification      = "LabelVerification"
)

// Defaults returns the strategies every traversal source starts with. The
// neighbourhood cache is only added when cacheSize is positive.
func Defaults(cacheSize int) []process.Strategy {
	ss := []process.Strategy{
		IdentityRemoval{},
		IncidentToAdjacent{},
		AdjacentToIncident{},
		LazyBarrier{},
		LabelVerification{},
	}
	if cacheSize > 0 {
		ss = append(ss, LocalNeighborhoodCache{Size: cacheSize})
	}
	return ss
}

// ByName builds a strategy from its name, for configuration files.
func ByName(name string, cacheSize int) (process.Strategy, bool) {
	switch name {
	case NameIdentityRemoval:
		return IdentityRemoval{}, true
	case NameIncidentToAdjacent:
		return IncidentToAdjacent{}, true
	case NameAdjacentToIncident:
		return AdjacentToIncident{}, true
	case NameLazyBarrier:
		return LazyBarrier{}, true
	case NameLocalNeighborhoodCache:
		return LocalNeighborhoodCache{Size: cacheSize}, true
	case NameLabelVerification:
		return LabelVerification{}, true
	default:
		return nil, false
	}
}

// tracksPath reports whether traversers of t's root carry paths. Rewrites
// that change which values a path records must not run then.
func tracksPath(t *process.Traversal) bool {
	return t.Root().Requirements().TracksPath()
}
