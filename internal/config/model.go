package config

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/burstgraph/internal/structure"
)

// Model is the unified, format-agnostic representation of a workspace: the
// graph fixture and the traversals defined over it.
type Model struct {
	Vertices   []*Vertex
	Edges      []*Edge
	Traversals map[string]*TraversalDef
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Traversals: make(map[string]*TraversalDef)}
}

// Source kinds a traversal can start from.
const (
	SourceVertices = "V"
	SourceEdges    = "E"
	SourceInject   = "inject"
)

// Vertex is the format-agnostic representation of a `vertex` block.
type Vertex struct {
	ID         structure.ID
	Label      string
	Properties map[string]any
	Range      hcl.Range
}

// Edge is the format-agnostic representation of an `edge` block.
type Edge struct {
	ID         structure.ID
	Label      string
	Out        structure.ID
	In         structure.ID
	Properties map[string]any
	Range      hcl.Range
}

// TraversalDef is the format-agnostic representation of a `traversal`
// block.
type TraversalDef struct {
	Name string
	// Source is one of SourceVertices, SourceEdges or SourceInject.
	Source string
	// IDs restricts a V or E source; empty means every element.
	IDs []structure.ID
	// Values are the literals emitted by an inject source.
	Values []any
	// Sack is the initial sack value; nil means the traversal has no sack.
	Sack any
	// WithoutStrategies names default strategies the traversal opts out of.
	WithoutStrategies []string
	SideEffects       []*SideEffectDef
	Steps             []*StepDef
	// Partitions overrides the application's partition count when above
	// zero.
	Partitions int
	Range      hcl.Range
}

// SideEffectDef is the format-agnostic representation of a `side_effect`
// block.
type SideEffectDef struct {
	Key     string
	Initial any
	// Reducer names the merge function: sum, concat or union.
	Reducer string
}

// StepDef is the format-agnostic representation of a `step` block.
type StepDef struct {
	Kind   string
	Labels []string
	// Args holds the step attributes unconverted; the registry checks them
	// against the argument types of the step kind.
	Args map[string]cty.Value
	// Steps are the nested steps of a holder step such as local.
	Steps []*StepDef
	Range hcl.Range
}

// Validate checks the fixture for duplicate ids and dangling edges. Every
// problem is reported.
func (m *Model) Validate() error {
	var result *multierror.Error

	vertices := make(map[structure.ID]*Vertex, len(m.Vertices))
	for _, v := range m.Vertices {
		if prev, dup := vertices[v.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("%s: vertex %d already defined at %s", v.Range, v.ID, prev.Range))
			continue
		}
		vertices[v.ID] = v
	}

	edges := make(map[structure.ID]*Edge, len(m.Edges))
	for _, e := range m.Edges {
		if prev, dup := edges[e.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("%s: edge %d already defined at %s", e.Range, e.ID, prev.Range))
			continue
		}
		edges[e.ID] = e
		for _, end := range []structure.ID{e.Out, e.In} {
			if _, ok := vertices[end]; !ok {
				result = multierror.Append(result, fmt.Errorf("%s: edge %d refers to undefined vertex %d", e.Range, e.ID, end))
			}
		}
	}

	for _, name := range m.TraversalNames() {
		def := m.Traversals[name]
		switch def.Source {
		case SourceVertices, SourceEdges:
			if len(def.Values) > 0 {
				result = multierror.Append(result, fmt.Errorf("%s: traversal %q: values are only allowed with an inject source", def.Range, name))
			}
		case SourceInject:
			if len(def.IDs) > 0 {
				result = multierror.Append(result, fmt.Errorf("%s: traversal %q: ids are not allowed with an inject source", def.Range, name))
			}
		default:
			result = multierror.Append(result, fmt.Errorf("%s: traversal %q: unknown source %q, must be one of V, E or inject", def.Range, name, def.Source))
		}
		if def.Partitions < 0 {
			result = multierror.Append(result, fmt.Errorf("%s: traversal %q: partitions must not be negative", def.Range, name))
		}
	}
	return result.ErrorOrNil()
}

// TraversalNames returns the defined traversal names in sorted order.
func (m *Model) TraversalNames() []string {
	names := make([]string, 0, len(m.Traversals))
	for name := range m.Traversals {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
