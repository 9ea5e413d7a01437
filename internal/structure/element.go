// Package structure defines the graph element types that flow through
// traversals as traverser payloads: vertices, edges and the direction used to
// walk between them.
package structure

import (
	"fmt"
	"maps"
	"slices"
)

// ID is the native element identifier. It is 64 bits wide, which exceeds the
// safe integer range of the JSON wire format.
type ID int64

// Kind distinguishes vertices from edges.
type Kind int

const (
	KindVertex Kind = iota
	KindEdge
)

// String returns the wire name of the element kind.
func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Element is implemented by Vertex and Edge.
type Element interface {
	ElementID() ID
	ElementKind() Kind
	ElementLabel() string
	// Property returns the value stored under key and whether it exists.
	Property(key string) (any, bool)
	// PropertyKeys returns the property keys in sorted order.
	PropertyKeys() []string
}

// Key identifies an element independently of its property values. Two
// payloads with the same Key are the same graph element.
type Key struct {
	Kind Kind
	ID   ID
}

// KeyOf returns the identity key of an element.
func KeyOf(e Element) Key {
	return Key{Kind: e.ElementKind(), ID: e.ElementID()}
}

// Vertex is a graph vertex.
type Vertex struct {
	ID         ID
	Label      string
	Properties map[string]any
}

func (v *Vertex) ElementID() ID        { return v.ID }
func (v *Vertex) ElementKind() Kind    { return KindVertex }
func (v *Vertex) ElementLabel() string { return v.Label }

// Property returns the value stored under key.
func (v *Vertex) Property(key string) (any, bool) {
	val, ok := v.Properties[key]
	return val, ok
}

// PropertyKeys returns the vertex property keys in sorted order.
func (v *Vertex) PropertyKeys() []string {
	return sortedKeys(v.Properties)
}

// String renders the vertex the way it appears in logs, e.g. v[1].
func (v *Vertex) String() string {
	return fmt.Sprintf("v[%d]", v.ID)
}

// Edge is a directed, labeled graph edge from OutV to InV.
type Edge struct {
	ID         ID
	Label      string
	OutV       ID
	InV        ID
	Properties map[string]any
}

func (e *Edge) ElementID() ID        { return e.ID }
func (e *Edge) ElementKind() Kind    { return KindEdge }
func (e *Edge) ElementLabel() string { return e.Label }

// Property returns the value stored under key.
func (e *Edge) Property(key string) (any, bool) {
	val, ok := e.Properties[key]
	return val, ok
}

// PropertyKeys returns the edge property keys in sorted order.
func (e *Edge) PropertyKeys() []string {
	return sortedKeys(e.Properties)
}

// String renders the edge the way it appears in logs, e.g. e[7][1-knows->2].
func (e *Edge) String() string {
	return fmt.Sprintf("e[%d][%d-%s->%d]", e.ID, e.OutV, e.Label, e.InV)
}

// VertexID returns the id of the vertex at the given end of the edge. Both is
// not a single end and returns the out vertex.
func (e *Edge) VertexID(d Direction) ID {
	if d == DirectionIn {
		return e.InV
	}
	return e.OutV
}

// OtherVertexID returns the id of the vertex opposite to id.
func (e *Edge) OtherVertexID(id ID) ID {
	if e.OutV == id {
		return e.InV
	}
	return e.OutV
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
