package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Vertices   []*vertexBlock    `hcl:"vertex,block"`
	Edges      []*edgeBlock      `hcl:"edge,block"`
	Traversals []*traversalBlock `hcl:"traversal,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

// vertexBlock represents a `vertex` block. The label is the vertex id.
type vertexBlock struct {
	ID         string         `hcl:"id,label"`
	Label      string         `hcl:"label,optional"`
	Properties hcl.Expression `hcl:"properties,optional"`
	Body       hcl.Body       `hcl:",body"`
}

// edgeBlock represents an `edge` block. The label is the edge id.
type edgeBlock struct {
	ID         string         `hcl:"id,label"`
	Label      string         `hcl:"label"`
	Out        int64          `hcl:"out_v"`
	In         int64          `hcl:"in_v"`
	Properties hcl.Expression `hcl:"properties,optional"`
	Body       hcl.Body       `hcl:",body"`
}

// traversalBlock represents a named `traversal` block.
type traversalBlock struct {
	Name              string             `hcl:"name,label"`
	Source            string             `hcl:"source,optional"`
	IDs               []int64            `hcl:"ids,optional"`
	Values            hcl.Expression     `hcl:"values,optional"`
	Sack              hcl.Expression     `hcl:"sack,optional"`
	WithoutStrategies []string           `hcl:"without_strategies,optional"`
	Partitions        int                `hcl:"partitions,optional"`
	SideEffects       []*sideEffectBlock `hcl:"side_effect,block"`
	Steps             []*stepBlock       `hcl:"step,block"`
	Body              hcl.Body           `hcl:",body"`
}

// sideEffectBlock pre-registers a side-effect key on a traversal.
type sideEffectBlock struct {
	Key     string         `hcl:"key,label"`
	Initial hcl.Expression `hcl:"initial,optional"`
	Reducer string         `hcl:"reducer,optional"`
}

// stepBlock represents a `step` block. Attributes other than `as` are the
// step arguments; nested step blocks form the child traversal of holder
// steps.
type stepBlock struct {
	Kind   string       `hcl:"kind,label"`
	As     []string     `hcl:"as,optional"`
	Steps  []*stepBlock `hcl:"step,block"`
	Remain hcl.Body     `hcl:",remain"`
}
