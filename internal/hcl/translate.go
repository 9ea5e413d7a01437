// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/burstgraph/internal/config"
	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/structure"
)

const (
	defaultVertexLabel = "vertex"
	defaultReducer     = "concat"
)

func (l *Loader) translateVertex(b *vertexBlock) (*config.Vertex, error) {
	rng := b.Body.MissingItemRange()
	id, err := structure.ParseID(b.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: vertex: %w", rng, err)
	}
	props, err := l.properties(b.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: vertex %d: %w", rng, id, err)
	}
	label := b.Label
	if label == "" {
		label = defaultVertexLabel
	}
	return &config.Vertex{ID: id, Label: label, Properties: props, Range: rng}, nil
}

func (l *Loader) translateEdge(b *edgeBlock) (*config.Edge, error) {
	rng := b.Body.MissingItemRange()
	id, err := structure.ParseID(b.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: edge: %w", rng, err)
	}
	props, err := l.properties(b.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: edge %d: %w", rng, id, err)
	}
	return &config.Edge{
		ID:         id,
		Label:      b.Label,
		Out:        structure.ID(b.Out),
		In:         structure.ID(b.In),
		Properties: props,
		Range:      rng,
	}, nil
}

// properties evaluates a properties expression, which must be an object
// or map when present.
func (l *Loader) properties(expr hcl.Expression) (map[string]any, error) {
	val, err := l.evaluate(expr)
	if err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	if val.IsNull() {
		return map[string]any{}, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("properties must be an object, got %s", val.Type().FriendlyName())
	}
	native, err := l.conv.ToNative(val)
	if err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	return native.(map[string]any), nil
}

func (l *Loader) translateTraversal(ctx context.Context, b *traversalBlock) (*config.TraversalDef, error) {
	logger := ctxlog.FromContext(ctx).With("traversal", b.Name)
	logger.Debug("Translating HCL traversal to internal config model.")

	rng := b.Body.MissingItemRange()
	def := &config.TraversalDef{
		Name:              b.Name,
		Source:            b.Source,
		WithoutStrategies: b.WithoutStrategies,
		Partitions:        b.Partitions,
		Range:             rng,
	}
	if def.Source == "" {
		def.Source = config.SourceVertices
	}
	for _, id := range b.IDs {
		def.IDs = append(def.IDs, structure.ID(id))
	}

	values, err := l.native(b.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: traversal %q: values: %w", rng, b.Name, err)
	}
	if values != nil {
		list, ok := values.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: traversal %q: values must be a list", rng, b.Name)
		}
		def.Values = list
	}

	if def.Sack, err = l.native(b.Sack); err != nil {
		return nil, fmt.Errorf("%s: traversal %q: sack: %w", rng, b.Name, err)
	}

	for _, se := range b.SideEffects {
		initial, err := l.native(se.Initial)
		if err != nil {
			return nil, fmt.Errorf("%s: traversal %q: side_effect %q: %w", rng, b.Name, se.Key, err)
		}
		reducer := se.Reducer
		if reducer == "" {
			reducer = defaultReducer
		}
		def.SideEffects = append(def.SideEffects, &config.SideEffectDef{Key: se.Key, Initial: initial, Reducer: reducer})
	}

	steps, err := l.translateSteps(b.Steps)
	if err != nil {
		return nil, fmt.Errorf("traversal %q: %w", b.Name, err)
	}
	def.Steps = steps
	logger.Debug("Translated traversal.", "steps", len(def.Steps), "source", def.Source)
	return def, nil
}

func (l *Loader) translateSteps(blocks []*stepBlock) ([]*config.StepDef, error) {
	steps := make([]*config.StepDef, 0, len(blocks))
	for _, b := range blocks {
		s, err := l.translateStep(b)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// translateStep converts the HCL-specific step schema into the agnostic
// model. Argument values are evaluated but left as cty values.
func (l *Loader) translateStep(b *stepBlock) (*config.StepDef, error) {
	rng := b.Remain.MissingItemRange()
	attrs, err := stepAttributes(b.Remain)
	if err != nil {
		return nil, fmt.Errorf("%s: step %q: %w", rng, b.Kind, err)
	}
	args := make(map[string]cty.Value, len(attrs))
	for name, expr := range attrs {
		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%s: step %q: argument %q: %w", rng, b.Kind, name, diags)
		}
		args[name] = val
	}
	children, err := l.translateSteps(b.Steps)
	if err != nil {
		return nil, err
	}
	return &config.StepDef{
		Kind:   b.Kind,
		Labels: b.As,
		Args:   args,
		Steps:  children,
		Range:  rng,
	}, nil
}

// stepAttributes returns the argument expressions of a step body. Native
// syntax bodies are read directly, since the nested step blocks they keep
// would make JustAttributes fail.
func stepAttributes(body hcl.Body) (map[string]hcl.Expression, error) {
	exprs := make(map[string]hcl.Expression)
	if sb, ok := body.(*hclsyntax.Body); ok {
		for _, block := range sb.Blocks {
			if block.Type != "step" {
				return nil, fmt.Errorf("unexpected %q block; only nested step blocks are allowed", block.Type)
			}
		}
		for name, attr := range sb.Attributes {
			if _, consumed := stepReservedAttrs[name]; consumed {
				continue
			}
			exprs[name] = attr.Expr
		}
		return exprs, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs, nil
}

// stepReservedAttrs are the step attributes decoded into stepBlock fields.
var stepReservedAttrs = map[string]struct{}{"as": {}}

func (l *Loader) native(expr hcl.Expression) (any, error) {
	val, err := l.evaluate(expr)
	if err != nil {
		return nil, err
	}
	return l.conv.ToNative(val)
}

// evaluate returns the value of an optional expression, or a null value
// when the attribute was omitted.
func (l *Loader) evaluate(expr hcl.Expression) (cty.Value, error) {
	if expr == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return val, nil
}
