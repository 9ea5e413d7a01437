package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/burstgraph/internal/config"
	"github.com/specialistvlad/burstgraph/internal/process"
)

// ArgSpec declares one argument of a step kind.
type ArgSpec struct {
	Name string
	// Type is the cty type the value is converted to. cty.DynamicPseudoType
	// accepts any value and hands it to the builder as a plain Go value.
	Type     cty.Type
	Optional bool
}

// BuildFunc appends the steps of one step block to t.
type BuildFunc func(t *process.Traversal, a Args) (*process.Traversal, error)

// StepKind is a registered step kind.
type StepKind struct {
	Description string
	Args        []ArgSpec
	// Nested kinds take nested step blocks, compiled into Args.Child.
	Nested bool
	Build  BuildFunc
}

func (k *StepKind) arg(name string) (ArgSpec, bool) {
	for _, a := range k.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// Registry holds the step kinds available to definitions of a single
// application instance.
type Registry struct {
	kinds map[string]*StepKind
	conv  config.Converter
}

// New creates a registry holding the built-in step kinds. conv converts
// argument values.
func New(conv config.Converter) *Registry {
	r := &Registry{kinds: make(map[string]*StepKind), conv: conv}
	registerBuiltins(r)
	return r
}

// RegisterStep registers a step kind. Registering a kind twice panics.
func (r *Registry) RegisterStep(kind string, k *StepKind) {
	if _, exists := r.kinds[kind]; exists {
		panic(fmt.Sprintf("step kind '%s' already registered", kind))
	}
	if k.Build == nil {
		panic(fmt.Sprintf("step kind '%s' has no build function", kind))
	}
	slog.Debug("Registering step kind.", "kind", kind)
	r.kinds[kind] = k
}

// Kind returns the registered kind.
func (r *Registry) Kind(kind string) (*StepKind, bool) {
	k, ok := r.kinds[kind]
	return k, ok
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Args are the decoded arguments of one step block.
type Args struct {
	values map[string]any
	// Child is the compiled traversal of the nested step blocks of a nested
	// kind.
	Child *process.Traversal
}

// Has reports whether the argument was given.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Value returns the argument, or nil when it was not given.
func (a Args) Value(name string) any { return a.values[name] }

// String returns a string argument, or "" when it was not given.
func (a Args) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Strings returns a list(string) argument.
func (a Args) Strings(name string) []string {
	s, _ := a.values[name].([]string)
	return s
}

// Int returns a number argument as an integer.
func (a Args) Int(name string) int64 {
	n, _ := a.values[name].(int64)
	return n
}

// Bool returns a bool argument.
func (a Args) Bool(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

// decodeArg converts a raw argument value to the Go form of its declared
// type.
func (r *Registry) decodeArg(spec ArgSpec, v cty.Value) (any, error) {
	switch {
	case spec.Type == cty.String:
		return decodeAs[string](r.conv, v)
	case spec.Type == cty.Number:
		return decodeAs[int64](r.conv, v)
	case spec.Type == cty.Bool:
		return decodeAs[bool](r.conv, v)
	case spec.Type.Equals(cty.List(cty.String)):
		return decodeAs[[]string](r.conv, v)
	case spec.Type == cty.DynamicPseudoType:
		return r.conv.ToNative(v)
	}
	return nil, fmt.Errorf("unsupported argument type %s", spec.Type.FriendlyName())
}

func decodeAs[T any](conv config.Converter, v cty.Value) (any, error) {
	var out T
	if err := conv.Decode(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}
