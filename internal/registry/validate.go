package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/burstgraph/internal/config"
	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/process"
	"github.com/specialistvlad/burstgraph/internal/strategy"
)

var supportedArgTypes = []cty.Type{
	cty.String,
	cty.Number,
	cty.Bool,
	cty.List(cty.String),
	cty.DynamicPseudoType,
}

// ValidateRegistry performs a strict check of the registered kinds: every
// argument must be declared once, with a type the decoder supports.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Kinds() {
		kind := r.kinds[name]
		seen := make(map[string]struct{}, len(kind.Args))
		for _, arg := range kind.Args {
			if _, dup := seen[arg.Name]; dup {
				errs = append(errs, fmt.Sprintf("step kind '%s': argument '%s' declared twice", name, arg.Name))
			}
			seen[arg.Name] = struct{}{}

			if arg.Name == "as" {
				errs = append(errs, fmt.Sprintf("step kind '%s': argument name 'as' is reserved for step labels", name))
			}
			if !isSupportedArgType(arg.Type) {
				errs = append(errs, fmt.Sprintf("step kind '%s', argument '%s': unsupported type '%s'", name, arg.Name, arg.Type.FriendlyName()))
				continue
			}
			if arg.Type.Equals(cty.DynamicPseudoType) {
				logger.Debug("Step argument accepts any value; it is not type checked.", "kind", name, "argument", arg.Name)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func isSupportedArgType(ty cty.Type) bool {
	for _, t := range supportedArgTypes {
		if ty.Equals(t) {
			return true
		}
	}
	return false
}

// Validate checks a definition against the registered kinds without
// touching a graph. Every problem found is reported.
func (r *Registry) Validate(def *config.TraversalDef) error {
	var result *multierror.Error
	for _, name := range def.WithoutStrategies {
		if _, ok := strategy.ByName(name, 0); !ok {
			result = multierror.Append(result, fmt.Errorf("%s: traversal %q: unknown strategy %q", def.Range, def.Name, name))
		}
	}
	for _, se := range def.SideEffects {
		if _, ok := Reducer(se.Reducer); !ok {
			result = multierror.Append(result, fmt.Errorf("%s: traversal %q: side_effect %q: unknown reducer %q", def.Range, def.Name, se.Key, se.Reducer))
		}
	}
	if err := r.validateSteps(def.Steps); err != nil {
		result = multierror.Append(result, fmt.Errorf("traversal %q: %w", def.Name, err))
	}
	return result.ErrorOrNil()
}

// validateSteps builds every step on a scratch traversal, so builder
// checks such as range bounds are reported along with argument errors.
func (r *Registry) validateSteps(steps []*config.StepDef) error {
	var result *multierror.Error
	for _, s := range steps {
		if err := r.validateStep(s); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (r *Registry) validateStep(s *config.StepDef) error {
	kind, ok := r.kinds[s.Kind]
	if !ok {
		return fmt.Errorf("%s: unknown step kind %q", s.Range, s.Kind)
	}

	var result *multierror.Error
	args, err := r.decodeArgs(kind, s)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if len(s.Steps) > 0 && !kind.Nested {
		result = multierror.Append(result, fmt.Errorf("%s: step %q does not take nested steps", s.Range, s.Kind))
	}
	if kind.Nested {
		if err := r.validateSteps(s.Steps); err != nil {
			result = multierror.Append(result, err)
		}
		args.Child = process.Anon()
	}
	if result.ErrorOrNil() != nil {
		return result
	}

	t, err := kind.Build(process.Anon(), args)
	if err == nil {
		err = t.Err()
	}
	if err != nil {
		return fmt.Errorf("%s: step %q: %w", s.Range, s.Kind, err)
	}
	return nil
}

// decodeArgs converts the arguments of s to the types kind declares.
func (r *Registry) decodeArgs(kind *StepKind, s *config.StepDef) (Args, error) {
	var result *multierror.Error
	args := Args{values: make(map[string]any, len(s.Args))}

	for name, raw := range s.Args {
		spec, ok := kind.arg(name)
		if !ok {
			result = multierror.Append(result, fmt.Errorf("%s: step %q: unknown argument %q", s.Range, s.Kind, name))
			continue
		}
		if raw.IsNull() {
			continue
		}
		v, err := r.decodeArg(spec, raw)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: step %q: argument %q: %w", s.Range, s.Kind, name, err))
			continue
		}
		args.values[name] = v
	}
	for _, spec := range kind.Args {
		if _, given := s.Args[spec.Name]; !given && !spec.Optional {
			result = multierror.Append(result, fmt.Errorf("%s: step %q: missing required argument %q", s.Range, s.Kind, spec.Name))
		}
	}
	return args, result.ErrorOrNil()
}

// Reducer returns the side-effect reducer configured by name.
func Reducer(name string) (process.Reducer, bool) {
	switch name {
	case "sum":
		return process.SumReducer, true
	case "concat":
		return process.ConcatReducer, true
	case "union":
		return process.UnionReducer, true
	default:
		return nil, false
	}
}
