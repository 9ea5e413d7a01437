package registry

import (
	"context"
	"fmt"

	"github.com/mitchellh/copystructure"

	"github.com/specialistvlad/burstgraph/internal/config"
	"github.com/specialistvlad/burstgraph/internal/ctxlog"
	"github.com/specialistvlad/burstgraph/internal/process"
)

// Compile validates def and builds it into a traversal spawned from src.
// The result is a template: strategies are not applied yet and it can be
// cloned for every run.
func (r *Registry) Compile(ctx context.Context, def *config.TraversalDef, src *process.Source) (*process.Traversal, error) {
	logger := ctxlog.FromContext(ctx).With("traversal", def.Name)
	if err := r.Validate(def); err != nil {
		return nil, err
	}

	src = src.WithoutStrategies(def.WithoutStrategies...)
	for _, se := range def.SideEffects {
		reducer, _ := Reducer(se.Reducer)
		src = src.WithSideEffect(se.Key, se.Initial, reducer)
	}
	if def.Sack != nil {
		initial := def.Sack
		src = src.WithSack(func() any {
			c, err := copystructure.Copy(initial)
			if err != nil {
				return initial
			}
			return c
		})
	}

	var t *process.Traversal
	switch def.Source {
	case config.SourceVertices:
		t = src.V(def.IDs...)
	case config.SourceEdges:
		t = src.E(def.IDs...)
	case config.SourceInject:
		t = src.Inject(def.Values...)
	default:
		return nil, fmt.Errorf("%s: traversal %q: unknown source %q", def.Range, def.Name, def.Source)
	}

	t, err := r.appendSteps(t, def.Steps)
	if err != nil {
		return nil, fmt.Errorf("traversal %q: %w", def.Name, err)
	}
	if err := t.Err(); err != nil {
		return nil, fmt.Errorf("traversal %q: %w", def.Name, err)
	}
	logger.Debug("Compiled traversal.", "steps", t.StepNames())
	return t, nil
}

func (r *Registry) appendSteps(t *process.Traversal, steps []*config.StepDef) (*process.Traversal, error) {
	for _, s := range steps {
		kind, ok := r.kinds[s.Kind]
		if !ok {
			return nil, fmt.Errorf("%s: unknown step kind %q", s.Range, s.Kind)
		}
		args, err := r.decodeArgs(kind, s)
		if err != nil {
			return nil, err
		}
		if kind.Nested {
			if args.Child, err = r.appendSteps(process.Anon(), s.Steps); err != nil {
				return nil, err
			}
		}
		if t, err = kind.Build(t, args); err != nil {
			return nil, fmt.Errorf("%s: step %q: %w", s.Range, s.Kind, err)
		}
		if len(s.Labels) > 0 {
			t = t.As(s.Labels...)
		}
	}
	return t, nil
}
