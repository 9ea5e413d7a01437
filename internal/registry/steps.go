package registry

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/burstgraph/internal/process"
)

var (
	edgeLabelsArg = ArgSpec{Name: "edge_labels", Type: cty.List(cty.String), Optional: true}
	predicateArgs = []ArgSpec{
		{Name: "op", Type: cty.String, Optional: true},
		{Name: "value", Type: cty.DynamicPseudoType},
	}
)

// predicate builds a P from the op and value arguments. The op defaults to
// eq.
func predicate(a Args) (process.P, error) {
	raw := a.String("op")
	if raw == "" {
		raw = string(process.OpEq)
	}
	op, err := process.ParseOp(raw)
	if err != nil {
		return process.P{}, err
	}
	return process.P{Op: op, Value: a.Value("value")}, nil
}

func sackOperator(raw string) (process.SackOperator, bool) {
	switch raw {
	case "", "sum":
		return process.SackSum, true
	case "assign":
		return process.SackAssign, true
	default:
		return nil, false
	}
}

func noArgs(description string, build func(t *process.Traversal) *process.Traversal) *StepKind {
	return &StepKind{
		Description: description,
		Build:       func(t *process.Traversal, _ Args) (*process.Traversal, error) { return build(t), nil },
	}
}

func expansion(description string, build func(t *process.Traversal, labels ...string) *process.Traversal) *StepKind {
	return &StepKind{
		Description: description,
		Args:        []ArgSpec{edgeLabelsArg},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return build(t, a.Strings("edge_labels")...), nil
		},
	}
}

func registerBuiltins(r *Registry) {
	r.RegisterStep("out", expansion("Adjacent vertices over outgoing edges.", (*process.Traversal).Out))
	r.RegisterStep("in", expansion("Adjacent vertices over incoming edges.", (*process.Traversal).In))
	r.RegisterStep("both", expansion("Adjacent vertices in both directions.", (*process.Traversal).Both))
	r.RegisterStep("out_e", expansion("Outgoing edges.", (*process.Traversal).OutE))
	r.RegisterStep("in_e", expansion("Incoming edges.", (*process.Traversal).InE))
	r.RegisterStep("both_e", expansion("Incident edges in both directions.", (*process.Traversal).BothE))

	r.RegisterStep("out_v", noArgs("The outgoing vertex of an edge.", (*process.Traversal).OutV))
	r.RegisterStep("in_v", noArgs("The incoming vertex of an edge.", (*process.Traversal).InV))
	r.RegisterStep("both_v", noArgs("Both vertices of an edge.", (*process.Traversal).BothV))
	r.RegisterStep("dedup", noArgs("Drops values seen before.", (*process.Traversal).Dedup))
	r.RegisterStep("count", noArgs("Counts the input.", (*process.Traversal).Count))
	r.RegisterStep("fold", noArgs("Collects the input into one list.", (*process.Traversal).Fold))
	r.RegisterStep("unfold", noArgs("Emits the elements of lists and maps.", (*process.Traversal).Unfold))
	r.RegisterStep("identity", noArgs("Passes values through.", (*process.Traversal).Identity))
	r.RegisterStep("id", noArgs("Element identifiers.", (*process.Traversal).ID))
	r.RegisterStep("label", noArgs("Element labels.", (*process.Traversal).Label))
	r.RegisterStep("path", noArgs("The path each traverser walked.", (*process.Traversal).Path))
	r.RegisterStep("barrier", noArgs("Collects the input before passing it on.", (*process.Traversal).Barrier))
	r.RegisterStep("sack_value", noArgs("The sack of each traverser.", (*process.Traversal).SackValue))

	r.RegisterStep("values", &StepKind{
		Description: "Property values of elements, all of them when no keys are given.",
		Args:        []ArgSpec{{Name: "keys", Type: cty.List(cty.String), Optional: true}},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return t.Values(a.Strings("keys")...), nil
		},
	})
	r.RegisterStep("has", &StepKind{
		Description: "Keeps elements whose property satisfies a predicate.",
		Args:        append([]ArgSpec{{Name: "key", Type: cty.String}}, predicateArgs...),
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			p, err := predicate(a)
			if err != nil {
				return nil, err
			}
			return t.Has(a.String("key"), p), nil
		},
	})
	r.RegisterStep("has_label", &StepKind{
		Description: "Keeps elements with one of the labels.",
		Args:        []ArgSpec{{Name: "labels", Type: cty.List(cty.String)}},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return t.HasLabel(a.Strings("labels")...), nil
		},
	})
	r.RegisterStep("is", &StepKind{
		Description: "Keeps values satisfying a predicate.",
		Args:        predicateArgs,
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			p, err := predicate(a)
			if err != nil {
				return nil, err
			}
			return t.Is(p), nil
		},
	})
	r.RegisterStep("order", &StepKind{
		Description: "Sorts the input by value or by a property.",
		Args: []ArgSpec{
			{Name: "by", Type: cty.String, Optional: true},
			{Name: "desc", Type: cty.Bool, Optional: true},
		},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			order := process.Asc
			if a.Bool("desc") {
				order = process.Desc
			}
			return t.Order(a.String("by"), order), nil
		},
	})
	r.RegisterStep("range", &StepKind{
		Description: "Passes the values from low up to, not including, high.",
		Args: []ArgSpec{
			{Name: "low", Type: cty.Number},
			{Name: "high", Type: cty.Number},
		},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return t.Range(a.Int("low"), a.Int("high")), nil
		},
	})
	r.RegisterStep("limit", &StepKind{
		Description: "Passes the first n values.",
		Args:        []ArgSpec{{Name: "n", Type: cty.Number}},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return t.Limit(a.Int("n")), nil
		},
	})
	r.RegisterStep("select", &StepKind{
		Description: "Values of labelled steps from the path.",
		Args:        []ArgSpec{{Name: "labels", Type: cty.List(cty.String)}},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return t.Select(a.Strings("labels")...), nil
		},
	})
	r.RegisterStep("constant", &StepKind{
		Description: "Replaces every value with a constant.",
		Args:        []ArgSpec{{Name: "value", Type: cty.DynamicPseudoType}},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return t.Constant(a.Value("value")), nil
		},
	})
	r.RegisterStep("aggregate", &StepKind{
		Description: "Adds every value to a side-effect, behind a barrier.",
		Args:        []ArgSpec{{Name: "key", Type: cty.String}},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return t.Aggregate(a.String("key")), nil
		},
	})
	r.RegisterStep("cap", &StepKind{
		Description: "Emits side-effect values once the input is drained.",
		Args:        []ArgSpec{{Name: "keys", Type: cty.List(cty.String)}},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			return t.Cap(a.Strings("keys")...), nil
		},
	})
	r.RegisterStep("sack", &StepKind{
		Description: "Updates each sack with the value or one of its properties.",
		Args: []ArgSpec{
			{Name: "op", Type: cty.String, Optional: true},
			{Name: "by", Type: cty.String, Optional: true},
		},
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			op, ok := sackOperator(a.String("op"))
			if !ok {
				return nil, fmt.Errorf("unknown sack operator %q: must be 'sum' or 'assign'", a.String("op"))
			}
			return t.Sack(op, a.String("by")), nil
		},
	})
	r.RegisterStep("local", &StepKind{
		Description: "Runs the nested steps once per traverser.",
		Args:        []ArgSpec{{Name: "scope", Type: cty.String, Optional: true}},
		Nested:      true,
		Build: func(t *process.Traversal, a Args) (*process.Traversal, error) {
			scope, err := process.ParseSideEffectScope(a.String("scope"))
			if err != nil {
				return nil, err
			}
			return t.LocalWithScope(a.Child, scope), nil
		},
	})
}
