package process

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// Op names a predicate comparison.
type Op string

const (
	OpEq      Op = "eq"
	OpNeq     Op = "neq"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpWithin  Op = "within"
	OpWithout Op = "without"
)

// P is a predicate over traverser values, used by Has and Is.
type P struct {
	Op    Op
	Value any
}

func Eq(v any) P          { return P{Op: OpEq, Value: v} }
func Neq(v any) P         { return P{Op: OpNeq, Value: v} }
func Gt(v any) P          { return P{Op: OpGt, Value: v} }
func Gte(v any) P         { return P{Op: OpGte, Value: v} }
func Lt(v any) P          { return P{Op: OpLt, Value: v} }
func Lte(v any) P         { return P{Op: OpLte, Value: v} }
func Within(vs ...any) P  { return P{Op: OpWithin, Value: vs} }
func Without(vs ...any) P { return P{Op: OpWithout, Value: vs} }

// ParseOp validates a predicate name.
func ParseOp(raw string) (Op, error) {
	op := Op(strings.ToLower(strings.TrimSpace(raw)))
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpWithin, OpWithout:
		return op, nil
	default:
		return "", fmt.Errorf("unknown predicate %q", raw)
	}
}

// Test reports whether v satisfies the predicate. Ordering comparisons
// between values that cannot be ordered are false.
func (p P) Test(v any) bool {
	switch p.Op {
	case OpEq:
		return valuesEqual(v, p.Value)
	case OpNeq:
		return !valuesEqual(v, p.Value)
	case OpGt, OpGte, OpLt, OpLte:
		c, ok := compareValues(v, p.Value)
		if !ok {
			return false
		}
		switch p.Op {
		case OpGt:
			return c > 0
		case OpGte:
			return c >= 0
		case OpLt:
			return c < 0
		default:
			return c <= 0
		}
	case OpWithin:
		return slices.ContainsFunc(operands(p.Value), func(x any) bool { return valuesEqual(v, x) })
	case OpWithout:
		return !slices.ContainsFunc(operands(p.Value), func(x any) bool { return valuesEqual(v, x) })
	default:
		return false
	}
}

// String renders the predicate, e.g. gt(30).
func (p P) String() string {
	return fmt.Sprintf("%s(%v)", p.Op, p.Value)
}

func operands(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// valuesEqual compares numbers by value regardless of their Go type, and
// everything else by identity key.
func valuesEqual(a, b any) bool {
	if af, ok := asFloat64(a); ok {
		if bf, ok := asFloat64(b); ok {
			return af == bf
		}
	}
	return traverser.Equal(a, b)
}

// compareValues orders numbers, strings and booleans. Elements are ordered
// by id.
func compareValues(a, b any) (int, bool) {
	if ae, ok := a.(structure.Element); ok {
		a = int64(ae.ElementID())
	}
	if be, ok := b.(structure.Element); ok {
		b = int64(be.ElementID())
	}
	if ai, ok := asInt64(a); ok {
		if bi, ok := asInt64(b); ok {
			return cmp.Compare(ai, bi), true
		}
	}
	if af, ok := asFloat64(a); ok {
		if bf, ok := asFloat64(b); ok {
			return cmp.Compare(af, bf), true
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint:
		return int64(n), true
	case structure.ID:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
