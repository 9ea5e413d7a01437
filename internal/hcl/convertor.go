package hcl

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/burstgraph/internal/config"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

var _ config.Converter = (*Converter)(nil)

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// ToNative converts a cty value into a plain Go value. Whole numbers that
// fit in 64 bits become int64, other numbers float64.
func (c *Converter) ToNative(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value of type %s is not known", v.Type().FriendlyName())
	}
	v, _ = v.Unmark()

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		return numberToNative(v.AsBigFloat()), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for i := 0; it.Next(); i++ {
			_, elem := it.Element()
			n, err := c.ToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, n)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			k, elem := it.Element()
			n, err := c.ToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}

func numberToNative(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return i
		}
	}
	n, _ := f.Float64()
	return n
}

// Decode converts v to the type implied by target and stores it there. A
// null value leaves target untouched.
func (c *Converter) Decode(v cty.Value, target any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("target for decoding must be a non-nil pointer, got %T", target)
	}
	if v.IsNull() {
		return nil
	}
	if ptr.Elem().Kind() == reflect.Interface {
		n, err := c.ToNative(v)
		if err != nil {
			return err
		}
		if n != nil {
			ptr.Elem().Set(reflect.ValueOf(n))
		}
		return nil
	}

	impliedType, err := gocty.ImpliedType(ptr.Elem().Interface())
	if err != nil {
		return fmt.Errorf("cannot imply cty type for %s: %w", ptr.Elem().Type(), err)
	}
	converted, err := convert.Convert(v, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", v.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}
