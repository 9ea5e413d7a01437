package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Converter is the interface for a format-specific data binding
// implementation. It bridges the raw configuration values kept in the model
// and the Go values the traversal engine works with.
type Converter interface {
	// ToNative converts a cty value into a plain Go value: nil, string,
	// bool, int64, float64, []any or map[string]any.
	ToNative(v cty.Value) (any, error)

	// Decode converts v to the Go type of target, which must be a pointer.
	Decode(v cty.Value, target any) error
}
