package traverser

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/burstgraph/internal/structure"
)

// Key returns a comparable identity for a payload value. Graph elements are
// keyed by kind and id; comparable values key as themselves; anything else
// falls back to its Go-syntax rendering.
func Key(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case structure.Element:
		return structure.KeyOf(x)
	}
	if reflect.ValueOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%#v", v)
}

// Equal reports whether two payload values are the same for merging and
// deduplication.
func Equal(a, b any) bool {
	return Key(a) == Key(b)
}
