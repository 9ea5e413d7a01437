package process

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mitchellh/copystructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideEffects_AddAndReset(t *testing.T) {
	se := NewSideEffects()
	se.Register("total", int64(0), SumReducer)
	se.Register("names", []any{}, ConcatReducer)

	require.NoError(t, se.Add("total", 2))
	require.NoError(t, se.Add("total", int64(3)))
	require.NoError(t, se.Add("names", "a"))
	require.NoError(t, se.Add("names", []any{"b", "c"}))

	total, _ := se.Get("total")
	names, _ := se.Get("names")
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []any{"a", "b", "c"}, names)

	require.NoError(t, se.Reset())
	total, _ = se.Get("total")
	names, _ = se.Get("names")
	assert.Equal(t, int64(0), total)
	assert.Equal(t, []any{}, names)
	assert.Equal(t, []string{"total", "names"}, se.Keys())
}

func TestSideEffects_ResetDoesNotAliasInitial(t *testing.T) {
	se := NewSideEffects()
	se.Register("m", map[string]any{}, nil)

	v, _ := se.Get("m")
	v.(map[string]any)["dirty"] = true
	require.NoError(t, se.Reset())

	v, _ = se.Get("m")
	v.(map[string]any)["dirty"] = true
	require.NoError(t, se.Reset())

	v, _ = se.Get("m")
	assert.Empty(t, v)
}

func TestSideEffects_AddFailures(t *testing.T) {
	se := NewSideEffects()
	assert.ErrorContains(t, se.Add("missing", 1), "not registered")

	se.Set("plain", 1)
	assert.ErrorContains(t, se.Add("plain", 1), "no reducer")

	se.Register("total", int64(0), SumReducer)
	assert.ErrorContains(t, se.Add("total", "x"), "cannot sum")
}

func TestSideEffects_Clone(t *testing.T) {
	se := NewSideEffects()
	se.Register("names", []any{}, ConcatReducer)
	require.NoError(t, se.Add("names", "a"))

	c, err := se.Clone()
	require.NoError(t, err)
	require.NoError(t, c.Add("names", "b"))

	orig, _ := se.Get("names")
	cloned, _ := c.Get("names")
	assert.Equal(t, []any{"a"}, orig)
	assert.Equal(t, []any{"a", "b"}, cloned)
}

func TestSideEffects_Merge(t *testing.T) {
	left := NewSideEffects()
	left.Register("total", int64(0), SumReducer)
	left.Register("seen", []any{}, UnionReducer)
	require.NoError(t, left.Add("total", 4))
	require.NoError(t, left.Add("seen", []any{"a", "b"}))

	right := NewSideEffects()
	right.Register("total", int64(0), SumReducer)
	right.Register("seen", []any{}, UnionReducer)
	right.Register("only-right", "x", nil)
	require.NoError(t, right.Add("total", 6))
	require.NoError(t, right.Add("seen", []any{"b", "c"}))

	require.NoError(t, left.Merge(right))
	total, _ := left.Get("total")
	seen, _ := left.Get("seen")
	adopted, _ := left.Get("only-right")
	assert.Equal(t, int64(10), total)
	assert.Equal(t, []any{"a", "b", "c"}, seen)
	assert.Equal(t, "x", adopted)
}

func TestSideEffects_MergeCollectsEveryFailure(t *testing.T) {
	left := NewSideEffects()
	left.Set("a", 1)
	left.Set("b", 2)

	right := NewSideEffects()
	right.Set("a", 1)
	right.Set("b", 2)

	err := left.Merge(right)
	require.Error(t, err)
	assert.ErrorContains(t, err, `"a"`)
	assert.ErrorContains(t, err, `"b"`)
}

func TestSideEffects_ClearedClonesMergeTheirOwnAdditions(t *testing.T) {
	base := NewSideEffects()
	require.NoError(t, base.Register("total", int64(100), SumReducer))
	require.NoError(t, base.Register("names", []any{"start"}, ConcatReducer))
	require.NoError(t, base.Register("untouched", int64(7), SumReducer))

	later, err := base.Clone()
	require.NoError(t, err)
	later.Clear()
	_, ok := later.Get("total")
	assert.False(t, ok)
	assert.Equal(t, []string{"total", "names", "untouched"}, later.Keys())

	require.NoError(t, base.Add("total", int64(2)))
	require.NoError(t, later.Add("total", int64(3)))
	require.NoError(t, later.Add("names", "b"))

	require.NoError(t, base.Merge(later))
	total, _ := base.Get("total")
	names, _ := base.Get("names")
	untouched, _ := base.Get("untouched")
	assert.Equal(t, int64(105), total)
	assert.Equal(t, []any{"start", "b"}, names)
	assert.Equal(t, int64(7), untouched)

	// A cleared set adopts values it has none for.
	empty := NewSideEffects()
	require.NoError(t, empty.Register("total", int64(0), SumReducer))
	empty.Clear()
	require.NoError(t, empty.Merge(later))
	total, _ = empty.Get("total")
	assert.Equal(t, int64(3), total)
}

type uncopyable struct{ n int }

func TestSideEffects_RegisterReportsCopyFailure(t *testing.T) {
	typ := reflect.TypeOf(uncopyable{})
	copystructure.Copiers[typ] = func(any) (any, error) { return nil, errors.New("refused") }
	t.Cleanup(func() { delete(copystructure.Copiers, typ) })

	se := NewSideEffects()
	err := se.Register("u", uncopyable{n: 1}, nil)
	assert.ErrorContains(t, err, `side-effect "u"`)
	assert.ErrorContains(t, err, "refused")
	assert.False(t, se.Registered("u"))

	tr := NewSource(nil).WithSideEffect("u", uncopyable{n: 1}, nil).Inject(1)
	_, err = tr.ToList(context.Background())
	assert.ErrorContains(t, err, "refused")
}

func TestReducers(t *testing.T) {
	sum, err := SumReducer(int64(1), 1.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, sum)

	first, err := SumReducer(nil, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, first)

	list, err := ConcatReducer(nil, "a")
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, list)

	_, err = ConcatReducer("not a list", "a")
	assert.Error(t, err)

	union, err := UnionReducer([]any{int64(1)}, []any{int64(1), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, union)
}
