package traverser

import (
	"testing"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AllocatesOptionalParts(t *testing.T) {
	plain := New("a", NewRequirements(RequireObject))
	assert.Equal(t, uint64(1), plain.Bulk())
	assert.False(t, plain.TracksPath())
	_, hasSack := plain.Sack()
	assert.False(t, hasSack)

	full := New("a", NewRequirements(RequireLabeledPath, RequireSack))
	assert.True(t, full.TracksPath())
	_, hasSack = full.Sack()
	assert.True(t, hasSack)
}

func TestMerge(t *testing.T) {
	t.Run("equal values add bulk", func(t *testing.T) {
		a := New(int64(1), 0)
		b, err := New(int64(1), 0).WithBulk(3)
		require.NoError(t, err)

		require.True(t, a.Merge(b))
		assert.Equal(t, uint64(4), a.Bulk())
	})

	t.Run("different values are left alone", func(t *testing.T) {
		a := New("x", 0)
		assert.False(t, a.Merge(New("y", 0)))
		assert.Equal(t, uint64(1), a.Bulk())
	})

	t.Run("elements merge by identity", func(t *testing.T) {
		a := New(&structure.Vertex{ID: 1, Label: "person"}, 0)
		b := New(&structure.Vertex{ID: 1, Label: "person"}, 0)
		assert.True(t, a.Merge(b))
	})

	t.Run("paths must match", func(t *testing.T) {
		reqs := NewRequirements(RequirePath)
		a, err := New("v", reqs).WithPathEntry(nil, "first")
		require.NoError(t, err)
		b, err := New("v", reqs).WithPathEntry(nil, "other")
		require.NoError(t, err)
		assert.False(t, a.Merge(b))

		c, err := New("v", reqs).WithPathEntry(nil, "first")
		require.NoError(t, err)
		assert.True(t, a.Merge(c))
	})
}

func TestSplitBulk(t *testing.T) {
	src, err := New("v", 0).WithBulk(5)
	require.NoError(t, err)

	part, err := src.SplitBulk(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), part.Bulk())
	assert.Equal(t, uint64(3), src.Bulk())
	assert.Equal(t, "v", part.Value())

	_, err = src.SplitBulk(3)
	assert.ErrorIs(t, err, ErrInvalidSplit)
	_, err = src.SplitBulk(0)
	assert.ErrorIs(t, err, ErrInvalidSplit)
	assert.Equal(t, uint64(3), src.Bulk(), "failed splits must not touch the source")
}

func TestWithBulk_RejectsZero(t *testing.T) {
	_, err := New("v", 0).WithBulk(0)
	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestWithPathEntry(t *testing.T) {
	_, err := New("v", 0).WithPathEntry(nil, "v")
	assert.ErrorIs(t, err, ErrPathNotTracked)

	base := New("v", NewRequirements(RequirePath))
	one, err := base.WithPathEntry([]string{"a"}, "v")
	require.NoError(t, err)
	two, err := one.WithPathEntry(nil, "w")
	require.NoError(t, err)

	assert.Equal(t, 0, base.Path().Len(), "extending must not mutate the original")
	assert.Equal(t, 1, one.Path().Len())
	assert.Equal(t, []any{"v", "w"}, two.Path().Objects())

	got, ok := two.Path().Get("a")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestWithLabels_AddsToLatestEntry(t *testing.T) {
	tr, err := New("v", NewRequirements(RequirePath)).WithPathEntry(nil, "v")
	require.NoError(t, err)
	labeled, err := tr.WithLabels("x", "y")
	require.NoError(t, err)

	assert.False(t, tr.Path().HasLabel("x"))
	assert.True(t, labeled.Path().HasLabel("x"))
	assert.True(t, labeled.Path().HasLabel("y"))

	_, err = New("v", 0).WithLabels("x")
	assert.ErrorIs(t, err, ErrPathNotTracked)
}

func TestSplit_InheritsLineage(t *testing.T) {
	tr, err := New("v", NewRequirements(RequirePath, RequireSack)).WithBulk(2)
	require.NoError(t, err)
	tr = tr.WithSack(10)

	child := tr.Split("w")
	assert.Equal(t, "w", child.Value())
	assert.Equal(t, uint64(2), child.Bulk())
	sack, ok := child.Sack()
	require.True(t, ok)
	assert.Equal(t, 10, sack)
	assert.True(t, child.TracksPath())
}

func TestPath_GetReturnsMostRecent(t *testing.T) {
	p := NewPath(
		PathEntry{Labels: []string{"a"}, Value: 1},
		PathEntry{Labels: []string{"b"}, Value: 2},
		PathEntry{Labels: []string{"a"}, Value: 3},
	)
	got, ok := p.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, got)

	_, ok = p.Get("missing")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, structure.Key{Kind: structure.KindEdge, ID: 4}, Key(&structure.Edge{ID: 4}))
	assert.Equal(t, "x", Key("x"))
	assert.True(t, Equal([]any{1, "a"}, []any{1, "a"}))
	assert.False(t, Equal([]any{1}, []any{2}))
	assert.True(t, Equal(map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1}))
}

func TestRequirements(t *testing.T) {
	r := NewRequirements(RequireBulk).With(RequireLabeledPath)
	assert.True(t, r.Has(RequireBulk))
	assert.True(t, r.TracksPath())
	assert.False(t, r.Has(RequireSack))
	assert.Equal(t, "{bulk,labeled_path}", r.String())
	assert.Equal(t, "{}", Requirements(0).String())
}
