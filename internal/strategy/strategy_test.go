package strategy

import (
	"context"
	"testing"

	"github.com/specialistvlad/burstgraph/internal/cachedgraph"
	"github.com/specialistvlad/burstgraph/internal/process"
	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(t *testing.T, ss ...process.Strategy) *process.Source {
	t.Helper()
	return process.NewSource(testutil.NeighborGraph(t), ss...)
}

func applied(t *testing.T, tr *process.Traversal) *process.Traversal {
	t.Helper()
	require.NoError(t, tr.ApplyStrategies())
	return tr
}

func TestDefaults_Order(t *testing.T) {
	sorted, err := process.NewStrategies(Defaults(16)...).Sorted()
	require.NoError(t, err)

	var names []string
	for _, s := range sorted {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		NameIdentityRemoval,
		NameIncidentToAdjacent,
		NameAdjacentToIncident,
		NameLazyBarrier,
		NameLocalNeighborhoodCache,
		NameLabelVerification,
	}, names)

	assert.Len(t, Defaults(0), 5, "no cache without a size")
}

func TestByName(t *testing.T) {
	for _, want := range Defaults(4) {
		got, ok := ByName(want.Name(), 4)
		require.True(t, ok, want.Name())
		assert.Equal(t, want, got)
	}
	_, ok := ByName("Unknown", 0)
	assert.False(t, ok)
}

func TestIdentityRemoval(t *testing.T) {
	tr := applied(t, source(t, IdentityRemoval{}).V().Identity().Out().Identity().As("kept"))
	assert.Equal(t, []string{"GraphStep", "VertexStep", "IdentityStep"}, tr.StepNames())

	child := process.Anon().Identity()
	applied(t, source(t, IdentityRemoval{}).V().Local(child))
	assert.Equal(t, []string{"IdentityStep"}, child.StepNames(), "an emptied traversal gets a fresh identity")
}

func TestIncidentToAdjacent(t *testing.T) {
	ctx := context.Background()

	tr := applied(t, source(t, IncidentToAdjacent{}).V().OutE("knows").InV().As("x"))
	require.Equal(t, []string{"GraphStep", "VertexStep"}, tr.StepNames())
	vs := tr.Step(1).(*process.VertexStep)
	assert.False(t, vs.ReturnsEdges())
	assert.Equal(t, structure.DirectionOut, vs.Direction())
	assert.Equal(t, []string{"knows"}, vs.EdgeLabels())
	assert.Equal(t, []string{"x"}, vs.Labels())

	out, err := tr.ToList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []structure.ID{2, 2}, testutil.IDs(t, out))

	in := applied(t, source(t, IncidentToAdjacent{}).V().InE().OutV())
	assert.Equal(t, []string{"GraphStep", "VertexStep"}, in.StepNames())

	t.Run("left alone", func(t *testing.T) {
		for name, tr := range map[string]*process.Traversal{
			"path tracking":   source(t, IncidentToAdjacent{}).V().OutE().InV().Path(),
			"labeled edges":   source(t, IncidentToAdjacent{}).V().OutE().As("e").InV(),
			"mismatched ends": source(t, IncidentToAdjacent{}).V().OutE().OutV(),
			"both directions": source(t, IncidentToAdjacent{}).V().BothE().BothV(),
		} {
			applied(t, tr)
			assert.Contains(t, tr.StepNames(), "EdgeVertexStep", name)
		}
	})
}

func TestAdjacentToIncident(t *testing.T) {
	child := process.Anon().Both().Count()
	tr := applied(t, source(t, AdjacentToIncident{}).V().Local(child))
	assert.True(t, child.Step(0).(*process.VertexStep).ReturnsEdges())

	out, err := tr.ToList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(1)}, out)

	labeled := process.Anon().Both().As("n").Count()
	applied(t, source(t, AdjacentToIncident{}).V().Local(labeled))
	assert.False(t, labeled.Step(0).(*process.VertexStep).ReturnsEdges())
}

func TestLazyBarrier(t *testing.T) {
	ctx := context.Background()

	tr := applied(t, source(t, LazyBarrier{}).V().Out().Values("name"))
	assert.Equal(t, []string{"GraphStep", "VertexStep", "NoOpBarrierStep", "PropertiesStep"}, tr.StepNames())
	trs, err := tr.Traversers(ctx)
	require.NoError(t, err)
	require.Len(t, trs, 1, "both expansions reach josh and merge")
	assert.Equal(t, uint64(2), trs[0].Bulk())

	counted := applied(t, source(t, LazyBarrier{}).V().Out().Count())
	assert.Equal(t, []string{"GraphStep", "VertexStep", "CountStep"}, counted.StepNames())

	tail := applied(t, source(t, LazyBarrier{}).V().Out())
	assert.Equal(t, []string{"GraphStep", "VertexStep"}, tail.StepNames())

	pathed := applied(t, source(t, LazyBarrier{}).V().Out().Out().Path())
	assert.NotContains(t, pathed.StepNames(), "NoOpBarrierStep")

	child := process.Anon().Out().Values("name")
	applied(t, source(t, LazyBarrier{}).V().Local(child))
	assert.NotContains(t, child.StepNames(), "NoOpBarrierStep")
}

func TestLocalNeighborhoodCache(t *testing.T) {
	ctx := context.Background()

	child := process.Anon().Both().Values("name").Dedup().Count()
	tr := applied(t, source(t, LocalNeighborhoodCache{Size: 8}).V().Local(child))
	cache, ok := child.Store().(*cachedgraph.Store)
	require.True(t, ok)
	assert.NotSame(t, tr.Store(), child.Store())

	out, err := tr.ToList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(1), int64(1)}, out)
	assert.Equal(t, 3, cache.Len())

	c, err := tr.Clone()
	require.NoError(t, err)
	clonedCache, ok := c.Step(1).(*process.LocalStep).Child().Store().(*cachedgraph.Store)
	require.True(t, ok)
	assert.NotSame(t, cache, clonedCache)
	assert.Zero(t, clonedCache.Len())

	deep := process.Anon().Both().Count()
	applied(t, source(t, LocalNeighborhoodCache{Size: 8}).V().Out().In().Local(deep))
	_, ok = deep.Store().(*cachedgraph.Store)
	assert.False(t, ok, "two expansions before the local step")
}

func TestLabelVerification(t *testing.T) {
	_, err := source(t, LabelVerification{}).V().As("a").Out().Select("a").ToList(context.Background())
	require.NoError(t, err)

	_, err = source(t, LabelVerification{}).V().Out().Select("missing").ToList(context.Background())
	assert.ErrorIs(t, err, process.ErrRequirementViolation)

	nested := source(t, LabelVerification{}).V().As("a").Local(process.Anon().Out().Select("a"))
	out, err := nested.ToList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []structure.ID{1, 3}, testutil.IDs(t, out))

	late := source(t, LabelVerification{}).V().Local(process.Anon().Select("b")).As("b")
	assert.ErrorIs(t, late.ApplyStrategies(), process.ErrRequirementViolation)
}

func TestDefaults_PreserveResults(t *testing.T) {
	src := source(t, Defaults(16)...)
	out, err := src.V().As("node").
		Local(process.Anon().Both().Values("name").Dedup().Count()).As("distinct").
		Select("node", "distinct").
		ToList(context.Background())
	require.NoError(t, err)

	got := make(map[structure.ID]int64)
	for _, r := range out {
		m := r.(map[string]any)
		got[m["node"].(*structure.Vertex).ID] = m["distinct"].(int64)
	}
	assert.Equal(t, map[structure.ID]int64{1: 1, 2: 1, 3: 1}, got)
}
