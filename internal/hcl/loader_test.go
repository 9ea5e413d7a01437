package hcl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/burstgraph/internal/config"
	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/testutil"
)

func load(t *testing.T, files map[string]string) (*config.Model, error) {
	t.Helper()
	dir := testutil.WriteFiles(t, files)
	return NewLoader().Load(context.Background(), dir)
}

func TestLoad_NeighborGraph(t *testing.T) {
	m, err := load(t, map[string]string{"graph.hcl": testutil.NeighborGraphHCL})
	require.NoError(t, err)

	require.Len(t, m.Vertices, 3)
	assert.Equal(t, structure.ID(1), m.Vertices[0].ID)
	assert.Equal(t, "person", m.Vertices[0].Label)
	assert.Equal(t, map[string]any{"name": "marko", "age": int64(29)}, m.Vertices[0].Properties)

	require.Len(t, m.Edges, 2)
	e := m.Edges[1]
	assert.Equal(t, structure.ID(11), e.ID)
	assert.Equal(t, "knows", e.Label)
	assert.Equal(t, structure.ID(3), e.Out)
	assert.Equal(t, structure.ID(2), e.In)
	assert.Empty(t, e.Properties)

	def, ok := m.Traversals["distinct_neighbour_names"]
	require.True(t, ok)
	assert.Equal(t, config.SourceVertices, def.Source)
	require.Len(t, def.Steps, 3)

	local := def.Steps[1]
	assert.Equal(t, "local", local.Kind)
	assert.Equal(t, []string{"distinct"}, local.Labels)
	assert.Empty(t, local.Args)
	var kinds []string
	for _, s := range local.Steps {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []string{"both", "values", "dedup", "count"}, kinds)
	assert.True(t, local.Steps[1].Args["keys"].Equals(cty.TupleVal([]cty.Value{cty.StringVal("name")})).True())

	sel := def.Steps[2]
	assert.Contains(t, sel.Args, "labels")
	assert.NotContains(t, def.Steps[0].Args, "as")
	assert.Contains(t, sel.Range.Filename, "graph.hcl")
}

func TestLoad_TraversalAttributes(t *testing.T) {
	m, err := load(t, map[string]string{"t.hcl": `
traversal "lit" {
  source             = "inject"
  values             = [1, 2.5, "x", null]
  sack               = 0
  partitions         = 3
  without_strategies = ["LazyBarrier"]

  side_effect "seen" {}
  side_effect "total" {
    initial = 0
    reducer = "sum"
  }

  step "is" {
    op    = "within"
    value = [1, "x"]
  }
}

traversal "some" {
  source = "E"
  ids    = [10, 11]
}
`})
	require.NoError(t, err)
	assert.Equal(t, []string{"lit", "some"}, m.TraversalNames())

	lit := m.Traversals["lit"]
	assert.Equal(t, config.SourceInject, lit.Source)
	assert.Equal(t, []any{int64(1), 2.5, "x", nil}, lit.Values)
	assert.Equal(t, int64(0), lit.Sack)
	assert.Equal(t, 3, lit.Partitions)
	assert.Equal(t, []string{"LazyBarrier"}, lit.WithoutStrategies)
	assert.Equal(t, []*config.SideEffectDef{
		{Key: "seen", Reducer: "concat"},
		{Key: "total", Initial: int64(0), Reducer: "sum"},
	}, lit.SideEffects)

	some := m.Traversals["some"]
	assert.Equal(t, config.SourceEdges, some.Source)
	assert.Equal(t, []structure.ID{10, 11}, some.IDs)
	assert.Nil(t, some.Sack)
}

func TestLoad_FilesAndDirectories(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"vertices/a.hcl": `vertex "1" {}`,
		"vertices/b.hcl": `vertex "2" {}`,
		"edges.hcl":      "edge \"5\" {\n label = \"x\"\n out_v = 1\n in_v = 2\n}",
		"notes.txt":      `not hcl`,
	})
	l := NewLoader()

	m, err := l.Load(context.Background(), dir, filepath.Join(dir, "edges.hcl"), filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Len(t, m.Vertices, 2)
	assert.Len(t, m.Edges, 1, "a file reached twice is loaded once")
	assert.Equal(t, "vertex", m.Vertices[0].Label)

	_, err = l.Load(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorContains(t, err, "no .hcl files found")
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"syntax": {
			src:  `vertex "1" {`,
			want: "failed to parse HCL file",
		},
		"unknown attribute": {
			src:  "edge \"1\" {\n label = \"x\"\n out_v = 1\n in_v = 1\n weight = 2\n}",
			want: "failed to decode HCL file",
		},
		"bad id": {
			src:  `vertex "one" {}`,
			want: `invalid element identifier "one"`,
		},
		"properties not an object": {
			src:  `vertex "1" { properties = [1] }`,
			want: "properties must be an object",
		},
		"dangling edge": {
			src:  "edge \"1\" {\n label = \"x\"\n out_v = 1\n in_v = 2\n}",
			want: "undefined vertex 1",
		},
		"duplicate traversal": {
			src:  `traversal "a" {}` + "\n" + `traversal "a" {}`,
			want: `traversal "a" already defined`,
		},
		"values not a list": {
			src:  "traversal \"a\" {\n source = \"inject\"\n values = \"x\"\n}",
			want: "values must be a list",
		},
		"foreign block in step": {
			src:  "traversal \"a\" {\n step \"local\" {\n  traversal {}\n }\n}",
			want: `unexpected "traversal" block`,
		},
		"unknown source": {
			src:  `traversal "a" { source = "X" }`,
			want: `unknown source "X"`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(t, map[string]string{"bad.hcl": tc.src})
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestConverter_ToNative(t *testing.T) {
	c := NewConverter()
	cases := map[string]struct {
		in   cty.Value
		want any
	}{
		"null":     {cty.NullVal(cty.String), nil},
		"string":   {cty.StringVal("x"), "x"},
		"bool":     {cty.True, true},
		"integer":  {cty.NumberIntVal(42), int64(42)},
		"fraction": {cty.NumberFloatVal(0.5), 0.5},
		"list":     {cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}), []any{int64(1), int64(2)}},
		"set":      {cty.SetVal([]cty.Value{cty.StringVal("a")}), []any{"a"}},
		"object": {
			cty.ObjectVal(map[string]cty.Value{"a": cty.NumberIntVal(1), "b": cty.ListValEmpty(cty.String)}),
			map[string]any{"a": int64(1), "b": []any{}},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := c.ToNative(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := c.ToNative(cty.UnknownVal(cty.String))
	assert.ErrorContains(t, err, "not known")
}

func TestConverter_Decode(t *testing.T) {
	c := NewConverter()

	var labels []string
	require.NoError(t, c.Decode(cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}), &labels))
	assert.Equal(t, []string{"a", "b"}, labels)

	var n int64
	require.NoError(t, c.Decode(cty.StringVal("7"), &n), "strings convert to numbers")
	assert.Equal(t, int64(7), n)

	var v any
	require.NoError(t, c.Decode(cty.NumberIntVal(3), &v))
	assert.Equal(t, int64(3), v)

	untouched := "keep"
	require.NoError(t, c.Decode(cty.NullVal(cty.String), &untouched))
	assert.Equal(t, "keep", untouched)

	var b bool
	assert.ErrorContains(t, c.Decode(cty.StringVal("maybe"), &b), "cannot convert")
	assert.ErrorContains(t, c.Decode(cty.True, b), "non-nil pointer")

	back, err := c.ToCtyValue(map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.True(t, back.Equals(cty.MapVal(map[string]cty.Value{"a": cty.StringVal("b")})).True())
}
