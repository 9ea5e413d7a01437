package message

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

var testRequest = Request{RequestID: uuid.MustParse("2D62161B-9544-4F39-AF44-62EC49F9A595"), Op: "op"}

type funObject struct{ val string }

func (f funObject) String() string { return f.val }

// serializeResult encodes a response carrying result and decodes it back
// into generic JSON values.
func serializeResult(t *testing.T, result any) map[string]any {
	t.Helper()
	b, err := JSONSerializer{}.SerializeResponse(NewResponse(testRequest, result))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "2d62161b-9544-4f39-af44-62ec49f9a595", out["requestId"])
	return out
}

func TestSerializeResponse_NullResult(t *testing.T) {
	b, err := JSONSerializer{}.SerializeResponse(NewResponse(testRequest, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"requestId":"2d62161b-9544-4f39-af44-62ec49f9a595","code":200,"result":null,"type":0}`, string(b))
}

func TestSerializeResponse_Lists(t *testing.T) {
	funs := []any{funObject{"x"}, funObject{"y"}}

	t.Run("slice", func(t *testing.T) {
		assert.Equal(t, []any{"x", "y"}, serializeResult(t, funs)["result"])
	})
	t.Run("typed slice", func(t *testing.T) {
		assert.Equal(t, []any{"x", "y"}, serializeResult(t, []funObject{{"x"}, {"y"}})["result"])
	})
	t.Run("sequence", func(t *testing.T) {
		assert.Equal(t, []any{"x", "y"}, serializeResult(t, iter.Seq[any](slices.Values(funs)))["result"])
	})
	t.Run("sequence with nil element", func(t *testing.T) {
		seq := iter.Seq[any](slices.Values([]any{funObject{"x"}, nil, funObject{"y"}}))
		assert.Equal(t, []any{"x", nil, "y"}, serializeResult(t, seq)["result"])
	})
}

func TestSerializeResponse_Map(t *testing.T) {
	result := map[string]any{
		"x": funObject{"x"},
		"y": "some",
		"z": map[string]string{"a": "b"},
	}
	got := serializeResult(t, result)["result"]
	want := map[string]any{"x": "x", "y": "some", "z": map[string]any{"a": "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rendered map mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeResponse_MapWithElementKey(t *testing.T) {
	marko := &structure.Vertex{ID: 1, Label: "person", Properties: map[string]any{"name": "marko"}}
	got := serializeResult(t, map[*structure.Vertex]int{marko: 1000})["result"]
	assert.Equal(t, map[string]any{"1": float64(1000)}, got)
}

func TestSerializeResponse_Vertex(t *testing.T) {
	v := &structure.Vertex{ID: 123, Label: "person", Properties: map[string]any{
		"abc":     int64(123),
		"~hidden": "stephen",
		"friends": []any{"x", 5, map[string]any{"x": 500, "y": "some"}},
	}}
	got := serializeResult(t, []any{v})["result"]
	want := []any{map[string]any{
		"id":    float64(123),
		"label": "person",
		"type":  "vertex",
		"properties": map[string]any{
			"abc":     float64(123),
			"~hidden": "stephen",
			"friends": []any{"x", float64(5), map[string]any{"x": float64(500), "y": "some"}},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rendered vertex mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeResponse_Edge(t *testing.T) {
	e := &structure.Edge{ID: 7, Label: "test", OutV: 1, InV: 2, Properties: map[string]any{"abc": 123}}
	got := serializeResult(t, []*structure.Edge{e})["result"]
	want := []any{map[string]any{
		"id":         float64(7),
		"label":      "test",
		"type":       "edge",
		"outV":       float64(1),
		"inV":        float64(2),
		"properties": map[string]any{"abc": float64(123)},
	}}
	assert.Equal(t, want, got)

	bare := serializeResult(t, &structure.Edge{ID: 8, Label: "x", OutV: 1, InV: 1})["result"].(map[string]any)
	assert.Equal(t, map[string]any{}, bare["properties"])
}

func TestRender_LossyIDs(t *testing.T) {
	big := structure.ID(1<<53 + 1)

	r, err := Render(big)
	require.NoError(t, err)
	assert.Equal(t, float64(1<<53), r, "ids above 2^53 lose precision")

	r, err = Render(map[structure.ID]string{big: "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"9007199254740992": "x"}, r)
}

func TestRender_Path(t *testing.T) {
	v := &structure.Vertex{ID: 1, Label: "person"}
	p := traverser.NewPath(
		traverser.PathEntry{Labels: []string{"a"}, Value: v},
		traverser.PathEntry{Value: "marko"},
	)
	r, err := Render(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"labels": [][]string{{"a"}, {}},
		"objects": []any{
			map[string]any{"id": float64(1), "label": "person", "type": "vertex", "properties": map[string]any{}},
			"marko",
		},
	}, r)
}

func TestRender_Unsupported(t *testing.T) {
	_, err := Render(map[[2]int]string{{1, 2}: "x"})
	assert.ErrorContains(t, err, "cannot use [2]int as a map key")

	_, err = JSONSerializer{}.SerializeResponse(NewResponse(testRequest, []any{make(chan int)}))
	assert.True(t, IsSerializationError(err))
}

func TestDeserializeRequest(t *testing.T) {
	id := uuid.MustParse("011CFEE9-F640-4844-AC93-034448AC0E80")

	t.Run("without args", func(t *testing.T) {
		r, err := JSONSerializer{}.DeserializeRequest(fmt.Appendf(nil, `{"requestId":"%s","op":"eval"}`, id))
		require.NoError(t, err)
		assert.Equal(t, id, r.RequestID)
		assert.Equal(t, "eval", r.Op)
		require.NotNil(t, r.Args)
		assert.Empty(t, r.Args)
	})

	t.Run("with args", func(t *testing.T) {
		r, err := JSONSerializer{}.DeserializeRequest(fmt.Appendf(nil, `{"requestId":"%s","op":"eval","args":{"x":"y"}}`, id))
		require.NoError(t, err)
		v, ok := r.Arg("x")
		assert.True(t, ok)
		assert.Equal(t, "y", v)
	})

	for name, payload := range map[string]string{
		"unterminated":    `{"requestId":"not-a-json-object"`,
		"not a uuid":      `{"requestId":"%s","op":"eval","args":{"x":"y"}}`,
		"missing id":      `{"op":"eval"}`,
		"args not object": fmt.Sprintf(`{"requestId":"%s","op":"eval","args":[1]}`, id),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := JSONSerializer{}.DeserializeRequest([]byte(payload))
			var se *SerializationError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Error(), "serialization:")
		})
	}
}

func TestRequest_RoundTrip(t *testing.T) {
	req := NewRequest(OpTraversal, map[string]any{"name": "neighbours", "partitions": 2})
	b, err := JSONSerializer{}.SerializeRequest(req)
	require.NoError(t, err)

	got, err := JSONSerializer{}.DeserializeRequest(b)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, got.RequestID)
	assert.Equal(t, OpTraversal, got.Op)
	assert.Equal(t, map[string]any{"name": "neighbours", "partitions": float64(2)}, got.Args)

	empty, err := JSONSerializer{}.SerializeRequest(Request{RequestID: req.RequestID, Op: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"args":{}`)
}

func TestDeserializeResponse(t *testing.T) {
	b, err := JSONSerializer{}.SerializeResponse(NewErrorResponse(testRequest, CodeServerErrorTimeout, "evaluation exceeded 1s."))
	require.NoError(t, err)

	r, err := JSONSerializer{}.DeserializeResponse(b)
	require.NoError(t, err)
	assert.Equal(t, testRequest.RequestID, r.RequestID)
	assert.Equal(t, CodeServerErrorTimeout, r.Code)
	assert.Equal(t, "evaluation exceeded 1s.", r.Message)
	assert.Nil(t, r.Result)

	_, err = JSONSerializer{}.DeserializeResponse([]byte(`{"requestId":`))
	assert.True(t, IsSerializationError(err))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "SERVER_ERROR_TIMEOUT", CodeServerErrorTimeout.String())
	assert.Equal(t, "CODE_42", Code(42).String())
	assert.True(t, CodeNoContent.IsSuccess())
	assert.False(t, CodeMalformedRequest.IsSuccess())
}
