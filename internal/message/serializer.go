package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strconv"

	"github.com/google/uuid"

	"github.com/specialistvlad/burstgraph/internal/structure"
	"github.com/specialistvlad/burstgraph/internal/traverser"
)

// MimeTypeJSON is the content type of the JSON serializer.
const MimeTypeJSON = "application/json"

// SerializationError reports a payload that could not be read or a result
// that could not be written.
type SerializationError struct {
	Msg string
	Err error
}

func (e *SerializationError) Error() string {
	if e.Err == nil {
		return "serialization: " + e.Msg
	}
	return fmt.Sprintf("serialization: %s: %v", e.Msg, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// IsSerializationError reports whether err is or wraps a SerializationError.
func IsSerializationError(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

// Serializer turns messages into bytes and back.
type Serializer interface {
	MimeType() string
	SerializeRequest(Request) ([]byte, error)
	DeserializeRequest([]byte) (Request, error)
	SerializeResponse(Response) ([]byte, error)
	DeserializeResponse([]byte) (Response, error)
}

// JSONSerializer is the JSON wire format. Results are rendered with Render
// before encoding.
type JSONSerializer struct{}

var _ Serializer = JSONSerializer{}

// ResultTypeObject is the only result type the JSON format sends.
const ResultTypeObject = 0

type wireRequest struct {
	RequestID string         `json:"requestId"`
	Op        string         `json:"op"`
	Args      map[string]any `json:"args"`
}

type wireResponse struct {
	RequestID string `json:"requestId"`
	Code      Code   `json:"code"`
	Message   string `json:"message,omitempty"`
	Result    any    `json:"result"`
	Type      int    `json:"type"`
}

func (JSONSerializer) MimeType() string { return MimeTypeJSON }

func (JSONSerializer) SerializeRequest(r Request) ([]byte, error) {
	args, err := Render(r.Args)
	if err != nil {
		return nil, &SerializationError{Msg: "request args", Err: err}
	}
	if args == nil {
		args = map[string]any{}
	}
	b, err := json.Marshal(wireRequest{RequestID: r.RequestID.String(), Op: r.Op, Args: args.(map[string]any)})
	if err != nil {
		return nil, &SerializationError{Msg: "request", Err: err}
	}
	return b, nil
}

// DeserializeRequest parses a request. A missing args object yields an
// empty map.
func (JSONSerializer) DeserializeRequest(data []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return Request{}, &SerializationError{Msg: "malformed request", Err: err}
	}
	id, err := uuid.Parse(w.RequestID)
	if err != nil {
		return Request{}, &SerializationError{Msg: fmt.Sprintf("invalid requestId %q", w.RequestID), Err: err}
	}
	if w.Args == nil {
		w.Args = map[string]any{}
	}
	return Request{RequestID: id, Op: w.Op, Args: w.Args}, nil
}

// SerializeResponse renders the result and encodes the response. A nil
// result is written as null.
func (JSONSerializer) SerializeResponse(r Response) ([]byte, error) {
	result, err := Render(r.Result)
	if err != nil {
		return nil, &SerializationError{Msg: "result", Err: err}
	}
	b, err := json.Marshal(wireResponse{
		RequestID: r.RequestID.String(),
		Code:      r.Code,
		Message:   r.Message,
		Result:    result,
		Type:      ResultTypeObject,
	})
	if err != nil {
		return nil, &SerializationError{Msg: "response", Err: err}
	}
	return b, nil
}

// DeserializeResponse parses a response. The result is left in its decoded
// JSON form.
func (JSONSerializer) DeserializeResponse(data []byte) (Response, error) {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return Response{}, &SerializationError{Msg: "malformed response", Err: err}
	}
	id, err := uuid.Parse(w.RequestID)
	if err != nil {
		return Response{}, &SerializationError{Msg: fmt.Sprintf("invalid requestId %q", w.RequestID), Err: err}
	}
	return Response{RequestID: id, Code: w.Code, Message: w.Message, Result: w.Result}, nil
}

// Render converts a result into JSON-ready values:
//
//   - vertices and edges become objects with id, label, type and properties;
//   - element ids become float64, losing precision above 2^53;
//   - maps keyed by elements use the element id as the key;
//   - slices, arrays and iter.Seq sequences become lists;
//   - paths become {labels, objects};
//   - other fmt.Stringer values become their string.
func Render(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return x, nil
	case structure.ID:
		return lossyID(x), nil
	case *structure.Vertex:
		if x == nil {
			return nil, nil
		}
		props, err := Render(x.Properties)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"id":         lossyID(x.ID),
			"label":      x.Label,
			"type":       structure.KindVertex.String(),
			"properties": orEmpty(props),
		}, nil
	case *structure.Edge:
		if x == nil {
			return nil, nil
		}
		props, err := Render(x.Properties)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"id":         lossyID(x.ID),
			"label":      x.Label,
			"type":       structure.KindEdge.String(),
			"outV":       lossyID(x.OutV),
			"inV":        lossyID(x.InV),
			"properties": orEmpty(props),
		}, nil
	case traverser.Path:
		labels := make([][]string, 0, x.Len())
		objects := make([]any, 0, x.Len())
		for _, e := range x.Entries() {
			o, err := Render(e.Value)
			if err != nil {
				return nil, err
			}
			if e.Labels == nil {
				e.Labels = []string{}
			}
			labels = append(labels, e.Labels)
			objects = append(objects, o)
		}
		return map[string]any{"labels": labels, "objects": objects}, nil
	case iter.Seq[any]:
		out := []any{}
		for item := range x {
			r, err := Render(item)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			r, err := Render(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	case []any:
		return renderList(len(x), func(i int) any { return x[i] })
	case error:
		return x.Error(), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return renderReflect(reflect.ValueOf(v))
}

func renderReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Render(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		return renderList(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			k, err := mapKey(it.Key().Interface())
			if err != nil {
				return nil, err
			}
			r, err := Render(it.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Struct:
		return rv.Interface(), nil
	}
	return nil, fmt.Errorf("cannot render %s", rv.Type())
}

func renderList(n int, at func(int) any) (any, error) {
	out := make([]any, n)
	for i := range n {
		r, err := Render(at(i))
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// mapKey renders a map key as a JSON object key. Elements are keyed by id.
func mapKey(k any) (string, error) {
	switch x := k.(type) {
	case string:
		return x, nil
	case structure.Element:
		return formatLossyID(x.ElementID()), nil
	case structure.ID:
		return formatLossyID(x), nil
	case structure.Key:
		return formatLossyID(x.ID), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	rv := reflect.ValueOf(k)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	}
	return "", fmt.Errorf("cannot use %T as a map key", k)
}

// lossyID renders an id the way JSON numbers are read by most clients: as
// an IEEE-754 double.
func lossyID(id structure.ID) float64 { return float64(id) }

func formatLossyID(id structure.ID) string {
	return strconv.FormatFloat(lossyID(id), 'f', -1, 64)
}

func orEmpty(v any) any {
	if v == nil {
		return map[string]any{}
	}
	return v
}
