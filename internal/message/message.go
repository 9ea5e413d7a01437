// Package message defines the driver protocol: requests naming an operation
// and its arguments, responses carrying a result code and a rendered result,
// and the JSON serializer that moves both over the wire.
package message

import (
	"fmt"

	"github.com/google/uuid"
)

// Code is a response status.
type Code int

const (
	CodeSuccess                  Code = 200
	CodeNoContent                Code = 204
	CodeMalformedRequest         Code = 498
	CodeInvalidRequestArguments  Code = 499
	CodeServerError              Code = 500
	CodeServerErrorEvaluation    Code = 597
	CodeServerErrorTimeout       Code = 598
	CodeServerErrorSerialization Code = 599
)

// String returns the status name, e.g. "SUCCESS".
func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "SUCCESS"
	case CodeNoContent:
		return "NO_CONTENT"
	case CodeMalformedRequest:
		return "REQUEST_ERROR_MALFORMED_REQUEST"
	case CodeInvalidRequestArguments:
		return "REQUEST_ERROR_INVALID_REQUEST_ARGUMENTS"
	case CodeServerError:
		return "SERVER_ERROR"
	case CodeServerErrorEvaluation:
		return "SERVER_ERROR_EVALUATION"
	case CodeServerErrorTimeout:
		return "SERVER_ERROR_TIMEOUT"
	case CodeServerErrorSerialization:
		return "SERVER_ERROR_SERIALIZATION"
	default:
		return fmt.Sprintf("CODE_%d", int(c))
	}
}

// IsSuccess reports whether the code is a 2xx status.
func (c Code) IsSuccess() bool { return c >= 200 && c < 300 }

// Op names understood by the server.
const (
	OpTraversal = "traversal"
)

// Socket.io events carrying serialized requests and responses.
const (
	EventRequest  = "request"
	EventResponse = "response"
)

// Request asks the server to run an operation.
type Request struct {
	RequestID uuid.UUID
	Op        string
	// Args is never nil after deserialization.
	Args map[string]any
}

// NewRequest creates a request with a fresh random id.
func NewRequest(op string, args map[string]any) Request {
	if args == nil {
		args = map[string]any{}
	}
	return Request{RequestID: uuid.New(), Op: op, Args: args}
}

// Arg returns the argument stored under key.
func (r Request) Arg(key string) (any, bool) {
	v, ok := r.Args[key]
	return v, ok
}

// Response answers a request. A nil Result is sent as an explicit null.
type Response struct {
	RequestID uuid.UUID
	Code      Code
	// Message describes a failure; it is empty on success.
	Message string
	Result  any
}

// NewResponse creates a successful response to req carrying result.
func NewResponse(req Request, result any) Response {
	return Response{RequestID: req.RequestID, Code: CodeSuccess, Result: result}
}

// NewErrorResponse creates a failed response to req.
func NewErrorResponse(req Request, code Code, msg string) Response {
	return Response{RequestID: req.RequestID, Code: code, Message: msg}
}
