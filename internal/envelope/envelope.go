package envelope

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/wagiedev/mcpws-go/internal/errors"
)

// Error codes carried in error objects. They follow JSON-RPC 2.0 numbering
// so generic JSON-RPC tooling can read them.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeRateLimited    = -32000
)

// Error is the error object of a failed response.
type Error struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Envelope is one message unit exchanged over the transport.
//
// ID is a string, a json.Number, or nil. Requests set Method and Params;
// responses set exactly one of Result and Error.
type Envelope struct {
	ID     any
	Method string
	Params map[string]any
	Result json.RawMessage
	Error  *Error
}

type wireRequest struct {
	ID     any            `json:"id,omitempty"`
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

type wireResult struct {
	ID     any             `json:"id"`
	Result json.RawMessage `json:"result"`
}

type wireError struct {
	ID    any    `json:"id"`
	Error *Error `json:"error"`
}

// NewRequest creates a request envelope. A nil params map is sent as {}.
func NewRequest(id any, method string, params map[string]any) *Envelope {
	if params == nil {
		params = make(map[string]any)
	}

	return &Envelope{
		ID:     id,
		Method: method,
		Params: params,
	}
}

// NewResult creates a successful response envelope for id.
//
// result is marshaled to JSON unless it is already a json.RawMessage.
func NewResult(id any, result any) (*Envelope, error) {
	var raw json.RawMessage

	switch v := result.(type) {
	case json.RawMessage:
		raw = v
	default:
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshal result: %w", err)
		}

		raw = data
	}

	// A null result would read back as no result at all.
	if _, ok := present(raw); !ok {
		raw = json.RawMessage("{}")
	}

	return &Envelope{ID: id, Result: raw}, nil
}

// NewError creates a failed response envelope for id.
func NewError(id any, code int, message string) *Envelope {
	return &Envelope{
		ID:    id,
		Error: &Error{Code: code, Message: message},
	}
}

// FromError converts err into a failed response envelope for id, choosing
// the error code from the error kind.
func FromError(id any, err error) *Envelope {
	return NewError(id, CodeFor(err), err.Error())
}

// CodeFor returns the error code used on the wire for err.
func CodeFor(err error) int {
	if _, ok := stderrors.AsType[*errors.ParseError](err); ok {
		return CodeParseError
	}

	if _, ok := stderrors.AsType[*errors.UnknownMethodError](err); ok {
		return CodeMethodNotFound
	}

	if _, ok := stderrors.AsType[*errors.UnknownToolError](err); ok {
		return CodeInvalidParams
	}

	if _, ok := stderrors.AsType[*errors.UnknownResourceError](err); ok {
		return CodeInvalidParams
	}

	if stderrors.Is(err, errors.ErrRateLimited) {
		return CodeRateLimited
	}

	return CodeInternalError
}

// IsRequest reports whether the envelope is a request (or notification).
func (e *Envelope) IsRequest() bool {
	return e.Method != ""
}

// IsResponse reports whether the envelope is a response.
func (e *Envelope) IsResponse() bool {
	return e.Method == ""
}

// IsNotification reports whether the envelope is a request without an id.
func (e *Envelope) IsNotification() bool {
	return e.Method != "" && e.ID == nil
}

// Key returns the correlation key of the envelope id.
// The second result is false when the envelope has no id.
func (e *Envelope) Key() (string, bool) {
	return IDKey(e.ID)
}

// IDKey returns the string form of an id as used for correlation.
func IDKey(id any) (string, bool) {
	switch v := id.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

// Err returns the response error as a *errors.ResponseError, or nil for a
// successful response.
func (e *Envelope) Err() error {
	if e.Error == nil {
		return nil
	}

	return &errors.ResponseError{
		Code:    e.Error.Code,
		Message: e.Error.Message,
		Data:    e.Error.Data,
	}
}

// DecodeResult unmarshals the response result into v. A failed response
// returns its error instead.
func (e *Envelope) DecodeResult(v any) error {
	if err := e.Err(); err != nil {
		return err
	}

	if err := json.Unmarshal(e.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	return nil
}

// Validate checks the request/response invariants.
func (e *Envelope) Validate() error {
	_, hasResult := present(e.Result)
	hasError := e.Error != nil

	if e.IsRequest() {
		if hasResult || hasError {
			return fmt.Errorf("%w: request %q carries result or error", errors.ErrInvalidEnvelope, e.Method)
		}

		return nil
	}

	switch {
	case hasResult && hasError:
		return fmt.Errorf("%w: response carries both result and error", errors.ErrInvalidEnvelope)
	case !hasResult && !hasError:
		return fmt.Errorf("%w: response carries neither result nor error", errors.ErrInvalidEnvelope)
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if e.IsRequest() {
		params := e.Params
		if params == nil {
			params = map[string]any{}
		}

		return json.Marshal(wireRequest{ID: e.ID, Method: e.Method, Params: params})
	}

	if e.Error != nil {
		return json.Marshal(wireError{ID: e.ID, Error: e.Error})
	}

	return json.Marshal(wireResult{ID: e.ID, Result: e.Result})
}

// Parse decodes one inbound message.
//
// Failures are reported as *errors.ParseError. Its ID field holds the
// request id when it could be read, so the receiver can still address an
// error response to the sender.
func Parse(data []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage

	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &errors.ParseError{RawData: string(data), Err: err}
	}

	if fields == nil {
		return nil, &errors.ParseError{RawData: string(data), Err: fmt.Errorf("envelope must be a JSON object")}
	}

	id, err := decodeID(fields["id"])
	if err != nil {
		return nil, &errors.ParseError{RawData: string(data), Err: err}
	}

	env := &Envelope{ID: id}

	fail := func(err error) (*Envelope, error) {
		return nil, &errors.ParseError{ID: id, RawData: string(data), Err: err}
	}

	if raw, ok := present(fields["method"]); ok {
		if err := json.Unmarshal(raw, &env.Method); err != nil {
			return fail(fmt.Errorf("method must be a string"))
		}
	}

	if raw, ok := present(fields["params"]); ok {
		if err := json.Unmarshal(raw, &env.Params); err != nil {
			return fail(fmt.Errorf("params must be an object"))
		}
	}

	if raw, ok := present(fields["result"]); ok {
		env.Result = append(json.RawMessage(nil), raw...)
	}

	if raw, ok := present(fields["error"]); ok {
		var obj Error
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fail(fmt.Errorf("error must be an object"))
		}

		env.Error = &obj
	}

	if env.IsRequest() && env.Params == nil {
		env.Params = make(map[string]any)
	}

	if err := env.Validate(); err != nil {
		return fail(err)
	}

	return env, nil
}

// present returns the raw value of a field unless it is absent or null.
func present(raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}

	return trimmed, true
}

// decodeID reads the id field. Absent and null ids decode to nil; anything
// other than a string or number is unreadable.
func decodeID(raw json.RawMessage) (any, error) {
	trimmed, ok := present(raw)
	if !ok {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var id any
	if err := dec.Decode(&id); err != nil {
		return nil, fmt.Errorf("decode id: %w", err)
	}

	switch id.(type) {
	case string, json.Number:
		return id, nil
	default:
		return nil, fmt.Errorf("id must be a string or number")
	}
}
