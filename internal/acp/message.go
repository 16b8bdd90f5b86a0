package acp

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the current ACP wire protocol version this
// engine negotiates. Agents select the lowest common version during
// the initialize handshake.
const ProtocolVersion = 1

// MessageKind discriminates the three JSON-RPC 2.0 message shapes.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindRequest
	KindNotification
	KindResponse
)

// RawMessage is the envelope used to classify and route an inbound
// JSON-RPC message before it is decoded into a typed Request,
// Notification, or Response. Classification is purely structural, per
// spec: method+id => request, method without id => notification,
// result/error present => response.
type RawMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the wire shape of a JSON-RPC error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ErrorObject) AsError() *Error {
	if e == nil {
		return nil
	}
	return &Error{Code: e.Code, Message: e.Message, Data: e.Data}
}

func errorObjectOf(err *Error) *ErrorObject {
	if err == nil {
		return nil
	}
	return &ErrorObject{Code: err.Code, Message: err.Message, Data: err.Data}
}

// Kind classifies a decoded RawMessage by JSON-RPC 2.0's discrimination
// rule: method + id is a Request, method without id is a Notification,
// and result or error present is a Response. Any other shape is
// reported as KindUnknown.
func (m *RawMessage) Kind() MessageKind {
	hasID := len(m.ID) > 0 && string(m.ID) != "null"
	switch {
	case m.Method != "" && hasID:
		return KindRequest
	case m.Method != "" && !hasID:
		return KindNotification
	case m.Result != nil || m.Error != nil:
		return KindResponse
	default:
		return KindUnknown
	}
}

// Request is an outbound or inbound JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  any             `json:"params,omitempty"`
}

// Notification is a fire-and-forget JSON-RPC message; it carries no
// id and never produces a Response.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is a JSON-RPC response: exactly one of Result/Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

func newRequest(id string, method string, params any) *Request {
	return &Request{JSONRPC: "2.0", ID: json.RawMessage(quoteID(id)), Method: method, Params: params}
}

func newNotification(method string, params any) *Notification {
	return &Notification{JSONRPC: "2.0", Method: method, Params: params}
}

func newResultResponse(id json.RawMessage, result any) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("acp: marshal result: %w", err)
	}
	return &Response{JSONRPC: "2.0", ID: id, Result: raw}, nil
}

func newErrorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Error: errorObjectOf(err)}
}

func quoteID(id string) string {
	b, _ := json.Marshal(id)
	return string(b)
}

// decodeID renders a wire id (string or number) as a string key for
// the pending-response table and dispatcher logs.
func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}
