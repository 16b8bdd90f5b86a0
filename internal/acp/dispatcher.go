package acp

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// RequestHandlerFunc handles one decoded inbound request and returns
// either a result (marshaled as the response's "result") or an error
// (translated to the response's "error").
type RequestHandlerFunc func(ctx context.Context, rawParams json.RawMessage) (any, error)

// NotificationHandlerFunc handles one decoded inbound notification.
// Notifications never produce a response, so there is nothing to
// return.
type NotificationHandlerFunc func(ctx context.Context, rawParams json.RawMessage)

// Dispatcher holds two method registries, request handlers and
// notification handlers, keyed by method name. Registries are built
// once at endpoint construction and are read-only afterward, so
// lookups take a read lock only to guard against the (rare, test-only)
// case of late registration.
type Dispatcher struct {
	mu            sync.RWMutex
	requests      map[string]RequestHandlerFunc
	notifications map[string]NotificationHandlerFunc
	log           *slogLogger
}

// NewDispatcher builds an empty Dispatcher. Register handlers with
// RegisterRequest/RegisterNotification (or the typed
// RegisterTypedRequest/RegisterTypedNotification helpers) before the
// owning Session starts reading traffic.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		requests:      make(map[string]RequestHandlerFunc),
		notifications: make(map[string]NotificationHandlerFunc),
		log:           newSlogLogger("dispatcher"),
	}
}

// RegisterRequest installs the handler for method, replacing any
// previous registration.
func (d *Dispatcher) RegisterRequest(method string, h RequestHandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests[method] = h
}

// RegisterNotification installs the handler for method, replacing any
// previous registration.
func (d *Dispatcher) RegisterNotification(method string, h NotificationHandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications[method] = h
}

// RegisterTypedRequest adapts a typed request handler into the raw
// RequestHandlerFunc shape: it decodes params into P before invoking
// h, producing -32602 (invalid params) on a decode failure rather
// than letting the handler run against a zero value.
func RegisterTypedRequest[P any, R any](d *Dispatcher, method string, h func(ctx context.Context, params P) (R, error)) {
	d.RegisterRequest(method, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, NewErrorf(CodeInvalidParams, "invalid params for %s: %s", method, err.Error())
			}
		}
		return h(ctx, params)
	})
}

// RegisterTypedNotification adapts a typed notification handler.
// Decode failures are logged and dropped rather than surfaced,
// because notifications have no response channel to carry an error.
func RegisterTypedNotification[P any](d *Dispatcher, method string, h func(ctx context.Context, params P)) {
	d.RegisterNotification(method, func(ctx context.Context, raw json.RawMessage) {
		var params P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				newSlogLogger("dispatcher").Warn("invalid notification params, dropping",
					"method", method, "error", err)
				return
			}
		}
		h(ctx, params)
	})
}

// HandleRequest looks up and invokes the handler for method, turning
// its result or error into a wire Response. A missing handler, an
// error return, or a panic inside the handler all become an error
// Response; none of them ever propagate to the caller.
func (d *Dispatcher) HandleRequest(ctx context.Context, id json.RawMessage, method string, rawParams json.RawMessage) (resp *Response) {
	d.mu.RLock()
	h, ok := d.requests[method]
	d.mu.RUnlock()

	if !ok {
		return newErrorResponse(id, missingHandlerError(method))
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panicked", "method", method, "panic", r)
			resp = newErrorResponse(id, NewErrorf(CodeInternalError, "handler panic: %v", r))
		}
	}()

	result, err := h(ctx, rawParams)
	if err != nil {
		return newErrorResponse(id, asError(err))
	}
	if result == nil {
		result = struct{}{}
	}
	out, merr := newResultResponse(id, result)
	if merr != nil {
		return newErrorResponse(id, asError(merr))
	}
	return out
}

// HandleNotification looks up and invokes the handler for method.
// A missing handler or panic is logged and otherwise has no
// observable effect, since notifications never produce a response.
func (d *Dispatcher) HandleNotification(ctx context.Context, method string, rawParams json.RawMessage) {
	d.mu.RLock()
	h, ok := d.notifications[method]
	d.mu.RUnlock()

	if !ok {
		d.log.Debug("no handler registered for notification", "method", method)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification handler panicked", "method", method, "panic", r)
		}
	}()
	h(ctx, rawParams)
}

// missingHandlerError builds the -32601 error for an unregistered
// method, with a method-specific hint about what registration or
// capability is missing where one is available.
func missingHandlerError(method string) *Error {
	switch {
	case method == MethodFSReadTextFile || method == MethodFSWriteTextFile:
		return NewErrorf(CodeMethodNotFound,
			"method not found: %s (client must advertise fs.readTextFile/fs.writeTextFile capability and register a handler)", method)
	case method == MethodRequestPermission:
		return NewErrorf(CodeMethodNotFound,
			"method not found: %s (register a permission handler, or run the agent in auto-allow mode)", method)
	case strings.HasPrefix(method, "terminal/"):
		return NewErrorf(CodeMethodNotFound,
			"method not found: %s (client must advertise the terminal capability and register a handler)", method)
	default:
		return NewErrorf(CodeMethodNotFound, "method not found: %s", method)
	}
}
