package acp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRequestTimeout is the default per-request timeout applied by
// SendRequest when the caller's context carries no deadline.
const DefaultRequestTimeout = 60 * time.Second

// ErrSessionClosed is returned by SendRequest/SendNotification once a
// Session has begun shutting down.
var ErrSessionClosed = fmt.Errorf("acp: session closed")

type pendingRequest struct {
	respCh chan *Response
}

// Session is the JSON-RPC correlator sitting above a Transport: it
// allocates unique outbound request ids, matches responses back to
// their waiters, applies per-request timeouts, and routes inbound
// requests/notifications to a Dispatcher. It works the same way
// regardless of which Transport it sits on, and regardless of whether
// this process is playing the client or the agent role.
type Session struct {
	transport  Transport
	dispatcher *Dispatcher
	pool       *workerPool
	notifyPool *workerPool
	log        *slogLogger

	idPrefix string
	counter  int64

	pendingMu sync.Mutex
	pending   map[string]*pendingRequest

	mu            sync.Mutex
	acceptOutbound bool
	closed        bool

	requestTimeout time.Duration
}

// SessionOption configures a Session at construction time.
type SessionOption func(*Session)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.requestTimeout = d }
}

// WithWorkerPoolSize overrides the default handler worker pool size.
func WithWorkerPoolSize(n int) SessionOption {
	return func(s *Session) { s.pool = newWorkerPool(n) }
}

// NewSession builds a Session over transport, dispatching inbound
// requests/notifications to dispatcher.
func NewSession(transport Transport, dispatcher *Dispatcher, opts ...SessionOption) *Session {
	s := &Session{
		transport:      transport,
		dispatcher:     dispatcher,
		pending:        make(map[string]*pendingRequest),
		acceptOutbound: true,
		requestTimeout: DefaultRequestTimeout,
		log:            newSlogLogger("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = newWorkerPool(0)
	}
	// A single dedicated worker keeps notifications in send order.
	// Requests can fan out across the pool above since each carries its
	// own id and response channel, but notifications (session/update in
	// particular) carry no sequence number, so out-of-order dispatch
	// would be observed by the receiver as out-of-order updates.
	s.notifyPool = newWorkerPool(1)
	s.idPrefix = randomIDPrefix()
	return s
}

func randomIDPrefix() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "sess"
	}
	return hex.EncodeToString(b)
}

// Start begins reading inbound traffic from the transport. It returns
// once the transport reports it is ready to carry messages.
func (s *Session) Start(ctx context.Context) error {
	return s.transport.Start(ctx, s.handleInbound, s.handleTransportError)
}

func (s *Session) nextID() string {
	n := atomic.AddInt64(&s.counter, 1)
	return fmt.Sprintf("%s-%d", s.idPrefix, n)
}

// SendRequest sends a request and blocks until a matching response
// arrives, the context is done, or the session closes. If result is
// non-nil, the response's result is unmarshaled into it.
func (s *Session) SendRequest(ctx context.Context, method string, params any, result any) error {
	s.mu.Lock()
	if !s.acceptOutbound {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	id := s.nextID()
	respCh := make(chan *Response, 1)

	s.pendingMu.Lock()
	s.pending[id] = &pendingRequest{respCh: respCh}
	s.pendingMu.Unlock()

	cleanup := func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}

	req := newRequest(id, method, params)
	if err := s.transport.SendMessage(req); err != nil {
		cleanup()
		return fmt.Errorf("acp: send request %s: %w", method, err)
	}

	timeoutCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.requestTimeout > 0 {
		timeoutCtx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return resp.Error.AsError()
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("acp: decode result of %s: %w", method, err)
			}
		}
		return nil
	case <-timeoutCtx.Done():
		cleanup()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("acp: request %s timed out: %w", method, timeoutCtx.Err())
	}
}

// SendNotification fires a one-way notification; there is no response
// to wait for.
func (s *Session) SendNotification(method string, params any) error {
	s.mu.Lock()
	if !s.acceptOutbound {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()
	return s.transport.SendMessage(newNotification(method, params))
}

// sendResponse is called from handleInbound's worker task once the
// Dispatcher has turned a handler's result or error into a Response.
func (s *Session) sendResponse(resp *Response) {
	if err := s.transport.SendMessage(resp); err != nil {
		s.log.Warn("failed to send response", "error", err)
	}
}

// handleInbound classifies and routes one decoded message. It runs on
// the transport's reader goroutine, so handler execution is handed off
// rather than run inline: requests fan out across the worker pool
// since each is independently correlated by id, while notifications go
// to the single-worker notifyPool so they execute in the order they
// were read off the wire.
func (s *Session) handleInbound(msg *RawMessage) {
	switch msg.Kind() {
	case KindResponse:
		s.completeRequest(msg)
	case KindRequest:
		id := msg.ID
		method := msg.Method
		params := msg.Params
		s.pool.submit(func() {
			resp := s.dispatcher.HandleRequest(context.Background(), id, method, params)
			s.sendResponse(resp)
		})
	case KindNotification:
		method := msg.Method
		params := msg.Params
		s.notifyPool.submit(func() {
			s.dispatcher.HandleNotification(context.Background(), method, params)
		})
	default:
		s.log.Warn("rejecting message of unrecognized shape")
		s.sendResponse(newErrorResponse(msg.ID, NewError(CodeInvalidRequest,
			"invalid request: message is neither a request, a notification nor a response")))
	}
}

func (s *Session) completeRequest(msg *RawMessage) {
	id := decodeID(msg.ID)

	s.pendingMu.Lock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.pendingMu.Unlock()

	if !ok {
		s.log.Warn("response with unknown id, dropping", "id", id)
		return
	}

	resp := &Response{ID: msg.ID, Result: msg.Result, Error: msg.Error}
	select {
	case p.respCh <- resp:
	default:
	}
}

func (s *Session) handleTransportError(err error) {
	s.log.Warn("transport error, closing session", "error", err)
	s.Close()
}

// CloseGracefully stops accepting new outbound requests, waits for
// in-flight responses until ctx's deadline (at most 10 seconds), fails
// any remaining waiters with a terminal error, then closes the
// transport.
func (s *Session) CloseGracefully(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.acceptOutbound = false
	s.mu.Unlock()

	deadline := time.Now().Add(10 * time.Second)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	for time.Now().Before(deadline) {
		s.pendingMu.Lock()
		n := len(s.pending)
		s.pendingMu.Unlock()
		if n == 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	s.failAllPending(fmt.Errorf("acp: session closed gracefully"))

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.pool.close()
	s.notifyPool.close()
	return s.transport.CloseGracefully(ctx)
}

// Close closes the session abruptly: all pending waiters fail
// immediately and the transport is closed without draining.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.acceptOutbound = false
	s.closed = true
	s.mu.Unlock()

	s.failAllPending(fmt.Errorf("acp: session closed"))
	return s.transport.Close()
}

func (s *Session) failAllPending(cause error) {
	s.pendingMu.Lock()
	pending := s.pending
	s.pending = make(map[string]*pendingRequest)
	s.pendingMu.Unlock()

	for _, p := range pending {
		errResp := &Response{Error: errorObjectOf(NewErrorf(CodeInternalError, "%s", cause.Error()))}
		select {
		case p.respCh <- errResp:
		default:
		}
	}
}
