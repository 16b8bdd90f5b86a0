package acp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport frames one JSON-RPC message per WebSocket
// text frame. gorilla/websocket's Conn already reassembles fragmented
// frames internally (NextReader blocks until a full message is
// available), satisfying the spec's "reassembly across multi-part
// frames... buffer until final fragment" requirement.
type WebSocketTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	outbox  chan []byte

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup

	log *slogLogger
}

// NewWebSocketTransport wraps an already-established *websocket.Conn
// (from either gorilla's client Dialer or its server Upgrader — this
// package is transport-only and never owns the HTTP handshake).
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{
		conn:   conn,
		outbox: make(chan []byte, defaultOutboundQueueDepth),
		closed: make(chan struct{}),
		log:    newSlogLogger("transport.websocket"),
	}
}

func (t *WebSocketTransport) Start(ctx context.Context, handler InboundHandler, onError func(error)) error {
	t.wg.Add(2)
	go t.readLoop(handler, onError)
	go t.writeLoop(onError)
	return nil
}

func (t *WebSocketTransport) readLoop(handler InboundHandler, onError func(error)) {
	defer t.wg.Done()
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("acp: websocket read error: %w", err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg RawMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.log.Warn("failed to parse inbound message", "error", err)
			continue
		}
		handler(&msg)
	}
}

func (t *WebSocketTransport) writeLoop(onError func(error)) {
	defer t.wg.Done()
	for {
		select {
		case frame, ok := <-t.outbox:
			if !ok {
				return
			}
			if err := t.writeFrame(frame); err != nil {
				if onError != nil {
					onError(fmt.Errorf("acp: websocket write error: %w", err))
				}
				return
			}
		case <-t.closed:
			t.drainOutbox()
			return
		}
	}
}

func (t *WebSocketTransport) writeFrame(frame []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

// drainOutbox flushes whatever is left in outbox without blocking,
// called once writeLoop observes closed so queued sends still reach
// the peer before the connection goes away.
func (t *WebSocketTransport) drainOutbox() {
	for {
		select {
		case frame := <-t.outbox:
			if err := t.writeFrame(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (t *WebSocketTransport) SendMessage(msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("acp: marshal outbound message: %w", err)
	}

	select {
	case <-t.closed:
		return ErrTransportClosed
	default:
	}

	select {
	case t.outbox <- raw:
		return nil
	case <-t.closed:
		return ErrTransportClosed
	}
}

func (t *WebSocketTransport) CloseGracefully(ctx context.Context) error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})

	t.writeMu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.writeMu.Unlock()

	done := make(chan struct{})
	go func() {
		t.conn.Close()
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("acp: websocket transport close timed out")
	}
}

func (t *WebSocketTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
	return t.conn.Close()
}
