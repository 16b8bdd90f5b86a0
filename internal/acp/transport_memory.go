package acp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryTransport is a bidirectional in-memory transport built from
// two buffered channels, used to wire a client and agent together in
// tests without a real subprocess or socket. Construct a connected
// pair with NewMemoryTransportPair.
type MemoryTransport struct {
	send chan []byte
	recv chan []byte

	closeOnce  sync.Once
	closed     chan struct{}
	peerClosed <-chan struct{}
	wg         sync.WaitGroup
}

// NewMemoryTransportPair returns two MemoryTransports wired so that
// messages sent on one are delivered to the other. Each transport's
// closed signal is visible to its peer directly (rather than via
// closing the shared data channel), so a peer's Close/CloseGracefully
// is reported through onError without risking a send-on-closed-channel
// panic on the side still writing.
func NewMemoryTransportPair(queueDepth int) (a, b *MemoryTransport) {
	if queueDepth <= 0 {
		queueDepth = defaultOutboundQueueDepth
	}
	ab := make(chan []byte, queueDepth)
	ba := make(chan []byte, queueDepth)
	closedA := make(chan struct{})
	closedB := make(chan struct{})
	a = &MemoryTransport{send: ab, recv: ba, closed: closedA, peerClosed: closedB}
	b = &MemoryTransport{send: ba, recv: ab, closed: closedB, peerClosed: closedA}
	return a, b
}

func (t *MemoryTransport) Start(ctx context.Context, handler InboundHandler, onError func(error)) error {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case data := <-t.recv:
				var msg RawMessage
				if err := json.Unmarshal(data, &msg); err != nil {
					continue
				}
				handler(&msg)
			case <-t.closed:
				return
			case <-t.peerClosed:
				if onError != nil {
					onError(fmt.Errorf("acp: memory transport peer closed"))
				}
				return
			}
		}
	}()
	return nil
}

func (t *MemoryTransport) SendMessage(msg any) error {
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
	case t.send <- raw:
		return nil
	case <-t.closed:
		return ErrTransportClosed
	}
}

func (t *MemoryTransport) CloseGracefully(ctx context.Context) error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("acp: memory transport close timed out")
	}
}

func (t *MemoryTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
	return nil
}
