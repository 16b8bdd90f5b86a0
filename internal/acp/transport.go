package acp

import (
	"context"
	"errors"
)

// ErrTransportClosed is returned by SendMessage and inbound handlers
// once a transport has been closed.
var ErrTransportClosed = errors.New("acp: transport closed")

// InboundHandler receives one decoded RawMessage at a time, in the
// order the transport read them off the wire. It must not block for
// long: transports call it from their single reader goroutine, and a
// slow handler delays reading every subsequent message.
type InboundHandler func(*RawMessage)

// Transport frames JSON-RPC messages over a bidirectional byte
// channel. Implementations own their I/O goroutines; callers never
// touch the underlying stream directly.
type Transport interface {
	// Start begins reading inbound messages and delivering them to
	// handler. It returns once the channel is ready to carry traffic;
	// later termination (peer closed, I/O error) is reported via
	// onError, not via Start's return.
	Start(ctx context.Context, handler InboundHandler, onError func(error)) error

	// SendMessage enqueues one outbound message. Safe for concurrent
	// callers. Guarantees a single message is never interleaved with
	// another on the wire.
	SendMessage(msg any) error

	// CloseGracefully stops reading, drains any outbound messages
	// already accepted, then closes the underlying streams. Bounded
	// by the transport's own shutdown timeout.
	CloseGracefully(ctx context.Context) error

	// Close closes the transport immediately, abandoning any
	// in-flight outbound messages.
	Close() error
}
