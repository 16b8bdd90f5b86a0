package acp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agentclientprotocol/acp-go/internal/logger"
)

// defaultOutboundQueueDepth bounds the outbound channel so a stalled
// peer applies backpressure to callers instead of growing memory
// without limit.
const defaultOutboundQueueDepth = 256

// StdioTransport frames JSON-RPC messages as line-delimited JSON over
// a pair of byte streams. It works equally for an agent reading/writing
// its own stdin/stdout, or a client piping a spawned agent subprocess.
type StdioTransport struct {
	in  io.ReadCloser
	out io.WriteCloser

	writeMu sync.Mutex
	outbox  chan []byte

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup

	log *slogLogger
}

// NewStdioTransport builds a transport that reads line-delimited JSON
// from in and writes line-delimited JSON to out. The caller is
// responsible for arranging for in/out to be the right ends of a
// subprocess's pipes, or the process's own stdin/stdout.
func NewStdioTransport(in io.ReadCloser, out io.WriteCloser) *StdioTransport {
	return &StdioTransport{
		in:     in,
		out:    out,
		outbox: make(chan []byte, defaultOutboundQueueDepth),
		closed: make(chan struct{}),
		log:    newSlogLogger("transport.stdio"),
	}
}

func (t *StdioTransport) Start(ctx context.Context, handler InboundHandler, onError func(error)) error {
	t.wg.Add(2)
	go t.readLoop(handler, onError)
	go t.writeLoop(onError)
	return nil
}

// readLoop is the transport's single dedicated reader goroutine. It
// tolerates \r\n per spec and never blocks the caller of Start.
func (t *StdioTransport) readLoop(handler InboundHandler, onError func(error)) {
	defer t.wg.Done()

	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := trimCR(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var msg RawMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			t.log.Warn("failed to parse inbound message", "error", err)
			continue
		}
		handler(&msg)
	}

	if err := scanner.Err(); err != nil {
		if onError != nil {
			onError(fmt.Errorf("acp: stdio read error: %w", err))
		}
		return
	}
	if onError != nil {
		onError(io.EOF)
	}
}

// writeLoop is the transport's single dedicated writer goroutine, so
// handler goroutines calling SendMessage never block on I/O themselves.
// Once closed fires it drains whatever is still queued in outbox
// before returning, so a graceful close doesn't drop messages that
// were already accepted by SendMessage.
func (t *StdioTransport) writeLoop(onError func(error)) {
	defer t.wg.Done()
	for {
		select {
		case line, ok := <-t.outbox:
			if !ok {
				return
			}
			if _, err := t.out.Write(line); err != nil {
				if onError != nil {
					onError(fmt.Errorf("acp: stdio write error: %w", err))
				}
				return
			}
		case <-t.closed:
			t.drainOutbox()
			return
		}
	}
}

// drainOutbox flushes whatever is left in outbox without blocking,
// called once writeLoop observes closed so queued sends still reach
// the peer.
func (t *StdioTransport) drainOutbox() {
	for {
		select {
		case line := <-t.outbox:
			if _, err := t.out.Write(line); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (t *StdioTransport) SendMessage(msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("acp: marshal outbound message: %w", err)
	}
	raw = append(raw, '\n')

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

func (t *StdioTransport) CloseGracefully(ctx context.Context) error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})

	done := make(chan struct{})
	go func() {
		t.in.Close()
		t.wg.Wait()
		t.out.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("acp: stdio transport close timed out")
	}
}

func (t *StdioTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
	t.in.Close()
	t.out.Close()
	return nil
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// slogLogger is a tiny indirection over internal/logger so transport
// files don't import log/slog directly in a dozen places.
type slogLogger struct {
	component string
}

func newSlogLogger(component string) *slogLogger {
	return &slogLogger{component: component}
}

func (l *slogLogger) Warn(msg string, args ...any) {
	logger.Named(l.component).Warn(msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	logger.Named(l.component).Info(msg, args...)
}

func (l *slogLogger) Debug(msg string, args ...any) {
	logger.Named(l.component).Debug(msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	logger.Named(l.component).Error(msg, args...)
}
