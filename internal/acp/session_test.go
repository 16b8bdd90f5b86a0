package acp

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionSendRequestRoundTrip(t *testing.T) {
	t.Parallel()

	clientTransport, agentTransport := NewMemoryTransportPair(0)
	clientDisp := NewDispatcher()
	agentDisp := NewDispatcher()

	type echoParams struct {
		Text string `json:"text"`
	}
	RegisterTypedRequest(agentDisp, "echo", func(_ context.Context, p echoParams) (echoParams, error) {
		return p, nil
	})

	clientSession := NewSession(clientTransport, clientDisp)
	agentSession := NewSession(agentTransport, agentDisp)
	require.NoError(t, clientSession.Start(context.Background()))
	require.NoError(t, agentSession.Start(context.Background()))

	var out echoParams
	err := clientSession.SendRequest(context.Background(), "echo", echoParams{Text: "hi"}, &out)
	require.NoError(t, err)
	require.Equal(t, "hi", out.Text)
}

func TestSessionSendRequestPropagatesHandlerError(t *testing.T) {
	t.Parallel()

	clientTransport, agentTransport := NewMemoryTransportPair(0)
	clientDisp := NewDispatcher()
	agentDisp := NewDispatcher()

	RegisterTypedRequest(agentDisp, "boom", func(_ context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, errSessionNotFound("gone")
	})

	clientSession := NewSession(clientTransport, clientDisp)
	agentSession := NewSession(agentTransport, agentDisp)
	require.NoError(t, clientSession.Start(context.Background()))
	require.NoError(t, agentSession.Start(context.Background()))

	err := clientSession.SendRequest(context.Background(), "boom", struct{}{}, nil)
	require.Error(t, err)
	acpErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, CodeSessionNotFound, acpErr.Code)
}

func TestSessionSendRequestTimesOutWithNoResponder(t *testing.T) {
	t.Parallel()

	clientTransport, _ := NewMemoryTransportPair(0)
	clientSession := NewSession(clientTransport, NewDispatcher(), WithRequestTimeout(30*time.Millisecond))
	require.NoError(t, clientSession.Start(context.Background()))

	err := clientSession.SendRequest(context.Background(), "never-answered", nil, nil)
	require.Error(t, err)
}

func TestSessionSendRequestRespectsCallerContextDeadline(t *testing.T) {
	t.Parallel()

	clientTransport, _ := NewMemoryTransportPair(0)
	clientSession := NewSession(clientTransport, NewDispatcher())
	require.NoError(t, clientSession.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := clientSession.SendRequest(ctx, "never-answered", nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionSendNotificationFireAndForget(t *testing.T) {
	t.Parallel()

	clientTransport, agentTransport := NewMemoryTransportPair(0)
	clientDisp := NewDispatcher()
	agentDisp := NewDispatcher()

	received := make(chan string, 1)
	RegisterTypedNotification(agentDisp, MethodSessionCancel, func(_ context.Context, p SessionCancelParams) {
		received <- p.SessionID
	})

	clientSession := NewSession(clientTransport, clientDisp)
	agentSession := NewSession(agentTransport, agentDisp)
	require.NoError(t, clientSession.Start(context.Background()))
	require.NoError(t, agentSession.Start(context.Background()))

	require.NoError(t, clientSession.SendNotification(MethodSessionCancel, SessionCancelParams{SessionID: "s1"}))

	select {
	case id := <-received:
		require.Equal(t, "s1", id)
	case <-time.After(time.Second):
		t.Fatal("notification never arrived")
	}
}

func TestSessionNotificationsDeliveredInSendOrder(t *testing.T) {
	t.Parallel()

	clientTransport, agentTransport := NewMemoryTransportPair(0)
	clientDisp := NewDispatcher()
	agentDisp := NewDispatcher()

	var mu sync.Mutex
	var order []int
	RegisterTypedNotification(agentDisp, MethodSessionUpdate, func(_ context.Context, p SessionUpdateParams) {
		n, _ := strconv.Atoi(p.Update.Content.Text)
		// The first notification's handler sleeps so that, were
		// notifications dispatched across a concurrent worker pool
		// instead of a single ordered one, the second notification's
		// handler could easily finish and record itself first.
		if n == 0 {
			time.Sleep(20 * time.Millisecond)
		}
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
	})

	clientSession := NewSession(clientTransport, clientDisp)
	agentSession := NewSession(agentTransport, agentDisp)
	require.NoError(t, clientSession.Start(context.Background()))
	require.NoError(t, agentSession.Start(context.Background()))

	const count = 10
	for i := 0; i < count; i++ {
		update := SessionUpdate{Kind: UpdateAgentMessageChunk, Content: &ContentBlock{Type: ContentText, Text: strconv.Itoa(i)}}
		require.NoError(t, clientSession.SendNotification(MethodSessionUpdate, SessionUpdateParams{SessionID: "s1", Update: update}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == count
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, n := range order {
		require.Equal(t, i, n, "notification %d arrived out of order: %v", i, order)
	}
}

func TestSessionCloseFailsPendingRequests(t *testing.T) {
	t.Parallel()

	clientTransport, agentTransport := NewMemoryTransportPair(0)
	clientDisp := NewDispatcher()
	agentDisp := NewDispatcher()
	// agentDisp's "stuck" handler blocks until the test ends, so the
	// request is in flight with nothing ever answering it, giving
	// Close something real to fail.
	release := make(chan struct{})
	defer close(release)
	RegisterTypedRequest(agentDisp, "stuck", func(_ context.Context, _ struct{}) (struct{}, error) {
		<-release
		return struct{}{}, nil
	})

	clientSession := NewSession(clientTransport, clientDisp, WithRequestTimeout(time.Hour))
	agentSession := NewSession(agentTransport, agentDisp)
	require.NoError(t, clientSession.Start(context.Background()))
	require.NoError(t, agentSession.Start(context.Background()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- clientSession.SendRequest(context.Background(), "stuck", nil, nil)
	}()

	require.Eventually(t, func() bool {
		clientSession.pendingMu.Lock()
		defer clientSession.pendingMu.Unlock()
		return len(clientSession.pending) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, clientSession.Close())

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("SendRequest never returned after Close")
	}
}

func TestSessionSendRequestAfterCloseFails(t *testing.T) {
	t.Parallel()

	clientTransport, agentTransport := NewMemoryTransportPair(0)
	clientSession := NewSession(clientTransport, NewDispatcher())
	agentSession := NewSession(agentTransport, NewDispatcher())
	require.NoError(t, clientSession.Start(context.Background()))
	require.NoError(t, agentSession.Start(context.Background()))

	require.NoError(t, clientSession.Close())

	err := clientSession.SendRequest(context.Background(), "whatever", nil, nil)
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionCloseGracefullyDrainsPending(t *testing.T) {
	t.Parallel()

	clientTransport, agentTransport := NewMemoryTransportPair(0)
	clientDisp := NewDispatcher()
	agentDisp := NewDispatcher()

	release := make(chan struct{})
	RegisterTypedRequest(agentDisp, "slow", func(ctx context.Context, _ struct{}) (struct{}, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return struct{}{}, nil
	})

	clientSession := NewSession(clientTransport, clientDisp)
	agentSession := NewSession(agentTransport, agentDisp)
	require.NoError(t, clientSession.Start(context.Background()))
	require.NoError(t, agentSession.Start(context.Background()))

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- clientSession.SendRequest(context.Background(), "slow", struct{}{}, nil)
	}()

	require.Eventually(t, func() bool {
		clientSession.pendingMu.Lock()
		defer clientSession.pendingMu.Unlock()
		return len(clientSession.pending) == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	require.NoError(t, <-doneCh)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clientSession.CloseGracefully(ctx))
}
