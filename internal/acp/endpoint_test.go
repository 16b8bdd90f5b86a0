package acp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// harness wires a ClientEndpoint and AgentEndpoint together over a
// MemoryTransport pair, the shape every scenario test below starts
// from.
type harness struct {
	client       *ClientEndpoint
	agent        *AgentEndpoint
	clientDisp   *Dispatcher
	agentDisp    *Dispatcher
	seenMCP      []MCPServer
	seenMCPMu    sync.Mutex
	promptGate   chan struct{}
	promptStart  chan struct{}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clientTransport, agentTransport := NewMemoryTransportPair(0)

	clientDisp := NewDispatcher()
	agentDisp := NewDispatcher()

	clientSession := NewSession(clientTransport, clientDisp)
	agentSession := NewSession(agentTransport, agentDisp)

	h := &harness{clientDisp: clientDisp, agentDisp: agentDisp}
	h.client = NewClientEndpoint(clientSession, clientDisp, ClientInfo{Name: "test-client", Version: "0.0.1"})
	h.agent = NewAgentEndpoint(agentSession, AgentInfo{Name: "test-agent", Version: "0.0.1"})

	h.agent.RegisterHandlers(agentDisp, AgentHandlers{
		Initialize: func(_ context.Context, p InitializeParams) (InitializeResult, error) {
			return InitializeResult{
				ProtocolVersion:   ProtocolVersion,
				AgentCapabilities: AgentCapabilities{LoadSession: false},
			}, nil
		},
		SessionNew: func(_ context.Context, p SessionNewParams) (SessionNewResult, error) {
			h.seenMCPMu.Lock()
			h.seenMCP = p.MCPServers
			h.seenMCPMu.Unlock()
			return SessionNewResult{SessionID: "sess-1"}, nil
		},
		SessionPrompt: func(ctx context.Context, p SessionPromptParams) (SessionPromptResult, error) {
			if h.promptStart != nil {
				close(h.promptStart)
			}
			for _, block := range p.Prompt {
				_ = h.agent.SendSessionUpdate(p.SessionID, SessionUpdate{
					Kind:    UpdateAgentMessageChunk,
					Content: &ContentBlock{Type: ContentText, Text: block.Text},
				})
			}
			if h.promptGate != nil {
				select {
				case <-ctx.Done():
					return SessionPromptResult{StopReason: StopCancelled}, nil
				case <-h.promptGate:
				}
			}
			select {
			case <-ctx.Done():
				return SessionPromptResult{StopReason: StopCancelled}, nil
			default:
			}
			return SessionPromptResult{StopReason: StopEndTurn}, nil
		},
	})

	require.NoError(t, clientSession.Start(context.Background()))
	require.NoError(t, agentSession.Start(context.Background()))
	return h
}

func TestEndpointHandshakeNegotiatesCapabilities(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := h.client.Initialize(ctx, ClientCapabilities{FS: FSCapabilities{ReadTextFile: true}})
	require.NoError(t, err)
	require.Equal(t, ProtocolVersion, result.ProtocolVersion)
	require.False(t, result.AgentCapabilities.LoadSession)
}

func TestEndpointSinglePromptStreams(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx, ClientCapabilities{})
	require.NoError(t, err)

	var chunksMu sync.Mutex
	var chunks []string
	h.client.OnSessionUpdate(func(p SessionUpdateParams) {
		chunksMu.Lock()
		defer chunksMu.Unlock()
		chunks = append(chunks, p.Update.Content.Text)
	})

	sessionResult, err := h.client.NewSession(ctx, "/tmp/work", nil)
	require.NoError(t, err)
	require.Equal(t, "sess-1", sessionResult.SessionID)

	result, err := h.client.Prompt(ctx, sessionResult.SessionID, []ContentBlock{TextBlock("hello"), TextBlock("world")})
	require.NoError(t, err)
	require.Equal(t, StopEndTurn, result.StopReason)

	require.Eventually(t, func() bool {
		chunksMu.Lock()
		defer chunksMu.Unlock()
		return len(chunks) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestEndpointConcurrentPromptRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.promptGate = make(chan struct{})
	h.promptStart = make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx, ClientCapabilities{})
	require.NoError(t, err)
	sessionResult, err := h.client.NewSession(ctx, "/tmp/work", nil)
	require.NoError(t, err)

	firstErrCh := make(chan error, 1)
	go func() {
		_, err := h.client.Prompt(ctx, sessionResult.SessionID, []ContentBlock{TextBlock("one")})
		firstErrCh <- err
	}()

	<-h.promptStart // wait until the first prompt is actually in flight

	_, err = h.client.Prompt(ctx, sessionResult.SessionID, []ContentBlock{TextBlock("two")})
	require.Error(t, err)
	acpErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, CodeConcurrentPrompt, acpErr.Code)

	close(h.promptGate)
	require.NoError(t, <-firstErrCh)
}

func TestEndpointCapabilityGatedMethodShortCircuits(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx, ClientCapabilities{})
	require.NoError(t, err)

	// Agent never advertised LoadSession, so this must fail locally
	// without a round trip to the agent handler (which isn't even
	// registered for session/load in this harness).
	_, err = h.client.LoadSession(ctx, "sess-1", "/tmp/work", nil)
	require.Error(t, err)
	acpErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, CodeCapabilityNotSupported, acpErr.Code)
}

func TestEndpointCancelDuringPrompt(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.promptGate = make(chan struct{})
	h.promptStart = make(chan struct{})
	defer close(h.promptGate)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx, ClientCapabilities{})
	require.NoError(t, err)
	sessionResult, err := h.client.NewSession(ctx, "/tmp/work", nil)
	require.NoError(t, err)

	resultCh := make(chan SessionPromptResult, 1)
	errCh := make(chan error, 1)
	go func() {
		result, err := h.client.Prompt(ctx, sessionResult.SessionID, []ContentBlock{TextBlock("hi")})
		resultCh <- result
		errCh <- err
	}()

	<-h.promptStart
	require.NoError(t, h.client.Cancel(sessionResult.SessionID))

	select {
	case result := <-resultCh:
		require.NoError(t, <-errCh)
		require.Equal(t, StopCancelled, result.StopReason)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt never returned after cancel")
	}
}

func TestEndpointMCPServerRoundTrip(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx, ClientCapabilities{})
	require.NoError(t, err)

	servers := []MCPServer{
		NewStdioMCPServer("fs", "mcp-fs", nil, nil),
		NewHTTPMCPServer("search", "https://example.com/mcp", nil),
	}
	_, err = h.client.NewSession(ctx, "/tmp/work", servers)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		h.seenMCPMu.Lock()
		defer h.seenMCPMu.Unlock()
		return len(h.seenMCP) == 2
	}, time.Second, 5*time.Millisecond)

	h.seenMCPMu.Lock()
	defer h.seenMCPMu.Unlock()
	require.Equal(t, servers, h.seenMCP)
}
