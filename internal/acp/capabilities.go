package acp

import "sync"

// ClientCapabilities describes what the client (editor) supports.
// Negotiated once in initialize and immutable afterward.
type ClientCapabilities struct {
	FS       FSCapabilities `json:"fs,omitempty"`
	Terminal bool           `json:"terminal,omitempty"`
}

// FSCapabilities describes which filesystem operations the client
// will service for the agent.
type FSCapabilities struct {
	ReadTextFile  bool `json:"readTextFile,omitempty"`
	WriteTextFile bool `json:"writeTextFile,omitempty"`
}

// AgentCapabilities describes what the agent supports.
type AgentCapabilities struct {
	LoadSession        bool               `json:"loadSession,omitempty"`
	MCPCapabilities    MCPCapabilities    `json:"mcpCapabilities,omitempty"`
	PromptCapabilities PromptCapabilities `json:"promptCapabilities,omitempty"`
}

// MCPCapabilities describes which MCP server transports the agent can
// connect to on behalf of a session.
type MCPCapabilities struct {
	HTTP bool `json:"http,omitempty"`
	SSE  bool `json:"sse,omitempty"`
}

// PromptCapabilities describes which content block kinds an agent
// accepts in session/prompt.
type PromptCapabilities struct {
	Audio           bool `json:"audio,omitempty"`
	Image           bool `json:"image,omitempty"`
	EmbeddedContext bool `json:"embeddedContext,omitempty"`
}

// negotiated holds the capability sets agreed during initialize.
// Both endpoints populate it from the initialize request/response and
// consult it afterward to decide, before ever sending a message,
// whether a gated method is supported. Capabilities are written
// exactly once (during the handshake) but read from arbitrary
// goroutines afterward, hence the RWMutex.
type negotiated struct {
	mu    sync.RWMutex
	ready bool
	client ClientCapabilities
	agent  AgentCapabilities
}

func (n *negotiated) set(client ClientCapabilities, agent AgentCapabilities) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.client = client
	n.agent = agent
	n.ready = true
}

func (n *negotiated) clientCaps() ClientCapabilities {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.client
}

func (n *negotiated) agentCaps() AgentCapabilities {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.agent
}
