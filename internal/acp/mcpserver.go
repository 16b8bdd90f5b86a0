package acp

import (
	"encoding/json"
	"fmt"
)

// MCPServerKind discriminates MCPServer.Type. Per spec, stdio servers
// carry no "type" field at all on the wire (the historical default);
// http and sse servers must include it.
type MCPServerKind string

const (
	MCPServerStdio MCPServerKind = "stdio"
	MCPServerHTTP  MCPServerKind = "http"
	MCPServerSSE   MCPServerKind = "sse"
)

// EnvVariable is a single environment variable passed to a stdio MCP
// server subprocess.
type EnvVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HTTPHeader is a single HTTP header sent to an http/sse MCP server.
type HTTPHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MCPServer is the tagged union describing an MCP server a session
// may use. Kind is never serialized directly for Stdio (absence of
// "type" on the wire means stdio); it is serialized as "type" for
// HTTP and SSE.
type MCPServer struct {
	Kind MCPServerKind

	// stdio
	Name    string        `json:"-"`
	Command string        `json:"-"`
	Args    []string      `json:"-"`
	Env     []EnvVariable `json:"-"`

	// http / sse
	URL     string       `json:"-"`
	Headers []HTTPHeader `json:"-"`
}

// mcpServerWire is the flat wire representation used for encode/decode.
type mcpServerWire struct {
	Name    string        `json:"name"`
	Type    string        `json:"type,omitempty"`
	Command string        `json:"command,omitempty"`
	Args    []string      `json:"args,omitempty"`
	Env     []EnvVariable `json:"env,omitempty"`
	URL     string        `json:"url,omitempty"`
	Headers []HTTPHeader  `json:"headers,omitempty"`
}

// MarshalJSON emits the stdio-has-no-type-field rule: Kind ==
// MCPServerStdio (or the zero value, for callers who built the struct
// literal without NewStdioMCPServer) never writes a "type" key;
// http/sse do.
func (s MCPServer) MarshalJSON() ([]byte, error) {
	w := mcpServerWire{
		Name:    s.Name,
		Command: s.Command,
		Args:    s.Args,
		Env:     s.Env,
		URL:     s.URL,
		Headers: s.Headers,
	}
	switch s.Kind {
	case "", MCPServerStdio:
		// no type field
	case MCPServerHTTP:
		w.Type = string(MCPServerHTTP)
	case MCPServerSSE:
		w.Type = string(MCPServerSSE)
	default:
		return nil, fmt.Errorf("acp: unknown mcp server kind %q", s.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON selects stdio when "type" is absent from the wire
// object, otherwise tags from "type". Unknown tags are a decode error.
func (s *MCPServer) UnmarshalJSON(data []byte) error {
	var w mcpServerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := MCPServer{
		Name:    w.Name,
		Command: w.Command,
		Args:    w.Args,
		Env:     w.Env,
		URL:     w.URL,
		Headers: w.Headers,
	}
	switch w.Type {
	case "":
		out.Kind = MCPServerStdio
	case string(MCPServerHTTP):
		out.Kind = MCPServerHTTP
	case string(MCPServerSSE):
		out.Kind = MCPServerSSE
	default:
		return fmt.Errorf("acp: unknown mcp server type %q", w.Type)
	}
	*s = out
	return nil
}

// NewStdioMCPServer builds a stdio-transport MCP server entry.
func NewStdioMCPServer(name, command string, args []string, env []EnvVariable) MCPServer {
	return MCPServer{Kind: MCPServerStdio, Name: name, Command: command, Args: args, Env: env}
}

// NewHTTPMCPServer builds an http-transport MCP server entry.
func NewHTTPMCPServer(name, url string, headers []HTTPHeader) MCPServer {
	return MCPServer{Kind: MCPServerHTTP, Name: name, URL: url, Headers: headers}
}

// NewSSEMCPServer builds an sse-transport MCP server entry.
func NewSSEMCPServer(name, url string, headers []HTTPHeader) MCPServer {
	return MCPServer{Kind: MCPServerSSE, Name: name, URL: url, Headers: headers}
}
