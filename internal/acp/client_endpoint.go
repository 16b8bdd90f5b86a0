package acp

import (
	"context"
)

// SessionUpdateHandler receives every streamed session/update
// notification for any session. Client implementations typically
// switch on update.Kind and update UI state accordingly.
type SessionUpdateHandler func(params SessionUpdateParams)

// FSReadTextFileHandler services fs/read_text_file on behalf of the
// agent.
type FSReadTextFileHandler func(ctx context.Context, params ReadTextFileParams) (ReadTextFileResult, error)

// FSWriteTextFileHandler services fs/write_text_file.
type FSWriteTextFileHandler func(ctx context.Context, params WriteTextFileParams) (WriteTextFileResult, error)

// RequestPermissionHandler services session/request_permission,
// typically by prompting a human and returning their choice.
type RequestPermissionHandler func(ctx context.Context, params RequestPermissionParams) (RequestPermissionResult, error)

// TerminalHandlers bundles the five terminal/* methods a client may
// service when it advertises the terminal capability.
type TerminalHandlers struct {
	Create       func(ctx context.Context, params TerminalCreateParams) (TerminalCreateResult, error)
	Output       func(ctx context.Context, params TerminalOutputParams) (TerminalOutputResult, error)
	Release      func(ctx context.Context, params TerminalReleaseParams) (TerminalReleaseResult, error)
	WaitForExit  func(ctx context.Context, params TerminalWaitForExitParams) (TerminalWaitForExitResult, error)
	Kill         func(ctx context.Context, params TerminalKillParams) (TerminalKillResult, error)
}

// ClientEndpoint is the client-role facade over a Session: it issues
// the calls an editor makes into an agent, and registers the handlers
// that service the calls an agent makes back into the editor.
type ClientEndpoint struct {
	session *Session
	caps    negotiated
	info    ClientInfo

	onUpdate SessionUpdateHandler
}

// NewClientEndpoint builds a ClientEndpoint over session, registering
// its inbound handlers on dispatcher. info is advertised in every
// initialize call.
func NewClientEndpoint(session *Session, dispatcher *Dispatcher, info ClientInfo) *ClientEndpoint {
	c := &ClientEndpoint{session: session, info: info}
	RegisterTypedNotification(dispatcher, MethodSessionUpdate, func(_ context.Context, params SessionUpdateParams) {
		if c.onUpdate != nil {
			c.onUpdate(params)
		}
	})
	return c
}

// OnSessionUpdate installs the callback invoked for every streamed
// session/update notification. Must be called before Start to avoid
// missing early updates.
func (c *ClientEndpoint) OnSessionUpdate(h SessionUpdateHandler) {
	c.onUpdate = h
}

// RegisterFSHandlers wires up fs/read_text_file and fs/write_text_file
// servicing, matching the readTextFile/writeTextFile bits this client
// advertises in Initialize's ClientCapabilities.
func (c *ClientEndpoint) RegisterFSHandlers(dispatcher *Dispatcher, read FSReadTextFileHandler, write FSWriteTextFileHandler) {
	if read != nil {
		RegisterTypedRequest(dispatcher, MethodFSReadTextFile, func(ctx context.Context, p ReadTextFileParams) (ReadTextFileResult, error) {
			return read(ctx, p)
		})
	}
	if write != nil {
		RegisterTypedRequest(dispatcher, MethodFSWriteTextFile, func(ctx context.Context, p WriteTextFileParams) (WriteTextFileResult, error) {
			return write(ctx, p)
		})
	}
}

// RegisterPermissionHandler wires up session/request_permission.
func (c *ClientEndpoint) RegisterPermissionHandler(dispatcher *Dispatcher, h RequestPermissionHandler) {
	RegisterTypedRequest(dispatcher, MethodRequestPermission, func(ctx context.Context, p RequestPermissionParams) (RequestPermissionResult, error) {
		return h(ctx, p)
	})
}

// RegisterTerminalHandlers wires up the terminal/* family, matching
// the terminal capability advertised in Initialize.
func (c *ClientEndpoint) RegisterTerminalHandlers(dispatcher *Dispatcher, h TerminalHandlers) {
	if h.Create != nil {
		RegisterTypedRequest(dispatcher, MethodTerminalCreate, h.Create)
	}
	if h.Output != nil {
		RegisterTypedRequest(dispatcher, MethodTerminalOutput, h.Output)
	}
	if h.Release != nil {
		RegisterTypedRequest(dispatcher, MethodTerminalRelease, h.Release)
	}
	if h.WaitForExit != nil {
		RegisterTypedRequest(dispatcher, MethodTerminalWaitForExit, h.WaitForExit)
	}
	if h.Kill != nil {
		RegisterTypedRequest(dispatcher, MethodTerminalKill, h.Kill)
	}
}

// Initialize performs the handshake: advertises this client's
// capabilities and info, and records the agent's negotiated response
// capabilities for later gating (LoadSession).
func (c *ClientEndpoint) Initialize(ctx context.Context, clientCaps ClientCapabilities) (InitializeResult, error) {
	var result InitializeResult
	err := c.session.SendRequest(ctx, MethodInitialize, InitializeParams{
		ProtocolVersion:    ProtocolVersion,
		ClientCapabilities: clientCaps,
		ClientInfo:         &c.info,
	}, &result)
	if err != nil {
		return InitializeResult{}, err
	}
	c.caps.set(clientCaps, result.AgentCapabilities)
	return result, nil
}

// Authenticate runs an authentication flow by method id, advertised by
// the agent in InitializeResult.AuthMethods.
func (c *ClientEndpoint) Authenticate(ctx context.Context, methodID string) error {
	return c.session.SendRequest(ctx, MethodAuthenticate, AuthenticateParams{MethodID: methodID}, &AuthenticateResult{})
}

// NewSession starts a new agent session rooted at cwd, with the given
// MCP servers available to it.
func (c *ClientEndpoint) NewSession(ctx context.Context, cwd string, mcpServers []MCPServer) (SessionNewResult, error) {
	var result SessionNewResult
	err := c.session.SendRequest(ctx, MethodSessionNew, SessionNewParams{CWD: cwd, MCPServers: mcpServers}, &result)
	return result, err
}

// LoadSession resumes a previously created session. Gated locally by
// the agent's negotiated loadSession capability: an unsupported call
// never reaches the wire.
func (c *ClientEndpoint) LoadSession(ctx context.Context, sessionID, cwd string, mcpServers []MCPServer) (SessionLoadResult, error) {
	if !c.caps.agentCaps().LoadSession {
		return SessionLoadResult{}, errCapabilityNotSupported("loadSession")
	}
	var result SessionLoadResult
	err := c.session.SendRequest(ctx, MethodSessionLoad, SessionLoadParams{
		SessionID: sessionID, CWD: cwd, MCPServers: mcpServers,
	}, &result)
	return result, err
}

// SetMode switches a session's active operating mode.
func (c *ClientEndpoint) SetMode(ctx context.Context, sessionID, modeID string) error {
	return c.session.SendRequest(ctx, MethodSessionSetMode, SessionSetModeParams{
		SessionID: sessionID, ModeID: modeID,
	}, &SessionSetModeResult{})
}

// SetModel switches a session's active model. This method is
// unstable: agents may reject or withdraw it at any time.
func (c *ClientEndpoint) SetModel(ctx context.Context, sessionID, modelID string) error {
	return c.session.SendRequest(ctx, MethodSessionSetModel, SessionSetModelParams{
		SessionID: sessionID, ModelID: modelID,
	}, &SessionSetModelResult{})
}

// Prompt sends a user turn and blocks until the agent reports a
// StopReason. Streamed session/update notifications arrive via the
// OnSessionUpdate callback while this call is outstanding.
func (c *ClientEndpoint) Prompt(ctx context.Context, sessionID string, prompt []ContentBlock) (SessionPromptResult, error) {
	var result SessionPromptResult
	err := c.session.SendRequest(ctx, MethodSessionPrompt, SessionPromptParams{
		SessionID: sessionID, Prompt: prompt,
	}, &result)
	return result, err
}

// Cancel requests cancellation of the active turn for sessionID. It is
// a notification: it never blocks for or reports an acknowledgement.
func (c *ClientEndpoint) Cancel(sessionID string) error {
	return c.session.SendNotification(MethodSessionCancel, SessionCancelParams{SessionID: sessionID})
}
