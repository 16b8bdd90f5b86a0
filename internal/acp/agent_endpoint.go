package acp

import (
	"context"
)

// AgentHandlers bundles the request handlers an agent implementation
// provides. SessionPrompt is run under the TurnController, so its
// context is canceled on session/cancel and concurrent prompts against
// the same session are rejected before SessionPrompt is ever called.
type AgentHandlers struct {
	Initialize      func(ctx context.Context, params InitializeParams) (InitializeResult, error)
	Authenticate    func(ctx context.Context, params AuthenticateParams) (AuthenticateResult, error)
	SessionNew      func(ctx context.Context, params SessionNewParams) (SessionNewResult, error)
	SessionLoad     func(ctx context.Context, params SessionLoadParams) (SessionLoadResult, error)
	SessionSetMode  func(ctx context.Context, params SessionSetModeParams) (SessionSetModeResult, error)
	SessionSetModel func(ctx context.Context, params SessionSetModelParams) (SessionSetModelResult, error)
	SessionPrompt   func(ctx context.Context, params SessionPromptParams) (SessionPromptResult, error)
}

// AgentEndpoint is the agent-role facade over a Session: it registers
// the handlers an editor calls into the agent, enforcing the turn
// invariant around session/prompt, and issues the calls an agent makes
// back into the editor (fs/*, session/request_permission, terminal/*,
// session/update), each gated against the client's negotiated
// capabilities before ever reaching the wire.
type AgentEndpoint struct {
	session *Session
	caps    negotiated
	info    AgentInfo
	turns   *TurnController
}

// NewAgentEndpoint builds an AgentEndpoint over session. info is
// advertised in every initialize response.
func NewAgentEndpoint(session *Session, info AgentInfo) *AgentEndpoint {
	return &AgentEndpoint{session: session, info: info, turns: NewTurnController()}
}

// RegisterHandlers wires h's methods onto dispatcher. Initialize's
// response is intercepted to record the negotiated ClientCapabilities
// before it is sent, so later outbound gated calls see it immediately.
func (a *AgentEndpoint) RegisterHandlers(dispatcher *Dispatcher, h AgentHandlers) {
	if h.Initialize != nil {
		RegisterTypedRequest(dispatcher, MethodInitialize, func(ctx context.Context, p InitializeParams) (InitializeResult, error) {
			result, err := h.Initialize(ctx, p)
			if err == nil {
				a.caps.set(p.ClientCapabilities, result.AgentCapabilities)
			}
			return result, err
		})
	}
	if h.Authenticate != nil {
		RegisterTypedRequest(dispatcher, MethodAuthenticate, h.Authenticate)
	}
	if h.SessionNew != nil {
		RegisterTypedRequest(dispatcher, MethodSessionNew, h.SessionNew)
	}
	if h.SessionLoad != nil {
		RegisterTypedRequest(dispatcher, MethodSessionLoad, h.SessionLoad)
	}
	if h.SessionSetMode != nil {
		RegisterTypedRequest(dispatcher, MethodSessionSetMode, h.SessionSetMode)
	}
	if h.SessionSetModel != nil {
		RegisterTypedRequest(dispatcher, MethodSessionSetModel, h.SessionSetModel)
	}
	if h.SessionPrompt != nil {
		RegisterTypedRequest(dispatcher, MethodSessionPrompt, func(ctx context.Context, p SessionPromptParams) (SessionPromptResult, error) {
			turnCtx, end, err := a.turns.Begin(ctx, p.SessionID)
			if err != nil {
				return SessionPromptResult{}, err
			}
			defer end()
			return h.SessionPrompt(turnCtx, p)
		})
	}
	RegisterTypedNotification(dispatcher, MethodSessionCancel, func(_ context.Context, p SessionCancelParams) {
		a.turns.Cancel(p.SessionID)
	})
}

// ReadTextFile asks the client to read a text file on the agent's
// behalf. Gated locally by the client's negotiated fs.readTextFile
// capability.
func (a *AgentEndpoint) ReadTextFile(ctx context.Context, params ReadTextFileParams) (ReadTextFileResult, error) {
	if !a.caps.clientCaps().FS.ReadTextFile {
		return ReadTextFileResult{}, errCapabilityNotSupported("fs.readTextFile")
	}
	var result ReadTextFileResult
	err := a.session.SendRequest(ctx, MethodFSReadTextFile, params, &result)
	return result, err
}

// WriteTextFile asks the client to write a text file on the agent's
// behalf. Gated locally by the client's negotiated fs.writeTextFile
// capability.
func (a *AgentEndpoint) WriteTextFile(ctx context.Context, params WriteTextFileParams) (WriteTextFileResult, error) {
	if !a.caps.clientCaps().FS.WriteTextFile {
		return WriteTextFileResult{}, errCapabilityNotSupported("fs.writeTextFile")
	}
	var result WriteTextFileResult
	err := a.session.SendRequest(ctx, MethodFSWriteTextFile, params, &result)
	return result, err
}

// RequestPermission asks the client to resolve a permission prompt.
// Not capability-gated: every client must be able to service it.
func (a *AgentEndpoint) RequestPermission(ctx context.Context, params RequestPermissionParams) (RequestPermissionResult, error) {
	var result RequestPermissionResult
	err := a.session.SendRequest(ctx, MethodRequestPermission, params, &result)
	return result, err
}

// CreateTerminal asks the client to spawn a terminal. Gated by the
// client's negotiated terminal capability.
func (a *AgentEndpoint) CreateTerminal(ctx context.Context, params TerminalCreateParams) (TerminalCreateResult, error) {
	if !a.caps.clientCaps().Terminal {
		return TerminalCreateResult{}, errCapabilityNotSupported("terminal")
	}
	var result TerminalCreateResult
	err := a.session.SendRequest(ctx, MethodTerminalCreate, params, &result)
	return result, err
}

// TerminalOutput reads buffered output from a client-hosted terminal.
func (a *AgentEndpoint) TerminalOutput(ctx context.Context, params TerminalOutputParams) (TerminalOutputResult, error) {
	if !a.caps.clientCaps().Terminal {
		return TerminalOutputResult{}, errCapabilityNotSupported("terminal")
	}
	var result TerminalOutputResult
	err := a.session.SendRequest(ctx, MethodTerminalOutput, params, &result)
	return result, err
}

// ReleaseTerminal releases a client-hosted terminal's resources.
func (a *AgentEndpoint) ReleaseTerminal(ctx context.Context, params TerminalReleaseParams) (TerminalReleaseResult, error) {
	if !a.caps.clientCaps().Terminal {
		return TerminalReleaseResult{}, errCapabilityNotSupported("terminal")
	}
	var result TerminalReleaseResult
	err := a.session.SendRequest(ctx, MethodTerminalRelease, params, &result)
	return result, err
}

// WaitForTerminalExit blocks until the client reports a terminal exited.
func (a *AgentEndpoint) WaitForTerminalExit(ctx context.Context, params TerminalWaitForExitParams) (TerminalWaitForExitResult, error) {
	if !a.caps.clientCaps().Terminal {
		return TerminalWaitForExitResult{}, errCapabilityNotSupported("terminal")
	}
	var result TerminalWaitForExitResult
	err := a.session.SendRequest(ctx, MethodTerminalWaitForExit, params, &result)
	return result, err
}

// KillTerminal asks the client to kill a running terminal's process
// without releasing its resources.
func (a *AgentEndpoint) KillTerminal(ctx context.Context, params TerminalKillParams) (TerminalKillResult, error) {
	if !a.caps.clientCaps().Terminal {
		return TerminalKillResult{}, errCapabilityNotSupported("terminal")
	}
	var result TerminalKillResult
	err := a.session.SendRequest(ctx, MethodTerminalKill, params, &result)
	return result, err
}

// SendSessionUpdate streams one session/update notification to the
// client for sessionID.
func (a *AgentEndpoint) SendSessionUpdate(sessionID string, update SessionUpdate) error {
	return a.session.SendNotification(MethodSessionUpdate, SessionUpdateParams{SessionID: sessionID, Update: update})
}
