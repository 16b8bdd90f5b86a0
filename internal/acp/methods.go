package acp

// Method names for every request and notification defined by the
// Agent Client Protocol (https://agentclientprotocol.com).
const (
	MethodInitialize       = "initialize"
	MethodAuthenticate     = "authenticate"
	MethodSessionNew       = "session/new"
	MethodSessionLoad      = "session/load"
	MethodSessionSetMode   = "session/set_mode"
	MethodSessionSetModel  = "session/set_model"
	MethodSessionPrompt    = "session/prompt"
	MethodSessionCancel    = "session/cancel"
	MethodSessionUpdate    = "session/update"

	MethodFSReadTextFile       = "fs/read_text_file"
	MethodFSWriteTextFile      = "fs/write_text_file"
	MethodRequestPermission    = "session/request_permission"
	MethodTerminalCreate       = "terminal/create"
	MethodTerminalOutput       = "terminal/output"
	MethodTerminalRelease      = "terminal/release"
	MethodTerminalWaitForExit  = "terminal/wait_for_exit"
	MethodTerminalKill         = "terminal/kill"
)

// ClientInfo describes the editor/client implementation.
type ClientInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// AgentInfo describes the agent implementation.
type AgentInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// AuthMethod describes one way a client can authenticate with an agent.
type AuthMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// InitializeParams are the parameters for the initialize method.
type InitializeParams struct {
	ProtocolVersion    int                `json:"protocolVersion"`
	ClientCapabilities ClientCapabilities `json:"clientCapabilities"`
	ClientInfo         *ClientInfo        `json:"clientInfo,omitempty"`
}

// InitializeResult is the response from initialize.
type InitializeResult struct {
	ProtocolVersion   int               `json:"protocolVersion"`
	AgentCapabilities AgentCapabilities `json:"agentCapabilities"`
	AgentInfo         *AgentInfo        `json:"agentInfo,omitempty"`
	AuthMethods       []AuthMethod      `json:"authMethods,omitempty"`
}

// AuthenticateParams are the parameters for the authenticate method.
type AuthenticateParams struct {
	MethodID string `json:"methodId"`
}

// AuthenticateResult is the (empty) response from authenticate.
type AuthenticateResult struct{}

// SessionNewParams are the parameters for session/new.
type SessionNewParams struct {
	CWD        string      `json:"cwd"`
	MCPServers []MCPServer `json:"mcpServers"`
}

// ModeInfo describes one selectable agent operating mode.
type ModeInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModesInfo lists the modes available to a session and the current one.
type ModesInfo struct {
	CurrentModeID string     `json:"currentModeId"`
	AvailableModes []ModeInfo `json:"availableModes"`
}

// ModelInfo describes one selectable underlying model.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModelsInfo lists the models available to a session and the current one.
type ModelsInfo struct {
	CurrentModelID  string      `json:"currentModelId"`
	AvailableModels []ModelInfo `json:"availableModels"`
}

// SessionNewResult is the response from session/new.
type SessionNewResult struct {
	SessionID string     `json:"sessionId"`
	Modes     *ModesInfo `json:"modes,omitempty"`
	Models    *ModelsInfo `json:"models,omitempty"`
}

// SessionLoadParams are the parameters for session/load.
type SessionLoadParams struct {
	SessionID  string      `json:"sessionId"`
	CWD        string      `json:"cwd"`
	MCPServers []MCPServer `json:"mcpServers"`
}

// SessionLoadResult is the response from session/load.
type SessionLoadResult struct {
	Modes  *ModesInfo  `json:"modes,omitempty"`
	Models *ModelsInfo `json:"models,omitempty"`
}

// SessionSetModeParams are the parameters for session/set_mode.
type SessionSetModeParams struct {
	SessionID string `json:"sessionId"`
	ModeID    string `json:"modeId"`
}

// SessionSetModeResult is the (empty) response from session/set_mode.
type SessionSetModeResult struct{}

// SessionSetModelParams are the parameters for session/set_model.
// This method is unstable: implementations may change its shape or
// withdraw it across protocol versions.
type SessionSetModelParams struct {
	SessionID string `json:"sessionId"`
	ModelID   string `json:"modelId"`
}

// SessionSetModelResult is the (empty) response from session/set_model.
type SessionSetModelResult struct{}

// SessionPromptParams are the parameters for session/prompt.
type SessionPromptParams struct {
	SessionID string         `json:"sessionId"`
	Prompt    []ContentBlock `json:"prompt"`
}

// SessionPromptResult is the response from session/prompt.
type SessionPromptResult struct {
	StopReason StopReason `json:"stopReason"`
}

// SessionCancelParams are the parameters of the session/cancel notification.
type SessionCancelParams struct {
	SessionID string `json:"sessionId"`
}

// SessionUpdateParams are the parameters of the session/update notification.
type SessionUpdateParams struct {
	SessionID string        `json:"sessionId"`
	Update    SessionUpdate `json:"update"`
}

// ReadTextFileParams are the parameters for fs/read_text_file.
type ReadTextFileParams struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Line      *int   `json:"line,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
}

// ReadTextFileResult is the response from fs/read_text_file.
type ReadTextFileResult struct {
	Content string `json:"content"`
}

// WriteTextFileParams are the parameters for fs/write_text_file.
type WriteTextFileParams struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

// WriteTextFileResult is the (empty) response from fs/write_text_file.
type WriteTextFileResult struct{}

// RequestPermissionParams are the parameters for session/request_permission.
type RequestPermissionParams struct {
	SessionID string             `json:"sessionId"`
	ToolCall  ToolCall           `json:"toolCall"`
	Options   []PermissionOption `json:"options"`
}

// RequestPermissionResult is the response from session/request_permission.
type RequestPermissionResult struct {
	Outcome PermissionOutcome `json:"outcome"`
}

// TerminalCreateParams are the parameters for terminal/create.
type TerminalCreateParams struct {
	SessionID string        `json:"sessionId"`
	Command   string        `json:"command"`
	Args      []string      `json:"args,omitempty"`
	Env       []EnvVariable `json:"env,omitempty"`
	CWD       string        `json:"cwd,omitempty"`
}

// TerminalCreateResult is the response from terminal/create.
type TerminalCreateResult struct {
	TerminalID string `json:"terminalId"`
}

// TerminalOutputParams are the parameters for terminal/output.
type TerminalOutputParams struct {
	SessionID  string `json:"sessionId"`
	TerminalID string `json:"terminalId"`
}

// TerminalOutputResult is the response from terminal/output.
type TerminalOutputResult struct {
	Output   string `json:"output"`
	Truncated bool   `json:"truncated,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`
}

// TerminalReleaseParams are the parameters for terminal/release.
type TerminalReleaseParams struct {
	SessionID  string `json:"sessionId"`
	TerminalID string `json:"terminalId"`
}

// TerminalReleaseResult is the (empty) response from terminal/release.
type TerminalReleaseResult struct{}

// TerminalWaitForExitParams are the parameters for terminal/wait_for_exit.
type TerminalWaitForExitParams struct {
	SessionID  string `json:"sessionId"`
	TerminalID string `json:"terminalId"`
}

// TerminalWaitForExitResult is the response from terminal/wait_for_exit.
type TerminalWaitForExitResult struct {
	ExitCode *int    `json:"exitCode,omitempty"`
	Signal   *string `json:"signal,omitempty"`
}

// TerminalKillParams are the parameters for terminal/kill.
type TerminalKillParams struct {
	SessionID  string `json:"sessionId"`
	TerminalID string `json:"terminalId"`
}

// TerminalKillResult is the (empty) response from terminal/kill.
type TerminalKillResult struct{}
