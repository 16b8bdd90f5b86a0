package acp

import (
	"encoding/json"
	"fmt"
)

// SessionUpdateKind discriminates SessionUpdate.Kind, a tagged union
// keyed by its own sessionUpdate field on the wire.
type SessionUpdateKind string

const (
	UpdateUserMessageChunk       SessionUpdateKind = "user_message_chunk"
	UpdateAgentMessageChunk      SessionUpdateKind = "agent_message_chunk"
	UpdateAgentThoughtChunk      SessionUpdateKind = "agent_thought_chunk"
	UpdateToolCall               SessionUpdateKind = "tool_call"
	UpdateToolCallUpdate         SessionUpdateKind = "tool_call_update"
	UpdatePlan                   SessionUpdateKind = "plan"
	UpdateAvailableCommands      SessionUpdateKind = "available_commands_update"
	UpdateCurrentModeUpdate      SessionUpdateKind = "current_mode_update"
)

// ToolCallKind enumerates the kind of action a tool call performs.
type ToolCallKind string

const (
	ToolKindRead       ToolCallKind = "read"
	ToolKindEdit       ToolCallKind = "edit"
	ToolKindDelete     ToolCallKind = "delete"
	ToolKindMove       ToolCallKind = "move"
	ToolKindSearch     ToolCallKind = "search"
	ToolKindExecute    ToolCallKind = "execute"
	ToolKindThink      ToolCallKind = "think"
	ToolKindFetch      ToolCallKind = "fetch"
	ToolKindSwitchMode ToolCallKind = "switch_mode"
	ToolKindOther      ToolCallKind = "other"
)

// ToolCallStatus enumerates the lifecycle state of a tool call.
type ToolCallStatus string

const (
	ToolStatusPending    ToolCallStatus = "pending"
	ToolStatusInProgress ToolCallStatus = "in_progress"
	ToolStatusCompleted  ToolCallStatus = "completed"
	ToolStatusFailed     ToolCallStatus = "failed"
)

// ToolCallLocation identifies a file/line the tool call touched, used
// by clients to drive "follow along" UI.
type ToolCallLocation struct {
	Path string `json:"path"`
	Line *int   `json:"line,omitempty"`
}

// ToolCall describes one tool invocation the agent is making or has made.
type ToolCall struct {
	ToolCallID string             `json:"toolCallId"`
	Title      string             `json:"title"`
	Kind       ToolCallKind       `json:"kind,omitempty"`
	Status     ToolCallStatus     `json:"status,omitempty"`
	Content    []ContentBlock     `json:"content,omitempty"`
	Locations  []ToolCallLocation `json:"locations,omitempty"`
	RawInput   json.RawMessage    `json:"rawInput,omitempty"`
	RawOutput  json.RawMessage    `json:"rawOutput,omitempty"`
}

// PlanEntryPriority enumerates plan entry priority.
type PlanEntryPriority string

const (
	PlanPriorityLow    PlanEntryPriority = "low"
	PlanPriorityMedium PlanEntryPriority = "medium"
	PlanPriorityHigh   PlanEntryPriority = "high"
)

// PlanEntryStatus enumerates plan entry lifecycle state.
type PlanEntryStatus string

const (
	PlanStatusPending    PlanEntryStatus = "pending"
	PlanStatusInProgress PlanEntryStatus = "in_progress"
	PlanStatusCompleted  PlanEntryStatus = "completed"
)

// PlanEntry is one step of an agent's plan for the current turn.
type PlanEntry struct {
	Content  string            `json:"content"`
	Priority PlanEntryPriority `json:"priority,omitempty"`
	Status   PlanEntryStatus   `json:"status,omitempty"`
}

// AvailableCommand describes a slash-command style action the agent
// currently supports, surfaced to the client for palette UI.
type AvailableCommand struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SessionUpdate is the tagged union streamed via session/update
// notifications during a turn. Exactly the fields relevant to Kind
// are populated; all others are the zero value.
type SessionUpdate struct {
	Kind SessionUpdateKind

	// user_message_chunk / agent_message_chunk / agent_thought_chunk
	Content *ContentBlock `json:"-"`

	// tool_call / tool_call_update
	ToolCall *ToolCall `json:"-"`

	// plan
	Entries []PlanEntry `json:"-"`

	// available_commands_update
	AvailableCommands []AvailableCommand `json:"-"`

	// current_mode_update
	CurrentModeID string `json:"-"`
}

// sessionUpdateWire is the flat wire shape; its fields are a superset
// of every variant, decoded through the single central decoder below
// rather than ad hoc per-call-site branching.
type sessionUpdateWire struct {
	SessionUpdate     string             `json:"sessionUpdate"`
	Content           json.RawMessage    `json:"content,omitempty"`
	ToolCallID        string             `json:"toolCallId,omitempty"`
	Title             string             `json:"title,omitempty"`
	Kind              ToolCallKind       `json:"kind,omitempty"`
	Status            ToolCallStatus     `json:"status,omitempty"`
	Locations         []ToolCallLocation `json:"locations,omitempty"`
	RawInput          json.RawMessage    `json:"rawInput,omitempty"`
	RawOutput         json.RawMessage    `json:"rawOutput,omitempty"`
	Entries           []PlanEntry        `json:"entries,omitempty"`
	AvailableCommands []AvailableCommand `json:"availableCommands,omitempty"`
	CurrentModeID     string             `json:"currentModeId,omitempty"`
}

func (u SessionUpdate) MarshalJSON() ([]byte, error) {
	w := sessionUpdateWire{SessionUpdate: string(u.Kind)}
	switch u.Kind {
	case UpdateUserMessageChunk, UpdateAgentMessageChunk, UpdateAgentThoughtChunk:
		if u.Content != nil {
			raw, err := json.Marshal(u.Content)
			if err != nil {
				return nil, err
			}
			w.Content = raw
		}
	case UpdateToolCall, UpdateToolCallUpdate:
		if u.ToolCall != nil {
			w.ToolCallID = u.ToolCall.ToolCallID
			w.Title = u.ToolCall.Title
			w.Kind = u.ToolCall.Kind
			w.Status = u.ToolCall.Status
			w.Locations = u.ToolCall.Locations
			w.RawInput = u.ToolCall.RawInput
			w.RawOutput = u.ToolCall.RawOutput
			if len(u.ToolCall.Content) > 0 {
				raw, err := json.Marshal(u.ToolCall.Content)
				if err != nil {
					return nil, err
				}
				w.Content = raw
			}
		}
	case UpdatePlan:
		w.Entries = u.Entries
	case UpdateAvailableCommands:
		w.AvailableCommands = u.AvailableCommands
	case UpdateCurrentModeUpdate:
		w.CurrentModeID = u.CurrentModeID
	default:
		return nil, fmt.Errorf("acp: unknown session update kind %q", u.Kind)
	}
	return json.Marshal(w)
}

func (u *SessionUpdate) UnmarshalJSON(data []byte) error {
	var w sessionUpdateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := SessionUpdate{Kind: SessionUpdateKind(w.SessionUpdate)}
	switch out.Kind {
	case UpdateUserMessageChunk, UpdateAgentMessageChunk, UpdateAgentThoughtChunk:
		if len(w.Content) > 0 {
			var block ContentBlock
			if err := json.Unmarshal(w.Content, &block); err != nil {
				return err
			}
			out.Content = &block
		}
	case UpdateToolCall, UpdateToolCallUpdate:
		tc := &ToolCall{
			ToolCallID: w.ToolCallID,
			Title:      w.Title,
			Kind:       w.Kind,
			Status:     w.Status,
			Locations:  w.Locations,
			RawInput:   w.RawInput,
			RawOutput:  w.RawOutput,
		}
		if len(w.Content) > 0 {
			if err := json.Unmarshal(w.Content, &tc.Content); err != nil {
				return err
			}
		}
		out.ToolCall = tc
	case UpdatePlan:
		out.Entries = w.Entries
	case UpdateAvailableCommands:
		out.AvailableCommands = w.AvailableCommands
	case UpdateCurrentModeUpdate:
		out.CurrentModeID = w.CurrentModeID
	default:
		// Unknown sessionUpdate tags are rejected rather than forwarded
		// opaquely, so a client built against an older schema fails
		// loudly instead of silently dropping the update's content.
		return fmt.Errorf("acp: unknown session update kind %q", w.SessionUpdate)
	}
	*u = out
	return nil
}

// StopReason enumerates why a session/prompt turn ended.
type StopReason string

const (
	StopEndTurn          StopReason = "end_turn"
	StopMaxTokens        StopReason = "max_tokens"
	StopMaxTurnRequests  StopReason = "max_turn_requests"
	StopRefusal          StopReason = "refusal"
	StopCancelled        StopReason = "cancelled"
)

// PermissionOptionKind enumerates the kind of a permission option a
// client may present to a user.
type PermissionOptionKind string

const (
	PermissionAllowOnce   PermissionOptionKind = "allow_once"
	PermissionAllowAlways PermissionOptionKind = "allow_always"
	PermissionRejectOnce  PermissionOptionKind = "reject_once"
	PermissionRejectAlways PermissionOptionKind = "reject_always"
)

// PermissionOption is one choice offered to the user by
// session/request_permission.
type PermissionOption struct {
	OptionID string               `json:"optionId"`
	Name     string               `json:"name"`
	Kind     PermissionOptionKind `json:"kind"`
}

// PermissionOutcomeKind discriminates PermissionOutcome.Outcome.
type PermissionOutcomeKind string

const (
	OutcomeCancelled PermissionOutcomeKind = "cancelled"
	OutcomeSelected  PermissionOutcomeKind = "selected"
)

// PermissionOutcome is the client's response to session/request_permission.
type PermissionOutcome struct {
	Outcome  PermissionOutcomeKind `json:"outcome"`
	OptionID string                `json:"optionId,omitempty"`
}

func (o PermissionOutcome) MarshalJSON() ([]byte, error) {
	type wire struct {
		Outcome  string `json:"outcome"`
		OptionID string `json:"optionId,omitempty"`
	}
	switch o.Outcome {
	case OutcomeCancelled:
		return json.Marshal(wire{Outcome: string(OutcomeCancelled)})
	case OutcomeSelected:
		return json.Marshal(wire{Outcome: string(OutcomeSelected), OptionID: o.OptionID})
	default:
		return nil, fmt.Errorf("acp: unknown permission outcome %q", o.Outcome)
	}
}

func (o *PermissionOutcome) UnmarshalJSON(data []byte) error {
	var w struct {
		Outcome  string `json:"outcome"`
		OptionID string `json:"optionId,omitempty"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Outcome {
	case string(OutcomeCancelled):
		*o = PermissionOutcome{Outcome: OutcomeCancelled}
	case string(OutcomeSelected):
		*o = PermissionOutcome{Outcome: OutcomeSelected, OptionID: w.OptionID}
	default:
		return fmt.Errorf("acp: unknown permission outcome %q", w.Outcome)
	}
	return nil
}
