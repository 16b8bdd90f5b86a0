package acp

import (
	"context"
	"sync"
)

// turnSlot tracks the single active session/prompt execution for one
// sessionId, plus the cancel func session/cancel couples to.
type turnSlot struct {
	cancel context.CancelFunc
}

// TurnController enforces at most one active session/prompt request
// per sessionId. A second concurrent prompt on the same session is
// rejected with CodeConcurrentPrompt instead of being queued or
// silently interleaved, because the wire protocol has no notion of
// which streamed session/update belongs to which of two simultaneous
// turns. session/cancel is a notification, so it cannot itself error
// when a session has no active turn; it is simply a no-op in that
// case.
type TurnController struct {
	mu    sync.Mutex
	slots map[string]*turnSlot
}

// NewTurnController builds an empty controller.
func NewTurnController() *TurnController {
	return &TurnController{slots: make(map[string]*turnSlot)}
}

// Begin claims the turn slot for sessionID, deriving a cancelable
// context from ctx. It returns errConcurrentPrompt if a prompt is
// already active for that session. The caller must call the returned
// end func exactly once when the turn finishes, regardless of outcome.
func (tc *TurnController) Begin(ctx context.Context, sessionID string) (turnCtx context.Context, end func(), err error) {
	tc.mu.Lock()
	if _, busy := tc.slots[sessionID]; busy {
		tc.mu.Unlock()
		return nil, nil, errConcurrentPrompt(sessionID)
	}
	turnCtx, cancel := context.WithCancel(ctx)
	slot := &turnSlot{cancel: cancel}
	tc.slots[sessionID] = slot
	tc.mu.Unlock()

	end = func() {
		tc.mu.Lock()
		if cur, ok := tc.slots[sessionID]; ok && cur == slot {
			delete(tc.slots, sessionID)
		}
		tc.mu.Unlock()
		cancel()
	}
	return turnCtx, end, nil
}

// Cancel clears and cancels the active turn for sessionID, if any, so
// that a subsequent prompt on the same session is free to begin
// immediately rather than racing the canceled handler's return. It is
// idempotent: canceling a session with no active turn, or canceling
// twice, has no effect beyond the first call.
func (tc *TurnController) Cancel(sessionID string) {
	tc.mu.Lock()
	slot, ok := tc.slots[sessionID]
	if ok {
		delete(tc.slots, sessionID)
	}
	tc.mu.Unlock()
	if ok {
		slot.cancel()
	}
}

// Active reports whether sessionID currently has a running prompt.
func (tc *TurnController) Active(sessionID string) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	_, ok := tc.slots[sessionID]
	return ok
}
