package acp

import (
	"sync"
	"time"
)

// DefaultIdleTimeout is the duration after which a tracked session is
// reaped by the idle reaper.
const DefaultIdleTimeout = 30 * time.Minute

// defaultReapInterval is how often the background reaper goroutine
// scans for idle sessions.
const defaultReapInterval = 5 * time.Minute

// SessionRecord is the bookkeeping this engine keeps about a live
// session, independent of whatever domain state an agent layers on
// top of SessionID.
type SessionRecord struct {
	SessionID    string
	CWD          string
	CreatedAt    time.Time
	LastActiveAt time.Time
	TurnCount    int
	ModeID       string
	ModelID      string
}

// SessionRegistry tracks every session an agent's handlers record with
// Track on creation or load, independent of the TurnController's
// per-turn bookkeeping. It
// never owns a subprocess or a persistence backend; it exists purely
// so an idle reaper can evict forgotten sessions instead of a real
// implementation leaking them forever.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord

	idleTimeout time.Duration

	reaperMu     sync.Mutex
	reaperCancel chan struct{}

	onIdleClose func(sessionID string)
}

// NewSessionRegistry builds an empty registry. onIdleClose, if
// non-nil, is invoked (off the reaper goroutine's own lock) for every
// session the idle reaper evicts, so a caller can release whatever
// domain resources it attached to that sessionId.
func NewSessionRegistry(onIdleClose func(sessionID string)) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[string]*SessionRecord),
		idleTimeout: DefaultIdleTimeout,
		onIdleClose: onIdleClose,
	}
}

// Track records a newly created or loaded session.
func (r *SessionRegistry) Track(sessionID, cwd string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := timeNow()
	r.sessions[sessionID] = &SessionRecord{
		SessionID: sessionID, CWD: cwd, CreatedAt: now, LastActiveAt: now,
	}
}

// Touch marks sessionID as active now and increments its turn count.
// It is a no-op for an untracked sessionID.
func (r *SessionRegistry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.sessions[sessionID]; ok {
		rec.LastActiveAt = timeNow()
		rec.TurnCount++
	}
}

// SetMode/SetModel record the session's current mode/model selection.
func (r *SessionRegistry) SetMode(sessionID, modeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.sessions[sessionID]; ok {
		rec.ModeID = modeID
	}
}

func (r *SessionRegistry) SetModel(sessionID, modelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.sessions[sessionID]; ok {
		rec.ModelID = modelID
	}
}

// Get returns a copy of the tracked record for sessionID, if any.
func (r *SessionRegistry) Get(sessionID string) (SessionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.sessions[sessionID]
	if !ok {
		return SessionRecord{}, false
	}
	return *rec, true
}

// List returns a snapshot of every tracked session.
func (r *SessionRegistry) List() []SessionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionRecord, 0, len(r.sessions))
	for _, rec := range r.sessions {
		out = append(out, *rec)
	}
	return out
}

// Forget stops tracking sessionID without invoking onIdleClose.
func (r *SessionRegistry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// reapOnce evicts every session whose LastActiveAt exceeds the idle
// timeout.
func (r *SessionRegistry) reapOnce() {
	r.mu.Lock()
	var stale []string
	now := timeNow()
	for id, rec := range r.sessions {
		if now.Sub(rec.LastActiveAt) > r.idleTimeout {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if r.onIdleClose != nil {
		for _, id := range stale {
			r.onIdleClose(id)
		}
	}
}

// StartIdleReaper launches a background goroutine that scans for idle
// sessions every five minutes. Calling it twice without an intervening
// StopIdleReaper is a no-op.
func (r *SessionRegistry) StartIdleReaper() {
	r.reaperMu.Lock()
	defer r.reaperMu.Unlock()
	if r.reaperCancel != nil {
		return
	}
	stop := make(chan struct{})
	r.reaperCancel = stop

	go func() {
		ticker := time.NewTicker(defaultReapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.reapOnce()
			case <-stop:
				return
			}
		}
	}()
}

// StopIdleReaper stops the background reaper goroutine, if running.
func (r *SessionRegistry) StopIdleReaper() {
	r.reaperMu.Lock()
	defer r.reaperMu.Unlock()
	if r.reaperCancel != nil {
		close(r.reaperCancel)
		r.reaperCancel = nil
	}
}

// timeNow is a thin indirection so tests can observe reaping logic
// without sleeping for real wall-clock minutes.
var timeNow = time.Now
