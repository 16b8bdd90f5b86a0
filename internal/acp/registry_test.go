package acp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// withFrozenClock replaces timeNow for the duration of a test and
// restores it on cleanup, letting reapOnce's idle-timeout math be
// exercised without sleeping for real wall-clock minutes.
func withFrozenClock(t *testing.T, start time.Time) func(advance time.Duration) {
	t.Helper()
	now := start
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })
	return func(advance time.Duration) { now = now.Add(advance) }
}

func TestSessionRegistryTrackAndGet(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry(nil)
	r.Track("s1", "/tmp/work")

	rec, ok := r.Get("s1")
	require.True(t, ok)
	require.Equal(t, "s1", rec.SessionID)
	require.Equal(t, "/tmp/work", rec.CWD)
	require.Equal(t, 0, rec.TurnCount)

	_, ok = r.Get("no-such-session")
	require.False(t, ok)
}

func TestSessionRegistryTouchIncrementsTurnCount(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry(nil)
	r.Track("s1", "/tmp/work")
	r.Touch("s1")
	r.Touch("s1")

	rec, ok := r.Get("s1")
	require.True(t, ok)
	require.Equal(t, 2, rec.TurnCount)

	// Touching an untracked session is a no-op, not a panic.
	require.NotPanics(t, func() { r.Touch("ghost") })
}

func TestSessionRegistrySetModeAndModel(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry(nil)
	r.Track("s1", "/tmp/work")
	r.SetMode("s1", "code")
	r.SetModel("s1", "gpt-5")

	rec, ok := r.Get("s1")
	require.True(t, ok)
	require.Equal(t, "code", rec.ModeID)
	require.Equal(t, "gpt-5", rec.ModelID)
}

func TestSessionRegistryList(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry(nil)
	r.Track("s1", "/tmp/a")
	r.Track("s2", "/tmp/b")

	list := r.List()
	require.Len(t, list, 2)
}

func TestSessionRegistryForget(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry(nil)
	r.Track("s1", "/tmp/work")
	r.Forget("s1")

	_, ok := r.Get("s1")
	require.False(t, ok)
}

func TestSessionRegistryReapOnceEvictsIdleSessions(t *testing.T) {
	advance := withFrozenClock(t, time.Now())

	var closed []string
	r := NewSessionRegistry(func(sessionID string) {
		closed = append(closed, sessionID)
	})
	r.Track("stale", "/tmp/a")

	advance(DefaultIdleTimeout + time.Minute)
	r.Track("fresh", "/tmp/b")

	r.reapOnce()

	require.Equal(t, []string{"stale"}, closed)
	_, ok := r.Get("stale")
	require.False(t, ok)
	_, ok = r.Get("fresh")
	require.True(t, ok)
}

func TestSessionRegistryReapOnceKeepsActiveSessions(t *testing.T) {
	advance := withFrozenClock(t, time.Now())

	r := NewSessionRegistry(nil)
	r.Track("s1", "/tmp/a")

	advance(DefaultIdleTimeout / 2)
	r.reapOnce()

	_, ok := r.Get("s1")
	require.True(t, ok)
}

func TestSessionRegistryStartStopIdleReaperIsSafe(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry(nil)
	r.StartIdleReaper()
	r.StartIdleReaper() // second call is a no-op, must not deadlock or panic
	r.StopIdleReaper()
	r.StopIdleReaper() // stopping twice must not panic
}
