package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/career-counselor/internal/ai"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService(t *testing.T, delay time.Duration) (*Service, *Store) {
	t.Helper()
	store := NewStore()
	sim := NewSimulator(store, ai.NewScriptedProvider(), delay, zerolog.Nop())
	svc := NewService(store, sim, zerolog.Nop())
	t.Cleanup(svc.Shutdown)
	return svc, store
}

func waitReply(t *testing.T, r *Reply) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("reply %s did not settle", r.ID)
	}
}

// requireCountsConsistent checks that every session's summary matches its log:
// messageCount is the log length and a non-empty log dates the session.
func requireCountsConsistent(t *testing.T, store *Store) {
	t.Helper()
	for _, s := range store.Sessions() {
		msgs, err := store.Messages(s.ID)
		require.NoError(t, err)
		require.Equal(t, len(msgs), s.MessageCount, "session %s", s.ID)
		if len(msgs) == 0 {
			continue
		}
		last := msgs[len(msgs)-1]
		require.True(t, last.Timestamp.Equal(s.Timestamp), "session %q timestamp %s != newest message %s", s.Title, s.Timestamp, last.Timestamp)
		require.Equal(t, lastMessagePreview(last.Role, last.Content), s.LastMessage, "session %q", s.Title)
	}
}
