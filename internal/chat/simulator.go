package chat

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/career-counselor/internal/ai"
)

const DefaultReplyDelay = 1500 * time.Millisecond

// Simulator answers user messages after a fixed delay, standing in for a
// backend round-trip. Pending replies are tracked per session so deletion
// can cancel them.
type Simulator struct {
	store    *Store
	provider ai.Provider
	delay    time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]map[string]*Reply // session id -> reply id -> reply
}

func NewSimulator(store *Store, provider ai.Provider, delay time.Duration, log zerolog.Logger) *Simulator {
	if delay < 0 {
		delay = DefaultReplyDelay
	}
	return &Simulator{
		store:    store,
		provider: provider,
		delay:    delay,
		log:      log.With().Str("component", "response-simulator").Logger(),
		pending:  make(map[string]map[string]*Reply),
	}
}

func (s *Simulator) Delay() time.Duration {
	return s.delay
}

// Respond schedules an assistant reply to userText. The reply is cancelled
// when ctx is done before it comes due.
func (s *Simulator) Respond(ctx context.Context, sessionID, userText string) (*Reply, error) {
	if !s.store.Exists(sessionID) {
		return nil, ErrSessionNotFound
	}
	id, err := NewReplyID()
	if err != nil {
		return nil, errors.Wrap(err, "generate reply id")
	}

	r := &Reply{
		ID:        id,
		SessionID: sessionID,
		Prompt:    userText,
		DueAt:     s.store.Now().Add(s.delay),
		ctx:       context.WithoutCancel(ctx),
		status:    ReplyPending,
		done:      make(chan struct{}),
		onSettle:  s.forget,
	}

	s.mu.Lock()
	if s.pending[sessionID] == nil {
		s.pending[sessionID] = make(map[string]*Reply)
	}
	s.pending[sessionID][id] = r
	s.mu.Unlock()

	r.mu.Lock()
	r.timer = time.AfterFunc(s.delay, func() { s.deliver(r) })
	r.stopCtx = context.AfterFunc(ctx, func() { r.Cancel() })
	r.mu.Unlock()

	s.log.Debug().Str("session_id", sessionID).Str("reply_id", id).Dur("delay", s.delay).Msg("reply scheduled")
	return r, nil
}

func (s *Simulator) deliver(r *Reply) {
	r.mu.Lock()
	if r.status != ReplyPending {
		r.mu.Unlock()
		return
	}

	text, err := s.provider.Chat(r.ctx, []ai.Message{{Role: ai.RoleUser, Content: r.Prompt}})
	if err != nil {
		r.settleLocked(ReplyFailed, nil, err)
		r.mu.Unlock()
		s.log.Warn().Err(err).Str("session_id", r.SessionID).Str("reply_id", r.ID).Msg("reply generation failed")
		return
	}

	msg, err := s.store.AppendMessage(r.SessionID, text, RoleAssistant)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		r.settleLocked(ReplyDropped, nil, nil)
		s.log.Debug().Str("session_id", r.SessionID).Str("reply_id", r.ID).Msg("reply dropped, session gone")
	case err != nil:
		r.settleLocked(ReplyFailed, nil, err)
		s.log.Warn().Err(err).Str("session_id", r.SessionID).Str("reply_id", r.ID).Msg("reply append failed")
	default:
		r.settleLocked(ReplyDelivered, &msg, nil)
		s.log.Debug().Str("session_id", r.SessionID).Str("reply_id", r.ID).Str("message_id", msg.ID).Msg("reply delivered")
	}
	r.mu.Unlock()
}

// forget runs with r.mu held; it must not touch the reply's lock.
func (s *Simulator) forget(r *Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.pending[r.SessionID]; m != nil {
		delete(m, r.ID)
		if len(m) == 0 {
			delete(s.pending, r.SessionID)
		}
	}
}

// Pending reports whether a reply is outstanding for the session.
func (s *Simulator) Pending(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending[sessionID]) > 0
}

// CancelSession cancels every pending reply of the session and returns how
// many were cancelled.
func (s *Simulator) CancelSession(sessionID string) int {
	s.mu.Lock()
	replies := make([]*Reply, 0, len(s.pending[sessionID]))
	for _, r := range s.pending[sessionID] {
		replies = append(replies, r)
	}
	s.mu.Unlock()

	n := 0
	for _, r := range replies {
		if r.Cancel() {
			n++
		}
	}
	if n > 0 {
		s.log.Debug().Str("session_id", sessionID).Int("cancelled", n).Msg("pending replies cancelled")
	}
	return n
}

// Stop cancels everything still pending.
func (s *Simulator) Stop() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.CancelSession(id)
	}
}
