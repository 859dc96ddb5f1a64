package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RecentLimit is how many sessions the collapsed sidebar shows.
const RecentLimit = 10

type Service struct {
	store     *Store
	composer  *Composer
	simulator *Simulator
	log       zerolog.Logger
}

func NewService(store *Store, simulator *Simulator, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		composer:  NewComposer(store),
		simulator: simulator,
		log:       log.With().Str("component", "chat-service").Logger(),
	}
}

func (s *Service) CreateSession() (Session, error) {
	sess, err := s.store.CreateSession()
	if err != nil {
		return Session{}, err
	}
	s.log.Info().Str("session_id", sess.ID).Msg("session created")
	return sess, nil
}

func (s *Service) SelectSession(id string) error {
	return s.store.SelectSession(id)
}

func (s *Service) RenameSession(id, title string) error {
	return s.store.RenameSession(id, title)
}

// DeleteSession cancels the session's pending replies, then removes it.
// Unknown ids are a no-op.
func (s *Service) DeleteSession(id string) bool {
	cancelled := s.simulator.CancelSession(id)
	deleted := s.store.DeleteSession(id)
	if deleted {
		s.log.Info().Str("session_id", id).Int("cancelled_replies", cancelled).Msg("session deleted")
	}
	return deleted
}

// SendMessage appends the user's message and schedules the assistant reply.
// Blank content returns (nil, nil, nil) and changes nothing.
func (s *Service) SendMessage(ctx context.Context, sessionID, content string) (*Message, *Reply, error) {
	msg, err := s.composer.Submit(sessionID, content)
	if err != nil || msg == nil {
		return nil, nil, err
	}
	reply, err := s.simulator.Respond(ctx, sessionID, msg.Content)
	if err != nil {
		return msg, nil, err
	}
	return msg, reply, nil
}

func (s *Service) ListMessages(sessionID string) ([]Message, error) {
	return s.store.Messages(sessionID)
}

func (s *Service) Session(id string) (Session, error) {
	return s.store.Session(id)
}

// CancelReplies cancels the pending replies of a session, e.g. when the
// caller navigates away.
func (s *Service) CancelReplies(sessionID string) int {
	return s.simulator.CancelSession(sessionID)
}

// ActiveID returns the selected session id, or "" when none is selected.
func (s *Service) ActiveID() string {
	id, _ := s.store.Active()
	return id
}

func (s *Service) ReplyPending(sessionID string) bool {
	return s.simulator.Pending(sessionID)
}

type Sidebar struct {
	ActiveID string
	Query    string
	Groups   Groups
	Recent   []Session
	Total    int
}

// Sidebar derives the session list view for query at now.
func (s *Service) Sidebar(query string, now time.Time) Sidebar {
	all := s.store.Sessions()
	active, _ := s.store.Active()
	return Sidebar{
		ActiveID: active,
		Query:    query,
		Groups:   GroupByRecency(Filter(all, query), now),
		Recent:   Recent(all, RecentLimit),
		Total:    len(all),
	}
}

// Shutdown cancels every pending reply.
func (s *Service) Shutdown() {
	s.simulator.Stop()
}
