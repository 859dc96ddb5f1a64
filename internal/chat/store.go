package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	titlePrefixLen   = 30
	previewPrefixLen = 100
	ellipsis         = "..."
)

// Mirror receives a copy of every Store mutation. Mirror errors are logged and
// never roll back the in-memory state.
type Mirror interface {
	SaveSession(ctx context.Context, s *Session) error
	DeleteSession(ctx context.Context, sessionID string) error
	InsertMessage(ctx context.Context, m *Message) error
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithMirror(m Mirror) StoreOption {
	return func(s *Store) { s.mirror = m }
}

func WithLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) { s.log = l }
}

// Store owns the ordered session collection and every session's message log.
// All mutations go through one mutex, so each session has a single writer.
type Store struct {
	mu       sync.Mutex
	order    []string // display order, index 0 is the newest created
	sessions map[string]*Session
	logs     map[string][]Message
	active   string

	now    func() time.Time
	mirror Mirror
	log    zerolog.Logger
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		logs:     make(map[string][]Message),
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("component", "session-store").Logger()
	return s
}

// CreateSession inserts an empty "New Chat" session at the front and makes it active.
func (s *Store) CreateSession() (Session, error) {
	id, err := NewSessionID()
	if err != nil {
		return Session{}, errors.Wrap(err, "generate session id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.sessions[id]; dup {
		return Session{}, errors.Errorf("session id collision: %s", id)
	}
	sess := &Session{
		ID:        id,
		Title:     DefaultTitle,
		Timestamp: s.now(),
		Category:  CategoryGeneral,
	}
	s.sessions[id] = sess
	s.logs[id] = nil
	s.order = append([]string{id}, s.order...)
	s.active = id

	s.mirrorSession(sess)
	s.log.Debug().Str("session_id", id).Msg("session created")
	return *sess, nil
}

// Seed appends pre-built sessions and their logs after the existing ones, in
// the given order. MessageCount is recomputed from the log; a non-empty log
// also sets Timestamp and LastMessage from its last message. If nothing is
// active, the first seeded session becomes active.
func (s *Store) Seed(sessions []Session, logs map[string][]Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, in := range sessions {
		if in.ID == "" {
			return errors.New("seed session has empty id")
		}
		if _, dup := s.sessions[in.ID]; dup {
			return errors.Errorf("seed session %s already exists", in.ID)
		}
		if !in.Category.Valid() {
			in.Category = CategoryGeneral
		}
		msgs := make([]Message, 0, len(logs[in.ID]))
		for i, m := range logs[in.ID] {
			if strings.TrimSpace(m.Content) == "" || !m.Role.Valid() {
				return errors.Wrapf(ErrValidation, "seed message %d of session %s", i, in.ID)
			}
			m.SessionID = in.ID
			m.Seq = i
			if m.ID == "" {
				m.ID = NewMessageID()
			}
			msgs = append(msgs, m)
		}
		sess := in
		sess.MessageCount = len(msgs)
		if n := len(msgs); n > 0 {
			last := msgs[n-1]
			sess.Timestamp = last.Timestamp
			sess.LastMessage = lastMessagePreview(last.Role, last.Content)
		}
		s.sessions[sess.ID] = &sess
		s.logs[sess.ID] = msgs
		s.order = append(s.order, sess.ID)

		s.mirrorSession(&sess)
		for i := range msgs {
			s.mirrorMessage(&msgs[i])
		}
	}
	if s.active == "" && len(s.order) > 0 {
		s.active = s.order[0]
	}
	return nil
}

// DeleteSession removes a session and its log. Deleting an unknown id is a
// no-op and reports false. If the deleted session was active, the first
// remaining session in display order becomes active.
func (s *Store) DeleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	delete(s.logs, id)
	for i, sid := range s.order {
		if sid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == id {
		s.active = ""
		if len(s.order) > 0 {
			s.active = s.order[0]
		}
	}

	if s.mirror != nil {
		if err := s.mirror.DeleteSession(context.Background(), id); err != nil {
			s.log.Warn().Err(err).Str("session_id", id).Msg("mirror delete session failed")
		}
	}
	s.log.Debug().Str("session_id", id).Str("active", s.active).Msg("session deleted")
	return true
}

// RenameSession replaces the title. A title that trims to empty is ignored.
func (s *Store) RenameSession(id, title string) error {
	title = strings.TrimSpace(title)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if title == "" {
		return nil
	}
	sess.Title = title
	s.mirrorSession(sess)
	return nil
}

// AppendMessage appends a message to the session log and updates the session
// summary in the same critical section.
func (s *Store) AppendMessage(sessionID, content string, role Role) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, errors.Wrap(ErrValidation, "content is empty")
	}
	if !role.Valid() {
		return Message{}, errors.Wrapf(ErrValidation, "unknown role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Message{}, ErrSessionNotFound
	}

	now := s.now()
	msg := Message{
		ID:        NewMessageID(),
		SessionID: sessionID,
		Seq:       len(s.logs[sessionID]),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	s.logs[sessionID] = append(s.logs[sessionID], msg)

	sess.MessageCount = len(s.logs[sessionID])
	sess.Timestamp = now
	sess.LastMessage = lastMessagePreview(role, content)
	if role == RoleUser && sess.Title == DefaultTitle {
		sess.Title = prefix(content, titlePrefixLen) + ellipsis
	}

	s.mirrorSession(sess)
	s.mirrorMessage(&msg)
	return msg, nil
}

// Messages returns a snapshot of the session log in insertion order.
func (s *Store) Messages(sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	return append([]Message(nil), s.logs[sessionID]...), nil
}

func (s *Store) Session(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Sessions returns a snapshot of all sessions in display order.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Session, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.sessions[id])
	}
	return out
}

func (s *Store) SelectSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	s.active = id
	return nil
}

func (s *Store) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
}

// Active returns the active session id, if any.
func (s *Store) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

func (s *Store) mirrorSession(sess *Session) {
	if s.mirror == nil {
		return
	}
	cp := *sess
	if err := s.mirror.SaveSession(context.Background(), &cp); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("mirror save session failed")
	}
}

func (s *Store) mirrorMessage(m *Message) {
	if s.mirror == nil {
		return
	}
	cp := *m
	if err := s.mirror.InsertMessage(context.Background(), &cp); err != nil {
		s.log.Warn().Err(err).Str("session_id", m.SessionID).Str("message_id", m.ID).Msg("mirror insert message failed")
	}
}

// lastMessagePreview is the session summary for a message: user text as is,
// assistant text cut to a preview.
func lastMessagePreview(role Role, content string) string {
	if role == RoleAssistant {
		return prefix(content, previewPrefixLen) + ellipsis
	}
	return content
}

// Now reads the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// prefix returns the first n characters of s.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
