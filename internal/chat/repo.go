package chat

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repo mirrors the Store into chat_sessions / chat_messages. The Store never
// reads it back.
type Repo struct {
	db *gorm.DB
}

var _ Mirror = (*Repo)(nil)

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Migrate(ctx context.Context) error {
	return errors.Wrap(r.db.WithContext(ctx).AutoMigrate(&Session{}, &Message{}), "migrate transcript tables")
}

// SaveSession upserts the session row.
func (r *Repo) SaveSession(ctx context.Context, s *Session) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(s).Error, "save session")
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(m).Error, "insert message")
}

// DeleteSession removes the session and its messages in one transaction.
func (r *Repo) DeleteSession(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", sessionID).Delete(&Session{}).Error
	})
	return errors.Wrap(err, "delete session")
}

func (r *Repo) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "get session")
	}
	return &s, nil
}

// ListMessages returns the session transcript in append order.
func (r *Repo) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&msgs).Error; err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	return msgs, nil
}
