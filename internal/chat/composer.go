package chat

import "strings"

// Composer turns raw input into user messages.
type Composer struct {
	store *Store
}

func NewComposer(store *Store) *Composer {
	return &Composer{store: store}
}

// Submit appends the trimmed text as a user message. Blank input is a no-op
// and returns a nil message with no error.
func (c *Composer) Submit(sessionID, raw string) (*Message, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}
	msg, err := c.store.AppendMessage(sessionID, text, RoleUser)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
