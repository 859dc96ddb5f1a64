package chat

import "github.com/pkg/errors"

var (
	// ErrValidation is returned for empty content or an unknown role.
	ErrValidation = errors.New("invalid message")
	// ErrSessionNotFound is returned when a session id is unknown, e.g. after deletion.
	ErrSessionNotFound = errors.New("session not found")
)
