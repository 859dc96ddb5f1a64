package common

import (
	"github.com/oklog/ulid/v2"
)

// NewULID returns a 26-char, lexicographically sortable id.
func NewULID() (string, error) {
	id, err := ulid.New(ulid.Now(), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
