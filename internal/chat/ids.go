package chat

import (
	"github.com/google/uuid"
	"github.com/suPer8Hu/career-counselor/internal/common"
)

func NewSessionID() (string, error) {
	return common.NewULID()
}

func NewReplyID() (string, error) {
	return common.NewULID()
}

func NewMessageID() string {
	return uuid.NewString()
}
