package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/career-counselor/internal/auth"
	"github.com/suPer8Hu/career-counselor/internal/chat"
	"github.com/suPer8Hu/career-counselor/internal/common"
)

type Handler struct {
	ChatSvc *chat.Service
	Reset   *auth.ResetFlow
	Now     func() time.Time
	log     zerolog.Logger
}

func NewHandler(chatSvc *chat.Service, reset *auth.ResetFlow, log zerolog.Logger) *Handler {
	return &Handler{
		ChatSvc: chatSvc,
		Reset:   reset,
		Now:     time.Now,
		log:     log.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}
