package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/suPer8Hu/career-counselor/internal/chat"
	"github.com/suPer8Hu/career-counselor/internal/common"
	"github.com/suPer8Hu/career-counselor/internal/httpapi/middleware"
)

type sessionView struct {
	chat.Session
	RelativeTime  string `json:"relative_time"`
	CategoryLabel string `json:"category_label"`
	Pending       bool   `json:"pending"`
	Active        bool   `json:"active"`
}

type groupsView struct {
	Today     []sessionView `json:"today"`
	Yesterday []sessionView `json:"yesterday"`
	ThisWeek  []sessionView `json:"this_week"`
	Older     []sessionView `json:"older"`
}

func (h *Handler) viewOf(s chat.Session, now time.Time, activeID string) sessionView {
	return sessionView{
		Session:       s,
		RelativeTime:  chat.RelativeTime(s.Timestamp, now),
		CategoryLabel: chat.CategoryLabel(s.Category),
		Pending:       h.ChatSvc.ReplyPending(s.ID),
		Active:        s.ID == activeID,
	}
}

func (h *Handler) viewsOf(sessions []chat.Session, now time.Time, activeID string) []sessionView {
	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, h.viewOf(s, now, activeID))
	}
	return out
}

// failChat maps chat errors onto the envelope.
func (h *Handler) failChat(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		common.Fail(c, http.StatusNotFound, 40004, "session not found")
	case errors.Is(err, chat.ErrValidation):
		common.Fail(c, http.StatusBadRequest, 10002, err.Error())
	default:
		h.log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Str("op", op).Msg("chat request failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

// ListChatSessions renders the sidebar, optionally filtered by ?q=.
func (h *Handler) ListChatSessions(c *gin.Context) {
	now := h.Now()
	sb := h.ChatSvc.Sidebar(c.Query("q"), now)

	common.OK(c, gin.H{
		"active_session_id": sb.ActiveID,
		"query":             sb.Query,
		"groups": groupsView{
			Today:     h.viewsOf(sb.Groups.Today, now, sb.ActiveID),
			Yesterday: h.viewsOf(sb.Groups.Yesterday, now, sb.ActiveID),
			ThisWeek:  h.viewsOf(sb.Groups.ThisWeek, now, sb.ActiveID),
			Older:     h.viewsOf(sb.Groups.Older, now, sb.ActiveID),
		},
		"recent": h.viewsOf(sb.Recent, now, sb.ActiveID),
		"total":  sb.Total,
	})
}

func (h *Handler) CreateChatSession(c *gin.Context) {
	sess, err := h.ChatSvc.CreateSession()
	if err != nil {
		h.failChat(c, err, "create session")
		return
	}
	common.OK(c, gin.H{"session": h.viewOf(sess, h.Now(), sess.ID)})
}

func (h *Handler) SelectChatSession(c *gin.Context) {
	id := c.Param("session_id")
	if err := h.ChatSvc.SelectSession(id); err != nil {
		h.failChat(c, err, "select session")
		return
	}
	common.OK(c, gin.H{"active_session_id": id})
}

type renameSessionReq struct {
	Title string `json:"title"`
}

func (h *Handler) RenameChatSession(c *gin.Context) {
	var req renameSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	id := c.Param("session_id")
	if err := h.ChatSvc.RenameSession(id, req.Title); err != nil {
		h.failChat(c, err, "rename session")
		return
	}
	sess, err := h.ChatSvc.Session(id)
	if err != nil {
		h.failChat(c, err, "rename session")
		return
	}
	common.OK(c, gin.H{"session": h.viewOf(sess, h.Now(), h.ChatSvc.ActiveID())})
}

// DeleteChatSession is idempotent; deleting an unknown id reports deleted=false.
func (h *Handler) DeleteChatSession(c *gin.Context) {
	deleted := h.ChatSvc.DeleteSession(c.Param("session_id"))
	sb := h.ChatSvc.Sidebar("", h.Now())
	common.OK(c, gin.H{
		"deleted":           deleted,
		"active_session_id": sb.ActiveID,
	})
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	sessionID := c.Param("session_id")
	msgs, err := h.ChatSvc.ListMessages(sessionID)
	if err != nil {
		h.failChat(c, err, "list messages")
		return
	}
	common.OK(c, gin.H{
		"session_id": sessionID,
		"messages":   msgs,
		"pending":    h.ChatSvc.ReplyPending(sessionID),
	})
}

type sendMessageReq struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message"`
}

type replyView struct {
	ID     string           `json:"id"`
	Status chat.ReplyStatus `json:"status"`
	DueAt  time.Time        `json:"due_at"`
}

// SendChatMessage appends the user message and schedules the reply. A blank
// message changes nothing and returns message=null.
func (h *Handler) SendChatMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	// the reply outlives this request; it is cancelled through the session instead
	ctx := context.WithoutCancel(c.Request.Context())
	msg, reply, err := h.ChatSvc.SendMessage(ctx, req.SessionID, req.Message)
	if err != nil {
		h.failChat(c, err, "send message")
		return
	}

	var rv *replyView
	if reply != nil {
		rv = &replyView{ID: reply.ID, Status: reply.Status(), DueAt: reply.DueAt}
	}
	common.OK(c, gin.H{
		"session_id": req.SessionID,
		"message":    msg,
		"reply":      rv,
	})
}

func (h *Handler) CancelChatReply(c *gin.Context) {
	sessionID := c.Param("session_id")
	n := h.ChatSvc.CancelReplies(sessionID)
	common.OK(c, gin.H{
		"session_id": sessionID,
		"cancelled":  n,
	})
}
