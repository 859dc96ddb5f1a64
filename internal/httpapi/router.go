package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/career-counselor/internal/common"
	"github.com/suPer8Hu/career-counselor/internal/httpapi/handlers"
	"github.com/suPer8Hu/career-counselor/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// chat
	r.GET("/chat/sessions", h.ListChatSessions)
	r.POST("/chat/sessions", h.CreateChatSession)
	r.PUT("/chat/sessions/:session_id/select", h.SelectChatSession)
	r.PATCH("/chat/sessions/:session_id", h.RenameChatSession)
	r.DELETE("/chat/sessions/:session_id", h.DeleteChatSession)
	r.GET("/chat/sessions/:session_id/messages", h.ListChatMessages)
	r.DELETE("/chat/sessions/:session_id/reply", h.CancelChatReply)
	r.POST("/chat/messages", h.SendChatMessage)

	// reset-password and signup forms
	r.POST("/auth/reset/otp", h.SendResetCode)
	r.POST("/auth/reset/verify", h.VerifyResetCode)
	r.POST("/auth/reset/password", h.ResetPassword)
	r.POST("/auth/signup/validate", h.ValidateSignup)
	return r
}
