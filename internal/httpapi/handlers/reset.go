package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/suPer8Hu/career-counselor/internal/auth"
	"github.com/suPer8Hu/career-counselor/internal/common"
	"github.com/suPer8Hu/career-counselor/internal/httpapi/middleware"
)

func (h *Handler) failAuth(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, auth.ErrEmailRequired), errors.Is(err, auth.ErrPasswordEmpty):
		common.Fail(c, http.StatusBadRequest, 10002, errors.Cause(err).Error())
	case errors.Is(err, auth.ErrOTPExpired):
		common.Fail(c, http.StatusBadRequest, 10020, "code expired or not found")
	case errors.Is(err, auth.ErrOTPAttemptsExceeded):
		common.Fail(c, http.StatusTooManyRequests, 10023, "too many attempts, request a new code")
	case errors.Is(err, auth.ErrOTPInvalid):
		common.Fail(c, http.StatusBadRequest, 10021, "invalid code")
	case errors.Is(err, auth.ErrPasswordMismatch):
		common.Fail(c, http.StatusBadRequest, 10022, "passwords do not match")
	case errors.Is(err, auth.ErrTicketInvalid):
		common.Fail(c, http.StatusUnauthorized, 40101, "invalid or expired reset ticket")
	default:
		h.log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Str("op", op).Msg("auth request failed")
		common.Fail(c, http.StatusInternalServerError, 20001, "internal error")
	}
}

type sendCodeReq struct {
	Email string `json:"email"`
}

// SendResetCode issues a verification code. Nothing is mailed; the code is
// returned so the form can be exercised.
func (h *Handler) SendResetCode(c *gin.Context) {
	var req sendCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	ch, err := h.Reset.Issue(c.Request.Context(), req.Email)
	if err != nil {
		h.failAuth(c, err, "issue code")
		return
	}
	common.OK(c, gin.H{
		"email":      ch.Email,
		"code":       ch.Code,
		"expires_at": ch.ExpiresAt,
		"expires_in": int(h.Reset.OTPTTL().Seconds()),
	})
}

type verifyCodeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handler) VerifyResetCode(c *gin.Context) {
	var req verifyCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Code == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email and code required")
		return
	}
	ticket, err := h.Reset.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.failAuth(c, err, "verify code")
		return
	}
	common.OK(c, gin.H{"ticket": ticket})
}

type resetPasswordReq struct {
	Ticket          string `json:"ticket"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	email, err := h.Reset.Reset(c.Request.Context(), req.Ticket, req.Password, req.ConfirmPassword)
	if err != nil {
		h.failAuth(c, err, "reset password")
		return
	}
	common.OK(c, gin.H{"email": email, "reset": true})
}

type signupReq struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ValidateSignup runs the signup form checks without creating an account.
func (h *Handler) ValidateSignup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	email, err := auth.NormalizeEmail(req.Email)
	if err != nil {
		h.failAuth(c, err, "validate signup")
		return
	}
	if err := auth.ValidatePasswordPair(req.Password, req.ConfirmPassword); err != nil {
		h.failAuth(c, err, "validate signup")
		return
	}
	common.OK(c, gin.H{"email": email, "valid": true})
}
