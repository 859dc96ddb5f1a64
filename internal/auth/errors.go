package auth

import "github.com/pkg/errors"

var (
	ErrEmailRequired    = errors.New("email required")
	ErrPasswordEmpty    = errors.New("password required")
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrOTPExpired covers both an expired code and one never issued.
	ErrOTPExpired = errors.New("verification code expired or not found")
	ErrOTPInvalid = errors.New("invalid verification code")
	// ErrOTPAttemptsExceeded burns the code; a new one must be issued.
	ErrOTPAttemptsExceeded = errors.New("too many verification attempts")
	ErrTicketInvalid       = errors.New("invalid or expired reset ticket")
)
