package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTicketTTL   = 10 * time.Minute
	DefaultMaxAttempts = 5
)

type ResetConfig struct {
	Secret    string
	OTPTTL    time.Duration
	OTPLength int
	TicketTTL time.Duration
	// MaxAttempts is how many wrong codes burn the challenge.
	MaxAttempts int
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
	Now      func() time.Time
}

// Challenge is an issued verification code. There is no mail delivery, so
// the code is handed back to the caller.
type Challenge struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResetFlow drives the reset-password form: issue a code, verify it for a
// short-lived ticket, then accept a new password pair against the ticket.
type ResetFlow struct {
	store OTPStore
	cfg   ResetConfig
	log   zerolog.Logger
}

func NewResetFlow(store OTPStore, cfg ResetConfig, log zerolog.Logger) *ResetFlow {
	if cfg.TicketTTL <= 0 {
		cfg.TicketTTL = DefaultTicketTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ResetFlow{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "reset-flow").Logger(),
	}
}

func (f *ResetFlow) OTPTTL() time.Duration {
	return f.cfg.OTPTTL
}

// Issue creates a fresh code for email, replacing any earlier one.
func (f *ResetFlow) Issue(ctx context.Context, email string) (Challenge, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return Challenge{}, err
	}
	code, err := randomDigits(f.cfg.OTPLength)
	if err != nil {
		return Challenge{}, err
	}
	hash, err := HashSecret(code, f.cfg.HashCost)
	if err != nil {
		return Challenge{}, err
	}
	if err := f.store.SaveOTP(ctx, email, hash, f.cfg.OTPTTL); err != nil {
		return Challenge{}, errors.Wrap(err, "save otp")
	}
	f.log.Info().Str("email", email).Dur("ttl", f.cfg.OTPTTL).Msg("reset code issued")
	return Challenge{Email: email, Code: code, ExpiresAt: f.cfg.Now().Add(f.cfg.OTPTTL)}, nil
}

// Verify consumes the code and returns a reset ticket. MaxAttempts wrong
// codes burn the challenge.
func (f *ResetFlow) Verify(ctx context.Context, email, code string) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	hash, ok, err := f.store.GetOTP(ctx, email)
	if err != nil {
		return "", errors.Wrap(err, "get otp")
	}
	if !ok {
		return "", ErrOTPExpired
	}
	if !CheckSecret(hash, code) {
		n, err := f.store.IncrOTPAttempts(ctx, email, f.cfg.OTPTTL)
		if err != nil {
			return "", errors.Wrap(err, "count otp attempt")
		}
		f.log.Debug().Str("email", email).Int("attempts", n).Msg("reset code mismatch")
		if n >= f.cfg.MaxAttempts {
			if err := f.store.DeleteOTP(ctx, email); err != nil {
				return "", errors.Wrap(err, "burn otp")
			}
			f.log.Info().Str("email", email).Msg("reset code burned after too many attempts")
			return "", ErrOTPAttemptsExceeded
		}
		return "", ErrOTPInvalid
	}
	if err := f.store.DeleteOTP(ctx, email); err != nil {
		f.log.Warn().Err(err).Str("email", email).Msg("delete otp failed")
	}
	return signTicket(email, []byte(f.cfg.Secret), f.cfg.Now(), f.cfg.TicketTTL)
}

// Reset checks the ticket and the new password pair and returns the email
// the ticket was issued for. No credential is stored.
func (f *ResetFlow) Reset(_ context.Context, ticket, password, confirm string) (string, error) {
	email, err := parseTicket(ticket, []byte(f.cfg.Secret), f.cfg.Now)
	if err != nil {
		return "", err
	}
	if err := ValidatePasswordPair(password, confirm); err != nil {
		return "", err
	}
	f.log.Info().Str("email", email).Msg("password reset accepted")
	return email, nil
}
