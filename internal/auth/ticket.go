package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const ticketPurpose = "password-reset"

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func signTicket(email string, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := resetClaims{
		Purpose: ticketPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "sign reset ticket")
	}
	return s, nil
}

// parseTicket returns the email a valid ticket was issued for.
func parseTicket(ticket string, secret []byte, now func() time.Time) (string, error) {
	var claims resetClaims
	tok, err := jwt.ParseWithClaims(ticket, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil || !tok.Valid {
		return "", errors.Wrap(ErrTicketInvalid, "parse reset ticket")
	}
	if claims.Purpose != ticketPurpose || claims.Subject == "" {
		return "", ErrTicketInvalid
	}
	return claims.Subject, nil
}
