package auth

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ValidatePasswordPair checks a password against its confirmation field.
func ValidatePasswordPair(password, confirm string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", ErrEmailRequired
	}
	if at := strings.IndexByte(e, '@'); at <= 0 || at == len(e)-1 {
		return "", errors.Wrapf(ErrEmailRequired, "malformed email %q", email)
	}
	return e, nil
}

func HashSecret(secret string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", errors.Wrap(err, "hash secret")
	}
	return string(b), nil
}

func CheckSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
