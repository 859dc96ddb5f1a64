package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// OTPStore keeps one hashed code per email until it expires or is consumed.
type OTPStore interface {
	SaveOTP(ctx context.Context, email, hash string, ttl time.Duration) error
	// GetOTP reports ok=false when no live code exists.
	GetOTP(ctx context.Context, email string) (hash string, ok bool, err error)
	DeleteOTP(ctx context.Context, email string) error
	// IncrOTPAttempts counts a failed verification of the live code and
	// returns the new count. Saving a new code resets it.
	IncrOTPAttempts(ctx context.Context, email string, ttl time.Duration) (int, error)
}

type memoryEntry struct {
	hash      string
	attempts  int
	expiresAt time.Time
}

// MemoryOTPStore is the OTPStore used when no redis is configured.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ OTPStore = (*MemoryOTPStore)(nil)

func NewMemoryOTPStore(now func() time.Time) *MemoryOTPStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryOTPStore{entries: make(map[string]memoryEntry), now: now}
}

func (m *MemoryOTPStore) SaveOTP(_ context.Context, email, hash string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[email] = memoryEntry{hash: hash, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryOTPStore) GetOTP(_ context.Context, email string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, email)
		return "", false, nil
	}
	return e.hash, true, nil
}

func (m *MemoryOTPStore) DeleteOTP(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, email)
	return nil
}

func (m *MemoryOTPStore) IncrOTPAttempts(_ context.Context, email string, _ time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	if !ok || !m.now().Before(e.expiresAt) {
		return 0, nil
	}
	e.attempts++
	m.entries[email] = e
	return e.attempts, nil
}

// randomDigits returns n decimal digits from crypto/rand.
func randomDigits(n int) (string, error) {
	const digits = "0123456789"
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		k, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", errors.Wrap(err, "read random")
		}
		out[i] = digits[k.Int64()]
	}
	return string(out), nil
}
