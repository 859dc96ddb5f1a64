package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/career-counselor/internal/auth"
)

const defaultPrefix = "counselor:reset:otp:"

// Store keeps reset-password codes in redis, expiring them with the key TTL.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ auth.OTPStore = (*Store)(nil)

func New(addr, password string, db int) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), "")
}

func NewWithClient(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(email string) string {
	return s.prefix + email
}

func (s *Store) attemptsKey(email string) string {
	return s.prefix + "attempts:" + email
}

func (s *Store) Ping(ctx context.Context) error {
	return errors.Wrap(s.rdb.Ping(ctx).Err(), "redis ping")
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) SaveOTP(ctx context.Context, email, hash string, ttl time.Duration) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(email), hash, ttl)
		p.Del(ctx, s.attemptsKey(email))
		return nil
	})
	return errors.Wrap(err, "redis set otp")
}

func (s *Store) GetOTP(ctx context.Context, email string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get otp")
	}
	return v, true, nil
}

func (s *Store) DeleteOTP(ctx context.Context, email string) error {
	return errors.Wrap(s.rdb.Del(ctx, s.key(email), s.attemptsKey(email)).Err(), "redis del otp")
}

// IncrOTPAttempts bumps the failure counter, which expires with the code.
func (s *Store) IncrOTPAttempts(ctx context.Context, email string, ttl time.Duration) (int, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, s.attemptsKey(email))
		p.Expire(ctx, s.attemptsKey(email), ttl)
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "redis incr otp attempts")
	}
	return int(incr.Val()), nil
}
