package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/career-counselor/internal/ai"
	"github.com/suPer8Hu/career-counselor/internal/auth"
	"github.com/suPer8Hu/career-counselor/internal/chat"
	"github.com/suPer8Hu/career-counselor/internal/config"
	"github.com/suPer8Hu/career-counselor/internal/db"
	"github.com/suPer8Hu/career-counselor/internal/store/redisstore"
)

type app struct {
	cfg     config.Config
	log     zerolog.Logger
	store   *chat.Store
	chat    *chat.Service
	reset   *auth.ResetFlow
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	storeOpts := []chat.StoreOption{chat.WithLogger(log)}
	if cfg.TranscriptDriver != "" {
		gdb, err := db.Connect(cfg.TranscriptDriver, cfg.TranscriptDSN)
		if err != nil {
			return nil, errors.Wrap(err, "connect transcript db")
		}
		a.closers = append(a.closers, func() error { return db.Close(gdb) })
		repo := chat.NewRepo(gdb)
		if err := repo.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		storeOpts = append(storeOpts, chat.WithMirror(repo))
		log.Info().Str("driver", cfg.TranscriptDriver).Msg("transcript mirror enabled")
	}
	a.store = chat.NewStore(storeOpts...)

	if cfg.SeedFixtures {
		if err := chat.SeedDefaults(a.store, time.Now()); err != nil {
			_ = a.Close()
			return nil, errors.Wrap(err, "seed fixtures")
		}
	}

	provider, err := ai.NewDefaultRegistry().Get(ctx, cfg.ReplyProvider)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	sim := chat.NewSimulator(a.store, provider, cfg.ReplyDelay, log)
	a.chat = chat.NewService(a.store, sim, log)

	var otp auth.OTPStore
	if cfg.RedisAddr != "" {
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.closers = append(a.closers, rs.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rs.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		otp = rs
		log.Info().Str("addr", cfg.RedisAddr).Msg("reset codes stored in redis")
	} else {
		otp = auth.NewMemoryOTPStore(nil)
	}
	a.reset = auth.NewResetFlow(otp, auth.ResetConfig{
		Secret:    cfg.JWTSecret,
		OTPTTL:    cfg.OTPTTL,
		OTPLength: cfg.OTPLength,
	}, log)

	return a, nil
}

// Close cancels pending replies and releases backing stores.
func (a *app) Close() error {
	if a.chat != nil {
		a.chat.Shutdown()
	}
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
