package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Chat core
	SeedFixtures  bool          `env:"SEED_FIXTURES" envDefault:"true"`
	ReplyDelay    time.Duration `env:"REPLY_DELAY" envDefault:"1500ms"`
	ReplyProvider string        `env:"REPLY_PROVIDER" envDefault:"scripted"`

	// Transcript mirror; empty driver disables it
	TranscriptDriver string `env:"TRANSCRIPT_DRIVER"`
	TranscriptDSN    string `env:"TRANSCRIPT_DSN" envDefault:"file::memory:?cache=shared"`

	// Reset-password OTP challenges; empty addr keeps them in memory
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	OTPTTL    time.Duration `env:"OTP_TTL" envDefault:"180s"`
	OTPLength int           `env:"OTP_LENGTH" envDefault:"9"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	cfg.TranscriptDriver = strings.ToLower(strings.TrimSpace(cfg.TranscriptDriver))
	cfg.ReplyProvider = strings.ToLower(strings.TrimSpace(cfg.ReplyProvider))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.TranscriptDriver {
	case "", "sqlite", "mysql":
	default:
		return errors.Errorf("unsupported TRANSCRIPT_DRIVER=%q", c.TranscriptDriver)
	}
	if c.ReplyDelay < 0 {
		return errors.Errorf("REPLY_DELAY must not be negative, got %s", c.ReplyDelay)
	}
	if c.OTPTTL <= 0 {
		return errors.Errorf("OTP_TTL must be positive, got %s", c.OTPTTL)
	}
	if c.OTPLength < 4 || c.OTPLength > 12 {
		return errors.Errorf("OTP_LENGTH must be within [4,12], got %d", c.OTPLength)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	return nil
}
