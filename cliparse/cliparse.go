// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// SnapshotOff disables periodic result snapshots
const SnapshotOff = "off"

type Config struct {
	Port         int    `env:"PORT" env-default:"3318"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" env-default:"sqlite"`

	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"ADMIN_TOKEN_TTL" env-default:"12h"`
	AdminUsername string        `env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`

	VoteTimeout      time.Duration `env:"VOTE_TIMEOUT" env-default:"5s"`
	SnapshotSchedule string        `env:"SNAPSHOT_SCHEDULE" env-default:"@every 5m"`
	LogLevel         string        `env:"LOG_LEVEL" env-default:"info"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" env-separator:","`
}

// ParseFlags reads .env, then the environment, then CLI flags. Flags win.
func ParseFlags(args []string) (Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	fs := flag.NewFlagSet("school-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Admin session signing secret (prefer env)")
	fs.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "Bootstrap super admin password (prefer env)")
	fs.StringVar(&cfg.AdminUsername, "admin-username", cfg.AdminUsername, "Bootstrap super admin username")

	// Tuning
	fs.DurationVar(&cfg.TokenTTL, "session-ttl", cfg.TokenTTL, "Admin session lifetime")
	fs.DurationVar(&cfg.VoteTimeout, "vote-timeout", cfg.VoteTimeout, "Deadline for a single vote")
	fs.StringVar(&cfg.SnapshotSchedule, "snapshot", cfg.SnapshotSchedule, "Cron spec for result snapshots, or \"off\"")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	if cfg.VoteTimeout <= 0 {
		return Config{}, errors.New("vote timeout must be positive")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, errors.New("session TTL must be positive")
	}

	return cfg, nil
}

// SnapshotsEnabled reports whether a snapshot schedule is configured
func (c Config) SnapshotsEnabled() bool {
	return c.SnapshotSchedule != "" && c.SnapshotSchedule != SnapshotOff
}
