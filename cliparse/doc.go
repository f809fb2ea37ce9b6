// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values are resolved in three layers:

 1. .env in the working directory (optional, via godotenv)
 2. Environment variables (via cleanenv struct tags)
 3. CLI flags

CLI flags take precedence over environment variables.

# Config Fields

  - Port (PORT, -p): Server listen port (default: 3318)
  - DatabaseURL (DATABASE_URL, -d): Connection string (required)
  - DatabaseType (DATABASE_TYPE, -t): sqlite or postgres (default: sqlite)
  - JWTSecret (JWT_SECRET, --jwt-secret): Admin session signing key (required)
  - TokenTTL (ADMIN_TOKEN_TTL, --session-ttl): Session lifetime (default: 12h)
  - AdminUsername, AdminPassword (ADMIN_USERNAME, ADMIN_PASSWORD):
    super admin created on first start when no admin exists
  - VoteTimeout (VOTE_TIMEOUT, --vote-timeout): Deadline per vote (default: 5s)
  - SnapshotSchedule (SNAPSHOT_SCHEDULE, --snapshot): Cron spec for result
    snapshots (default: "@every 5m", "off" disables)
  - LogLevel (LOG_LEVEL, --log-level): debug, info, warn, error
  - AllowedOrigins (ALLOWED_ORIGINS): Comma-separated CORS origins;
    empty allows any origin

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - DATABASE_TYPE is not sqlite or postgres
  - JWT_SECRET is missing
  - VOTE_TIMEOUT or ADMIN_TOKEN_TTL is not positive
*/
package cliparse
