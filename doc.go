// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the school-vote API server.

school-vote runs a school election. Each voter holds a single-use
five-character token code; redeeming it records exactly one vote whose
weight depends on the token type (student 1 point, teacher 2 points).
Election staff manage candidates and tokens, correct mistakes and follow
the tally live from an admin dashboard.

# Starting the Server

	DATABASE_URL=file:vote.db JWT_SECRET=change-me ADMIN_PASSWORD=change-me go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -jwt-secret ...

A .env file in the working directory is loaded first. Flags override
environment variables.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file DSN or PostgreSQL connection string
  - JWT_SECRET (-jwt-secret): Signing secret for admin sessions

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - ADMIN_USERNAME, ADMIN_PASSWORD: super admin created when no admin exists
  - ADMIN_TOKEN_TTL (-session-ttl): admin session lifetime (default: 12h)
  - VOTE_TIMEOUT (-vote-timeout): bound on one store operation (default: 5s)
  - SNAPSHOT_SCHEDULE (-snapshot): cron spec for result snapshots, "off" disables
  - LOG_LEVEL (-log-level): debug, info, warn, error
  - ALLOWED_ORIGINS: comma-separated CORS allow list

# Architecture

  - voting: vote casting, token issuance, admin corrections
  - tally: pure result computation (ranking, chart, stats)
  - store: PostgreSQL/SQLite persistence with exactly-once redemption
  - feed: live collection snapshots for the dashboard
  - scheduler: cron-driven result snapshots
  - handlers, router, middleware: HTTP transport
  - auth: token codes, bcrypt passwords, JWT sessions
  - models: domain, request and response types
  - db: connection and schema creation
  - cliparse, logger: configuration and logging

See package documentation for each component.
*/
package main
