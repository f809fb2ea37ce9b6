// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

	conn, err := db.Open(db.TypeSQLite, "file:vote.db?_pragma=foreign_keys(1)")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite uses modernc.org/sqlite (pure Go) and is capped at one open
connection. PostgreSQL uses lib/pq.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - candidate: Candidate profiles
  - token: Single-use voting tokens (code is unique)
  - vote: Vote ledger, at most one row per token
  - admin: Dashboard accounts
  - result_snapshot: Stored rankings

# Relationships

	candidate 1──* vote
	token     1──1 vote (vote.token_id is UNIQUE)

Foreign keys do not cascade. Deleting a token or candidate is handled by
the store, which removes or refuses dependent votes explicitly.
*/
package db
