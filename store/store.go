// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound          = errors.New("store: record not found")
	ErrAlreadyRedeemed   = errors.New("store: token already redeemed")
	ErrCandidateNotFound = errors.New("store: candidate not found")
	ErrNotUsed           = errors.New("store: token has not been used")
	ErrDuplicate         = errors.New("store: duplicate key")
	ErrConflict          = errors.New("store: record changed concurrently")
	ErrInUse             = errors.New("store: record is referenced by votes")
	ErrMalformedRecord   = errors.New("store: malformed record")
)

// Store persists tokens, candidates, the vote ledger, admins and result
// snapshots. It works against both PostgreSQL and SQLite; every statement
// uses $N placeholders and every timestamp is supplied by the caller.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Ping reports whether the database is reachable
func (s *Store) Ping() error {
	return s.db.Ping()
}

func newID() string {
	return uuid.NewString()
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation detects unique constraint failures from either driver
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgerrcode.UniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}

	return false
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
