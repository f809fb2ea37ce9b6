// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/school-vote/auth"
	"github.com/danielhkuo/school-vote/cliparse"
	"github.com/danielhkuo/school-vote/db"
	"github.com/danielhkuo/school-vote/models"
)

// TestJWTSecret signs admin sessions in tests
const TestJWTSecret = "test-jwt-secret"

// seq spaces out creation times so ordering by created_at is deterministic
var seq atomic.Int64

var epoch = time.Date(2025, 7, 1, 7, 0, 0, 0, time.UTC)

// NextTime returns a strictly increasing timestamp
func NextTime() time.Time {
	return epoch.Add(time.Duration(seq.Add(1)) * time.Second)
}

// SetupTestDB creates a fresh SQLite database file with the full schema.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	conn, err := db.Open(db.TypeSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     db.TypeSQLite,
		JWTSecret:        TestJWTSecret,
		TokenTTL:         time.Hour,
		VoteTimeout:      5 * time.Second,
		SnapshotSchedule: cliparse.SnapshotOff,
		LogLevel:         "debug",
	}
}

// CreateTestCandidate inserts a candidate and returns its ID
func CreateTestCandidate(t *testing.T, conn *sql.DB, name string) string {
	t.Helper()

	id := uuid.NewString()
	now := NextTime()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, name, photo, vision, mission, class, created_at, updated_at)
		VALUES ($1, $2, '', 'Vision', 'Mission', '', $3, $3)
	`, id, name, now)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return id
}

// CreateTestToken inserts an unused token and returns its ID.
// class is ignored for teacher tokens.
func CreateTestToken(t *testing.T, conn *sql.DB, code, tokenType, class string) string {
	t.Helper()

	if tokenType == models.TokenTypeTeacher {
		class = ""
	}

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO token (id, code, type, class, teacher, is_used, created_at)
		VALUES ($1, $2, $3, $4, '', $5, $6)
	`, id, code, tokenType, class, false, NextTime())
	if err != nil {
		t.Fatalf("Failed to create test token: %v", err)
	}

	return id
}

// CreateTestVote records a vote for a token and marks the token used,
// bypassing the service. Returns the vote ID.
func CreateTestVote(t *testing.T, conn *sql.DB, candidateID, tokenID string, points int) string {
	t.Helper()

	id := uuid.NewString()
	now := NextTime()
	if _, err := conn.Exec(`UPDATE token SET is_used = $1, used_at = $2 WHERE id = $3`, true, now, tokenID); err != nil {
		t.Fatalf("Failed to mark test token used: %v", err)
	}
	_, err := conn.Exec(`
		INSERT INTO vote (id, candidate_id, token_id, points, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, candidateID, tokenID, points, now)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	return id
}

// CreateTestAdmin inserts an admin with a bcrypt-hashed password
func CreateTestAdmin(t *testing.T, conn *sql.DB, username, password, role string) models.Admin {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	a := models.Admin{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    NextTime(),
	}
	_, err = conn.Exec(`
		INSERT INTO admin (id, username, name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Username, a.Name, a.PasswordHash, a.Role, a.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}

	return a
}

// AdminBearer returns an Authorization header value for an admin
func AdminBearer(t *testing.T, a models.Admin) string {
	t.Helper()

	token, _, err := auth.IssueAccessToken(a.ID, a.Username, a.Role, TestJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue access token: %v", err)
	}
	return "Bearer " + token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
