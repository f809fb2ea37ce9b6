// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/models"
)

const tokenColumns = `id, code, type, class, teacher, is_used, used_at, created_at`

func scanToken(row scanner) (models.Token, error) {
	var t models.Token
	var usedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.Code, &t.Type, &t.Class, &t.Teacher, &t.IsUsed, &usedAt, &t.CreatedAt); err != nil {
		return models.Token{}, err
	}
	t.UsedAt = timePtr(usedAt)

	if t.Type != models.TokenTypeStudent && t.Type != models.TokenTypeTeacher {
		return models.Token{}, fmt.Errorf("%w: token %s has type %q", ErrMalformedRecord, t.ID, t.Type)
	}
	return t, nil
}

// CreateTokens inserts a batch of tokens in one transaction. IDs and
// creation times are assigned here; the stored tokens are returned.
func (s *Store) CreateTokens(ctx context.Context, tokens []models.Token) ([]models.Token, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	created := make([]models.Token, len(tokens))
	for i, t := range tokens {
		t.ID = newID()
		t.IsUsed = false
		t.UsedAt = nil
		t.CreatedAt = now

		_, err := tx.ExecContext(ctx, `
			INSERT INTO token (id, code, type, class, teacher, is_used, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, t.ID, t.Code, t.Type, t.Class, t.Teacher, false, t.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: token code %s", ErrDuplicate, t.Code)
			}
			return nil, fmt.Errorf("failed to insert token: %w", err)
		}
		created[i] = t
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tokens: %w", err)
	}
	return created, nil
}

// ExistingCodes returns every token code currently in use
func (s *Store) ExistingCodes(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM token`)
	if err != nil {
		return nil, fmt.Errorf("failed to query token codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan token code: %w", err)
		}
		codes[code] = true
	}
	return codes, rows.Err()
}

func (s *Store) GetToken(ctx context.Context, id string) (models.Token, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM token WHERE id = $1`, id)
	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Token{}, ErrNotFound
	}
	if err != nil {
		return models.Token{}, fmt.Errorf("failed to get token: %w", err)
	}
	return t, nil
}

// FindUnusedTokenByCode looks up a token that can still be redeemed.
// Unknown and already-used codes both return ErrNotFound.
func (s *Store) FindUnusedTokenByCode(ctx context.Context, code string) (models.Token, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+tokenColumns+` FROM token WHERE code = $1 AND is_used = $2
	`, code, false)
	t, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Token{}, ErrNotFound
	}
	if err != nil {
		return models.Token{}, fmt.Errorf("failed to find token: %w", err)
	}
	return t, nil
}

func (s *Store) ListTokens(ctx context.Context) ([]models.Token, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tokenColumns+` FROM token ORDER BY created_at, code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	tokens := []models.Token{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// DeleteToken removes a token together with its vote, if it has one.
// Returns the number of votes removed.
func (s *Store) DeleteToken(ctx context.Context, id string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM vote WHERE token_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete token vote: %w", err)
	}
	deletedVotes, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM token WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit token delete: %w", err)
	}
	return int(deletedVotes), nil
}

// ResetToken returns a used token to the unused state and deletes the vote
// it produced. Tokens that were never used are rejected with ErrNotUsed.
func (s *Store) ResetToken(ctx context.Context, id string) (models.Token, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Token{}, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := scanToken(tx.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM token WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Token{}, 0, ErrNotFound
	}
	if err != nil {
		return models.Token{}, 0, fmt.Errorf("failed to get token: %w", err)
	}
	if !t.IsUsed {
		return models.Token{}, 0, ErrNotUsed
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE token SET is_used = $1, used_at = NULL WHERE id = $2 AND is_used = $3
	`, false, id, true)
	if err != nil {
		return models.Token{}, 0, fmt.Errorf("failed to reset token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Token{}, 0, ErrConflict
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM vote WHERE token_id = $1`, id)
	if err != nil {
		return models.Token{}, 0, fmt.Errorf("failed to delete token vote: %w", err)
	}
	deletedVotes, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return models.Token{}, 0, fmt.Errorf("failed to commit token reset: %w", err)
	}

	if deletedVotes == 0 {
		s.log.Warn("reset used token without a vote", zap.String("token_id", id))
	}

	t.IsUsed = false
	t.UsedAt = nil
	return t, int(deletedVotes), nil
}
