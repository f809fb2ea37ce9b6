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

const voteColumns = `id, candidate_id, token_id, points, created_at, updated_at`

func scanVote(row scanner) (models.Vote, error) {
	var v models.Vote
	var updatedAt sql.NullTime
	if err := row.Scan(&v.ID, &v.CandidateID, &v.TokenID, &v.Points, &v.CreatedAt, &updatedAt); err != nil {
		return models.Vote{}, err
	}
	v.UpdatedAt = timePtr(updatedAt)
	if v.Points < 0 {
		return models.Vote{}, fmt.Errorf("%w: vote %s has negative points", ErrMalformedRecord, v.ID)
	}
	return v, nil
}

// RedeemToken marks the token used and records its vote in a single
// transaction. The token flip is conditional on the token still being
// unused, so of any number of concurrent calls for one token exactly one
// succeeds; the rest get ErrAlreadyRedeemed and leave no trace.
func (s *Store) RedeemToken(ctx context.Context, tokenID, candidateID string, points int) (models.Vote, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	res, err := tx.ExecContext(ctx, `
		UPDATE token SET is_used = $1, used_at = $2 WHERE id = $3 AND is_used = $4
	`, true, now, tokenID, false)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to redeem token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to redeem token: %w", err)
	}
	if n == 0 {
		return models.Vote{}, ErrAlreadyRedeemed
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM candidate WHERE id = $1)
	`, candidateID).Scan(&exists)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to check candidate: %w", err)
	}
	if !exists {
		return models.Vote{}, ErrCandidateNotFound
	}

	v := models.Vote{
		ID:          newID(),
		CandidateID: candidateID,
		TokenID:     tokenID,
		Points:      points,
		CreatedAt:   now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, candidate_id, token_id, points, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.CandidateID, v.TokenID, v.Points, v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			s.log.Warn("vote insert hit token uniqueness", zap.String("token_id", tokenID))
			return models.Vote{}, ErrAlreadyRedeemed
		}
		return models.Vote{}, fmt.Errorf("failed to insert vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Vote{}, fmt.Errorf("failed to commit vote: %w", err)
	}
	return v, nil
}

func (s *Store) GetVote(ctx context.Context, id string) (models.Vote, error) {
	v, err := scanVote(s.db.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM vote WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, ErrNotFound
	}
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to get vote: %w", err)
	}
	return v, nil
}

// ListVotes returns the whole ledger in cast order
func (s *Store) ListVotes(ctx context.Context) ([]models.Vote, error) {
	return s.queryVotes(ctx, `SELECT `+voteColumns+` FROM vote ORDER BY created_at, id`)
}

// ListVotesForCandidate returns a candidate's votes in cast order
func (s *Store) ListVotesForCandidate(ctx context.Context, candidateID string) ([]models.Vote, error) {
	return s.queryVotes(ctx, `
		SELECT `+voteColumns+` FROM vote WHERE candidate_id = $1 ORDER BY created_at, id
	`, candidateID)
}

func (s *Store) queryVotes(ctx context.Context, query string, args ...any) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// UpdateVotePoints changes a vote's points only if they still equal from.
// A vote that changed in between yields ErrConflict.
func (s *Store) UpdateVotePoints(ctx context.Context, id string, from, to int) (models.Vote, error) {
	if to < 0 {
		return models.Vote{}, fmt.Errorf("%w: points must not be negative", ErrMalformedRecord)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	res, err := tx.ExecContext(ctx, `
		UPDATE vote SET points = $1, updated_at = $2 WHERE id = $3 AND points = $4
	`, to, now, id, from)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to update vote: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM vote WHERE id = $1)`, id).Scan(&exists); err != nil {
			return models.Vote{}, fmt.Errorf("failed to check vote: %w", err)
		}
		if !exists {
			return models.Vote{}, ErrNotFound
		}
		return models.Vote{}, ErrConflict
	}

	v, err := scanVote(tx.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM vote WHERE id = $1`, id))
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to reload vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Vote{}, fmt.Errorf("failed to commit vote update: %w", err)
	}
	return v, nil
}

// ResetAll deletes every vote and marks every token unused, all or nothing
func (s *Store) ResetAll(ctx context.Context) (models.ResetSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ResetSummary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM vote`)
	if err != nil {
		return models.ResetSummary{}, fmt.Errorf("failed to delete votes: %w", err)
	}
	deleted, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `
		UPDATE token SET is_used = $1, used_at = NULL WHERE is_used = $2
	`, false, true)
	if err != nil {
		return models.ResetSummary{}, fmt.Errorf("failed to reset tokens: %w", err)
	}
	reset, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return models.ResetSummary{}, fmt.Errorf("failed to commit reset: %w", err)
	}

	return models.ResetSummary{DeletedVotes: int(deleted), ResetTokens: int(reset)}, nil
}
