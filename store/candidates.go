// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/school-vote/models"
)

const candidateColumns = `id, name, photo, vision, mission, class, created_at, updated_at`

func scanCandidate(row scanner) (models.Candidate, error) {
	var c models.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Photo, &c.Vision, &c.Mission, &c.Class, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) CreateCandidate(ctx context.Context, c models.Candidate) (models.Candidate, error) {
	now := s.now()
	c.ID = newID()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO candidate (id, name, photo, vision, mission, class, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Name, c.Photo, c.Vision, c.Mission, c.Class, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to insert candidate: %w", err)
	}
	return c, nil
}

// UpdateCandidate overwrites the profile fields of an existing candidate
func (s *Store) UpdateCandidate(ctx context.Context, c models.Candidate) (models.Candidate, error) {
	c.UpdatedAt = s.now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE candidate
		SET name = $1, photo = $2, vision = $3, mission = $4, class = $5, updated_at = $6
		WHERE id = $7
	`, c.Name, c.Photo, c.Vision, c.Mission, c.Class, c.UpdatedAt, c.ID)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to update candidate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Candidate{}, ErrNotFound
	}

	return s.GetCandidate(ctx, c.ID)
}

// DeleteCandidate removes a candidate that has no votes. Candidates with
// votes are refused with ErrInUse.
func (s *Store) DeleteCandidate(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var votes int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE candidate_id = $1`, id).Scan(&votes); err != nil {
		return fmt.Errorf("failed to count candidate votes: %w", err)
	}
	if votes > 0 {
		return ErrInUse
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM candidate WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (s *Store) GetCandidate(ctx context.Context, id string) (models.Candidate, error) {
	c, err := scanCandidate(s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidate WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Candidate{}, ErrNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns candidates in registration order
func (s *Store) ListCandidates(ctx context.Context) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+candidateColumns+` FROM candidate ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
