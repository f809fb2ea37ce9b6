// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/school-vote/models"
)

// SaveSnapshot stores a ranking. ID and ComputedAt are assigned when empty.
func (s *Store) SaveSnapshot(ctx context.Context, snap models.ResultSnapshot) (models.ResultSnapshot, error) {
	if snap.ID == "" {
		snap.ID = newID()
	}
	if snap.ComputedAt.IsZero() {
		snap.ComputedAt = s.now()
	}

	payload, err := json.Marshal(snap.Rankings)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to encode rankings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO result_snapshot (id, computed_at, inputs_hash, payload)
		VALUES ($1, $2, $3, $4)
	`, snap.ID, snap.ComputedAt, snap.InputsHash, string(payload))
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the most recently computed snapshot
func (s *Store) LatestSnapshot(ctx context.Context) (models.ResultSnapshot, error) {
	snaps, err := s.ListSnapshots(ctx, 1)
	if err != nil {
		return models.ResultSnapshot{}, err
	}
	if len(snaps) == 0 {
		return models.ResultSnapshot{}, ErrNotFound
	}
	return snaps[0], nil
}

// ListSnapshots returns up to limit snapshots, newest first
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]models.ResultSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, computed_at, inputs_hash, payload
		FROM result_snapshot
		ORDER BY computed_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []models.ResultSnapshot{}
	for rows.Next() {
		var snap models.ResultSnapshot
		var payload string
		if err := rows.Scan(&snap.ID, &snap.ComputedAt, &snap.InputsHash, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &snap.Rankings); err != nil {
			return nil, fmt.Errorf("%w: snapshot %s: %v", ErrMalformedRecord, snap.ID, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
