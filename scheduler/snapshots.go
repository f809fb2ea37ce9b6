// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/store"
)

// runTimeout bounds one scheduled snapshot
const runTimeout = 30 * time.Second

// ResultsSource computes the current ranking and a hash of its inputs
type ResultsSource interface {
	Results(ctx context.Context) ([]models.CandidateResult, string, error)
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap models.ResultSnapshot) (models.ResultSnapshot, error)
	LatestSnapshot(ctx context.Context) (models.ResultSnapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]models.ResultSnapshot, error)
}

// Snapshotter records the tally on a cron schedule. A snapshot is only
// written when the votes changed since the previous one.
type Snapshotter struct {
	results ResultsSource
	store   SnapshotStore
	log     *zap.Logger

	mu   sync.Mutex // serializes Take
	cron *cron.Cron
}

func NewSnapshotter(results ResultsSource, st SnapshotStore, log *zap.Logger) *Snapshotter {
	return &Snapshotter{results: results, store: st, log: log}
}

// Take computes the tally and stores it. Unless force is set, nothing is
// written when the latest snapshot has the same inputs hash; the latest
// snapshot is returned with created=false instead.
func (s *Snapshotter) Take(ctx context.Context, force bool) (snap models.ResultSnapshot, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rankings, hash, err := s.results.Results(ctx)
	if err != nil {
		return models.ResultSnapshot{}, false, fmt.Errorf("failed to compute results: %w", err)
	}

	if !force {
		latest, err := s.store.LatestSnapshot(ctx)
		switch {
		case err == nil && latest.InputsHash == hash:
			return latest, false, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return models.ResultSnapshot{}, false, fmt.Errorf("failed to load latest snapshot: %w", err)
		}
	}

	snap, err = s.store.SaveSnapshot(ctx, models.ResultSnapshot{Rankings: rankings, InputsHash: hash})
	if err != nil {
		return models.ResultSnapshot{}, false, err
	}

	s.log.Info("result snapshot saved",
		zap.String("snapshot_id", snap.ID),
		zap.String("inputs_hash", snap.InputsHash),
		zap.Int("candidates", len(snap.Rankings)),
	)
	return snap, true, nil
}

// List returns up to limit snapshots, newest first
func (s *Snapshotter) List(ctx context.Context, limit int) ([]models.ResultSnapshot, error) {
	return s.store.ListSnapshots(ctx, limit)
}

// Start runs Take on the given cron spec ("@every 5m", "*/10 * * * *")
// until Stop is called
func (s *Snapshotter) Start(spec string) error {
	logger := cronLogger{s.log.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, _, err := s.Take(ctx, false); err != nil {
			s.log.Error("scheduled snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	s.log.Info("snapshot scheduler started", zap.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running snapshot, or for ctx
func (s *Snapshotter) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("snapshot scheduler stopped")
}

// cronLogger routes cron's internal logging through zap
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
