// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/feed"
	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/store"
)

func (s *Service) CreateCandidate(ctx context.Context, req models.CandidateRequest) (models.Candidate, error) {
	if err := req.Validate(); err != nil {
		return models.Candidate{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.store.CreateCandidate(ctx, candidateFromRequest(req))
	if err != nil {
		return models.Candidate{}, storeErr(ctx, "create candidate", err)
	}

	s.log.Info("candidate created", zap.String("candidate_id", c.ID), zap.String("name", c.Name))
	s.notify.Notify(feed.Candidates, feed.Results)
	return c, nil
}

func (s *Service) UpdateCandidate(ctx context.Context, id string, req models.CandidateRequest) (models.Candidate, error) {
	if err := req.Validate(); err != nil {
		return models.Candidate{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c := candidateFromRequest(req)
	c.ID = id
	c, err := s.store.UpdateCandidate(ctx, c)
	if errors.Is(err, store.ErrNotFound) {
		return models.Candidate{}, ErrCandidateNotFound
	}
	if err != nil {
		return models.Candidate{}, storeErr(ctx, "update candidate", err)
	}

	s.notify.Notify(feed.Candidates, feed.Results)
	return c, nil
}

// DeleteCandidate removes a candidate nobody has voted for yet
func (s *Service) DeleteCandidate(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.store.DeleteCandidate(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrCandidateNotFound
	case errors.Is(err, store.ErrInUse):
		return ErrCandidateHasVotes
	case err != nil:
		return storeErr(ctx, "delete candidate", err)
	}

	s.log.Info("candidate deleted", zap.String("candidate_id", id))
	s.notify.Notify(feed.Candidates, feed.Results)
	return nil
}

func candidateFromRequest(req models.CandidateRequest) models.Candidate {
	return models.Candidate{
		Name:    req.Name,
		Photo:   req.Photo,
		Vision:  req.Vision,
		Mission: req.Mission,
		Class:   req.Class,
	}
}
