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
	"github.com/danielhkuo/school-vote/tally"
)

// drawsPerCode bounds random draws while filling a batch with unused codes
const drawsPerCode = 20

// IssueTokens creates a batch of unused tokens with fresh unique codes
func (s *Service) IssueTokens(ctx context.Context, req models.IssueTokensRequest) ([]models.Token, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Class belongs to students, the teacher name to teachers
	switch req.Type {
	case models.TokenTypeStudent:
		req.Teacher = ""
	case models.TokenTypeTeacher:
		req.Class = ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// A concurrent batch may take one of our codes between the read and the
	// insert; one retry with a fresh view is enough in practice
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.store.ExistingCodes(ctx)
		if err != nil {
			return nil, storeErr(ctx, "list token codes", err)
		}

		codes, err := s.uniqueCodes(req.Count, existing)
		if err != nil {
			return nil, err
		}

		tokens := make([]models.Token, len(codes))
		for i, code := range codes {
			tokens[i] = models.Token{
				Code:    code,
				Type:    req.Type,
				Class:   req.Class,
				Teacher: req.Teacher,
			}
		}

		created, err := s.store.CreateTokens(ctx, tokens)
		if errors.Is(err, store.ErrDuplicate) {
			s.log.Warn("token code collision, regenerating batch", zap.Error(err))
			continue
		}
		if err != nil {
			return nil, storeErr(ctx, "create tokens", err)
		}

		s.log.Info("tokens issued",
			zap.Int("count", len(created)),
			zap.String("type", req.Type),
			zap.String("class", req.Class),
		)
		s.notify.Notify(feed.Tokens, feed.Results)
		return created, nil
	}

	return nil, ErrCodeSpaceExhausted
}

func (s *Service) uniqueCodes(n int, existing map[string]bool) ([]string, error) {
	taken := make(map[string]bool, len(existing)+n)
	for code := range existing {
		taken[code] = true
	}

	codes := make([]string, 0, n)
	for draws := 0; len(codes) < n; draws++ {
		if draws >= n*drawsPerCode {
			return nil, ErrCodeSpaceExhausted
		}
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		if taken[code] {
			continue
		}
		taken[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}

// DeleteToken removes a token, and its vote if it was used
func (s *Service) DeleteToken(ctx context.Context, tokenID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	deletedVotes, err := s.store.DeleteToken(ctx, tokenID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return storeErr(ctx, "delete token", err)
	}

	s.log.Info("token deleted", zap.String("token_id", tokenID), zap.Int("deleted_votes", deletedVotes))
	s.notify.Notify(feed.Tokens, feed.Votes, feed.Results)
	return nil
}

// ResetToken makes a used token redeemable again and deletes the vote it
// produced. Unused tokens are rejected with ErrTokenNotUsed.
func (s *Service) ResetToken(ctx context.Context, tokenID string) (models.Token, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, deletedVotes, err := s.store.ResetToken(ctx, tokenID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.Token{}, 0, ErrTokenNotFound
	case errors.Is(err, store.ErrNotUsed):
		return models.Token{}, 0, ErrTokenNotUsed
	case errors.Is(err, store.ErrConflict):
		return models.Token{}, 0, ErrConcurrentUpdate
	case err != nil:
		return models.Token{}, 0, storeErr(ctx, "reset token", err)
	}

	s.log.Info("token reset", zap.String("token_id", tokenID), zap.Int("deleted_votes", deletedVotes))
	s.notify.Notify(feed.Tokens, feed.Votes, feed.Results)
	return token, deletedVotes, nil
}

// OverrideTotal forces a candidate's tally to newTotal by shifting the
// points of the candidate's earliest vote by the difference. No vote is
// added or removed, so the candidate must already have at least one.
func (s *Service) OverrideTotal(ctx context.Context, candidateID string, newTotal int) (models.Vote, error) {
	if newTotal < 0 {
		return models.Vote{}, ErrNegativePoints
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.store.GetCandidate(ctx, candidateID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Vote{}, ErrCandidateNotFound
		}
		return models.Vote{}, storeErr(ctx, "get candidate", err)
	}

	votes, err := s.store.ListVotesForCandidate(ctx, candidateID)
	if err != nil {
		return models.Vote{}, storeErr(ctx, "list candidate votes", err)
	}
	if len(votes) == 0 {
		return models.Vote{}, ErrNoVotesToAdjust
	}

	current := tally.TotalFor(candidateID, votes)
	first := votes[0]
	adjusted := first.Points + (newTotal - current)
	if adjusted < 0 {
		return models.Vote{}, ErrNegativePoints
	}
	if adjusted == first.Points {
		return first, nil
	}

	vote, err := s.store.UpdateVotePoints(ctx, first.ID, first.Points, adjusted)
	switch {
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrNotFound):
		return models.Vote{}, ErrConcurrentUpdate
	case err != nil:
		return models.Vote{}, storeErr(ctx, "adjust vote", err)
	}

	s.log.Info("candidate total overridden",
		zap.String("candidate_id", candidateID),
		zap.Int("previous_total", current),
		zap.Int("new_total", newTotal),
		zap.String("adjusted_vote_id", vote.ID),
	)
	s.notify.Notify(feed.Votes, feed.Results)
	return vote, nil
}

// UpdateVotePoints sets one vote's points directly
func (s *Service) UpdateVotePoints(ctx context.Context, voteID string, points int) (models.Vote, error) {
	if points < 0 {
		return models.Vote{}, ErrNegativePoints
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	current, err := s.store.GetVote(ctx, voteID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Vote{}, ErrVoteNotFound
	}
	if err != nil {
		return models.Vote{}, storeErr(ctx, "get vote", err)
	}
	if current.Points == points {
		return current, nil
	}

	vote, err := s.store.UpdateVotePoints(ctx, voteID, current.Points, points)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.Vote{}, ErrVoteNotFound
	case errors.Is(err, store.ErrConflict):
		return models.Vote{}, ErrConcurrentUpdate
	case err != nil:
		return models.Vote{}, storeErr(ctx, "update vote", err)
	}

	s.log.Info("vote points edited",
		zap.String("vote_id", voteID),
		zap.Int("from", current.Points),
		zap.Int("to", points),
	)
	s.notify.Notify(feed.Votes, feed.Results)
	return vote, nil
}

// ResetAll clears the ledger and returns every token to unused
func (s *Service) ResetAll(ctx context.Context) (models.ResetSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.store.ResetAll(ctx)
	if err != nil {
		return models.ResetSummary{}, storeErr(ctx, "reset all", err)
	}

	s.log.Warn("election reset",
		zap.Int("deleted_votes", summary.DeletedVotes),
		zap.Int("reset_tokens", summary.ResetTokens),
	)
	s.notify.Notify(feed.Tokens, feed.Votes, feed.Results)
	return summary, nil
}
