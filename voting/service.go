// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/auth"
	"github.com/danielhkuo/school-vote/feed"
	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/store"
	"github.com/danielhkuo/school-vote/tally"
)

// DefaultTimeout bounds a single operation when none is configured
const DefaultTimeout = 5 * time.Second

type TokenStore interface {
	FindUnusedTokenByCode(ctx context.Context, code string) (models.Token, error)
	GetToken(ctx context.Context, id string) (models.Token, error)
	ListTokens(ctx context.Context) ([]models.Token, error)
	ExistingCodes(ctx context.Context) (map[string]bool, error)
	CreateTokens(ctx context.Context, tokens []models.Token) ([]models.Token, error)
	DeleteToken(ctx context.Context, id string) (int, error)
}

type CandidateStore interface {
	GetCandidate(ctx context.Context, id string) (models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	CreateCandidate(ctx context.Context, c models.Candidate) (models.Candidate, error)
	UpdateCandidate(ctx context.Context, c models.Candidate) (models.Candidate, error)
	DeleteCandidate(ctx context.Context, id string) error
}

// VoteLedger owns the vote table and the token state tied to it
type VoteLedger interface {
	RedeemToken(ctx context.Context, tokenID, candidateID string, points int) (models.Vote, error)
	ResetToken(ctx context.Context, tokenID string) (models.Token, int, error)
	ResetAll(ctx context.Context) (models.ResetSummary, error)
	GetVote(ctx context.Context, id string) (models.Vote, error)
	ListVotes(ctx context.Context) ([]models.Vote, error)
	ListVotesForCandidate(ctx context.Context, candidateID string) ([]models.Vote, error)
	UpdateVotePoints(ctx context.Context, id string, from, to int) (models.Vote, error)
}

// Store is everything the service needs from persistence
type Store interface {
	TokenStore
	CandidateStore
	VoteLedger
}

type nopNotifier struct{}

func (nopNotifier) Notify(...feed.Collection) {}

// Service runs the election: vote casting, token issuance, and the admin
// corrections. It holds no election state of its own.
type Service struct {
	store   Store
	notify  feed.Notifier
	log     *zap.Logger
	timeout time.Duration
	newCode func() (string, error)
}

func NewService(st Store, notifier feed.Notifier, log *zap.Logger, timeout time.Duration) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		store:   st,
		notify:  notifier,
		log:     log,
		timeout: timeout,
		newCode: auth.GenerateTokenCode,
	}
}

// CastVote redeems a token for a candidate. The code is normalized and
// checked before the store is touched. At most one call per token ever
// succeeds; the winner's vote carries the token type's weight.
func (s *Service) CastVote(ctx context.Context, rawCode, candidateID string) (models.VoteReceipt, error) {
	code, err := auth.NormalizeCode(rawCode)
	if err != nil {
		return models.VoteReceipt{}, ErrInvalidFormat
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, err := s.store.FindUnusedTokenByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return models.VoteReceipt{}, ErrTokenInvalidOrUsed
	}
	if err != nil {
		return models.VoteReceipt{}, storeErr(ctx, "find token", err)
	}

	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if errors.Is(err, store.ErrNotFound) {
		return models.VoteReceipt{}, ErrCandidateNotFound
	}
	if err != nil {
		return models.VoteReceipt{}, storeErr(ctx, "get candidate", err)
	}

	points := tally.Weight(token.Type)
	vote, err := s.store.RedeemToken(ctx, token.ID, candidate.ID, points)
	switch {
	case errors.Is(err, store.ErrAlreadyRedeemed):
		s.log.Warn("token redeemed by a concurrent request",
			zap.String("event", "concurrent_redemption_conflict"),
			zap.String("token_id", token.ID),
		)
		return models.VoteReceipt{}, ErrRedemptionConflict
	case errors.Is(err, store.ErrCandidateNotFound):
		return models.VoteReceipt{}, ErrCandidateNotFound
	case err != nil:
		return models.VoteReceipt{}, storeErr(ctx, "redeem token", err)
	}

	s.log.Info("vote cast",
		zap.String("vote_id", vote.ID),
		zap.String("candidate_id", candidate.ID),
		zap.String("token_type", token.Type),
		zap.Int("points", vote.Points),
	)
	s.notify.Notify(feed.Tokens, feed.Votes, feed.Results)

	return models.VoteReceipt{
		VoteID:        vote.ID,
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		Points:        vote.Points,
		CastAt:        vote.CreatedAt,
	}, nil
}

// ValidateToken checks that a code could be redeemed right now without
// redeeming it
func (s *Service) ValidateToken(ctx context.Context, rawCode string) (models.Token, error) {
	code, err := auth.NormalizeCode(rawCode)
	if err != nil {
		return models.Token{}, ErrInvalidFormat
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	token, err := s.store.FindUnusedTokenByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return models.Token{}, ErrTokenInvalidOrUsed
	}
	if err != nil {
		return models.Token{}, storeErr(ctx, "find token", err)
	}
	return token, nil
}
