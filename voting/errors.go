// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/school-vote/models"
)

var (
	ErrInvalidFormat      = errors.New("token code must be 5 letters or digits")
	ErrTokenInvalidOrUsed = errors.New("token is invalid or already used")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrStoreUnavailable   = errors.New("vote store unavailable")

	// ErrRedemptionConflict means another request redeemed the same token
	// first. Clients see it as ErrTokenInvalidOrUsed.
	ErrRedemptionConflict = fmt.Errorf("%w: concurrent redemption", ErrTokenInvalidOrUsed)

	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenNotUsed       = errors.New("token has not been used")
	ErrVoteNotFound       = errors.New("vote not found")
	ErrNoVotesToAdjust    = errors.New("candidate has no votes to adjust")
	ErrNegativePoints     = errors.New("points cannot be negative")
	ErrConcurrentUpdate   = errors.New("record changed concurrently, try again")
	ErrCandidateHasVotes  = errors.New("candidate already has votes")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrCodeSpaceExhausted = errors.New("could not generate unique token codes")
)

// Kind classifies an error returned by Service for clients
func Kind(err error) models.ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return models.KindInvalidFormat
	case errors.Is(err, ErrTokenInvalidOrUsed):
		return models.KindTokenInvalidOrUsed
	case errors.Is(err, ErrCandidateNotFound):
		return models.KindCandidateNotFound
	case errors.Is(err, ErrTimeout):
		return models.KindTimeout
	case errors.Is(err, ErrTokenNotFound):
		return models.KindTokenNotFound
	case errors.Is(err, ErrTokenNotUsed):
		return models.KindTokenNotUsed
	case errors.Is(err, ErrVoteNotFound):
		return models.KindVoteNotFound
	case errors.Is(err, ErrNoVotesToAdjust):
		return models.KindNoVotesToAdjust
	case errors.Is(err, ErrNegativePoints):
		return models.KindNegativePoints
	case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, ErrCandidateHasVotes):
		return models.KindConflict
	case errors.Is(err, ErrInvalidRequest):
		return models.KindInvalidRequest
	}
	return models.KindStoreUnavailable
}

// storeErr turns an unexpected store failure into ErrTimeout or
// ErrStoreUnavailable, keeping the cause for logs
func storeErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
