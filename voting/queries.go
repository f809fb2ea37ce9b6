// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"

	"github.com/danielhkuo/school-vote/feed"
	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/tally"
)

func (s *Service) Candidates(ctx context.Context) ([]models.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	candidates, err := s.store.ListCandidates(ctx)
	if err != nil {
		return nil, storeErr(ctx, "list candidates", err)
	}
	return candidates, nil
}

// Tokens lists tokens for a dashboard tab (see tally.FilterTokens)
func (s *Service) Tokens(ctx context.Context, tab string) ([]models.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tokens, err := s.store.ListTokens(ctx)
	if err != nil {
		return nil, storeErr(ctx, "list tokens", err)
	}
	return tally.FilterTokens(tokens, tab), nil
}

func (s *Service) Votes(ctx context.Context) ([]models.Vote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	votes, err := s.store.ListVotes(ctx)
	if err != nil {
		return nil, storeErr(ctx, "list votes", err)
	}
	return votes, nil
}

// Classes returns the classes that have student tokens
func (s *Service) Classes(ctx context.Context) ([]string, error) {
	tokens, err := s.Tokens(ctx, models.TabAll)
	if err != nil {
		return nil, err
	}
	return tally.UniqueClasses(tokens), nil
}

// Results tallies the current ledger. The returned hash fingerprints the
// votes the ranking was computed from.
func (s *Service) Results(ctx context.Context) ([]models.CandidateResult, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	candidates, err := s.store.ListCandidates(ctx)
	if err != nil {
		return nil, "", storeErr(ctx, "list candidates", err)
	}
	votes, err := s.store.ListVotes(ctx)
	if err != nil {
		return nil, "", storeErr(ctx, "list votes", err)
	}

	return tally.ComputeResults(candidates, votes), tally.InputsHash(votes), nil
}

func (s *Service) Chart(ctx context.Context) ([]models.ChartSlice, error) {
	results, _, err := s.Results(ctx)
	if err != nil {
		return nil, err
	}
	return tally.ChartSeries(results), nil
}

func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tokens, err := s.store.ListTokens(ctx)
	if err != nil {
		return models.Stats{}, storeErr(ctx, "list tokens", err)
	}
	votes, err := s.store.ListVotes(ctx)
	if err != nil {
		return models.Stats{}, storeErr(ctx, "list votes", err)
	}
	return tally.Summarize(tokens, votes), nil
}

// FeedLoaders returns the live feed loader for each collection the
// service notifies about
func (s *Service) FeedLoaders() map[feed.Collection]feed.Loader {
	return map[feed.Collection]feed.Loader{
		feed.Tokens: func(ctx context.Context) (any, error) {
			return s.Tokens(ctx, models.TabAll)
		},
		feed.Candidates: func(ctx context.Context) (any, error) {
			return s.Candidates(ctx)
		},
		feed.Votes: func(ctx context.Context) (any, error) {
			return s.Votes(ctx)
		},
		feed.Results: func(ctx context.Context) (any, error) {
			results, _, err := s.Results(ctx)
			return results, err
		},
	}
}
