// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/danielhkuo/school-vote/models"
)

// UniqueClasses returns the distinct, sorted classes of student tokens
func UniqueClasses(tokens []models.Token) []string {
	seen := make(map[string]bool)
	classes := []string{}
	for _, t := range tokens {
		if t.Type != models.TokenTypeStudent || t.Class == "" || seen[t.Class] {
			continue
		}
		seen[t.Class] = true
		classes = append(classes, t.Class)
	}
	sort.Strings(classes)
	return classes
}

// FilterTokens selects the tokens shown under a dashboard tab: "all",
// "teachers", or a class name for that class's student tokens.
func FilterTokens(tokens []models.Token, tab string) []models.Token {
	if tab == "" || tab == models.TabAll {
		return tokens
	}

	filtered := []models.Token{}
	for _, t := range tokens {
		switch {
		case tab == models.TabTeachers && t.Type == models.TokenTypeTeacher:
			filtered = append(filtered, t)
		case tab != models.TabTeachers && t.Type == models.TokenTypeStudent && t.Class == tab:
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// Summarize computes the participation figures shown on the dashboard
func Summarize(tokens []models.Token, votes []models.Vote) models.Stats {
	var s models.Stats
	s.TotalTokens = len(tokens)
	for _, t := range tokens {
		if t.IsUsed {
			s.UsedTokens++
		}
		switch t.Type {
		case models.TokenTypeStudent:
			s.StudentTokens++
		case models.TokenTypeTeacher:
			s.TeacherTokens++
		}
	}
	s.AvailableTokens = s.TotalTokens - s.UsedTokens

	s.TotalVotes = len(votes)
	for _, v := range votes {
		s.TotalPoints += v.Points
	}

	if s.TotalTokens > 0 {
		s.ParticipationPct = int(math.Round(float64(s.UsedTokens) * 100 / float64(s.TotalTokens)))
	}
	if s.TotalVotes > 0 {
		s.AvgPointsPerVote = math.Round(float64(s.TotalPoints)*10/float64(s.TotalVotes)) / 10
	}

	return s
}

// InputsHash fingerprints the vote ledger. Order of the input does not matter.
func InputsHash(votes []models.Vote) string {
	entries := make([]string, len(votes))
	for i, v := range votes {
		entries[i] = fmt.Sprintf("%s:%s:%d", v.ID, v.CandidateID, v.Points)
	}
	sort.Strings(entries)

	sum := sha256.Sum256([]byte(strings.Join(entries, "\n")))
	return hex.EncodeToString(sum[:])
}
