// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"sort"

	"github.com/danielhkuo/school-vote/models"
)

// Point values per token type
const (
	StudentPoints = 1
	TeacherPoints = 2
)

// Palette is applied to chart slices in rank order and wraps around
var Palette = []string{"#fbbf24", "#3b82f6", "#10b981", "#8b5cf6"}

// Weight returns the points a vote cast with the given token type is worth.
// Unknown types weigh nothing.
func Weight(tokenType string) int {
	switch tokenType {
	case models.TokenTypeStudent:
		return StudentPoints
	case models.TokenTypeTeacher:
		return TeacherPoints
	}
	return 0
}

// ComputeResults folds the vote ledger into ranked per-candidate totals.
// Votes pointing at unknown candidates are ignored.
func ComputeResults(candidates []models.Candidate, votes []models.Vote) []models.CandidateResult {
	results := make([]models.CandidateResult, len(candidates))
	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		results[i] = models.CandidateResult{Candidate: c}
		index[c.ID] = i
	}

	for _, v := range votes {
		i, ok := index[v.CandidateID]
		if !ok {
			continue
		}
		r := &results[i]
		r.TotalPoints += v.Points
		r.TotalVotes++

		// Classified by the stored points, so corrected votes fall out of both buckets
		switch v.Points {
		case StudentPoints:
			r.StudentVotes++
		case TeacherPoints:
			r.TeacherVotes++
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Candidate, results[j].Candidate

		// 1. Higher total wins
		if results[i].TotalPoints != results[j].TotalPoints {
			return results[i].TotalPoints > results[j].TotalPoints
		}

		// 2. Earlier registered candidate first
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}

		// 3. Stable tie-breaking by candidate ID (ascending)
		return a.ID < b.ID
	})

	for i := range results {
		results[i].Rank = i + 1
	}

	return results
}

// TotalFor returns the current tallied total of a single candidate
func TotalFor(candidateID string, votes []models.Vote) int {
	total := 0
	for _, v := range votes {
		if v.CandidateID == candidateID {
			total += v.Points
		}
	}
	return total
}

// ChartSeries maps ranked results onto chart slices. When nobody has any
// points yet, every slice gets a value of 1 so the chart still renders.
func ChartSeries(results []models.CandidateResult) []models.ChartSlice {
	allZero := true
	for _, r := range results {
		if r.TotalPoints != 0 {
			allZero = false
			break
		}
	}

	slices := make([]models.ChartSlice, len(results))
	for i, r := range results {
		value := r.TotalPoints
		if allZero {
			value = 1
		}
		slices[i] = models.ChartSlice{
			Name:  r.Candidate.Name,
			Value: value,
			Votes: r.TotalVotes,
			Color: Palette[i%len(Palette)],
		}
	}
	return slices
}
