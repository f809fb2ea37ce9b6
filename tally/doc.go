// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally computes election results from plain values.

Nothing here touches storage; every function is a fold over the slices it
is given and is safe to call from any goroutine.

# Weights

	tally.Weight("student") // 1
	tally.Weight("teacher") // 2

# Ranking

ComputeResults orders candidates by:

 1. Total points (descending)
 2. Candidate creation time (ascending)
 3. Candidate ID (ascending)

Student and teacher vote counts are derived from each vote's stored points
(1 and 2), so a vote edited to another value is counted in neither.

# Dashboard Helpers

  - ChartSeries: chart slices with a cycling four-color palette
  - UniqueClasses: sorted classes of student tokens
  - FilterTokens: token tabs (all, teachers, or a class)
  - Summarize: participation and average points
  - InputsHash: ledger fingerprint for snapshots
*/
package tally
