// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Token: single-use voting credential (student or teacher)
  - Candidate: election candidate profile
  - Vote: one redeemed token, carrying its weighted points
  - Admin: dashboard account with a role

# Result Types

  - CandidateResult: per-candidate totals and rank
  - ChartSlice: chart-ready view of a result
  - Stats: participation figures for the dashboard
  - ResultSnapshot: stored copy of a ranking

# Request Types

Request types that accept admin input implement Validate using
ozzo-validation:

	var req models.IssueTokensRequest
	if err := req.Validate(); err != nil {
		// 400
	}

# Error Kinds

ErrorResponse carries an ErrorKind so clients can tell failures apart
without parsing messages:

	InvalidFormat, TokenInvalidOrUsed, CandidateNotFound, Timeout,
	StoreUnavailable, ...

# Constants

Token types:

	TokenTypeStudent = "student"
	TokenTypeTeacher = "teacher"

Admin roles:

	RoleSuper = "super"
	RoleAdmin = "admin"
*/
package models
