// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting runs the election on top of a Store.

# Casting

	receipt, err := svc.CastVote(ctx, "ab12c", candidateID)

CastVote normalizes the code, rejects malformed codes before any lookup,
resolves the token and candidate, then redeems the token and records the
vote in one store transaction. Students' votes are worth 1 point and
teachers' votes 2.

Failures are sentinel errors; use errors.Is or Kind:

  - ErrInvalidFormat: not 5 characters of A-Z0-9
  - ErrTokenInvalidOrUsed: unknown or already redeemed code
  - ErrRedemptionConflict: lost a race for the same token (wraps ErrTokenInvalidOrUsed)
  - ErrCandidateNotFound
  - ErrTimeout: the configured deadline passed
  - ErrStoreUnavailable

# Corrections

  - ResetToken: return a used token to unused and delete its vote
  - OverrideTotal: shift a candidate's earliest vote so the total matches
  - UpdateVotePoints: set one vote's points
  - DeleteToken: remove a token and its vote
  - ResetAll: clear every vote and token in one transaction

Point changes are compare-and-swap writes; a concurrent edit yields
ErrConcurrentUpdate instead of a lost update.

# Notifications

Every successful write tells the feed.Notifier which collections changed.
*/
package voting
