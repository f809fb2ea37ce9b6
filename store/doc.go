// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists the election in PostgreSQL or SQLite.

	s := store.New(conn, log)

# Exactly-Once Redemption

RedeemToken runs in one transaction:

 1. UPDATE token SET is_used = TRUE ... WHERE id = $id AND is_used = FALSE
 2. Zero rows affected means someone else won: ErrAlreadyRedeemed
 3. Check the candidate still exists: ErrCandidateNotFound
 4. INSERT the vote; vote.token_id is UNIQUE, so a duplicate also maps
    to ErrAlreadyRedeemed

Any failure rolls back, leaving the token unused and no vote behind.

# Corrections

  - ResetToken: flips a used token back and deletes its vote, in one transaction
  - DeleteToken: deletes the token's vote, then the token
  - UpdateVotePoints: compare-and-swap on the current points (ErrConflict)
  - ResetAll: deletes all votes and resets all tokens atomically

# Errors

Lookups return ErrNotFound. Unique violations from either driver
(lib/pq code 23505, SQLite UNIQUE/PRIMARY KEY constraint) surface as
ErrDuplicate. Rows that fail validation on read (unknown token type,
negative points, unknown role) return ErrMalformedRecord.
*/
package store
