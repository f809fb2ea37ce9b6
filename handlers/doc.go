// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the school-vote API.

# Handler Types

  - VoteHandler: public ballot page (candidates, token check, vote)
  - AccountHandler: admin login, account management, bootstrap
  - ElectionHandler: candidates, tokens, votes, results and snapshots
  - FeedHandler: websocket live feed

Handlers depend on small interfaces satisfied by voting.Service,
store.Store, scheduler.Snapshotter and feed.Hub:

	voteHandler := handlers.NewVoteHandler(svc, log)
	electionHandler := handlers.NewElectionHandler(svc, snapshotter, log)

# Casting a Vote

	POST /vote {"code": "abcde", "candidate_id": "..."}

	201 {"vote_id": "...", "candidate_id": "...", "candidate_name": "...", "points": 1, "cast_at": "..."}

Failures carry a machine-readable error_kind:

	400 InvalidFormat       code is not 5 letters or digits
	409 TokenInvalidOrUsed  unknown code, or already redeemed
	404 CandidateNotFound
	504 Timeout
	503 StoreUnavailable

Unknown and used codes are deliberately indistinguishable.

# Live Feed

	GET /admin/feed?collection=results&access_token=<jwt>

The connection receives {"collection", "data", "at"} immediately and again
after every change to that collection.
*/
package handlers
