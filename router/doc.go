// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the school-vote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Deps{
		Config:    cfg,
		Log:       log,
		DB:        st,
		Voting:    svc,
		Admins:    st,
		Snapshots: snapshotter,
		Feed:      hub,
	})

# Endpoints

Health:

	GET /health - 200 OK, or 503 when the database is unreachable

Voting (public):

	GET  /candidates     - Candidate list for the ballot
	POST /vote/validate  - Check a token code without redeeming it
	POST /vote           - Redeem a token for a candidate

Admin sessions (POST /admin/login returns a bearer token):

	GET    /admin/admins      - List admin accounts
	POST   /admin/admins      - Create an account (super only)
	DELETE /admin/admins/{id} - Delete an account (super only)

Election management (bearer token required):

	GET|POST          /admin/candidates
	PUT|DELETE        /admin/candidates/{id}
	PUT               /admin/candidates/{id}/total - Manual total override
	GET|POST          /admin/tokens                - List by ?tab=, issue batch
	GET               /admin/tokens/classes
	GET               /admin/tokens/export.csv
	DELETE            /admin/tokens/{id}
	POST              /admin/tokens/{id}/reset
	GET               /admin/votes
	PUT               /admin/votes/{id}
	POST              /admin/votes/reset           - Clear every vote
	GET               /admin/results[/chart|/summary.txt]
	GET               /admin/stats
	GET|POST          /admin/snapshots
	GET               /admin/feed?collection=...   - Websocket live feed
*/
package router
