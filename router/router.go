// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/cliparse"
	"github.com/danielhkuo/school-vote/handlers"
	"github.com/danielhkuo/school-vote/middleware"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping() error
}

// VotingService is implemented by voting.Service
type VotingService interface {
	handlers.BallotService
	handlers.ElectionService
}

// Deps are the services the routes are served from
type Deps struct {
	Config    cliparse.Config
	Log       *zap.Logger
	DB        Pinger
	Voting    VotingService
	Admins    handlers.AdminStore
	Snapshots handlers.Snapshots
	Feed      handlers.Subscriber
}

func NewRouter(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	secret := d.Config.JWTSecret
	log := d.Log

	// Initialize handlers
	voteHandler := handlers.NewVoteHandler(d.Voting, log)
	accountHandler := handlers.NewAccountHandler(d.Admins, d.Config, log)
	electionHandler := handlers.NewElectionHandler(d.Voting, d.Snapshots, log)
	feedHandler := handlers.NewFeedHandler(d.Feed, d.Config.AllowedOrigins, log)

	logged := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(log, h)
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(log, middleware.RequireAdmin(secret, h))
	}
	super := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(log, middleware.RequireSuper(secret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.Ping(); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voting (public)
	mux.HandleFunc("GET /candidates", logged(voteHandler.ListCandidates))
	mux.HandleFunc("POST /vote/validate", logged(voteHandler.ValidateToken))
	mux.HandleFunc("POST /vote", logged(voteHandler.CastVote))

	// Admin sessions and accounts
	mux.HandleFunc("POST /admin/login", logged(accountHandler.Login))
	mux.HandleFunc("GET /admin/admins", admin(accountHandler.ListAdmins))
	mux.HandleFunc("POST /admin/admins", super(accountHandler.CreateAdmin))
	mux.HandleFunc("DELETE /admin/admins/{id}", super(accountHandler.DeleteAdmin))

	// Candidates
	mux.HandleFunc("GET /admin/candidates", admin(voteHandler.ListCandidates))
	mux.HandleFunc("POST /admin/candidates", admin(electionHandler.CreateCandidate))
	mux.HandleFunc("PUT /admin/candidates/{id}", admin(electionHandler.UpdateCandidate))
	mux.HandleFunc("DELETE /admin/candidates/{id}", admin(electionHandler.DeleteCandidate))
	mux.HandleFunc("PUT /admin/candidates/{id}/total", admin(electionHandler.OverrideTotal))

	// Tokens
	mux.HandleFunc("GET /admin/tokens", admin(electionHandler.ListTokens))
	mux.HandleFunc("POST /admin/tokens", admin(electionHandler.IssueTokens))
	mux.HandleFunc("GET /admin/tokens/classes", admin(electionHandler.ListClasses))
	mux.HandleFunc("GET /admin/tokens/export.csv", admin(electionHandler.ExportTokens))
	mux.HandleFunc("DELETE /admin/tokens/{id}", admin(electionHandler.DeleteToken))
	mux.HandleFunc("POST /admin/tokens/{id}/reset", admin(electionHandler.ResetToken))

	// Votes
	mux.HandleFunc("GET /admin/votes", admin(electionHandler.ListVotes))
	mux.HandleFunc("PUT /admin/votes/{id}", admin(electionHandler.UpdateVote))
	mux.HandleFunc("POST /admin/votes/reset", admin(electionHandler.ResetAll))

	// Results
	mux.HandleFunc("GET /admin/results", admin(electionHandler.GetResults))
	mux.HandleFunc("GET /admin/results/chart", admin(electionHandler.GetChart))
	mux.HandleFunc("GET /admin/results/summary.txt", admin(electionHandler.GetSummary))
	mux.HandleFunc("GET /admin/stats", admin(electionHandler.GetStats))
	mux.HandleFunc("GET /admin/snapshots", admin(electionHandler.ListSnapshots))
	mux.HandleFunc("POST /admin/snapshots", admin(electionHandler.TakeSnapshot))

	// Live feed (websocket)
	mux.HandleFunc("GET /admin/feed", admin(feedHandler.Serve))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("school-vote API v1"))
	})

	return mux
}
