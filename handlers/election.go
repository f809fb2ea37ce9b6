// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/middleware"
	"github.com/danielhkuo/school-vote/models"
)

// ElectionService is the admin side of voting.Service
type ElectionService interface {
	Candidates(ctx context.Context) ([]models.Candidate, error)
	CreateCandidate(ctx context.Context, req models.CandidateRequest) (models.Candidate, error)
	UpdateCandidate(ctx context.Context, id string, req models.CandidateRequest) (models.Candidate, error)
	DeleteCandidate(ctx context.Context, id string) error
	OverrideTotal(ctx context.Context, candidateID string, newTotal int) (models.Vote, error)

	Tokens(ctx context.Context, tab string) ([]models.Token, error)
	Classes(ctx context.Context) ([]string, error)
	IssueTokens(ctx context.Context, req models.IssueTokensRequest) ([]models.Token, error)
	DeleteToken(ctx context.Context, tokenID string) error
	ResetToken(ctx context.Context, tokenID string) (models.Token, int, error)

	Votes(ctx context.Context) ([]models.Vote, error)
	UpdateVotePoints(ctx context.Context, voteID string, points int) (models.Vote, error)
	ResetAll(ctx context.Context) (models.ResetSummary, error)

	Results(ctx context.Context) ([]models.CandidateResult, string, error)
	Chart(ctx context.Context) ([]models.ChartSlice, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Snapshots takes and lists stored result snapshots
type Snapshots interface {
	Take(ctx context.Context, force bool) (models.ResultSnapshot, bool, error)
	List(ctx context.Context, limit int) ([]models.ResultSnapshot, error)
}

// ElectionHandler serves the admin dashboard: candidates, tokens, votes
// and results
type ElectionHandler struct {
	svc       ElectionService
	snapshots Snapshots
	log       *zap.Logger
}

func NewElectionHandler(svc ElectionService, snapshots Snapshots, log *zap.Logger) *ElectionHandler {
	return &ElectionHandler{svc: svc, snapshots: snapshots, log: log}
}

// actor returns the admin behind the request for audit logs
func actor(r *http.Request) zap.Field {
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		return zap.String("admin", claims.Username)
	}
	return zap.Skip()
}

// CreateCandidate handles POST /admin/candidates
func (h *ElectionHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.svc.CreateCandidate(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, "create candidate", err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateCandidate handles PUT /admin/candidates/{id}
func (h *ElectionHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.svc.UpdateCandidate(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, h.log, "update candidate", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}

// DeleteCandidate handles DELETE /admin/candidates/{id}
// Candidates that already received votes cannot be deleted.
func (h *ElectionHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCandidate(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.log, "delete candidate", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OverrideTotal handles PUT /admin/candidates/{id}/total
func (h *ElectionHandler) OverrideTotal(w http.ResponseWriter, r *http.Request) {
	var req models.OverrideTotalRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.TotalPoints != nil && *req.TotalPoints < 0 {
		middleware.KindErrorResponse(w, http.StatusBadRequest, models.KindNegativePoints, "points cannot be negative")
		return
	}
	if err := req.Validate(); err != nil {
		middleware.KindErrorResponse(w, http.StatusBadRequest, models.KindInvalidRequest, err.Error())
		return
	}

	candidateID := r.PathValue("id")
	vote, err := h.svc.OverrideTotal(r.Context(), candidateID, *req.TotalPoints)
	if err != nil {
		writeServiceError(w, h.log, "override total", err)
		return
	}

	h.log.Info("manual total override",
		actor(r),
		zap.String("candidate_id", candidateID),
		zap.Int("total_points", *req.TotalPoints),
	)
	middleware.JSONResponse(w, http.StatusOK, vote)
}

// ListVotes handles GET /admin/votes
func (h *ElectionHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := h.svc.Votes(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "list votes", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, votes)
}

// UpdateVote handles PUT /admin/votes/{id}
func (h *ElectionHandler) UpdateVote(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Points != nil && *req.Points < 0 {
		middleware.KindErrorResponse(w, http.StatusBadRequest, models.KindNegativePoints, "points cannot be negative")
		return
	}
	if err := req.Validate(); err != nil {
		middleware.KindErrorResponse(w, http.StatusBadRequest, models.KindInvalidRequest, err.Error())
		return
	}

	vote, err := h.svc.UpdateVotePoints(r.Context(), r.PathValue("id"), *req.Points)
	if err != nil {
		writeServiceError(w, h.log, "update vote", err)
		return
	}

	h.log.Info("vote edited", actor(r), zap.String("vote_id", vote.ID), zap.Int("points", vote.Points))
	middleware.JSONResponse(w, http.StatusOK, vote)
}

// ResetAll handles POST /admin/votes/reset
func (h *ElectionHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.ResetAll(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "reset all", err)
		return
	}

	h.log.Warn("all votes reset", actor(r))
	middleware.JSONResponse(w, http.StatusOK, summary)
}
