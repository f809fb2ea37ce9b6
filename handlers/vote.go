// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/middleware"
	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/tally"
)

// BallotService is the public side of voting.Service
type BallotService interface {
	CastVote(ctx context.Context, rawCode, candidateID string) (models.VoteReceipt, error)
	ValidateToken(ctx context.Context, rawCode string) (models.Token, error)
	Candidates(ctx context.Context) ([]models.Candidate, error)
}

type VoteHandler struct {
	svc BallotService
	log *zap.Logger
}

func NewVoteHandler(svc BallotService, log *zap.Logger) *VoteHandler {
	return &VoteHandler{svc: svc, log: log}
}

// ListCandidates handles GET /candidates
func (h *VoteHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.svc.Candidates(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "list candidates", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// ValidateToken handles POST /vote/validate
// Checks a code without redeeming it, so the ballot page can show the
// voter's weight before they choose.
func (h *VoteHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateTokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	token, err := h.svc.ValidateToken(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, h.log, "validate token", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TokenCheckResponse{
		Type:    token.Type,
		Class:   token.Class,
		Teacher: token.Teacher,
		Points:  tally.Weight(token.Type),
	})
}

// CastVote handles POST /vote
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	receipt, err := h.svc.CastVote(r.Context(), req.Code, req.CandidateID)
	if err != nil {
		writeServiceError(w, h.log, "cast vote", err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, receipt)
}
