// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/middleware"
	"github.com/danielhkuo/school-vote/models"
)

const (
	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 200
)

type resultsResponse struct {
	Rankings   []models.CandidateResult `json:"rankings"`
	InputsHash string                   `json:"inputs_hash"`
	ComputedAt time.Time                `json:"computed_at"`
}

type snapshotResponse struct {
	Snapshot models.ResultSnapshot `json:"snapshot"`
	Created  bool                  `json:"created"`
}

// GetResults handles GET /admin/results
func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	rankings, hash, err := h.svc.Results(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "compute results", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resultsResponse{
		Rankings:   rankings,
		InputsHash: hash,
		ComputedAt: time.Now().UTC(),
	})
}

// GetChart handles GET /admin/results/chart
func (h *ElectionHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.svc.Chart(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "compute chart", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, chart)
}

// GetStats handles GET /admin/stats
func (h *ElectionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "compute stats", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}

// GetSummary handles GET /admin/results/summary.txt
// A plain-text standings sheet for announcing results.
func (h *ElectionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	rankings, _, err := h.svc.Results(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "compute results", err)
		return
	}
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "compute stats", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, renderSummary(rankings, stats, time.Now().UTC()))
}

func renderSummary(rankings []models.CandidateResult, stats models.Stats, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Election results as of %s\n", at.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Turnout: %d%% (%s of %s tokens used)\n\n",
		stats.ParticipationPct,
		humanize.Comma(int64(stats.UsedTokens)),
		humanize.Comma(int64(stats.TotalTokens)),
	)

	for _, res := range rankings {
		fmt.Fprintf(&b, "%-5s %-30s %8s points  (%s votes: %s student, %s teacher)\n",
			humanize.Ordinal(res.Rank),
			res.Candidate.Name,
			humanize.Comma(int64(res.TotalPoints)),
			humanize.Comma(int64(res.TotalVotes)),
			humanize.Comma(int64(res.StudentVotes)),
			humanize.Comma(int64(res.TeacherVotes)),
		)
	}
	if len(rankings) == 0 {
		b.WriteString("No candidates registered.\n")
	}
	return b.String()
}

// ListSnapshots handles GET /admin/snapshots?limit=N
func (h *ElectionHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSnapshotLimit)
	}

	snaps, err := h.snapshots.List(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to list snapshots", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, snaps)
}

// TakeSnapshot handles POST /admin/snapshots
func (h *ElectionHandler) TakeSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, created, err := h.snapshots.Take(r.Context(), true)
	if err != nil {
		h.log.Error("failed to take snapshot", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to take snapshot")
		return
	}

	h.log.Info("manual snapshot", actor(r), zap.String("snapshot_id", snap.ID))
	middleware.JSONResponse(w, http.StatusCreated, snapshotResponse{Snapshot: snap, Created: created})
}
