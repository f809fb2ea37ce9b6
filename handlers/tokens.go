// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"regexp"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/middleware"
	"github.com/danielhkuo/school-vote/models"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func tabParam(r *http.Request) string {
	if tab := r.URL.Query().Get("tab"); tab != "" {
		return tab
	}
	return models.TabAll
}

// ListTokens handles GET /admin/tokens?tab=all|teachers|<class>
func (h *ElectionHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.svc.Tokens(r.Context(), tabParam(r))
	if err != nil {
		writeServiceError(w, h.log, "list tokens", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, tokens)
}

// ListClasses handles GET /admin/tokens/classes
func (h *ElectionHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.Classes(r.Context())
	if err != nil {
		writeServiceError(w, h.log, "list classes", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, classes)
}

// IssueTokens handles POST /admin/tokens
func (h *ElectionHandler) IssueTokens(w http.ResponseWriter, r *http.Request) {
	var req models.IssueTokensRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tokens, err := h.svc.IssueTokens(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, "issue tokens", err)
		return
	}

	h.log.Info("token batch issued", actor(r), zap.Int("count", len(tokens)), zap.String("type", req.Type))
	middleware.JSONResponse(w, http.StatusCreated, models.IssueTokensResponse{Tokens: tokens})
}

// DeleteToken handles DELETE /admin/tokens/{id}
// A used token's vote is deleted with it.
func (h *ElectionHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteToken(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.log, "delete token", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetToken handles POST /admin/tokens/{id}/reset
func (h *ElectionHandler) ResetToken(w http.ResponseWriter, r *http.Request) {
	token, deleted, err := h.svc.ResetToken(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.log, "reset token", err)
		return
	}

	h.log.Info("token reset by admin", actor(r), zap.String("token_id", token.ID))
	middleware.JSONResponse(w, http.StatusOK, models.ResetTokenResponse{Token: token, DeletedVotes: deleted})
}

// ExportTokens handles GET /admin/tokens/export.csv?tab=...
// One row per token, for printing code slips.
func (h *ElectionHandler) ExportTokens(w http.ResponseWriter, r *http.Request) {
	tab := tabParam(r)
	tokens, err := h.svc.Tokens(r.Context(), tab)
	if err != nil {
		writeServiceError(w, h.log, "export tokens", err)
		return
	}

	filename := fmt.Sprintf("tokens-%s.csv", unsafeFilename.ReplaceAllString(tab, "_"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"code", "type", "class", "teacher", "status"})
	for _, t := range tokens {
		status := "available"
		if t.IsUsed {
			status = "used"
		}
		_ = cw.Write([]string{t.Code, t.Type, t.Class, t.Teacher, status})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.Error("failed to write token export", zap.Error(err))
	}
}
