// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/auth"
	"github.com/danielhkuo/school-vote/cliparse"
	"github.com/danielhkuo/school-vote/middleware"
	"github.com/danielhkuo/school-vote/models"
	"github.com/danielhkuo/school-vote/store"
)

type AdminStore interface {
	CreateAdmin(ctx context.Context, a models.Admin) (models.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (models.Admin, error)
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	CountAdmins(ctx context.Context) (int, error)
	DeleteAdmin(ctx context.Context, id string) error
}

// AccountHandler serves admin login and account management
type AccountHandler struct {
	store AdminStore
	cfg   cliparse.Config
	log   *zap.Logger
}

func NewAccountHandler(st AdminStore, cfg cliparse.Config, log *zap.Logger) *AccountHandler {
	return &AccountHandler{store: st, cfg: cfg, log: log}
}

// Bootstrap creates the configured super admin when no admin exists yet
func (h *AccountHandler) Bootstrap(ctx context.Context) error {
	n, err := h.store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if h.cfg.AdminPassword == "" {
		h.log.Warn("no admin accounts exist and ADMIN_PASSWORD is not set; the dashboard is unreachable")
		return nil
	}

	hash, err := auth.HashPassword(h.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	a, err := h.store.CreateAdmin(ctx, models.Admin{
		Username:     h.cfg.AdminUsername,
		Name:         h.cfg.AdminUsername,
		PasswordHash: hash,
		Role:         models.RoleSuper,
	})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	h.log.Info("bootstrap super admin created", zap.String("username", a.Username))
	return nil
}

// Login handles POST /admin/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.store.GetAdminByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		h.log.Error("failed to load admin", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if err := auth.CheckPassword(a.PasswordHash, req.Password); err != nil {
		h.log.Warn("failed admin login", zap.String("username", req.Username), zap.String("remote", middleware.GetClientIP(r)))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := auth.IssueAccessToken(a.ID, a.Username, a.Role, h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		h.log.Error("failed to sign access token", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.log.Info("admin logged in", zap.String("admin_id", a.ID), zap.String("role", a.Role))
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Admin:       a,
	})
}

// ListAdmins handles GET /admin/admins
func (h *AccountHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.store.ListAdmins(r.Context())
	if err != nil {
		h.log.Error("failed to list admins", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, admins)
}

// CreateAdmin handles POST /admin/admins (super only)
func (h *AccountHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAdminRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := req.Validate(); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create admin")
		return
	}

	a, err := h.store.CreateAdmin(r.Context(), models.Admin{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if errors.Is(err, store.ErrDuplicate) {
		middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
		return
	}
	if err != nil {
		h.log.Error("failed to create admin", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create admin")
		return
	}

	fields := []zap.Field{zap.String("admin_id", a.ID), zap.String("role", a.Role)}
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		fields = append(fields, zap.String("created_by", claims.Username))
	}
	h.log.Info("admin created", fields...)
	middleware.JSONResponse(w, http.StatusCreated, a)
}

// DeleteAdmin handles DELETE /admin/admins/{id} (super only)
func (h *AccountHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "admin id is required")
		return
	}

	claims, _ := middleware.ClaimsFrom(r.Context())
	if claims != nil && claims.AdminID == id {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot delete your own account")
		return
	}

	err := h.store.DeleteAdmin(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Admin not found")
		return
	}
	if err != nil {
		h.log.Error("failed to delete admin", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
