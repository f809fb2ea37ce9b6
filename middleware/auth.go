// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielhkuo/school-vote/auth"
	"github.com/danielhkuo/school-vote/models"
)

type contextKey int

const claimsKey contextKey = iota

// ClaimsFrom returns the admin session attached by RequireAdmin
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// WithClaims attaches an admin session to a context
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// bearerToken reads the session from the Authorization header. Browsers
// cannot set headers on a websocket handshake, so the access_token query
// parameter is accepted too.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// RequireAdmin rejects requests without a valid admin session
func RequireAdmin(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		claims, err := auth.ParseAccessToken(token, secret)
		if errors.Is(err, auth.ErrExpiredToken) {
			ErrorResponse(w, http.StatusUnauthorized, "Session expired")
			return
		}
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

// RequireSuper is RequireAdmin restricted to super admins
func RequireSuper(secret string, next http.HandlerFunc) http.HandlerFunc {
	return RequireAdmin(secret, func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		if claims == nil || claims.Role != models.RoleSuper {
			ErrorResponse(w, http.StatusForbidden, "Super admin role required")
			return
		}
		next(w, r)
	})
}
