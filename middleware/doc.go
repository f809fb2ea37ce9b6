// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(log, handler))

Logs method, path, client IP, status and duration_ms once the handler
returns. 5xx responses are logged at error level.

# Admin Sessions

Dashboard routes need a JWT issued by POST /admin/login:

	mux.HandleFunc("GET /admin/stats", middleware.RequireAdmin(secret, h.Stats))
	mux.HandleFunc("POST /admin/admins", middleware.RequireSuper(secret, h.CreateAdmin))

The token is read from "Authorization: Bearer <jwt>", or from the
access_token query parameter for websocket handshakes. Handlers read the
session with ClaimsFrom.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(cfg.AllowedOrigins)(mux),
	}

An empty allow list reflects any origin.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.KindErrorResponse(w, http.StatusConflict, models.KindTokenInvalidOrUsed, "message")

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
