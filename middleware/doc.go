// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Each request gets a request_id (from X-Request-ID when the client sends a
short one) that is echoed in the response and available via RequestID(ctx).
Completion is logged with status and duration_ms.

# Sessions

RequireSession reads the signed session cookie, re-checks the identity
against the credential store on every request, and attaches the refreshed
session to the context:

	mux.HandleFunc("GET /api/scans", sessions.RequireSession(h.Mine))
	mux.HandleFunc("GET /api/admin/summary", sessions.RequireAdmin(h.Summary))

	id := middleware.IdentityFrom(r.Context())

A user deleted or renamed since login is logged out with 401.

# Rate Limiting

Login attempts are limited per hashed client IP with a token bucket, kept
in memory or in Redis when several replicas share the limit:

	limiter := middleware.NewMemoryLimiter(5, time.Minute)
	limit := middleware.RateLimit(limiter, salt, false)
	mux.HandleFunc("POST /api/login", limit(h.Login))

Blocked requests get 429 with Retry-After. Limiter errors fail open.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r, trustProxy)

Proxy headers (X-Forwarded-For, X-Real-IP) are only honored when
trustProxy is set.
*/
package middleware
