// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/middleware"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/service"
)

type AuthHandler struct {
	svc    *service.Service
	tokens *auth.Sessions
}

func NewAuthHandler(svc *service.Service, tokens *auth.Sessions) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens}
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	id, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		slog.Info("login failed", "username", req.Username, "request_id", middleware.RequestID(r.Context()))
		writeError(w, err, "Login failed")
		return
	}

	token, session, err := h.tokens.Issue(id)
	if err != nil {
		slog.Error("failed to issue session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Login failed")
		return
	}

	http.SetCookie(w, h.tokens.Cookie(token, session.ExpiresAt))
	slog.Info("login", "username", id.Username, "is_admin", id.IsAdmin, "session_id", session.ID)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Identity:  id,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout handles POST /logout. It always succeeds, logged in or not.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if session, err := h.tokens.Parse(cookie.Value); err == nil {
			slog.Info("logout", "username", session.Identity.Username, "session_id", session.ID)
		}
	}

	http.SetCookie(w, h.tokens.ClearCookie())
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Logged out"})
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.SessionFrom(r.Context())
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Identity:  session.Identity,
		ExpiresAt: session.ExpiresAt,
	})
}

// Health handles GET /health
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"timezone": h.svc.Location().String(),
		"time":     time.Now().In(h.svc.Location()).Format(models.TimestampLayout),
	})
}
