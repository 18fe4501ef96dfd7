// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/service"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

type sessionKey struct{}

// IdentityChecker confirms a session's user still exists
type IdentityChecker interface {
	CheckIdentity(ctx context.Context, id models.Identity) (models.Identity, error)
}

// Sessions guards handlers that need a logged-in user
type Sessions struct {
	tokens  *auth.Sessions
	checker IdentityChecker
}

func NewSessions(tokens *auth.Sessions, checker IdentityChecker) *Sessions {
	return &Sessions{tokens: tokens, checker: checker}
}

// RequireSession rejects requests without a valid session cookie. The user
// is looked up on every request; when it no longer exists the cookie is
// cleared and the request is answered as anonymous.
func (s *Sessions) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.resolve(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	}
}

// RequireAdmin is RequireSession plus a 403 for non-admins
func (s *Sessions) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		session, _ := SessionFrom(r.Context())
		if !session.Identity.IsAdmin {
			ErrorResponse(w, http.StatusForbidden, "Administrator access required")
			return
		}
		next(w, r)
	})
}

func (s *Sessions) resolve(w http.ResponseWriter, r *http.Request) (models.Session, bool) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		ErrorResponse(w, http.StatusUnauthorized, "Login required")
		return models.Session{}, false
	}

	session, err := s.tokens.Parse(cookie.Value)
	if err != nil {
		http.SetCookie(w, s.tokens.ClearCookie())
		message := "Invalid session, please log in again"
		if errors.Is(err, auth.ErrSessionExpired) {
			message = "Session expired, please log in again"
		}
		ErrorResponse(w, http.StatusUnauthorized, message)
		return models.Session{}, false
	}

	id, err := s.checker.CheckIdentity(r.Context(), session.Identity)
	switch {
	case errors.Is(err, service.ErrIdentityStale):
		slog.Info("session reset: user no longer exists", "username", session.Identity.Username)
		session.Reset()
		http.SetCookie(w, s.tokens.ClearCookie())
		ErrorResponse(w, http.StatusUnauthorized, "Your account no longer exists")
		return models.Session{}, false
	case errors.Is(err, store.ErrStoreCorrupt):
		slog.Error("session check failed", "error", err)
		ErrorResponse(w, http.StatusServiceUnavailable, "User store unavailable")
		return models.Session{}, false
	case err != nil:
		slog.Error("session check failed", "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "Session check failed")
		return models.Session{}, false
	}

	session.Identity = id
	return session, true
}

// SessionFrom returns the session stored by RequireSession
func SessionFrom(ctx context.Context) (models.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(models.Session)
	return session, ok
}

// IdentityFrom returns the identity of the current session, or an anonymous one
func IdentityFrom(ctx context.Context) models.Identity {
	session, _ := SessionFrom(ctx)
	return session.Identity
}
