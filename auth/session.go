// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rafaelconde1/aplicativo-novo/models"
)

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "session"

// Claims carries the session identity next to the registered claims
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Sessions issues and verifies HS256 session tokens
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration, secureCookie bool) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secureCookie,
		now:    time.Now,
	}
}

// Issue signs a token for the identity and returns it with the session it describes
func (s *Sessions) Issue(id models.Identity) (string, models.Session, error) {
	now := s.now()
	session := models.Session{
		ID:        uuid.NewString(),
		Identity:  id,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		Username: id.Username,
		IsAdmin:  id.IsAdmin,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", models.Session{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, session, nil
}

// Parse verifies a token and returns the session it carries
func (s *Sessions) Parse(tokenString string) (models.Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Session{}, ErrSessionExpired
		}
		return models.Session{}, ErrInvalidSession
	}
	if !token.Valid || claims.Username == "" {
		return models.Session{}, ErrInvalidSession
	}

	return models.Session{
		ID:        claims.ID,
		Identity:  models.Identity{Username: claims.Username, IsAdmin: claims.IsAdmin},
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Cookie wraps a signed token in the session cookie
func (s *Sessions) Cookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns a cookie that removes the session from the browser
func (s *Sessions) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
