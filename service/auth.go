// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

// Authenticate checks a username and password. Every mismatch returns
// ErrInvalidCredentials, whichever part was wrong.
//
// While the credential store is unreadable the error wraps
// store.ErrStoreCorrupt, except that the principal admin may still log in
// with the configured recovery password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.Identity, error) {
	if username == "" || password == "" {
		auth.BurnCompare(password)
		return models.Identity{}, ErrInvalidCredentials
	}

	users, err := s.users.Load()
	if err != nil {
		if errors.Is(err, store.ErrStoreCorrupt) && s.cfg.RecoveryPassword != "" && username == store.PrincipalAdmin {
			if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.RecoveryPassword)) == 1 {
				s.logger.Warn("recovery login while credential store is unreadable", "username", username, "error", err)
				return models.Identity{Username: username, IsAdmin: true}, nil
			}
			return models.Identity{}, ErrInvalidCredentials
		}
		s.logger.Error("authentication unavailable", "error", err)
		return models.Identity{}, err
	}

	rec, ok := users[username]
	if !ok {
		auth.BurnCompare(password)
		return models.Identity{}, ErrInvalidCredentials
	}
	if !auth.VerifyPassword(rec.Password, password) {
		return models.Identity{}, ErrInvalidCredentials
	}

	return models.Identity{Username: username, IsAdmin: rec.IsAdmin}, nil
}

// CheckIdentity confirms a session identity still exists and returns it with
// the current admin flag. A missing user is ErrIdentityStale.
func (s *Service) CheckIdentity(ctx context.Context, id models.Identity) (models.Identity, error) {
	if id.Anonymous() {
		return models.Identity{}, ErrIdentityStale
	}

	users, err := s.users.Load()
	if err != nil {
		if errors.Is(err, store.ErrStoreCorrupt) && s.cfg.RecoveryPassword != "" && id.Username == store.PrincipalAdmin {
			return models.Identity{Username: id.Username, IsAdmin: true}, nil
		}
		return models.Identity{}, err
	}

	rec, ok := users[id.Username]
	if !ok {
		return models.Identity{}, ErrIdentityStale
	}
	return models.Identity{Username: id.Username, IsAdmin: rec.IsAdmin}, nil
}
