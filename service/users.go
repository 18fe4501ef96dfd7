// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

const maxUsernameLen = 64

func validateUsername(name string) error {
	if name == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: username has leading or trailing spaces", ErrValidation)
	}
	if len(name) > maxUsernameLen {
		return fmt.Errorf("%w: username longer than %d bytes", ErrValidation, maxUsernameLen)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: username contains control characters", ErrValidation)
		}
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if len(password) > auth.MaxPasswordLen {
		return fmt.Errorf("%w: password longer than %d bytes", ErrValidation, auth.MaxPasswordLen)
	}
	return nil
}

// ListUsers returns every account sorted by username, without credentials
func (s *Service) ListUsers(ctx context.Context) ([]models.UserInfo, error) {
	users, err := s.users.Users()
	if err != nil {
		return nil, err
	}

	out := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserInfo{Username: u.Username, IsAdmin: u.IsAdmin})
	}
	return out, nil
}

func (s *Service) AddUser(ctx context.Context, username, password string, isAdmin bool) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Load()
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return fmt.Errorf("%w: %s", ErrUserExists, username)
	}

	hash, err := s.users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	users[username] = models.UserRecord{Password: hash, IsAdmin: isAdmin}

	if err := s.users.Save(users); err != nil {
		s.logger.Error("add user failed", "username", username, "error", err)
		return err
	}
	s.logger.Info("user added", "username", username, "is_admin", isAdmin)
	return nil
}

// RenameUser moves oldName's record to newName and rewrites the ledger.
// When the ledger rewrite fails the credential change is rolled back. The
// principal admin keeps its name.
func (s *Service) RenameUser(ctx context.Context, oldName, newName string) error {
	if oldName == store.PrincipalAdmin {
		return ErrProtectedUser
	}
	if err := validateUsername(newName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Load()
	if err != nil {
		return err
	}
	rec, ok := users[oldName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, oldName)
	}
	if _, exists := users[newName]; exists {
		return fmt.Errorf("%w: %s", ErrUserExists, newName)
	}

	delete(users, oldName)
	users[newName] = rec
	if err := s.users.Save(users); err != nil {
		s.logger.Error("rename user failed", "from", oldName, "to", newName, "error", err)
		return err
	}

	n, err := s.ledger.RewriteUsername(ctx, oldName, newName)
	if err != nil {
		delete(users, newName)
		users[oldName] = rec
		if rbErr := s.users.Save(users); rbErr != nil {
			s.logger.Error("rename rollback failed; credentials and ledger disagree",
				"from", oldName, "to", newName, "error", rbErr)
		}
		s.logger.Error("rename user failed while rewriting scans", "from", oldName, "to", newName, "error", err)
		return err
	}

	s.logger.Info("user renamed", "from", oldName, "to", newName, "scans", n)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, username, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Load()
	if err != nil {
		return err
	}
	rec, ok := users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	hash, err := s.users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	rec.Password = hash
	users[username] = rec

	if err := s.users.Save(users); err != nil {
		s.logger.Error("change password failed", "username", username, "error", err)
		return err
	}
	s.logger.Info("password changed", "username", username)
	return nil
}

// DeleteUser removes the account and then its scans. The principal admin
// and the last remaining admin cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if username == store.PrincipalAdmin {
		return ErrProtectedUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.Load()
	if err != nil {
		return err
	}
	rec, ok := users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if rec.IsAdmin && countAdmins(users) == 1 {
		return ErrLastAdmin
	}

	delete(users, username)
	if err := s.users.Save(users); err != nil {
		s.logger.Error("delete user failed", "username", username, "error", err)
		return err
	}

	if err := s.ledger.Clear(ctx, username); err != nil {
		s.logger.Warn("user deleted but scans not cleared", "username", username, "error", err)
		return fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	s.logger.Info("user deleted", "username", username)
	return nil
}

func countAdmins(users map[string]models.UserRecord) int {
	n := 0
	for _, rec := range users {
		if rec.IsAdmin {
			n++
		}
	}
	return n
}

// ClearScans removes username's rows, or every row when username is empty.
// Non-admins may only clear their own rows.
func (s *Service) ClearScans(ctx context.Context, id models.Identity, username string) error {
	if !id.IsAdmin && (username == "" || username != id.Username) {
		return ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Clear(ctx, username); err != nil {
		s.logger.Error("clear scans failed", "username", username, "error", err)
		return err
	}

	if username == "" {
		s.logger.Warn("all scans cleared", "by", id.Username)
	} else {
		s.logger.Info("scans cleared", "username", username, "by", id.Username)
	}
	return nil
}
