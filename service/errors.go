// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import "errors"

var (
	ErrValidation         = errors.New("validation rejected")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrIdentityStale      = errors.New("user no longer exists")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrLastAdmin          = errors.New("cannot remove the last administrator")
	ErrProtectedUser      = errors.New("the principal administrator cannot be deleted or renamed")
	ErrForbidden          = errors.New("forbidden")
	// ErrCascadeIncomplete means the user was deleted but their scans were not
	ErrCascadeIncomplete = errors.New("user deleted, but their scans could not be cleared")
)
