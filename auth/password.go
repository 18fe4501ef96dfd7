// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/subtle"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLen is the longest password bcrypt accepts, in bytes
const MaxPasswordLen = 72

// HashPassword returns a bcrypt hash using the given cost.
// Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IsHash reports whether stored looks like a bcrypt hash
func IsHash(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

// VerifyPassword compares a stored credential with a plain password.
// Stored values that are not bcrypt hashes are legacy plaintext entries and
// are compared in constant time.
func VerifyPassword(stored, plain string) bool {
	if IsHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnCompare runs one bcrypt comparison against a fixed hash so that
// lookups of unknown users cost about as much as a wrong password.
func BurnCompare(plain string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}
