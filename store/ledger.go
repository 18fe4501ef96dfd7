// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rafaelconde1/aplicativo-novo/models"
)

// Ledger is the append-ordered record of scan events.
type Ledger interface {
	// Load returns every row in insertion order
	Load(ctx context.Context) ([]models.Scan, error)
	// Append adds one row at the end
	Append(ctx context.Context, scan models.Scan) error
	// Clear removes the rows of one user, or every row when username is empty
	Clear(ctx context.Context, username string) error
	// RewriteUsername renames old to new in every row and returns how many changed
	RewriteUsername(ctx context.Context, oldName, newName string) (int, error)
}

// Markers left by capture widgets that hand back an object instead of text
var captureSentinels = []string{
	"DeltaGenerator",
	"[object Object]",
}

// ValidateBarcode rejects text that cannot be a decoded barcode
func ValidateBarcode(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBarcode)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidBarcode)
	}
	if strings.ContainsRune(text, 0) {
		return fmt.Errorf("%w: contains NUL", ErrInvalidBarcode)
	}
	for _, s := range captureSentinels {
		if strings.Contains(text, s) {
			return fmt.Errorf("%w: malformed capture (%s)", ErrInvalidBarcode, s)
		}
	}
	return nil
}

// FilterByUser returns the rows owned by username, keeping their order
func FilterByUser(scans []models.Scan, username string) []models.Scan {
	out := make([]models.Scan, 0, len(scans))
	for _, s := range scans {
		if s.Username == username {
			out = append(out, s)
		}
	}
	return out
}
