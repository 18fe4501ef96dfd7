// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import "errors"

var (
	// ErrStoreCorrupt means a backing file or table could not be read or parsed
	ErrStoreCorrupt = errors.New("store corrupt")
	// ErrWriteFailed means a mutation could not be persisted
	ErrWriteFailed = errors.New("write failed")
	// ErrInvalidBarcode means the text is not something a scanner produced
	ErrInvalidBarcode = errors.New("invalid barcode")
)
