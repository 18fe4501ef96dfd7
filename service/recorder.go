// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/events"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Record appends one scan for id. The row is stamped with the current time
// in the civil timezone of the capture source. Scanning the same code twice
// records two rows.
func (s *Service) Record(ctx context.Context, id models.Identity, d capture.Decoded) (models.Scan, error) {
	if id.Anonymous() {
		return models.Scan{}, fmt.Errorf("%w: no authenticated user", ErrValidation)
	}

	// CSV readers fold \r\n inside quoted fields, so store one form only
	text := newlines.Replace(d.Text)
	if err := store.ValidateBarcode(text); err != nil {
		s.logger.Warn("scan rejected", "username", id.Username, "source", d.Kind.String(), "error", err)
		return models.Scan{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	loc := s.locationFor(d.Kind)
	scan := models.Scan{
		Username:  id.Username,
		Barcode:   text,
		Timestamp: s.cfg.Now().In(loc).Format(models.TimestampLayout),
	}

	s.mu.Lock()
	err := s.ledger.Append(ctx, scan)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("scan append failed", "username", id.Username, "error", err)
		return models.Scan{}, err
	}

	s.logger.Info("scan recorded", "username", id.Username, "source", d.Kind.String(), "format", d.Format)

	event := events.ScanRecorded{
		ID:        uuid.NewString(),
		Username:  scan.Username,
		Barcode:   scan.Barcode,
		Format:    d.Format,
		Timestamp: scan.Timestamp,
		Timezone:  loc.String(),
		Source:    d.Kind.String(),
	}
	if err := s.cfg.Publisher.PublishScan(ctx, event); err != nil {
		s.logger.Warn("scan event not published", "event_id", event.ID, "error", err)
	}

	return scan, nil
}
