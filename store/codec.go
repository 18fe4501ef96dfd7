// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rafaelconde1/aplicativo-novo/models"
)

// EncodeCSV writes the ledger header followed by one row per scan.
// Fields are quoted when needed, so payloads containing commas, quotes or
// newlines survive a DecodeCSV round trip.
func EncodeCSV(w io.Writer, scans []models.Scan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.LedgerHeader); err != nil {
		return err
	}
	for _, s := range scans {
		if err := cw.Write([]string{s.Username, s.Barcode, s.Timestamp}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV parses ledger text. Empty input yields zero rows. The first
// record must be the ledger header.
//
// Files written before fields were quoted may carry rows whose barcode
// contained commas. Such rows are repaired: the first field is the username,
// the last is the timestamp, and everything between is joined back into the
// barcode.
func DecodeCSV(r io.Reader) ([]models.Scan, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []models.Scan{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrStoreCorrupt, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !isLedgerHeader(header) {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrStoreCorrupt, strings.Join(header, ","))
	}

	scans := []models.Scan{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
		}

		switch {
		case len(rec) == 3:
			scans = append(scans, models.Scan{Username: rec[0], Barcode: rec[1], Timestamp: rec[2]})
		case len(rec) > 3:
			scans = append(scans, models.Scan{
				Username:  rec[0],
				Barcode:   strings.Join(rec[1:len(rec)-1], ","),
				Timestamp: rec[len(rec)-1],
			})
		default:
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields (check it for an unmatched quote)", ErrStoreCorrupt, line, len(rec))
		}
	}

	return scans, nil
}

func isLedgerHeader(rec []string) bool {
	if len(rec) != len(models.LedgerHeader) {
		return false
	}
	for i, col := range models.LedgerHeader {
		if strings.TrimSpace(rec[i]) != col {
			return false
		}
	}
	return true
}
