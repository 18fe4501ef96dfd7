// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rafaelconde1/aplicativo-novo/models"
)

const filePerm = 0o644

// CSVLedger stores scans in a flat CSV file with a header row.
// Reads share the lock; every mutation holds it exclusively.
type CSVLedger struct {
	path string
	mu   sync.RWMutex
}

// NewCSVLedger opens the ledger at path, creating its directory and a
// header-only file when none exists.
func NewCSVLedger(path string) (*CSVLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create ledger directory: %v", ErrWriteFailed, err)
	}

	l := &CSVLedger{path: path}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist), err == nil && info.Size() == 0:
		if err := l.rewrite(nil); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("%w: stat ledger: %v", ErrStoreCorrupt, err)
	}

	return l, nil
}

// Path returns the ledger file location
func (l *CSVLedger) Path() string {
	return l.path
}

func (l *CSVLedger) Load(ctx context.Context) ([]models.Scan, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.load()
}

func (l *CSVLedger) load() ([]models.Scan, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Scan{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open ledger: %v", ErrStoreCorrupt, err)
	}
	defer f.Close()

	scans, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", l.path, err)
	}
	return scans, nil
}

func (l *CSVLedger) Append(ctx context.Context, scan models.Scan) error {
	if err := ValidateBarcode(scan.Barcode); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("%w: open ledger: %v", ErrWriteFailed, err)
	}

	if err := appendRow(f, scan); err != nil {
		f.Close()
		return fmt.Errorf("%w: append: %v", ErrWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close ledger: %v", ErrWriteFailed, err)
	}
	return nil
}

// appendRow writes the header when the file is empty and makes sure the new
// row starts on its own line.
func appendRow(f *os.File, scan models.Scan) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(models.LedgerHeader); err != nil {
			return err
		}
	} else {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if last[0] != '\n' {
			if _, err := f.Write([]byte{'\n'}); err != nil {
				return err
			}
		}
	}

	if err := cw.Write([]string{scan.Username, scan.Barcode, scan.Timestamp}); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func (l *CSVLedger) Clear(ctx context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if username == "" {
		return l.rewrite(nil)
	}

	scans, err := l.load()
	if err != nil {
		return err
	}

	kept := make([]models.Scan, 0, len(scans))
	for _, s := range scans {
		if s.Username != username {
			kept = append(kept, s)
		}
	}
	return l.rewrite(kept)
}

func (l *CSVLedger) RewriteUsername(ctx context.Context, oldName, newName string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	scans, err := l.load()
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range scans {
		if scans[i].Username == oldName {
			scans[i].Username = newName
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}

	if err := l.rewrite(scans); err != nil {
		return 0, err
	}
	return n, nil
}

// rewrite replaces the whole file. Callers hold the write lock.
func (l *CSVLedger) rewrite(scans []models.Scan) error {
	err := writeFileAtomic(l.path, filePerm, func(w io.Writer) error {
		return EncodeCSV(w, scans)
	})
	if err != nil {
		return fmt.Errorf("%w: rewrite ledger: %v", ErrWriteFailed, err)
	}
	return nil
}
