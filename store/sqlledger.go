// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rafaelconde1/aplicativo-novo/db"
	"github.com/rafaelconde1/aplicativo-novo/models"
)

// SQLLedger stores scans in the scan table. Ordering by id reproduces
// insertion order.
type SQLLedger struct {
	conn    *sql.DB
	backend string
}

// NewSQLLedger uses an open connection whose schema has been created with
// db.CreateSchema
func NewSQLLedger(conn *sql.DB, backend string) *SQLLedger {
	return &SQLLedger{conn: conn, backend: backend}
}

func (l *SQLLedger) q(query string) string {
	return db.Rebind(l.backend, query)
}

func (l *SQLLedger) Load(ctx context.Context) ([]models.Scan, error) {
	rows, err := l.conn.QueryContext(ctx, `
		SELECT username, barcode, timestamp
		FROM scan
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query scans: %v", ErrStoreCorrupt, err)
	}
	defer rows.Close()

	scans := []models.Scan{}
	for rows.Next() {
		var s models.Scan
		if err := rows.Scan(&s.Username, &s.Barcode, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", ErrStoreCorrupt, err)
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate scans: %v", ErrStoreCorrupt, err)
	}

	return scans, nil
}

func (l *SQLLedger) Append(ctx context.Context, scan models.Scan) error {
	if err := ValidateBarcode(scan.Barcode); err != nil {
		return err
	}

	_, err := l.conn.ExecContext(ctx, l.q(`
		INSERT INTO scan (username, barcode, timestamp)
		VALUES (?, ?, ?)
	`), scan.Username, scan.Barcode, scan.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: insert scan: %v", ErrWriteFailed, err)
	}
	return nil
}

func (l *SQLLedger) Clear(ctx context.Context, username string) error {
	tx, err := l.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWriteFailed, err)
	}
	defer tx.Rollback()

	if username == "" {
		_, err = tx.ExecContext(ctx, `DELETE FROM scan`)
	} else {
		_, err = tx.ExecContext(ctx, l.q(`DELETE FROM scan WHERE username = ?`), username)
	}
	if err != nil {
		return fmt.Errorf("%w: delete scans: %v", ErrWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrWriteFailed, err)
	}
	return nil
}

func (l *SQLLedger) RewriteUsername(ctx context.Context, oldName, newName string) (int, error) {
	tx, err := l.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrWriteFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, l.q(`UPDATE scan SET username = ? WHERE username = ?`), newName, oldName)
	if err != nil {
		return 0, fmt.Errorf("%w: rename scans: %v", ErrWriteFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", ErrWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrWriteFailed, err)
	}
	return int(n), nil
}
