// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/rafaelconde1/aplicativo-novo/models"
)

// driverName maps a ledger backend to its database/sql driver
func driverName(backend string) (string, error) {
	switch backend {
	case models.BackendSQLite:
		return "sqlite", nil
	case models.BackendPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database backend %q", backend)
	}
}

// Open connects to the database for the given backend and verifies the
// connection with a ping.
func Open(backend, url string) (*sql.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY
	if backend == models.BackendSQLite {
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}

// CreateSchema creates the scan table for the backend.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(conn *sql.DB, backend string) error {
	var ddl string
	switch backend {
	case models.BackendSQLite:
		ddl = sqliteSchema
	case models.BackendPostgres:
		ddl = postgresSchema
	default:
		return fmt.Errorf("unsupported database backend %q", backend)
	}

	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Rebind rewrites ? placeholders into the numbered form postgres expects.
// Queries for other backends are returned unchanged.
func Rebind(backend, query string) string {
	if backend != models.BackendPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Row order is insertion order, so id doubles as the ledger position.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scan (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    barcode TEXT NOT NULL,
    timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_username ON scan(username);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scan (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    barcode TEXT NOT NULL,
    timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_username ON scan(username);
`
