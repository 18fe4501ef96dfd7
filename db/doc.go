// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the SQL ledger database and creates its schema.

# Backends

Two backends are registered:

  - sqlite: modernc.org/sqlite, pure Go, single connection
  - postgres: github.com/lib/pq

	conn, err := db.Open(models.BackendPostgres, "postgres://...")
	if err := db.CreateSchema(conn, models.BackendPostgres); err != nil {
		log.Fatal(err)
	}

CreateSchema is safe to call multiple times - uses IF NOT EXISTS.

# Tables

	scan(id, username, barcode, timestamp)

id is auto-incrementing; ordering by id reproduces the order in which scans
were appended. timestamp is kept as text so that exports round-trip exactly.
An index on username backs the per-user queries.

# Placeholders

Queries are written with ? placeholders and passed through Rebind, which
numbers them ($1, $2, ...) for postgres.
*/
package db
