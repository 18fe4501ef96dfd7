// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the barcode scanning server.

Operators log in, scan product or lot barcodes with the camera widget or by
uploading a photo, and every decoded code is appended to a shared ledger
with the operator's name and the local time. Administrators review counts,
filter and export the ledger as CSV, and manage accounts.

# Starting the Server

Everything has a default, so a bare start serves a CSV ledger under ./data:

	go run .

Or with flags:

	go run . -p 8501 -tz America/Sao_Paulo -ledger sqlite -d "file:data/scans.db"

Settings can also live in a .env file next to the binary.

On the first start the credential file is created with an "admin" account.
Its password is ADMIN_PASSWORD, or a generated one printed once in the log.

# Resetting a Password

	go run . passwd [-admin] [-reset] <username>

# Configuration

See package cliparse. The most used settings:

  - DATA_DIR: where users.json and scans.csv live (default: data)
  - LEDGER_BACKEND, DATABASE_URL: csv, sqlite or postgres ledger
  - SCAN_TIMEZONE: civil timezone of scan timestamps
  - CAPTURE_SOURCES: camera, upload, or both
  - SESSION_SECRET: keeps sessions valid across restarts
  - REDIS_ADDR: share login rate limits between replicas
  - AMQP_URL: publish a message per recorded scan

# Architecture

  - handlers: HTTP request handlers (auth, scans, admin)
  - router: Route definitions using Go 1.22+ routing
  - middleware: sessions, rate limiting, CORS, logging, JSON helpers
  - service: authentication, recording, reporting and user administration
  - store: credential file and scan ledger (CSV or SQL)
  - capture: camera widget payloads and image barcode decoding
  - events: scan event publishing
  - auth: password hashing and session tokens
  - db: SQL connections and schema creation
  - admincli: offline passwd command
  - cliparse: Configuration parsing
*/
package main
