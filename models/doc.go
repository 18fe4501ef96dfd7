// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - UserRecord: the JSON value stored per username (password hash, admin flag)
  - User: a credential record with its username attached
  - Scan: one ledger row (username, barcode, timestamp)
  - Identity: username and admin flag of an authenticated session
  - Session: per-request session context with an explicit Reset
  - Summary / UserCount: dashboard aggregates

Scan timestamps are kept as raw text so that a ledger always round-trips
byte for byte. Scan.Time parses them on demand:

	t, ok := scan.Time(loc)

# Request Types

  - LoginRequest: username, password
  - WidgetScanRequest: barcode, timestamp (from the browser scanner)
  - AddUserRequest, RenameUserRequest, ChangePasswordRequest

# Response Types

  - LoginResponse, RecordScanResponse, ScanListResponse,
    AdminScanListResponse, UserListResponse, MessageResponse
  - ErrorResponse: error, message

# Constants

	TimestampLayout = "2006-01-02 15:04:05"
	LedgerHeader    = username,barcode,timestamp

Ledger backends:

	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
*/
package models
