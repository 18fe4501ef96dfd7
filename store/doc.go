// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists credentials and the scan ledger.

# Credential Store

One JSON document maps usernames to {password, is_admin}:

	{
	    "admin": {
	        "password": "$2a$10$...",
	        "is_admin": true
	    }
	}

OpenCredentialStore seeds the file with an admin account when it is missing
and hashes any plaintext passwords it finds. Load never substitutes a
fallback: a missing or malformed document is reported as ErrStoreCorrupt.

# Scan Ledger

Ledger is implemented twice:

  - CSVLedger: a flat file with the header username,barcode,timestamp
  - SQLLedger: the scan table in sqlite or postgres

Both keep insertion order and accept only text that passes ValidateBarcode.
Whole-file rewrites (Clear, RewriteUsername) go through a temp file and a
rename, under the ledger's write lock.

# Errors

	ErrStoreCorrupt    unreadable or malformed file, failed query
	ErrWriteFailed     a mutation could not be persisted
	ErrInvalidBarcode  empty, non-text or sentinel-bearing payload
*/
package store
