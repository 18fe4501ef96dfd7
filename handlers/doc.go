// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the scanning API.

# Handler Types

  - AuthHandler: login, logout, current identity, health
  - ScanHandler: recording from the camera widget or an uploaded image,
    listing, exporting and clearing the caller's own scans
  - AdminHandler: dashboard summary, ledger browsing and export, clearing,
    and user administration

	authHandler := handlers.NewAuthHandler(svc, tokens)
	scanHandler := handlers.NewScanHandler(svc, cfg)
	adminHandler := handlers.NewAdminHandler(svc)

Handlers read the caller from middleware.IdentityFrom, so session-scoped
routes must be wrapped in RequireSession or RequireAdmin.

# Capture

	POST /scans         → RecordWidget ({barcode, timestamp} from the browser)
	POST /scans/upload  → RecordUpload (multipart field "image")

Both end in Service.Record. Capture failures carry a readable reason:
400 for unusable input, 413 for oversized images, 422 when the image holds
no barcode.

# Errors

Service errors map onto status codes:

	ErrValidation                       400
	ErrInvalidCredentials               401
	ErrForbidden                        403
	ErrUserNotFound                     404
	ErrUserExists, ErrLastAdmin,
	ErrProtectedUser                    409
	ErrCascadeIncomplete                500 (user deleted, scans kept)
	store.ErrStoreCorrupt               503

# Exports

CSV downloads use the ledger format with Content-Disposition set to
my_scans.csv, scans_<user>.csv or scans_all.csv.
*/
package handlers
