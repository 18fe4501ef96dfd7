// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package service implements authentication, scan recording, reporting and
user administration on top of the credential store and the scan ledger.

	loc, _ := time.LoadLocation("America/Sao_Paulo")
	svc := service.New(users, ledger, service.Config{
		Location:  loc,
		Publisher: publisher,
	})

	id, err := svc.Authenticate(ctx, "maria", password)
	scan, err := svc.Record(ctx, id, decoded)
	summary, err := svc.AggregateCounts(ctx)

# Timestamps

Scans are stamped with the current time in the civil timezone of their
capture source (Config.SourceLocations, falling back to Config.Location),
formatted as 2006-01-02 15:04:05. "Today" in AggregateCounts is computed in
Config.Location.

# Concurrency

Every mutation of either store runs under one mutex. Renames and deletes
update the credential store first and then the ledger; a failed rename
rewrite restores the old credentials, a failed delete cascade is reported as
ErrCascadeIncomplete.

# Errors

	ErrValidation          bad input, nothing written
	ErrInvalidCredentials  unknown user or wrong password (indistinguishable)
	ErrIdentityStale       session user no longer exists
	ErrUserExists, ErrUserNotFound, ErrLastAdmin, ErrProtectedUser, ErrForbidden
	ErrCascadeIncomplete   user deleted, scans left behind

Store failures come back wrapping store.ErrStoreCorrupt or store.ErrWriteFailed.
*/
package service
