// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/events"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

// flakyLedger fails the selected operations and delegates everything else
type flakyLedger struct {
	store.Ledger
	failClear   bool
	failRewrite bool
}

var errDisk = errors.New("disk on fire")

func (f *flakyLedger) Clear(ctx context.Context, username string) error {
	if f.failClear {
		return errDisk
	}
	return f.Ledger.Clear(ctx, username)
}

func (f *flakyLedger) RewriteUsername(ctx context.Context, oldName, newName string) (int, error) {
	if f.failRewrite {
		return 0, errDisk
	}
	return f.Ledger.RewriteUsername(ctx, oldName, newName)
}

type fixture struct {
	svc       *Service
	users     *store.CredentialStore
	ledger    *flakyLedger
	published *events.Collector
	now       time.Time
	loc       *time.Location
	dir       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	users, err := store.OpenCredentialStore(filepath.Join(dir, "users.json"),
		store.SeedOptions{AdminPassword: "admin-pw", BcryptCost: 4}, logger)
	require.NoError(t, err)

	csv, err := store.NewCSVLedger(filepath.Join(dir, "scans.csv"))
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	f := &fixture{
		users:     users,
		ledger:    &flakyLedger{Ledger: csv},
		published: &events.Collector{},
		// 02:30 UTC is still the previous day in Sao Paulo
		now: time.Date(2025, 4, 2, 2, 30, 15, 0, time.UTC),
		loc: loc,
		dir: dir,
	}
	f.svc = New(users, f.ledger, Config{
		Location:         loc,
		RecoveryPassword: "",
		Publisher:        f.published,
		Logger:           logger,
		Now:              func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) addUser(t *testing.T, name, password string, admin bool) models.Identity {
	t.Helper()
	require.NoError(t, f.svc.AddUser(context.Background(), name, password, admin))
	return models.Identity{Username: name, IsAdmin: admin}
}

func (f *fixture) record(t *testing.T, id models.Identity, text string) models.Scan {
	t.Helper()
	scan, err := f.svc.Record(context.Background(), id, capture.Decoded{Kind: capture.CameraWidget, Text: text})
	require.NoError(t, err)
	return scan
}
