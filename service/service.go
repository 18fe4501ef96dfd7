// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/events"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

// Config holds the policies the service applies on top of the stores
type Config struct {
	// Location is the civil timezone used to stamp scans and count "today"
	Location *time.Location
	// SourceLocations overrides Location for individual capture sources
	SourceLocations map[capture.Kind]*time.Location
	// RecoveryPassword lets the principal admin log in while the credential
	// store is unreadable. Empty disables recovery.
	RecoveryPassword string

	Publisher events.Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service is the core of the application: authentication, recording and
// reporting over the credential store and the scan ledger.
//
// All mutations of either store go through mu, so a rename or delete cascade
// never interleaves with an append.
type Service struct {
	users  *store.CredentialStore
	ledger store.Ledger
	cfg    Config
	logger *slog.Logger

	mu sync.Mutex
}

func New(users *store.CredentialStore, ledger store.Ledger, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		users:  users,
		ledger: ledger,
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Location returns the civil timezone used for reporting
func (s *Service) Location() *time.Location {
	return s.cfg.Location
}

func (s *Service) locationFor(kind capture.Kind) *time.Location {
	if loc, ok := s.cfg.SourceLocations[kind]; ok && loc != nil {
		return loc
	}
	return s.cfg.Location
}
