// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/models"
)

// PrincipalAdmin is the account created on first start
const PrincipalAdmin = "admin"

// SeedOptions controls the document written when no credential file exists
type SeedOptions struct {
	// AdminPassword is the initial password of PrincipalAdmin. A random one
	// is generated and logged once when empty.
	AdminPassword string
	BcryptCost    int
}

// CredentialStore persists username -> {password, is_admin} as one JSON
// document. Every read re-parses the file; every write replaces it.
type CredentialStore struct {
	path   string
	cost   int
	logger *slog.Logger
	mu     sync.RWMutex
}

// OpenCredentialStore prepares the store at path. A missing file is seeded
// with PrincipalAdmin; plaintext passwords left by older versions are hashed.
// A corrupt file is logged but does not fail the open, so the caller can
// still apply its recovery policy.
func OpenCredentialStore(path string, seed SeedOptions, logger *slog.Logger) (*CredentialStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create credential directory: %v", ErrWriteFailed, err)
	}

	s := &CredentialStore{path: path, cost: seed.BcryptCost, logger: logger}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.seed(seed.AdminPassword); err != nil {
			return nil, err
		}
		return s, nil
	}

	if err := s.migrate(); err != nil {
		if errors.Is(err, ErrStoreCorrupt) {
			logger.Error("credential store unreadable", "path", path, "error", err)
			return s, nil
		}
		return nil, err
	}

	return s, nil
}

func (s *CredentialStore) seed(password string) error {
	if password == "" {
		generated, err := auth.GenerateSecret(12)
		if err != nil {
			return err
		}
		password = generated
		s.logger.Warn("created credential store with generated admin password; change it after first login",
			"path", s.path, "username", PrincipalAdmin, "password", password)
	} else {
		s.logger.Info("created credential store", "path", s.path, "username", PrincipalAdmin)
	}

	hash, err := auth.HashPassword(password, s.cost)
	if err != nil {
		return fmt.Errorf("%w: hash seed password: %v", ErrWriteFailed, err)
	}

	return s.Save(map[string]models.UserRecord{
		PrincipalAdmin: {Password: hash, IsAdmin: true},
	})
}

// migrate replaces plaintext passwords with bcrypt hashes. Entries bcrypt
// cannot hash stay plaintext; they still verify in constant time.
func (s *CredentialStore) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}

	migrated := 0
	for name, rec := range users {
		if auth.IsHash(rec.Password) {
			continue
		}
		hash, err := auth.HashPassword(rec.Password, s.cost)
		if err != nil {
			s.logger.Warn("left plaintext password unhashed; set a shorter one",
				"path", s.path, "username", name, "error", err)
			continue
		}
		rec.Password = hash
		users[name] = rec
		migrated++
	}
	if migrated == 0 {
		return nil
	}

	if err := s.save(users); err != nil {
		return err
	}
	s.logger.Info("hashed plaintext passwords", "path", s.path, "count", migrated)
	return nil
}

// Path returns the credential file location
func (s *CredentialStore) Path() string {
	return s.path
}

// HashPassword hashes plain with the store's bcrypt cost
func (s *CredentialStore) HashPassword(plain string) (string, error) {
	return auth.HashPassword(plain, s.cost)
}

// Load reads the whole document. A missing, unreadable or malformed file
// returns an error wrapping ErrStoreCorrupt; no fallback is substituted.
func (s *CredentialStore) Load() (map[string]models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

func (s *CredentialStore) load() (map[string]models.UserRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreCorrupt, s.path, err)
	}

	var users map[string]models.UserRecord
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStoreCorrupt, s.path, err)
	}
	if users == nil {
		return nil, fmt.Errorf("%w: %s holds no user mapping", ErrStoreCorrupt, s.path)
	}
	return users, nil
}

// Save replaces the whole document, pretty-printed
func (s *CredentialStore) Save(users map[string]models.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(users)
}

func (s *CredentialStore) save(users map[string]models.UserRecord) error {
	err := writeFileAtomic(s.path, 0o600, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		enc.SetEscapeHTML(false)
		return enc.Encode(users)
	})
	if err != nil {
		return fmt.Errorf("%w: save credentials: %v", ErrWriteFailed, err)
	}
	return nil
}

// Get looks up one user
func (s *CredentialStore) Get(username string) (models.User, bool, error) {
	users, err := s.Load()
	if err != nil {
		return models.User{}, false, err
	}
	rec, ok := users[username]
	if !ok {
		return models.User{}, false, nil
	}
	return models.User{Username: username, PasswordHash: rec.Password, IsAdmin: rec.IsAdmin}, true, nil
}

// Users returns every user sorted by username
func (s *CredentialStore) Users() ([]models.User, error) {
	users, err := s.Load()
	if err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(users))
	for name, rec := range users {
		out = append(out, models.User{Username: name, PasswordHash: rec.Password, IsAdmin: rec.IsAdmin})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
