// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/cliparse"
	"github.com/rafaelconde1/aplicativo-novo/events"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/service"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

// AdminPassword is the seeded password of the admin account in test services
const AdminPassword = "admin-pw"

// Env is a service backed by files in a temporary directory
type Env struct {
	Service  *service.Service
	Sessions *auth.Sessions
	Users    *store.CredentialStore
	Ledger   *store.CSVLedger
	Events   *events.Collector
	Config   cliparse.Config
}

// GetTestConfig returns a configuration that needs no environment
func GetTestConfig(dir string) cliparse.Config {
	return cliparse.Config{
		Port:           8501,
		DataDir:        dir,
		UsersFile:      filepath.Join(dir, "users.json"),
		ScansFile:      filepath.Join(dir, "scans.csv"),
		LedgerBackend:  models.BackendCSV,
		Timezone:       "UTC",
		UploadTimezone: "UTC",
		Location:       time.UTC,
		UploadLocation: time.UTC,
		CaptureSources: []capture.Kind{capture.CameraWidget, capture.ImageUpload},
		MaxUploadBytes: 1 << 20,
		SessionSecret:  "test-session-secret",
		SessionTTL:     time.Hour,
		BcryptCost:     4,
		AdminPassword:  AdminPassword,
		LoginRateLimit: 5,
		ScanQueue:      "scan.recorded",
		LogLevel:       "error",
	}
}

// NewTestService creates stores in t.TempDir and a service over them.
// The credential store starts with the admin account only.
func NewTestService(t *testing.T) *Env {
	t.Helper()
	return NewTestServiceWithConfig(t, GetTestConfig(t.TempDir()))
}

func NewTestServiceWithConfig(t *testing.T, cfg cliparse.Config) *Env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users, err := store.OpenCredentialStore(cfg.UsersFile,
		store.SeedOptions{AdminPassword: cfg.AdminPassword, BcryptCost: cfg.BcryptCost}, logger)
	if err != nil {
		t.Fatalf("Failed to open credential store: %v", err)
	}

	ledger, err := store.NewCSVLedger(cfg.ScansFile)
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}

	collector := &events.Collector{}
	svc := service.New(users, ledger, service.Config{
		Location:         cfg.Location,
		SourceLocations:  map[capture.Kind]*time.Location{capture.ImageUpload: cfg.UploadLocation},
		RecoveryPassword: cfg.AdminPassword,
		Publisher:        collector,
		Logger:           logger,
	})

	return &Env{
		Service:  svc,
		Sessions: auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies),
		Users:    users,
		Ledger:   ledger,
		Events:   collector,
		Config:   cfg,
	}
}

// CreateTestUser adds an account through the service
func (e *Env) CreateTestUser(t *testing.T, username, password string, isAdmin bool) models.Identity {
	t.Helper()
	if err := e.Service.AddUser(context.Background(), username, password, isAdmin); err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return models.Identity{Username: username, IsAdmin: isAdmin}
}

// RecordTestScan appends a camera scan for id
func (e *Env) RecordTestScan(t *testing.T, id models.Identity, barcode string) models.Scan {
	t.Helper()
	scan, err := e.Service.Record(context.Background(), id, capture.Decoded{Kind: capture.CameraWidget, Text: barcode})
	if err != nil {
		t.Fatalf("Failed to record scan: %v", err)
	}
	return scan
}

// LoginCookie returns a valid session cookie for id without going through /login
func (e *Env) LoginCookie(t *testing.T, id models.Identity) *http.Cookie {
	t.Helper()
	token, session, err := e.Sessions.Issue(id)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	return e.Sessions.Cookie(token, session.ExpiresAt)
}

// AdminIdentity is the seeded administrator
func AdminIdentity() models.Identity {
	return models.Identity{Username: store.PrincipalAdmin, IsAdmin: true}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeUploadRequest creates a multipart request with data in the given field
func MakeUploadRequest(path, field, filename string, data []byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile(field, filename)
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// QRCodePNG renders text as a PNG QR code
func QRCodePNG(t *testing.T, text string) []byte {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	if err != nil {
		t.Fatalf("Failed to encode QR code: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, matrix); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

// WithCookie attaches c to req and returns it
func WithCookie(req *http.Request, c *http.Cookie) *http.Request {
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
