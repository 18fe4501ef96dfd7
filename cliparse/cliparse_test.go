package cliparse

import (
	"strings"
	"testing"
	"time"

	"github.com/rafaelconde1/aplicativo-novo/capture"
)

// clearEnv blanks every variable ParseFlags reads so host settings don't leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "DATA_DIR", "USERS_FILE", "SCANS_FILE", "LEDGER_BACKEND", "DATABASE_URL",
		"SCAN_TIMEZONE", "UPLOAD_TIMEZONE", "CAPTURE_SOURCES", "MAX_UPLOAD_BYTES",
		"SESSION_SECRET", "SESSION_TTL", "SECURE_COOKIES", "BCRYPT_COST", "ADMIN_PASSWORD",
		"REDIS_ADDR", "LOGIN_RATE_LIMIT", "TRUST_PROXY", "AMQP_URL", "SCAN_QUEUE", "LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8501 {
		t.Errorf("expected port 8501, got %d", cfg.Port)
	}
	if cfg.LedgerBackend != "csv" {
		t.Errorf("expected csv ledger, got %q", cfg.LedgerBackend)
	}
	if cfg.UsersFile != "data/users.json" || cfg.ScansFile != "data/scans.csv" {
		t.Errorf("unexpected file paths: %q %q", cfg.UsersFile, cfg.ScansFile)
	}
	if cfg.Location.String() != "America/Sao_Paulo" {
		t.Errorf("expected America/Sao_Paulo, got %s", cfg.Location)
	}
	if cfg.UploadLocation.String() != "America/Sao_Paulo" {
		t.Errorf("upload timezone should follow -tz, got %s", cfg.UploadLocation)
	}
	if !cfg.SourceEnabled(capture.CameraWidget) || !cfg.SourceEnabled(capture.ImageUpload) {
		t.Errorf("both capture sources should be enabled, got %v", cfg.CaptureSources)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("expected 10MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("expected 12h session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.BcryptCost != 10 || cfg.LoginRateLimit != 5 {
		t.Errorf("unexpected cost/limit: %d %d", cfg.BcryptCost, cfg.LoginRateLimit)
	}
	if cfg.SecureCookies || cfg.TrustProxy {
		t.Error("secure cookies and proxy trust should default off")
	}
	if cfg.ScanQueue != "scan.recorded" || cfg.LogLevel != "info" {
		t.Errorf("unexpected queue/log level: %q %q", cfg.ScanQueue, cfg.LogLevel)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_DIR", "/srv/scans")
	t.Setenv("LEDGER_BACKEND", "SQLite")
	t.Setenv("DATABASE_URL", "file:scans.db")
	t.Setenv("UPLOAD_TIMEZONE", "UTC")
	t.Setenv("CAPTURE_SOURCES", "camera")
	t.Setenv("MAX_UPLOAD_BYTES", "2MB")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.UsersFile != "/srv/scans/users.json" {
		t.Errorf("users file should live in DATA_DIR, got %q", cfg.UsersFile)
	}
	if cfg.LedgerBackend != "sqlite" || cfg.DatabaseURL != "file:scans.db" {
		t.Errorf("unexpected ledger: %q %q", cfg.LedgerBackend, cfg.DatabaseURL)
	}
	if cfg.UploadLocation != time.UTC {
		t.Errorf("expected UTC upload location, got %s", cfg.UploadLocation)
	}
	if cfg.SourceEnabled(capture.ImageUpload) {
		t.Error("upload source should be disabled")
	}
	if cfg.MaxUploadBytes != 2_000_000 {
		t.Errorf("expected 2MB, got %d", cfg.MaxUploadBytes)
	}
	if cfg.AdminPassword != "s3cret" || !cfg.TrustProxy {
		t.Error("env values not applied")
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SCAN_TIMEZONE", "Europe/Lisbon")

	cfg, err := ParseFlags([]string{"-p", "8080", "-tz", "UTC", "-session-ttl", "30m", "-capture", "upload"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.Location != time.UTC {
		t.Errorf("CLI should override env: expected UTC, got %s", cfg.Location)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m, got %s", cfg.SessionTTL)
	}
	if cfg.SourceEnabled(capture.CameraWidget) || !cfg.SourceEnabled(capture.ImageUpload) {
		t.Errorf("expected upload only, got %v", cfg.CaptureSources)
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown backend", args: []string{"-ledger", "mongo"}, wantErr: "unknown ledger backend"},
		{name: "sql without url", args: []string{"-ledger", "postgres"}, wantErr: "database URL required"},
		{name: "bad timezone", args: []string{"-tz", "Mars/Olympus"}, wantErr: "invalid timezone"},
		{name: "bad upload timezone", env: map[string]string{"UPLOAD_TIMEZONE": "Nowhere"}, wantErr: "invalid upload timezone"},
		{name: "bad capture", args: []string{"-capture", "fax"}, wantErr: "fax"},
		{name: "bad port", args: []string{"-p", "http"}, wantErr: "invalid PORT"},
		{name: "port out of range", args: []string{"-p", "70000"}, wantErr: "invalid port"},
		{name: "bad ttl", args: []string{"-session-ttl", "forever"}, wantErr: "SESSION_TTL"},
		{name: "bad bool", env: map[string]string{"SECURE_COOKIES": "sometimes"}, wantErr: "SECURE_COOKIES"},
		{name: "zero login limit", args: []string{"-login-limit", "0"}, wantErr: "LOGIN_RATE_LIMIT"},
		{name: "bad upload size", args: []string{"-max-upload", "lots"}, wantErr: "MAX_UPLOAD_BYTES"},
		{name: "admin password too long", env: map[string]string{"ADMIN_PASSWORD": strings.Repeat("x", 73)}, wantErr: "ADMIN_PASSWORD"},
		{name: "unknown flag", args: []string{"-admin-salt", "x"}, wantErr: "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := ParseFlags(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
