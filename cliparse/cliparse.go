package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/models"
)

type Config struct {
	Port int

	DataDir   string
	UsersFile string
	ScansFile string

	LedgerBackend string
	DatabaseURL   string

	Timezone       string
	UploadTimezone string
	Location       *time.Location
	UploadLocation *time.Location

	CaptureSources []capture.Kind
	MaxUploadBytes int64

	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool
	BcryptCost    int
	AdminPassword string

	RedisAddr      string
	LoginRateLimit int
	TrustProxy     bool

	AMQPURL   string
	ScanQueue string

	LogLevel string
}

// SourceEnabled reports whether a capture source has a route
func (c Config) SourceEnabled(k capture.Kind) bool {
	for _, s := range c.CaptureSources {
		if s == k {
			return true
		}
	}
	return false
}

// values collects raw flag values before env fallback
type values struct {
	port, dataDir, users, scans, ledger, dbURL string
	tz, uploadTZ, sources, maxUpload           string
	secret, ttl, secure, cost                  string
	redis, loginLimit, trustProxy, amqp, queue string
	logLevel                                   string
}

// ParseFlags reads flags, falling back to environment variables and then
// defaults. CLI beats env, env beats defaults.
func ParseFlags(args []string) (Config, error) {
	var v values

	fs := flag.NewFlagSet("aplicativo-novo", flag.ContinueOnError)

	fs.StringVar(&v.port, "p", "", "Server port (PORT, default 8501)")
	fs.StringVar(&v.dataDir, "data", "", "Data directory (DATA_DIR, default data)")
	fs.StringVar(&v.users, "users", "", "Credential file (USERS_FILE, default <data>/users.json)")
	fs.StringVar(&v.scans, "scans", "", "Scan ledger CSV file (SCANS_FILE, default <data>/scans.csv)")
	fs.StringVar(&v.ledger, "ledger", "", "Ledger backend: csv, sqlite or postgres (LEDGER_BACKEND)")
	fs.StringVar(&v.dbURL, "d", "", "Database URL for sqlite/postgres ledgers (DATABASE_URL)")

	fs.StringVar(&v.tz, "tz", "", "Civil timezone for scan timestamps (SCAN_TIMEZONE)")
	fs.StringVar(&v.uploadTZ, "upload-tz", "", "Timezone for image uploads (UPLOAD_TIMEZONE, default -tz)")
	fs.StringVar(&v.sources, "capture", "", "Enabled capture sources: camera,upload (CAPTURE_SOURCES)")
	fs.StringVar(&v.maxUpload, "max-upload", "", "Largest accepted image, e.g. 10MiB (MAX_UPLOAD_BYTES)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&v.secret, "session-secret", "", "Session signing secret (SESSION_SECRET, prefer env)")
	fs.StringVar(&v.ttl, "session-ttl", "", "Session lifetime (SESSION_TTL, default 12h)")
	fs.StringVar(&v.secure, "secure-cookies", "", "Mark session cookies Secure (SECURE_COOKIES)")
	fs.StringVar(&v.cost, "bcrypt-cost", "", "bcrypt cost for new passwords (BCRYPT_COST, default 10)")

	fs.StringVar(&v.redis, "redis", "", "Redis address for shared login rate limits (REDIS_ADDR)")
	fs.StringVar(&v.loginLimit, "login-limit", "", "Login attempts per minute per client (LOGIN_RATE_LIMIT, default 5)")
	fs.StringVar(&v.trustProxy, "trust-proxy", "", "Use X-Forwarded-For for client IPs (TRUST_PROXY)")
	fs.StringVar(&v.amqp, "amqp", "", "RabbitMQ URL for scan events (AMQP_URL)")
	fs.StringVar(&v.queue, "queue", "", "Queue for scan events (SCAN_QUEUE, default scan.recorded)")

	fs.StringVar(&v.logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var cfg Config
	var err error

	if cfg.Port, err = atoi("PORT", pick(v.port, "PORT", "8501")); err != nil {
		return Config{}, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	cfg.DataDir = pick(v.dataDir, "DATA_DIR", "data")
	cfg.UsersFile = pick(v.users, "USERS_FILE", filepath.Join(cfg.DataDir, "users.json"))
	cfg.ScansFile = pick(v.scans, "SCANS_FILE", filepath.Join(cfg.DataDir, "scans.csv"))

	cfg.LedgerBackend = strings.ToLower(pick(v.ledger, "LEDGER_BACKEND", models.BackendCSV))
	cfg.DatabaseURL = pick(v.dbURL, "DATABASE_URL", "")
	switch cfg.LedgerBackend {
	case models.BackendCSV:
	case models.BackendSQLite, models.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database URL required for %s ledger (use -d or DATABASE_URL env)", cfg.LedgerBackend)
		}
	default:
		return Config{}, fmt.Errorf("unknown ledger backend %q (want csv, sqlite or postgres)", cfg.LedgerBackend)
	}

	cfg.Timezone = pick(v.tz, "SCAN_TIMEZONE", "America/Sao_Paulo")
	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.UploadTimezone = pick(v.uploadTZ, "UPLOAD_TIMEZONE", cfg.Timezone)
	if cfg.UploadLocation, err = time.LoadLocation(cfg.UploadTimezone); err != nil {
		return Config{}, fmt.Errorf("invalid upload timezone %q: %w", cfg.UploadTimezone, err)
	}

	if cfg.CaptureSources, err = capture.ParseKinds(pick(v.sources, "CAPTURE_SOURCES", "camera,upload")); err != nil {
		return Config{}, err
	}

	maxUpload, err := humanize.ParseBytes(pick(v.maxUpload, "MAX_UPLOAD_BYTES", "10MiB"))
	if err != nil || maxUpload == 0 {
		return Config{}, errors.New("invalid MAX_UPLOAD_BYTES")
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	cfg.SessionSecret = pick(v.secret, "SESSION_SECRET", "")
	if cfg.SessionTTL, err = time.ParseDuration(pick(v.ttl, "SESSION_TTL", "12h")); err != nil || cfg.SessionTTL <= 0 {
		return Config{}, errors.New("invalid SESSION_TTL")
	}
	if cfg.SecureCookies, err = parseBool("SECURE_COOKIES", pick(v.secure, "SECURE_COOKIES", "false")); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = atoi("BCRYPT_COST", pick(v.cost, "BCRYPT_COST", "10")); err != nil {
		return Config{}, err
	}

	// Never accepted on the command line
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	if len(cfg.AdminPassword) > auth.MaxPasswordLen {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD longer than %d bytes", auth.MaxPasswordLen)
	}

	cfg.RedisAddr = pick(v.redis, "REDIS_ADDR", "")
	if cfg.LoginRateLimit, err = atoi("LOGIN_RATE_LIMIT", pick(v.loginLimit, "LOGIN_RATE_LIMIT", "5")); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit < 1 {
		return Config{}, errors.New("LOGIN_RATE_LIMIT must be at least 1")
	}
	if cfg.TrustProxy, err = parseBool("TRUST_PROXY", pick(v.trustProxy, "TRUST_PROXY", "false")); err != nil {
		return Config{}, err
	}

	cfg.AMQPURL = pick(v.amqp, "AMQP_URL", "")
	cfg.ScanQueue = pick(v.queue, "SCAN_QUEUE", "scan.recorded")

	cfg.LogLevel = strings.ToLower(pick(v.logLevel, "LOG_LEVEL", "info"))

	return cfg, nil
}

// pick returns the flag value, else the env variable, else def
func pick(flagValue, env, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if e := os.Getenv(env); e != "" {
		return e
	}
	return def
}

func atoi(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return n, nil
}

func parseBool(name, s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", name, s)
	}
	return b, nil
}
