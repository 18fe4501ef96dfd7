package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/rafaelconde1/aplicativo-novo/admincli"
	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/cliparse"
	"github.com/rafaelconde1/aplicativo-novo/db"
	"github.com/rafaelconde1/aplicativo-novo/events"
	"github.com/rafaelconde1/aplicativo-novo/middleware"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/router"
	"github.com/rafaelconde1/aplicativo-novo/service"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

func main() {
	// A missing .env is fine; settings may come from the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	// Offline password reset
	if len(os.Args) > 1 && os.Args[1] == "passwd" {
		cfg, err := cliparse.ParseFlags(nil)
		if err != nil {
			slog.Error("Error parsing configuration", "error", err)
			os.Exit(1)
		}
		if err := admincli.Passwd(os.Args[2:], cfg, os.Stdout, newLogger(cfg)); err != nil {
			slog.Error("passwd failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Credential store
	users, err := store.OpenCredentialStore(cfg.UsersFile,
		store.SeedOptions{AdminPassword: cfg.AdminPassword, BcryptCost: cfg.BcryptCost}, logger)
	if err != nil {
		slog.Error("credential store failed", "error", err)
		os.Exit(1)
	}

	// Scan ledger
	ledger, closeLedger, err := openLedger(cfg)
	if err != nil {
		slog.Error("ledger failed", "backend", cfg.LedgerBackend, "error", err)
		os.Exit(1)
	}
	defer closeLedger()

	// Scan events
	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.ScanQueue, logger)
		if err != nil {
			slog.Error("rabbitmq connection failed", "error", err)
			os.Exit(1)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		slog.Info("Publishing scan events", "queue", cfg.ScanQueue)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Login rate limit, shared through Redis when configured
	var limiter middleware.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			slog.Error("redis ping failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		limiter = middleware.NewRedisLimiter(rdb, "login:", cfg.LoginRateLimit, time.Minute)
	} else {
		memory := middleware.NewMemoryLimiter(cfg.LoginRateLimit, time.Minute)
		memory.StartSweeper(ctx, 5*time.Minute)
		limiter = memory
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret, err = auth.GenerateSecret(32)
		if err != nil {
			slog.Error("session secret generation failed", "error", err)
			os.Exit(1)
		}
		slog.Warn("SESSION_SECRET not set; sessions end when the server restarts")
	}

	svc := service.New(users, ledger, service.Config{
		Location:         cfg.Location,
		SourceLocations:  map[capture.Kind]*time.Location{capture.ImageUpload: cfg.UploadLocation},
		RecoveryPassword: cfg.AdminPassword,
		Publisher:        publisher,
		Logger:           logger,
	})
	tokens := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies)

	// Create router
	mux := router.NewRouter(svc, tokens, limiter, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	sources := make([]string, 0, len(cfg.CaptureSources))
	for _, k := range cfg.CaptureSources {
		sources = append(sources, k.String())
	}

	// Start server
	slog.Info("Listening",
		"port", cfg.Port,
		"ledger", cfg.LedgerBackend,
		"ledger_size", ledgerSize(cfg),
		"timezone", cfg.Timezone,
		"upload_timezone", cfg.UploadTimezone,
		"capture", strings.Join(sources, ","),
		"max_upload", humanize.IBytes(uint64(cfg.MaxUploadBytes)),
		"session_ttl", cfg.SessionTTL.String(),
	)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

func newLogger(cfg cliparse.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func openLedger(cfg cliparse.Config) (store.Ledger, func(), error) {
	if cfg.LedgerBackend == models.BackendCSV {
		l, err := store.NewCSVLedger(cfg.ScansFile)
		return l, func() {}, err
	}

	conn, err := db.Open(cfg.LedgerBackend, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.CreateSchema(conn, cfg.LedgerBackend); err != nil {
		conn.Close()
		return nil, nil, err
	}
	slog.Info("Database schema ready", "backend", cfg.LedgerBackend)
	return store.NewSQLLedger(conn, cfg.LedgerBackend), func() { conn.Close() }, nil
}

// ledgerSize describes the CSV ledger for the startup log
func ledgerSize(cfg cliparse.Config) string {
	if cfg.LedgerBackend != models.BackendCSV {
		return "n/a"
	}
	info, err := os.Stat(cfg.ScansFile)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(uint64(info.Size()))
}
