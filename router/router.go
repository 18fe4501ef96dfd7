// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/cliparse"
	"github.com/rafaelconde1/aplicativo-novo/handlers"
	"github.com/rafaelconde1/aplicativo-novo/middleware"
	"github.com/rafaelconde1/aplicativo-novo/service"
)

func NewRouter(svc *service.Service, tokens *auth.Sessions, limiter middleware.Limiter, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc, tokens)
	scanHandler := handlers.NewScanHandler(svc, cfg)
	adminHandler := handlers.NewAdminHandler(svc)

	sessions := middleware.NewSessions(tokens, svc)
	limitLogin := middleware.RateLimit(limiter, cfg.SessionSecret, cfg.TrustProxy)

	// Health check
	mux.HandleFunc("GET /health", authHandler.Health)

	// Session
	mux.HandleFunc("POST /login", middleware.WithLogging(limitLogin(authHandler.Login)))
	mux.HandleFunc("POST /logout", middleware.WithLogging(authHandler.Logout))
	mux.HandleFunc("GET /me", middleware.WithLogging(sessions.RequireSession(authHandler.Me)))

	// Capture sources, each only when enabled
	if cfg.SourceEnabled(capture.CameraWidget) {
		mux.HandleFunc("POST /scans", middleware.WithLogging(sessions.RequireSession(scanHandler.RecordWidget)))
	}
	if cfg.SourceEnabled(capture.ImageUpload) {
		mux.HandleFunc("POST /scans/upload", middleware.WithLogging(sessions.RequireSession(scanHandler.RecordUpload)))
	}

	// Own scans (any logged-in user)
	mux.HandleFunc("GET /scans/mine", middleware.WithLogging(sessions.RequireSession(scanHandler.Mine)))
	mux.HandleFunc("GET /scans/mine/export", middleware.WithLogging(sessions.RequireSession(scanHandler.ExportMine)))
	mux.HandleFunc("DELETE /scans/mine", middleware.WithLogging(sessions.RequireSession(scanHandler.ClearMine)))

	// Administrator dashboard
	mux.HandleFunc("GET /admin/summary", middleware.WithLogging(sessions.RequireAdmin(adminHandler.Summary)))
	mux.HandleFunc("GET /admin/scans", middleware.WithLogging(sessions.RequireAdmin(adminHandler.Scans)))
	mux.HandleFunc("GET /admin/scans/export", middleware.WithLogging(sessions.RequireAdmin(adminHandler.Export)))
	mux.HandleFunc("DELETE /admin/scans", middleware.WithLogging(sessions.RequireAdmin(adminHandler.Clear)))

	// User administration
	mux.HandleFunc("GET /admin/users", middleware.WithLogging(sessions.RequireAdmin(adminHandler.Users)))
	mux.HandleFunc("POST /admin/users", middleware.WithLogging(sessions.RequireAdmin(adminHandler.AddUser)))
	mux.HandleFunc("POST /admin/users/{username}/rename", middleware.WithLogging(sessions.RequireAdmin(adminHandler.RenameUser)))
	mux.HandleFunc("POST /admin/users/{username}/password", middleware.WithLogging(sessions.RequireAdmin(adminHandler.ChangePassword)))
	mux.HandleFunc("DELETE /admin/users/{username}", middleware.WithLogging(sessions.RequireAdmin(adminHandler.DeleteUser)))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("aplicativo-novo API v1"))
	})

	return mux
}
