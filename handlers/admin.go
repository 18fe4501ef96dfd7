// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/rafaelconde1/aplicativo-novo/middleware"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/service"
)

// AdminHandler serves the administrator dashboard. Every route is wrapped
// in RequireAdmin by the router.
type AdminHandler struct {
	svc *service.Service
}

func NewAdminHandler(svc *service.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// Summary handles GET /admin/summary
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.AggregateCounts(r.Context())
	if err != nil {
		writeError(w, err, "Failed to compute summary")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}

// Scans handles GET /admin/scans?user=
func (h *AdminHandler) Scans(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("user")

	scans, err := h.svc.AllScans(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Failed to load scans")
		return
	}
	users, err := h.svc.UsersWithScans(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load scans")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AdminScanListResponse{
		Scans:          scans,
		Count:          len(scans),
		Filter:         filter,
		UsersWithScans: users,
	})
}

// Export handles GET /admin/scans/export?user=
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("user")

	scans, err := h.svc.AllScans(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Failed to load scans")
		return
	}

	attachment(w, service.ExportFilename(filter))
	if err := h.svc.ExportCSV(w, scans); err != nil {
		slog.Error("failed to write export", "filter", filter, "error", err)
	}
}

// Clear handles DELETE /admin/scans?user=. Without user every row goes.
func (h *AdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("user")

	if err := h.svc.ClearScans(r.Context(), middleware.IdentityFrom(r.Context()), username); err != nil {
		writeError(w, err, "Failed to clear scans")
		return
	}

	message := "All scans were cleared"
	if username != "" {
		message = "Scans of " + username + " were cleared"
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: message})
}

// Users handles GET /admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, err, "Failed to list users")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.UserListResponse{Users: users})
}

// AddUser handles POST /admin/users
func (h *AdminHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req models.AddUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.AddUser(r.Context(), req.Username, req.Password, req.IsAdmin); err != nil {
		writeError(w, err, "Failed to add user")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.UserInfo{Username: req.Username, IsAdmin: req.IsAdmin})
}

// RenameUser handles POST /admin/users/{username}/rename
func (h *AdminHandler) RenameUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var req models.RenameUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.RenameUser(r.Context(), username, req.NewUsername); err != nil {
		writeError(w, err, "Failed to rename user")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: "User " + username + " renamed to " + req.NewUsername,
	})
}

// ChangePassword handles POST /admin/users/{username}/password
func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var req models.ChangePasswordRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), username, req.Password); err != nil {
		writeError(w, err, "Failed to change password")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Password changed"})
}

// DeleteUser handles DELETE /admin/users/{username}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	if err := h.svc.DeleteUser(r.Context(), username); err != nil {
		writeError(w, err, "Failed to delete user")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "User " + username + " deleted"})
}
