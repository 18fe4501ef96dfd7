// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/middleware"
	"github.com/rafaelconde1/aplicativo-novo/service"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

// writeError maps service and store errors onto status codes. Anything not
// recognised is logged and answered with 500 and fallback.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var cerr *capture.Error
	switch {
	case errors.As(err, &cerr):
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, capture.ErrNoBarcode):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, capture.ErrImageTooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		middleware.ErrorResponse(w, status, cerr.Reason)
	case errors.Is(err, service.ErrValidation):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, service.ErrForbidden):
		middleware.ErrorResponse(w, http.StatusForbidden, "Not allowed")
	case errors.Is(err, service.ErrUserNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrLastAdmin),
		errors.Is(err, service.ErrProtectedUser):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCascadeIncomplete):
		slog.Error("delete cascade incomplete", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, service.ErrCascadeIncomplete.Error())
	case errors.Is(err, store.ErrStoreCorrupt):
		slog.Error("store unreadable", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Data file is unreadable, contact an administrator")
	default:
		slog.Error(fallback, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}

// attachment sets the headers of a CSV download
func attachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}
