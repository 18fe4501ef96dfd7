// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/rafaelconde1/aplicativo-novo/capture"
	"github.com/rafaelconde1/aplicativo-novo/cliparse"
	"github.com/rafaelconde1/aplicativo-novo/middleware"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/service"
)

// Room for multipart boundaries and headers around the image itself
const multipartOverhead = 64 << 10

type ScanHandler struct {
	svc     *service.Service
	decoder *capture.ImageDecoder
	cfg     cliparse.Config
}

func NewScanHandler(svc *service.Service, cfg cliparse.Config) *ScanHandler {
	return &ScanHandler{
		svc:     svc,
		decoder: capture.NewImageDecoder(cfg.MaxUploadBytes),
		cfg:     cfg,
	}
}

// RecordWidget handles POST /scans with the payload of the camera widget
func (h *ScanHandler) RecordWidget(w http.ResponseWriter, r *http.Request) {
	var req models.WidgetScanRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	decoded, err := capture.FromWidget(req)
	if err != nil {
		slog.Warn("capture failed", "error", err)
		writeError(w, err, "Capture failed")
		return
	}

	h.record(w, r, decoded)
}

// RecordUpload handles POST /scans/upload with a multipart "image" field
func (h *ScanHandler) RecordUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
				"image larger than "+humanize.IBytes(uint64(h.cfg.MaxUploadBytes)))
		case errors.Is(err, http.ErrMissingFile):
			middleware.ErrorResponse(w, http.StatusBadRequest, "image is required")
		default:
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid multipart upload")
		}
		return
	}
	defer file.Close()

	decoded, err := h.decoder.Decode(file)
	if err != nil {
		slog.Warn("capture failed", "filename", header.Filename, "size", humanize.IBytes(uint64(header.Size)), "error", err)
		writeError(w, err, "Capture failed")
		return
	}

	h.record(w, r, decoded)
}

func (h *ScanHandler) record(w http.ResponseWriter, r *http.Request, decoded capture.Decoded) {
	id := middleware.IdentityFrom(r.Context())

	scan, err := h.svc.Record(r.Context(), id, decoded)
	if err != nil {
		writeError(w, err, "Failed to record scan")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.RecordScanResponse{
		Scan:    scan,
		Source:  decoded.Kind.String(),
		Message: "Scan recorded",
	})
}

// Mine handles GET /scans/mine
func (h *ScanHandler) Mine(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())

	scans, err := h.svc.ScansFor(r.Context(), id.Username)
	if err != nil {
		writeError(w, err, "Failed to load scans")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ScanListResponse{
		Scans: scans,
		Count: len(scans),
	})
}

// ExportMine handles GET /scans/mine/export
func (h *ScanHandler) ExportMine(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())

	scans, err := h.svc.ScansFor(r.Context(), id.Username)
	if err != nil {
		writeError(w, err, "Failed to load scans")
		return
	}

	attachment(w, "my_scans.csv")
	if err := h.svc.ExportCSV(w, scans); err != nil {
		slog.Error("failed to write export", "username", id.Username, "error", err)
	}
}

// ClearMine handles DELETE /scans/mine
func (h *ScanHandler) ClearMine(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())

	if err := h.svc.ClearScans(r.Context(), id, id.Username); err != nil {
		writeError(w, err, "Failed to clear scans")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Your scans were cleared"})
}
