// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package capture

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

// Kind identifies where a decoded barcode came from
type Kind int

const (
	// CameraWidget is the in-browser scanner posting decoded text
	CameraWidget Kind = iota + 1
	// ImageUpload is a photo decoded on the server
	ImageUpload
)

func (k Kind) String() string {
	switch k {
	case CameraWidget:
		return "camera"
	case ImageUpload:
		return "upload"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the names produced by Kind.String
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "camera":
		return CameraWidget, nil
	case "upload":
		return ImageUpload, nil
	default:
		return 0, fmt.Errorf("unknown capture source %q (want camera or upload)", s)
	}
}

// ParseKinds parses a comma-separated list, dropping duplicates
func ParseKinds(list string) ([]Kind, error) {
	var kinds []Kind
	seen := make(map[Kind]bool)
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, errors.New("no capture source enabled")
	}
	return kinds, nil
}

// Decoded is a successful capture
type Decoded struct {
	Kind Kind
	Text string
	// Format is the symbology when the decoder reports it (QR_CODE, EAN_13, ...)
	Format string
	// CapturedAt is the client-side capture time, zero when unknown
	CapturedAt time.Time
}

// Error is a failed capture. It carries a human-readable reason instead of
// whatever the source returned.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s capture: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s capture: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FromWidget turns the scanner widget payload into a typed result
func FromWidget(req models.WidgetScanRequest) (Decoded, error) {
	if err := store.ValidateBarcode(req.Barcode); err != nil {
		return Decoded{}, &Error{Kind: CameraWidget, Reason: "widget returned no usable text", Err: err}
	}

	d := Decoded{Kind: CameraWidget, Text: req.Barcode}
	if req.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, req.Timestamp); err == nil {
			d.CapturedAt = t
		}
	}
	return d, nil
}
