// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "camera", CameraWidget.String())
	assert.Equal(t, "upload", ImageUpload.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Kind
		wantErr bool
	}{
		{"both", "camera,upload", []Kind{CameraWidget, ImageUpload}, false},
		{"spaces and case", " Upload , CAMERA ", []Kind{ImageUpload, CameraWidget}, false},
		{"duplicates", "camera,camera", []Kind{CameraWidget}, false},
		{"single", "upload", []Kind{ImageUpload}, false},
		{"empty", "", nil, true},
		{"only commas", ",,", nil, true},
		{"unknown", "camera,nfc", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKinds(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromWidget(t *testing.T) {
	d, err := FromWidget(models.WidgetScanRequest{Barcode: "7891000100103", Timestamp: "2025-04-01T12:30:00.000Z"})
	require.NoError(t, err)
	assert.Equal(t, CameraWidget, d.Kind)
	assert.Equal(t, "7891000100103", d.Text)
	assert.True(t, d.CapturedAt.Equal(time.Date(2025, 4, 1, 12, 30, 0, 0, time.UTC)))

	// A bad client timestamp does not reject the scan
	d, err = FromWidget(models.WidgetScanRequest{Barcode: "abc", Timestamp: "yesterday"})
	require.NoError(t, err)
	assert.True(t, d.CapturedAt.IsZero())
}

func TestFromWidget_Rejects(t *testing.T) {
	for _, text := range []string{"", "   ", "[object Object]", "<DeltaGenerator>"} {
		_, err := FromWidget(models.WidgetScanRequest{Barcode: text})

		var cerr *Error
		require.True(t, errors.As(err, &cerr), "text %q", text)
		assert.Equal(t, CameraWidget, cerr.Kind)
		assert.NotEmpty(t, cerr.Reason)
		assert.ErrorIs(t, err, store.ErrInvalidBarcode)
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: ImageUpload, Reason: "empty upload"}
	assert.Equal(t, "upload capture: empty upload", err.Error())

	wrapped := &Error{Kind: ImageUpload, Reason: "bad", Err: ErrNoBarcode}
	assert.Equal(t, "upload capture: bad: no barcode found", wrapped.Error())
	assert.ErrorIs(t, wrapped, ErrNoBarcode)
}
