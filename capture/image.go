// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var (
	// ErrNoBarcode means the image decoded but contained nothing readable
	ErrNoBarcode     = errors.New("no barcode found")
	ErrImageTooLarge = errors.New("image too large")
)

// ImageDecoder reads one barcode from an uploaded image
type ImageDecoder struct {
	maxBytes int64
}

func NewImageDecoder(maxBytes int64) *ImageDecoder {
	return &ImageDecoder{maxBytes: maxBytes}
}

// Readers are stateful, so each Decode call builds its own set.
func newReaders() []gozxing.Reader {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return []gozxing.Reader{
		qrcode.NewQRCodeReader(),
		oned.NewMultiFormatUPCEANReader(hints),
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
	}
}

// Decode reads a PNG, JPEG or GIF image and returns the first barcode found.
// The hybrid binarizer is tried first; the global histogram binarizer is the
// fallback for evenly lit, low contrast photos.
func (d *ImageDecoder) Decode(r io.Reader) (Decoded, error) {
	data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
	if err != nil {
		return Decoded{}, &Error{Kind: ImageUpload, Reason: "could not read upload", Err: err}
	}
	if int64(len(data)) > d.maxBytes {
		return Decoded{}, &Error{Kind: ImageUpload, Reason: fmt.Sprintf("image larger than %s", humanize.IBytes(uint64(d.maxBytes))), Err: ErrImageTooLarge}
	}
	if len(data) == 0 {
		return Decoded{}, &Error{Kind: ImageUpload, Reason: "empty upload"}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, &Error{Kind: ImageUpload, Reason: "unsupported image (use PNG, JPEG or GIF)", Err: err}
	}

	source := gozxing.NewLuminanceSourceFromImage(img)
	binarizers := []gozxing.Binarizer{
		gozxing.NewHybridBinarizer(source),
		gozxing.NewGlobalHistgramBinarizer(source),
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	for _, binarizer := range binarizers {
		bmp, err := gozxing.NewBinaryBitmap(binarizer)
		if err != nil {
			continue
		}
		for _, reader := range newReaders() {
			result, err := reader.Decode(bmp, hints)
			if err != nil {
				continue
			}
			return Decoded{
				Kind:   ImageUpload,
				Text:   result.GetText(),
				Format: result.GetBarcodeFormat().String(),
			}, nil
		}
	}

	return Decoded{}, &Error{Kind: ImageUpload, Reason: fmt.Sprintf("no barcode found in %s image; try another angle or better lighting", format), Err: ErrNoBarcode}
}
