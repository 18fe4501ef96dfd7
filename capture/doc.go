// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package capture turns the output of a scanning source into a typed result.

A source is one of two kinds:

  - CameraWidget: the browser scanner posts {barcode, timestamp} once per decode
  - ImageUpload: an uploaded photo is decoded on the server

Either way the caller gets a Decoded value or an *Error with a reason.
Nothing downstream has to sniff strings to tell a decode from a failure:

	d, err := capture.FromWidget(req)
	d, err := capture.NewImageDecoder(10 << 20).Decode(file)

	var cerr *capture.Error
	if errors.As(err, &cerr) {
		// show cerr.Reason
	}

Image decoding reads QR codes, EAN/UPC, Code 128 and Code 39.
*/
package capture
