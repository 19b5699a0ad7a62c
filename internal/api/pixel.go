// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/pagesight/internal/logging"
	"github.com/tomtom215/pagesight/internal/metrics"
)

// transparentGIF is a fixed 1x1 fully transparent GIF89a. Every GET
// collection response returns exactly these bytes with status 200, so the
// request is wire-identical to an ordinary image load regardless of what
// happened inside the pipeline.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, // "GIF89a"
	0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, // 1x1, global color table
	0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, // palette: black, white
	0x21, 0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, // GCE: transparent index 0
	0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, // image descriptor
	0x02, 0x02, 0x44, 0x01, 0x00, // 2-bit LZW minimal image data
	0x3B, // trailer
}

// pixelRateLimited answers an image-beacon request shed by the rate
// limiter. The event is dropped before decode, the silent-failure
// counter records it, and the wire response stays the success pixel.
func pixelRateLimited(w http.ResponseWriter, _ *http.Request) {
	metrics.SilentFailuresTotal.WithLabelValues("rate_limit").Inc()
	writePixel(w)
}

// writePixel terminates an image-beacon request. There is exactly one
// wire-visible output for the GET transport; both the validated and the
// unvalidated code path end here.
func writePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Length", strconv.Itoa(len(transparentGIF)))
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(transparentGIF); err != nil {
		logging.Error().Err(err).Msg("Failed to write pixel response")
	}
}
