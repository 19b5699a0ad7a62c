// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pagesight/internal/logging"
	"github.com/tomtom215/pagesight/internal/metrics"
	"github.com/tomtom215/pagesight/internal/models"
	"github.com/tomtom215/pagesight/internal/validation"
)

// maxPayloadBytes bounds the decoded telemetry document. Real tracker
// payloads are well under 4KB; the limit only guards against abuse.
const maxPayloadBytes = 64 * 1024

// errInvalidPayload covers malformed JSON and schema violations alike on
// the GET path, where the distinction is not wire-visible anyway.
var errInvalidPayload = errors.New("invalid telemetry payload")

// CollectPOST handles the beacon and fetch-keepalive transports. Both
// encode the same JSON document; the endpoint cannot and need not
// distinguish which one the client used.
//
//	204: accepted and persisted
//	400: malformed JSON or schema violation, no side effects
//	413: payload too large, no side effects
//	500: durable store failure after a valid decode
func (h *Handler) CollectPOST(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		metrics.EventsTotal.WithLabelValues("post", "rejected").Inc()
		respondCollectError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable request body")
		return
	}
	if len(body) > maxPayloadBytes {
		metrics.EventsTotal.WithLabelValues("post", "rejected").Inc()
		respondCollectError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "payload too large")
		return
	}

	event, vErr := h.decodeEvent(body, r)
	if vErr != nil {
		metrics.EventsTotal.WithLabelValues("post", "rejected").Inc()
		respondCollectError(w, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Error())
		return
	}

	if err := h.processor.Process(r.Context(), event); err != nil {
		metrics.EventsTotal.WithLabelValues("post", "failed").Inc()
		logging.Ctx(r.Context()).Error().Err(err).Msg("Event persistence failed")
		respondCollectError(w, http.StatusInternalServerError, "STORAGE_ERROR", "event could not be stored")
		return
	}

	metrics.EventsTotal.WithLabelValues("post", "accepted").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// CollectGET handles the image-beacon fallback transport: the payload
// arrives base64-encoded in the `data` query parameter and the response is
// always the transparent pixel with status 200.
//
// Failures on this path are deliberately invisible on the wire. The
// pipeline is skipped (decode or validation failure) or its failure is
// swallowed (storage failure), the silent-failure counter is incremented,
// and the pixel is returned either way.
func (h *Handler) CollectGET(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("data")

	body, err := decodeBase64(raw)
	if err != nil || len(body) > maxPayloadBytes {
		metrics.SilentFailuresTotal.WithLabelValues("decode").Inc()
		writePixel(w)
		return
	}

	event, vErr := h.decodeEvent(body, r)
	if vErr != nil {
		metrics.SilentFailuresTotal.WithLabelValues("validation").Inc()
		writePixel(w)
		return
	}

	if err := h.processor.Process(r.Context(), event); err != nil {
		metrics.SilentFailuresTotal.WithLabelValues("storage").Inc()
		logging.Ctx(r.Context()).Error().Err(err).Msg("Event persistence failed on pixel path")
		writePixel(w)
		return
	}

	metrics.EventsTotal.WithLabelValues("pixel", "accepted").Inc()
	writePixel(w)
}

// decodeEvent unmarshals and validates the telemetry document, then
// attaches the request-derived attributes. Client-asserted IP or user
// agent fields inside the document are never read.
func (h *Handler) decodeEvent(body []byte, r *http.Request) (*models.TelemetryEvent, error) {
	var event models.TelemetryEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, errInvalidPayload
	}

	if vErr := validation.ValidateStruct(&event); vErr != nil {
		return nil, vErr
	}

	event.ClientIP = clientIP(r)
	event.UserAgent = r.UserAgent()
	return &event, nil
}

// decodeBase64 accepts both standard and URL-safe alphabets, padded or
// not. Trackers differ here and the transport must be forgiving.
func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, errInvalidPayload
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, errInvalidPayload
}
