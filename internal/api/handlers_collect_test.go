// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pagesight/internal/ingest"
	"github.com/tomtom215/pagesight/internal/models"
	"github.com/tomtom215/pagesight/internal/visitor"
)

type stubDedup struct{}

func (stubDedup) CheckAndRecord(_ context.Context, _ visitor.Identity) (bool, error) {
	return true, nil
}

type stubSessions struct{}

func (stubSessions) Apply(_ context.Context, token string, _ models.SessionDelta) (models.SessionRecord, error) {
	return models.SessionRecord{Token: token}, nil
}

type stubPresence struct{}

func (stubPresence) MarkActive(_ context.Context, _ string) error { return nil }

type stubGeo struct{}

func (stubGeo) CountryCode(_ string) string { return "" }

// countingWriter records inserts and optionally fails them.
type countingWriter struct {
	mu   sync.Mutex
	err  error
	rows []*models.Pageview
}

func (w *countingWriter) InsertPageview(_ context.Context, pv *models.Pageview) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.rows = append(w.rows, pv)
	return nil
}

func (w *countingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}

func collectHandler(writer *countingWriter) *Handler {
	proc := ingest.NewProcessor(stubDedup{}, stubSessions{}, stubPresence{}, stubGeo{}, writer)
	return NewHandler(proc, nil, nil, nil)
}

func validPayload(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"name":          "pageview",
		"timestamp":     "2026-03-15T11:59:58Z",
		"path":          "/blog/post",
		"session_token": "token-abc123",
	})
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	return data
}

func postRequest(body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/metrics", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/122.0")
	req.RemoteAddr = "203.0.113.7:52814"
	return req
}

func TestCollectPOST(t *testing.T) {
	t.Run("valid_event_returns_204", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		rec := httptest.NewRecorder()
		handler.CollectPOST(rec, postRequest(validPayload(t)))

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204; body: %s", rec.Code, rec.Body.String())
		}
		if writer.count() != 1 {
			t.Errorf("inserts = %d, want 1", writer.count())
		}
	})

	t.Run("malformed_json_returns_400", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		rec := httptest.NewRecorder()
		handler.CollectPOST(rec, postRequest([]byte("{not json")))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if writer.count() != 0 {
			t.Errorf("inserts = %d, want 0", writer.count())
		}

		var body collectError
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode error body: %v", err)
		}
		if body.Error != "VALIDATION_ERROR" {
			t.Errorf("error = %q, want VALIDATION_ERROR", body.Error)
		}
	})

	t.Run("schema_violation_returns_400", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		rec := httptest.NewRecorder()
		handler.CollectPOST(rec, postRequest([]byte(`{"name":"pageview"}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if writer.count() != 0 {
			t.Errorf("inserts = %d, want 0", writer.count())
		}
	})

	t.Run("oversized_payload_returns_413", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		big := strings.Repeat("x", maxPayloadBytes+1)
		rec := httptest.NewRecorder()
		handler.CollectPOST(rec, postRequest([]byte(big)))

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
		if writer.count() != 0 {
			t.Errorf("inserts = %d, want 0", writer.count())
		}
	})

	t.Run("storage_failure_returns_500", func(t *testing.T) {
		writer := &countingWriter{err: errors.New("disk full")}
		handler := collectHandler(writer)

		rec := httptest.NewRecorder()
		handler.CollectPOST(rec, postRequest(validPayload(t)))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}

		var body collectError
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode error body: %v", err)
		}
		if body.Error != "STORAGE_ERROR" {
			t.Errorf("error = %q, want STORAGE_ERROR", body.Error)
		}
	})

	t.Run("concurrent_posts_each_persist_once", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		const requests = 3
		var wg sync.WaitGroup
		for i := 0; i < requests; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := httptest.NewRecorder()
				handler.CollectPOST(rec, postRequest(validPayload(t)))
				if rec.Code != http.StatusNoContent {
					t.Errorf("status = %d, want 204", rec.Code)
				}
			}()
		}
		wg.Wait()

		if writer.count() != requests {
			t.Errorf("inserts = %d, want %d", writer.count(), requests)
		}
	})
}

func getRequest(data string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/metrics?data="+data, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/122.0")
	req.RemoteAddr = "203.0.113.7:52814"
	return req
}

func assertPixel(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/gif" {
		t.Errorf("Content-Type = %q, want image/gif", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), transparentGIF) {
		t.Errorf("body = %d bytes, want the %d-byte transparent GIF", rec.Body.Len(), len(transparentGIF))
	}
}

func TestCollectGET(t *testing.T) {
	t.Run("valid_payload_persists_and_returns_pixel", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		encoded := base64.StdEncoding.EncodeToString(validPayload(t))
		rec := httptest.NewRecorder()
		handler.CollectGET(rec, getRequest(encoded))

		assertPixel(t, rec)
		if writer.count() != 1 {
			t.Errorf("inserts = %d, want 1", writer.count())
		}
	})

	t.Run("url_safe_encoding_accepted", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		encoded := base64.RawURLEncoding.EncodeToString(validPayload(t))
		rec := httptest.NewRecorder()
		handler.CollectGET(rec, getRequest(encoded))

		assertPixel(t, rec)
		if writer.count() != 1 {
			t.Errorf("inserts = %d, want 1", writer.count())
		}
	})

	t.Run("invalid_base64_silently_returns_pixel", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		rec := httptest.NewRecorder()
		handler.CollectGET(rec, getRequest("INVALID%21%21%21BASE64"))

		assertPixel(t, rec)
		if writer.count() != 0 {
			t.Errorf("inserts = %d, want 0", writer.count())
		}
	})

	t.Run("missing_data_param_silently_returns_pixel", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		rec := httptest.NewRecorder()
		handler.CollectGET(rec, getRequest(""))

		assertPixel(t, rec)
		if writer.count() != 0 {
			t.Errorf("inserts = %d, want 0", writer.count())
		}
	})

	t.Run("invalid_schema_silently_returns_pixel", func(t *testing.T) {
		writer := &countingWriter{}
		handler := collectHandler(writer)

		encoded := base64.StdEncoding.EncodeToString([]byte(`{"name":"pageview"}`))
		rec := httptest.NewRecorder()
		handler.CollectGET(rec, getRequest(encoded))

		assertPixel(t, rec)
		if writer.count() != 0 {
			t.Errorf("inserts = %d, want 0", writer.count())
		}
	})

	t.Run("storage_failure_still_returns_pixel", func(t *testing.T) {
		writer := &countingWriter{err: errors.New("disk full")}
		handler := collectHandler(writer)

		encoded := base64.StdEncoding.EncodeToString(validPayload(t))
		rec := httptest.NewRecorder()
		handler.CollectGET(rec, getRequest(encoded))

		assertPixel(t, rec)
	})
}
