// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package api

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/pagesight/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			CORSOrigins:           []string{"https://example.com"},
			ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		},
		RateLimit: config.RateLimitConfig{
			Requests: 1000,
			Window:   time.Minute,
		},
	}
}

func testRouter(writer *countingWriter) http.Handler {
	handler := collectHandler(writer)
	return NewRouter(handler, testConfig()).Setup()
}

func TestRouter_CollectRoutes(t *testing.T) {
	t.Run("post_collect", func(t *testing.T) {
		writer := &countingWriter{}
		router := testRouter(writer)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, postRequest(validPayload(t)))

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204; body: %s", rec.Code, rec.Body.String())
		}
		if writer.count() != 1 {
			t.Errorf("inserts = %d, want 1", writer.count())
		}
	})

	t.Run("get_pixel", func(t *testing.T) {
		writer := &countingWriter{}
		router := testRouter(writer)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, getRequest("INVALID%21%21%21BASE64"))

		assertPixel(t, rec)
		if writer.count() != 0 {
			t.Errorf("inserts = %d, want 0", writer.count())
		}
	})
}

func TestRouter_RateLimitedPixelStaysSilent(t *testing.T) {
	writer := &countingWriter{}
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Requests: 1, Window: time.Minute}
	router := NewRouter(collectHandler(writer), cfg).Setup()

	encoded := base64.StdEncoding.EncodeToString(validPayload(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, getRequest(encoded))
	assertPixel(t, rec)
	if writer.count() != 1 {
		t.Fatalf("inserts = %d, want 1", writer.count())
	}

	// Over the limit the event is shed, but the image beacon still
	// answers 200 with the pixel, never a 429.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, getRequest(encoded))
	assertPixel(t, rec)
	if writer.count() != 1 {
		t.Errorf("inserts = %d, want 1 after shed request", writer.count())
	}
}

func TestRouter_RateLimitedPostReturns429(t *testing.T) {
	writer := &countingWriter{}
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Requests: 1, Window: time.Minute}
	router := NewRouter(collectHandler(writer), cfg).Setup()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postRequest(validPayload(t)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, postRequest(validPayload(t)))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if writer.count() != 1 {
		t.Errorf("inserts = %d, want 1 after limited request", writer.count())
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router := testRouter(&countingWriter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, getRequest(""))

	if csp := rec.Header().Get("Content-Security-Policy"); csp == "" {
		t.Error("Expected Content-Security-Policy header")
	}
	if cto := rec.Header().Get("X-Content-Type-Options"); cto != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", cto)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := testRouter(&countingWriter{})

	req := httptest.NewRequest(http.MethodOptions, "/metrics", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "https://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want https://example.com", origin)
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := testRouter(&countingWriter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRouter_PrometheusEndpoint(t *testing.T) {
	router := testRouter(&countingWriter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
