// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// ChiMiddlewareConfig holds configuration for the middleware factories.
type ChiMiddlewareConfig struct {
	// CORS origin allow-list. Empty means any origin: the collector is a
	// public endpoint and trackers run on the sites that embed it.
	// Deployments serving a single site should pin it here.
	CORSAllowedOrigins []string

	// ContentSecurityPolicy attached to every response.
	ContentSecurityPolicy string

	// Rate limiting per client IP.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:    []string{},
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		RateLimitRequests:     600,
		RateLimitWindow:       time.Minute,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories backed by
// the production-hardened go-chi ecosystem implementations.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	// The collection endpoint is called cross-origin from every tracked
	// page, so CORS must cover both transports and the OPTIONS preflight.
	// Disallowed origins get a response without grant headers; nothing in
	// the body reveals why.
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &ChiMiddleware{config: config, cors: corsHandler}
}

// CORS returns the CORS middleware. Applied globally so that success and
// failure responses carry identical CORS headers.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns per-IP rate limiting middleware, or a pass-through
// when disabled. Shed requests get httprate's default 429 response.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.rateLimit(nil)
}

// RateLimitWithHandler is RateLimit with a custom over-limit response.
// The image-beacon route uses this: its transport contract has exactly
// one wire-visible output, so shedding must answer with the pixel too.
func (m *ChiMiddleware) RateLimitWithHandler(onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return m.rateLimit(onLimit)
}

func (m *ChiMiddleware) rateLimit(onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}

	opts := []httprate.Option{
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
	}
	if onLimit != nil {
		opts = append(opts, httprate.WithLimitHandler(onLimit))
	}

	return httprate.Limit(m.config.RateLimitRequests, m.config.RateLimitWindow, opts...)
}

// SecurityHeaders attaches the restrictive response headers carried by
// every response, including errors and the pixel.
func (m *ChiMiddleware) SecurityHeaders() func(http.Handler) http.Handler {
	csp := m.config.ContentSecurityPolicy
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if csp != "" {
				w.Header().Set("Content-Security-Policy", csp)
			}
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}
