// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pagesight/internal/config"
	"github.com/tomtom215/pagesight/internal/middleware"
)

// Router assembles the HTTP surface: the public collection endpoint, the
// dashboard API, health probes, and the Prometheus scrape endpoint.
type Router struct {
	handler *Handler
	config  *config.Config
}

// NewRouter creates a router around the handler set.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, config: cfg}
}

// Setup builds the chi mux with the full middleware chain.
func (rt *Router) Setup() *chi.Mux {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins:    rt.config.Security.CORSOrigins,
		ContentSecurityPolicy: rt.config.Security.ContentSecurityPolicy,
		RateLimitRequests:     rt.config.RateLimit.Requests,
		RateLimitWindow:       rt.config.RateLimit.Window,
		RateLimitDisabled:     rt.config.RateLimit.Disabled,
	})

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(mw.SecurityHeaders())
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)

	// Collection endpoint. Both transports share the path so trackers can
	// fall back from POST to the image beacon without a second URL. The
	// transports are limited separately: POST callers see a 429, but the
	// image beacon always answers 200 with the pixel, so its limiter drops
	// the event and serves the pixel instead.
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Post("/metrics", rt.handler.CollectPOST)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimitWithHandler(pixelRateLimited))
		r.Get("/metrics", rt.handler.CollectGET)
	})

	// Operational surface.
	r.Get("/metrics/prometheus", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", rt.handler.HealthLive)
		r.Get("/health/live", rt.handler.HealthLive)
		r.Get("/health/ready", rt.handler.HealthReady)
		r.Get("/visitors/active", rt.handler.ActiveVisitors)
		r.Get("/stats/daily", rt.handler.StatsDaily)
		r.Get("/stats/pages", rt.handler.StatsPages)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return r
}
