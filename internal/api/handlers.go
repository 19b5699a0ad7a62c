// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/pagesight/internal/database"
	"github.com/tomtom215/pagesight/internal/ingest"
	"github.com/tomtom215/pagesight/internal/logging"
	"github.com/tomtom215/pagesight/internal/models"
	"github.com/tomtom215/pagesight/internal/session"
)

// Pinger is the readiness contract of the durable store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ActiveCounter is the presence tracker contract consumed by the
// dashboard endpoint.
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// StatsReader is the dashboard read surface of the durable store.
type StatsReader interface {
	DailyStatsRange(ctx context.Context, from, to time.Time) ([]database.DailyStats, error)
	TopPages(ctx context.Context, from, to time.Time, limit int) ([]database.PageCount, error)
}

// Handler bundles the HTTP handlers and their dependencies.
type Handler struct {
	processor *ingest.Processor
	presence  ActiveCounter
	db        Pinger
	stats     StatsReader
}

// NewHandler creates the handler set.
func NewHandler(processor *ingest.Processor, presence ActiveCounter, db Pinger, stats StatsReader) *Handler {
	return &Handler{
		processor: processor,
		presence:  presence,
		db:        db,
		stats:     stats,
	}
}

// HealthLive is the liveness probe: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "ok",
		Data:     map[string]string{"state": "live"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady is the readiness probe: the durable store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "DATABASE_ERROR", "durable store unavailable", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "ok",
		Data:     map[string]string{"state": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// ActiveVisitors reports how many distinct sessions are active right now.
//
// When the presence backend is unavailable the count is null and the
// status is "degraded": zero is a legitimate real value and must never be
// fabricated by a failure path.
func (h *Handler) ActiveVisitors(w http.ResponseWriter, r *http.Request) {
	payload := models.ActiveVisitors{Status: "ok"}

	count, err := h.presence.CountActive(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Presence backend unavailable")
		payload.Status = "degraded"
	} else {
		payload.Count = &count
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "ok",
		Data:     payload,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// StatsDaily returns per-day pageview and unique-visitor counts for the
// trailing N days (default 30, max 365).
func (h *Handler) StatsDaily(w http.ResponseWriter, r *http.Request) {
	days := getIntParam(r, "days", 30)
	if days < 1 || days > 365 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "days must be between 1 and 365", nil)
		return
	}

	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -days)

	start := time.Now()
	stats, err := h.stats.DailyStatsRange(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to query daily stats", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "ok",
		Data:   stats,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// StatsPages returns the most viewed paths for the trailing N days.
func (h *Handler) StatsPages(w http.ResponseWriter, r *http.Request) {
	days := getIntParam(r, "days", 30)
	limit := getIntParam(r, "limit", 10)
	if days < 1 || days > 365 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "days must be between 1 and 365", nil)
		return
	}
	if limit < 1 || limit > 100 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 100", nil)
		return
	}

	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -days)

	start := time.Now()
	pages, err := h.stats.TopPages(r.Context(), from, to, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to query top pages", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "ok",
		Data:   pages,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// interface conformance
var _ ActiveCounter = (*session.Presence)(nil)
var _ Pinger = (*database.DB)(nil)
var _ StatsReader = (*database.DB)(nil)
