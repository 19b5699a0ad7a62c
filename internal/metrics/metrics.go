// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package metrics defines the Prometheus instrumentation for the ingestion
// pipeline. Metrics here are the only place where the deliberately
// wire-invisible failure paths (the image-beacon "silent failure") become
// observable to an operator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks API endpoint latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// EventsTotal counts ingested telemetry events by transport and outcome.
	// Transport is "post" or "pixel"; outcome is "accepted", "rejected",
	// or "failed" (infra failure after successful decode).
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total number of telemetry events received",
		},
		[]string{"transport", "outcome"},
	)

	// SilentFailuresTotal counts GET image-beacon requests that returned
	// the success-shaped pixel while the pipeline was skipped or failed.
	// The wire response is identical to success, so this counter is the
	// only way to diagnose the invisible-failure path.
	SilentFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_silent_failures_total",
			Help: "Pixel responses that masked a dropped or failed event",
		},
		[]string{"reason"}, // "decode", "validation", "storage", "rate_limit"
	)

	// BotEventsTotal counts events classified as automated traffic.
	BotEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_bot_events_total",
			Help: "Total number of events classified as bot traffic",
		},
	)

	// UniqueVisitorsTotal counts events whose identity won the dedup race.
	UniqueVisitorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_unique_visitors_total",
			Help: "Total number of events recorded as unique visitors",
		},
	)

	// GeoIPLookupsTotal counts GeoIP lookups by result ("hit", "miss").
	GeoIPLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoip_lookups_total",
			Help: "Total number of GeoIP country lookups",
		},
		[]string{"result"},
	)

	// DBInsertDuration tracks pageview insert latency.
	DBInsertDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "duckdb_pageview_insert_duration_seconds",
			Help:    "Duration of pageview inserts in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DBInsertErrors counts failed pageview inserts.
	DBInsertErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duckdb_pageview_insert_errors_total",
			Help: "Total number of failed pageview inserts",
		},
	)
)
