// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package models

import "time"

// APIResponse is the envelope for all JSON API responses.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured details.
//
// Codes used by the ingestion API:
//   - "VALIDATION_ERROR": malformed or schema-invalid payload
//   - "STORAGE_ERROR": the durable store rejected the write
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ActiveVisitors is the dashboard-facing "visitors right now" payload.
// Count is null (nil) when the presence backend is unavailable; zero is a
// legitimate real value and is never used to signal failure.
type ActiveVisitors struct {
	Count  *int   `json:"active"`
	Status string `json:"status"` // "ok" or "degraded"
}
