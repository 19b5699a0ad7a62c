// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package models contains the shared data structures for Pagesight:
// the wire-level telemetry event, the persisted pageview row, session
// aggregates, and the API response envelope.
package models
