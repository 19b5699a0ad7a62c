// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package dedup implements the daily unique-visitor decision: an atomic
// "seen today" presence check against a TTL'd key/value cache, wrapped in
// a fail-open decorator so a cache outage can never suppress the
// unique-visitor metric.
//
// Entries are presence-only. They are created on first sight of an
// identity, never mutated afterward, and end their life by TTL expiry
// aligned with the UTC-day identity rotation; no explicit delete exists.
package dedup

import (
	"context"

	"github.com/tomtom215/pagesight/internal/visitor"
)

// Store records visitor identities for the current rotation window.
//
// Implementations must provide set-if-absent semantics: when two requests
// race on the same identity, at most one CheckAndRecord call may return
// unique=true.
type Store interface {
	// CheckAndRecord atomically checks whether the identity has been seen
	// within the current rotation window and records it if not. Returns
	// true when this call is the first sight of the identity.
	CheckAndRecord(ctx context.Context, id visitor.Identity) (unique bool, err error)

	// Close releases the backing store.
	Close() error
}
