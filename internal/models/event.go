// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package models

import "time"

// TelemetryEvent is the logical payload delivered by the browser tracker.
// The same document arrives over all three transports: sendBeacon POST,
// fetch-keepalive POST, and base64-encoded in the `data` query parameter
// of the GET image beacon.
//
// ClientIP and UserAgent are NOT part of the wire document. They are read
// from the request by the endpoint and attached before the event enters the
// pipeline; client-asserted values for either are ignored.
type TelemetryEvent struct {
	// Name identifies the event type, e.g. "pageview" or a custom event.
	Name string `json:"name" validate:"required,max=128"`

	// Timestamp is the client-asserted event time in RFC 3339 format.
	// The server validates parseability only; it does not trust the value
	// for uniqueness decisions.
	Timestamp string `json:"timestamp" validate:"required,rfc3339"`

	// Path is the page path, e.g. "/pricing".
	Path string `json:"path" validate:"required,max=2048"`

	// Referrer is the full document.referrer URL. Empty means direct traffic.
	Referrer string `json:"referrer" validate:"max=2048"`

	// SessionToken is a client-generated opaque token scoping one page
	// lifetime. It links engagement beacons, never visitors across days.
	SessionToken string `json:"session_token" validate:"required,min=8,max=128"`

	// Device and platform descriptors reported by the tracker.
	DeviceType     string `json:"device_type" validate:"omitempty,oneof=desktop mobile tablet"`
	Browser        string `json:"browser" validate:"max=64"`
	BrowserVersion string `json:"browser_version" validate:"max=32"`
	OS             string `json:"os" validate:"max=64"`
	OSVersion      string `json:"os_version" validate:"max=32"`

	// Viewport and screen geometry in CSS pixels.
	ViewportWidth  int `json:"viewport_width" validate:"min=0,max=32767"`
	ViewportHeight int `json:"viewport_height" validate:"min=0,max=32767"`
	ScreenWidth    int `json:"screen_width" validate:"min=0,max=32767"`
	ScreenHeight   int `json:"screen_height" validate:"min=0,max=32767"`

	// UTM campaign attribution fields.
	UTMSource   string `json:"utm_source" validate:"max=255"`
	UTMMedium   string `json:"utm_medium" validate:"max=255"`
	UTMCampaign string `json:"utm_campaign" validate:"max=255"`
	UTMTerm     string `json:"utm_term" validate:"max=255"`
	UTMContent  string `json:"utm_content" validate:"max=255"`

	// Engagement metrics, cumulative per session at the time of the beacon.
	DurationSeconds  int `json:"duration_seconds" validate:"min=0"`
	ScrollPercent    int `json:"scroll_percent" validate:"min=0,max=100"`
	VisibilityChange int `json:"visibility_changes" validate:"min=0"`

	// Server-attached request attributes, never client-asserted.
	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

// EventTime parses the client-asserted timestamp. Validation guarantees
// parseability before the event reaches the pipeline, so an error here is
// a programming bug, not client input.
func (e *TelemetryEvent) EventTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.Timestamp)
}

// SessionDelta carries the engagement values of one beacon into the
// session continuity store. Aggregation policy is monotonic: scroll is
// max'd, duration takes the latest cumulative value, visibility changes
// are summed.
type SessionDelta struct {
	DurationSeconds  int
	ScrollPercent    int
	VisibilityChange int
	SeenAt           time.Time
}

// SessionRecord holds the running aggregates for one client session token.
type SessionRecord struct {
	Token            string    `json:"token"`
	DurationSeconds  int       `json:"duration_seconds"`
	MaxScrollPercent int       `json:"max_scroll_percent"`
	VisibilityChange int       `json:"visibility_changes"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
}
