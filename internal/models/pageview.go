// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package models

import (
	"time"

	"github.com/google/uuid"
)

// Referrer categories produced by the classifier during persistence.
const (
	ReferrerDirect   = "direct"
	ReferrerSearch   = "search"
	ReferrerSocial   = "social"
	ReferrerExternal = "external"
)

// Pageview is the durable row written once per successfully decoded event.
// Rows are immutable after insert; IsUnique reflects the dedup decision at
// write time and is never recomputed.
//
// No visitor identifier and no IP address is ever stored. CountryCode is the
// only geographic attribute, and it is nullable (empty string maps to NULL).
type Pageview struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Referrer  string    `json:"referrer"`

	// Derived referrer classification, see visitor.ClassifyReferrer.
	ReferrerCategory string `json:"referrer_category"`
	ReferrerDomain   string `json:"referrer_domain"`

	DeviceType     string `json:"device_type"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version"`
	OS             string `json:"os"`
	OSVersion      string `json:"os_version"`

	ViewportWidth  int `json:"viewport_width"`
	ViewportHeight int `json:"viewport_height"`
	ScreenWidth    int `json:"screen_width"`
	ScreenHeight   int `json:"screen_height"`

	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`

	DurationSeconds  int `json:"duration_seconds"`
	ScrollPercent    int `json:"scroll_percent"`
	VisibilityChange int `json:"visibility_changes"`

	// CountryCode is the ISO 3166-1 alpha-2 code, empty when unknown.
	CountryCode string `json:"country_code"`

	// IsUnique records the dedup cache decision: first sight of this
	// visitor identity within the current rotation window.
	IsUnique bool `json:"is_unique"`

	// IsBot marks automated traffic. Bot rows are persisted for volume
	// stats but excluded from unique-visitor accounting.
	IsBot bool `json:"is_bot"`

	CreatedAt time.Time `json:"created_at"`
}
