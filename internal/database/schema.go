// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package database

// schemaPageviews defines the durable pageview table. Rows are immutable
// after insert; deletion is an out-of-band administrative operation. No
// visitor identifier or IP address column exists.
const schemaPageviews = `
CREATE TABLE IF NOT EXISTS pageviews (
	id UUID PRIMARY KEY,
	name VARCHAR NOT NULL,
	timestamp TIMESTAMP NOT NULL,
	path VARCHAR NOT NULL,
	referrer VARCHAR,
	referrer_category VARCHAR NOT NULL,
	referrer_domain VARCHAR,

	device_type VARCHAR,
	browser VARCHAR,
	browser_version VARCHAR,
	os VARCHAR,
	os_version VARCHAR,

	viewport_width INTEGER,
	viewport_height INTEGER,
	screen_width INTEGER,
	screen_height INTEGER,

	utm_source VARCHAR,
	utm_medium VARCHAR,
	utm_campaign VARCHAR,
	utm_term VARCHAR,
	utm_content VARCHAR,

	duration_seconds INTEGER NOT NULL DEFAULT 0,
	scroll_percent INTEGER NOT NULL DEFAULT 0,
	visibility_changes INTEGER NOT NULL DEFAULT 0,

	country_code VARCHAR,
	is_unique BOOLEAN NOT NULL,
	is_bot BOOLEAN NOT NULL,

	created_at TIMESTAMP NOT NULL
)`
