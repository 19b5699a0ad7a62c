// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pagesight/internal/metrics"
	"github.com/tomtom215/pagesight/internal/models"
)

// InsertPageview writes one pageview row. The statement is a plain insert
// with no conditional logic; every derived value must already be computed
// by the caller. A UUID primary key means no same-row conflicts are
// possible under concurrent load.
func (db *DB) InsertPageview(ctx context.Context, pv *models.Pageview) error {
	if pv.ID == uuid.Nil {
		pv.ID = uuid.New()
	}
	if pv.CreatedAt.IsZero() {
		pv.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	query := `INSERT INTO pageviews (
		id, name, timestamp, path, referrer, referrer_category, referrer_domain,
		device_type, browser, browser_version, os, os_version,
		viewport_width, viewport_height, screen_width, screen_height,
		utm_source, utm_medium, utm_campaign, utm_term, utm_content,
		duration_seconds, scroll_percent, visibility_changes,
		country_code, is_unique, is_bot, created_at
	) VALUES (
		?, ?, ?, ?, ?, ?, ?,
		?, ?, ?, ?, ?,
		?, ?, ?, ?,
		?, ?, ?, ?, ?,
		?, ?, ?,
		?, ?, ?, ?
	)`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		pv.ID, pv.Name, pv.Timestamp, pv.Path,
		nullString(pv.Referrer), pv.ReferrerCategory, nullString(pv.ReferrerDomain),
		nullString(pv.DeviceType), nullString(pv.Browser), nullString(pv.BrowserVersion),
		nullString(pv.OS), nullString(pv.OSVersion),
		pv.ViewportWidth, pv.ViewportHeight, pv.ScreenWidth, pv.ScreenHeight,
		nullString(pv.UTMSource), nullString(pv.UTMMedium), nullString(pv.UTMCampaign),
		nullString(pv.UTMTerm), nullString(pv.UTMContent),
		pv.DurationSeconds, pv.ScrollPercent, pv.VisibilityChange,
		nullString(pv.CountryCode), pv.IsUnique, pv.IsBot, pv.CreatedAt,
	)
	metrics.DBInsertDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.DBInsertErrors.Inc()
		return fmt.Errorf("insert pageview: %w", err)
	}
	return nil
}

// nullString maps "" to NULL for nullable columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
