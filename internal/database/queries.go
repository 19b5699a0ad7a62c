// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package database

import (
	"context"
	"fmt"
	"time"
)

// DailyStats summarizes one UTC day of traffic for the dashboard reader.
// Bot rows count toward Pageviews but never toward UniqueVisitors.
type DailyStats struct {
	Day            time.Time `json:"day"`
	Pageviews      int64     `json:"pageviews"`
	UniqueVisitors int64     `json:"unique_visitors"`
	BotPageviews   int64     `json:"bot_pageviews"`
}

// PageCount is one row of the top-pages listing.
type PageCount struct {
	Path      string `json:"path"`
	Pageviews int64  `json:"pageviews"`
}

// DailyStatsRange returns per-day aggregates for [from, to) in UTC.
func (db *DB) DailyStatsRange(ctx context.Context, from, to time.Time) ([]DailyStats, error) {
	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	query := `
		SELECT
			date_trunc('day', timestamp) AS day,
			count(*) AS pageviews,
			count(*) FILTER (WHERE is_unique AND NOT is_bot) AS unique_visitors,
			count(*) FILTER (WHERE is_bot) AS bot_pageviews
		FROM pageviews
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY 1
		ORDER BY 1`

	rows, err := db.conn.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStats
	for rows.Next() {
		var s DailyStats
		if err := rows.Scan(&s.Day, &s.Pageviews, &s.UniqueVisitors, &s.BotPageviews); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats: %w", err)
	}

	return stats, nil
}

// TopPages returns the most viewed paths for [from, to), excluding bots.
func (db *DB) TopPages(ctx context.Context, from, to time.Time, limit int) ([]PageCount, error) {
	if limit <= 0 {
		limit = 10
	}

	ctx, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	query := `
		SELECT path, count(*) AS pageviews
		FROM pageviews
		WHERE timestamp >= ? AND timestamp < ? AND NOT is_bot
		GROUP BY path
		ORDER BY pageviews DESC, path
		LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query top pages: %w", err)
	}
	defer rows.Close()

	var pages []PageCount
	for rows.Next() {
		var p PageCount
		if err := rows.Scan(&p.Path, &p.Pageviews); err != nil {
			return nil, fmt.Errorf("scan top pages: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top pages: %w", err)
	}

	return pages, nil
}
