// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package ingest orchestrates the pipeline behind the collection endpoint:
// bot filtering, visitor identity hashing, dedup, GeoIP resolution,
// session aggregation, presence marking, and the final durable write.
//
// The processor holds no mutable state across requests. Every dependency
// is injected at construction time so tests can substitute fakes.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/pagesight/internal/logging"
	"github.com/tomtom215/pagesight/internal/metrics"
	"github.com/tomtom215/pagesight/internal/models"
	"github.com/tomtom215/pagesight/internal/visitor"
)

// DedupStore is the dedup cache contract consumed by the processor. In
// production this is always the fail-open wrapper, so calls never error.
type DedupStore interface {
	CheckAndRecord(ctx context.Context, id visitor.Identity) (bool, error)
}

// SessionStore is the session continuity contract.
type SessionStore interface {
	Apply(ctx context.Context, token string, delta models.SessionDelta) (models.SessionRecord, error)
}

// PresenceTracker marks sessions as currently active.
type PresenceTracker interface {
	MarkActive(ctx context.Context, token string) error
}

// GeoResolver maps an IP to a country code, empty for unknown.
type GeoResolver interface {
	CountryCode(ip string) string
}

// PageviewWriter performs the single atomic insert per event.
type PageviewWriter interface {
	InsertPageview(ctx context.Context, pv *models.Pageview) error
}

// Processor runs a validated telemetry event through the pipeline.
type Processor struct {
	dedup    DedupStore
	sessions SessionStore
	presence PresenceTracker
	geo      GeoResolver
	writer   PageviewWriter
	now      func() time.Time
}

// NewProcessor wires the pipeline dependencies.
func NewProcessor(dedup DedupStore, sessions SessionStore, presence PresenceTracker, geo GeoResolver, writer PageviewWriter) *Processor {
	return &Processor{
		dedup:    dedup,
		sessions: sessions,
		presence: presence,
		geo:      geo,
		writer:   writer,
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock for rotation-boundary tests.
func (p *Processor) SetNowFunc(now func() time.Time) {
	p.now = now
}

// Process runs one schema-valid event through the pipeline and performs
// the durable write. The only error it returns is a failed insert; cache
// and GeoIP degradation resolve to their documented defaults, and session
// bookkeeping failures are logged but never drop the event.
func (p *Processor) Process(ctx context.Context, event *models.TelemetryEvent) error {
	eventTime, err := event.EventTime()
	if err != nil {
		// Validation guarantees parseability; reaching this is a bug.
		return fmt.Errorf("ingest: unparseable timestamp after validation: %w", err)
	}

	isBot := visitor.IsBot(event.UserAgent)
	if isBot {
		metrics.BotEventsTotal.Inc()
	}

	// Bots are persisted for volume stats but never participate in
	// unique-visitor accounting, so their identities stay out of the
	// dedup cache entirely. An identity also cannot be formed without
	// both request attributes; such events count as non-unique.
	isUnique := false
	if !isBot && event.ClientIP != "" && event.UserAgent != "" {
		id, err := visitor.Hash(event.ClientIP, event.UserAgent, p.now())
		if err != nil {
			return fmt.Errorf("ingest: identity hash: %w", err)
		}
		isUnique, err = p.dedup.CheckAndRecord(ctx, id)
		if err != nil {
			// Reachable only when the store is not wrapped in the
			// fail-open decorator; honor the contract here too.
			logging.Ctx(ctx).Warn().Err(err).Msg("Dedup store error, assuming unique")
			isUnique = true
		}
		if isUnique {
			metrics.UniqueVisitorsTotal.Inc()
		}
	}

	countryCode := p.geo.CountryCode(event.ClientIP)
	category, domain := visitor.ClassifyReferrer(event.Referrer)

	delta := models.SessionDelta{
		DurationSeconds:  event.DurationSeconds,
		ScrollPercent:    event.ScrollPercent,
		VisibilityChange: event.VisibilityChange,
		SeenAt:           p.now().UTC(),
	}
	if _, err := p.sessions.Apply(ctx, event.SessionToken, delta); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Session aggregate update failed")
	}
	if err := p.presence.MarkActive(ctx, event.SessionToken); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Presence mark failed")
	}

	// All derived values are final before the insert opens; the write
	// itself carries no conditional logic.
	pv := &models.Pageview{
		Name:             event.Name,
		Timestamp:        eventTime.UTC(),
		Path:             event.Path,
		Referrer:         event.Referrer,
		ReferrerCategory: category,
		ReferrerDomain:   domain,
		DeviceType:       event.DeviceType,
		Browser:          event.Browser,
		BrowserVersion:   event.BrowserVersion,
		OS:               event.OS,
		OSVersion:        event.OSVersion,
		ViewportWidth:    event.ViewportWidth,
		ViewportHeight:   event.ViewportHeight,
		ScreenWidth:      event.ScreenWidth,
		ScreenHeight:     event.ScreenHeight,
		UTMSource:        event.UTMSource,
		UTMMedium:        event.UTMMedium,
		UTMCampaign:      event.UTMCampaign,
		UTMTerm:          event.UTMTerm,
		UTMContent:       event.UTMContent,
		DurationSeconds:  event.DurationSeconds,
		ScrollPercent:    event.ScrollPercent,
		VisibilityChange: event.VisibilityChange,
		CountryCode:      countryCode,
		IsUnique:         isUnique,
		IsBot:            isBot,
	}

	if err := p.writer.InsertPageview(ctx, pv); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	return nil
}
