// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/pagesight/internal/models"
	"github.com/tomtom215/pagesight/internal/visitor"
)

type fakeDedup struct {
	unique bool
	err    error
	calls  int
}

func (f *fakeDedup) CheckAndRecord(_ context.Context, _ visitor.Identity) (bool, error) {
	f.calls++
	return f.unique, f.err
}

type fakeSessions struct {
	err    error
	tokens []string
	deltas []models.SessionDelta
}

func (f *fakeSessions) Apply(_ context.Context, token string, delta models.SessionDelta) (models.SessionRecord, error) {
	f.tokens = append(f.tokens, token)
	f.deltas = append(f.deltas, delta)
	return models.SessionRecord{Token: token}, f.err
}

type fakePresence struct {
	err    error
	tokens []string
}

func (f *fakePresence) MarkActive(_ context.Context, token string) error {
	f.tokens = append(f.tokens, token)
	return f.err
}

type fakeGeo struct {
	code string
}

func (f *fakeGeo) CountryCode(_ string) string { return f.code }

type fakeWriter struct {
	err  error
	rows []*models.Pageview
}

func (f *fakeWriter) InsertPageview(_ context.Context, pv *models.Pageview) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, pv)
	return nil
}

type pipeline struct {
	dedup    *fakeDedup
	sessions *fakeSessions
	presence *fakePresence
	geo      *fakeGeo
	writer   *fakeWriter
	proc     *Processor
}

func newPipeline() *pipeline {
	p := &pipeline{
		dedup:    &fakeDedup{unique: true},
		sessions: &fakeSessions{},
		presence: &fakePresence{},
		geo:      &fakeGeo{code: "DE"},
		writer:   &fakeWriter{},
	}
	p.proc = NewProcessor(p.dedup, p.sessions, p.presence, p.geo, p.writer)
	p.proc.SetNowFunc(func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	})
	return p
}

func testEvent() *models.TelemetryEvent {
	return &models.TelemetryEvent{
		Name:             "pageview",
		Timestamp:        "2026-03-15T11:59:58Z",
		Path:             "/blog/post",
		SessionToken:     "token-abc123",
		Referrer:         "https://www.google.com/search?q=x",
		DurationSeconds:  12,
		ScrollPercent:    45,
		VisibilityChange: 1,
		ClientIP:         "203.0.113.7",
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) Firefox/122.0",
	}
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("happy_path_persists_derived_row", func(t *testing.T) {
		p := newPipeline()

		if err := p.proc.Process(ctx, testEvent()); err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		if len(p.writer.rows) != 1 {
			t.Fatalf("Expected 1 insert, got %d", len(p.writer.rows))
		}
		row := p.writer.rows[0]
		if !row.IsUnique {
			t.Error("Expected IsUnique=true")
		}
		if row.IsBot {
			t.Error("Expected IsBot=false")
		}
		if row.CountryCode != "DE" {
			t.Errorf("CountryCode = %q, want DE", row.CountryCode)
		}
		if row.ReferrerCategory != models.ReferrerSearch {
			t.Errorf("ReferrerCategory = %q, want %q", row.ReferrerCategory, models.ReferrerSearch)
		}
		if row.ReferrerDomain != "google.com" {
			t.Errorf("ReferrerDomain = %q, want google.com", row.ReferrerDomain)
		}
	})

	t.Run("bot_skips_dedup_but_persists", func(t *testing.T) {
		p := newPipeline()
		event := testEvent()
		event.UserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1)"

		if err := p.proc.Process(ctx, event); err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		if p.dedup.calls != 0 {
			t.Errorf("Expected dedup to be skipped for bots, got %d calls", p.dedup.calls)
		}
		if len(p.writer.rows) != 1 {
			t.Fatalf("Expected 1 insert, got %d", len(p.writer.rows))
		}
		row := p.writer.rows[0]
		if !row.IsBot {
			t.Error("Expected IsBot=true")
		}
		if row.IsUnique {
			t.Error("Expected IsUnique=false for bot traffic")
		}
	})

	t.Run("missing_ip_counts_as_non_unique", func(t *testing.T) {
		p := newPipeline()
		event := testEvent()
		event.ClientIP = ""

		if err := p.proc.Process(ctx, event); err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		if p.dedup.calls != 0 {
			t.Errorf("Expected dedup to be skipped without an IP, got %d calls", p.dedup.calls)
		}
		if p.writer.rows[0].IsUnique {
			t.Error("Expected IsUnique=false when identity cannot be formed")
		}
	})

	t.Run("dedup_error_assumes_unique", func(t *testing.T) {
		p := newPipeline()
		p.dedup.err = errors.New("backend down")

		if err := p.proc.Process(ctx, testEvent()); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if !p.writer.rows[0].IsUnique {
			t.Error("Expected IsUnique=true on dedup error")
		}
	})

	t.Run("session_failure_does_not_drop_event", func(t *testing.T) {
		p := newPipeline()
		p.sessions.err = errors.New("conflict exhausted")
		p.presence.err = errors.New("backend down")

		if err := p.proc.Process(ctx, testEvent()); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(p.writer.rows) != 1 {
			t.Errorf("Expected event to persist despite session failure, got %d inserts", len(p.writer.rows))
		}
	})

	t.Run("session_delta_carries_engagement", func(t *testing.T) {
		p := newPipeline()

		if err := p.proc.Process(ctx, testEvent()); err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		if len(p.sessions.deltas) != 1 {
			t.Fatalf("Expected 1 session apply, got %d", len(p.sessions.deltas))
		}
		delta := p.sessions.deltas[0]
		if delta.ScrollPercent != 45 || delta.DurationSeconds != 12 || delta.VisibilityChange != 1 {
			t.Errorf("Unexpected delta: %+v", delta)
		}
		if p.sessions.tokens[0] != "token-abc123" {
			t.Errorf("Session token = %q, want token-abc123", p.sessions.tokens[0])
		}
		if len(p.presence.tokens) != 1 || p.presence.tokens[0] != "token-abc123" {
			t.Errorf("Presence tokens = %v, want [token-abc123]", p.presence.tokens)
		}
	})

	t.Run("insert_failure_propagates", func(t *testing.T) {
		p := newPipeline()
		p.writer.err = errors.New("disk full")

		if err := p.proc.Process(ctx, testEvent()); err == nil {
			t.Error("Expected error from failed insert")
		}
	})

	t.Run("timestamp_normalized_to_utc", func(t *testing.T) {
		p := newPipeline()
		event := testEvent()
		event.Timestamp = "2026-03-15T06:59:58-05:00"

		if err := p.proc.Process(ctx, testEvent()); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if err := p.proc.Process(ctx, event); err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		a := p.writer.rows[0].Timestamp
		b := p.writer.rows[1].Timestamp
		if !a.Equal(b) {
			t.Errorf("Expected equal instants, got %v and %v", a, b)
		}
		if b.Location() != time.UTC {
			t.Errorf("Expected UTC storage, got %v", b.Location())
		}
	})
}
