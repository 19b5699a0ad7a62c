// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"INFO", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Timestamp: true, Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("component", "test").Msg("Hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "Hello" {
		t.Errorf("message = %v, want Hello", entry["message"])
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v, want test", entry["component"])
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		id := GenerateRequestID()
		ctx := ContextWithRequestID(context.Background(), id)
		if got := RequestIDFromContext(ctx); got != id {
			t.Errorf("RequestIDFromContext = %q, want %q", got, id)
		}
	})

	t.Run("missing_returns_empty", func(t *testing.T) {
		if got := RequestIDFromContext(context.Background()); got != "" {
			t.Errorf("RequestIDFromContext = %q, want empty", got)
		}
	})

	t.Run("ids_are_unique", func(t *testing.T) {
		if GenerateRequestID() == GenerateRequestID() {
			t.Error("Expected distinct request IDs")
		}
	})
}

func TestCtx_AttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-42")
	Ctx(ctx).Info().Msg("With request")

	if !strings.Contains(buf.String(), "req-42") {
		t.Errorf("Expected request_id in log output, got: %s", buf.String())
	}
}
