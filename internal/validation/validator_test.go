// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package validation

import (
	"testing"

	"github.com/tomtom215/pagesight/internal/models"
)

func validEvent() models.TelemetryEvent {
	return models.TelemetryEvent{
		Name:         "pageview",
		Timestamp:    "2026-03-15T11:59:58Z",
		Path:         "/blog/post",
		SessionToken: "token-abc123",
	}
}

func TestValidateStruct_TelemetryEvent(t *testing.T) {
	t.Run("valid_minimal_event", func(t *testing.T) {
		event := validEvent()
		if err := ValidateStruct(&event); err != nil {
			t.Errorf("Expected valid event, got: %v", err)
		}
	})

	t.Run("valid_with_offset_timestamp", func(t *testing.T) {
		event := validEvent()
		event.Timestamp = "2026-03-15T06:59:58-05:00"
		if err := ValidateStruct(&event); err != nil {
			t.Errorf("Expected offset timestamp to validate, got: %v", err)
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		event := validEvent()
		event.Name = ""
		err := ValidateStruct(&event)
		if err == nil {
			t.Fatal("Expected validation error for missing name")
		}
		if err.Errors()[0].Field() != "Name" {
			t.Errorf("Field = %q, want Name", err.Errors()[0].Field())
		}
	})

	t.Run("non_rfc3339_timestamp", func(t *testing.T) {
		event := validEvent()
		event.Timestamp = "2026-03-15 11:59:58"
		err := ValidateStruct(&event)
		if err == nil {
			t.Fatal("Expected validation error for malformed timestamp")
		}
		if err.Errors()[0].Tag() != "rfc3339" {
			t.Errorf("Tag = %q, want rfc3339", err.Errors()[0].Tag())
		}
	})

	t.Run("short_session_token", func(t *testing.T) {
		event := validEvent()
		event.SessionToken = "short"
		if err := ValidateStruct(&event); err == nil {
			t.Error("Expected validation error for short session token")
		}
	})

	t.Run("invalid_device_type", func(t *testing.T) {
		event := validEvent()
		event.DeviceType = "smartwatch"
		if err := ValidateStruct(&event); err == nil {
			t.Error("Expected validation error for unknown device type")
		}
	})

	t.Run("empty_device_type_allowed", func(t *testing.T) {
		event := validEvent()
		event.DeviceType = ""
		if err := ValidateStruct(&event); err != nil {
			t.Errorf("Expected empty device type to pass, got: %v", err)
		}
	})

	t.Run("scroll_percent_over_100", func(t *testing.T) {
		event := validEvent()
		event.ScrollPercent = 150
		if err := ValidateStruct(&event); err == nil {
			t.Error("Expected validation error for scroll_percent > 100")
		}
	})

	t.Run("negative_duration", func(t *testing.T) {
		event := validEvent()
		event.DurationSeconds = -1
		if err := ValidateStruct(&event); err == nil {
			t.Error("Expected validation error for negative duration")
		}
	})

	t.Run("multiple_errors_collected", func(t *testing.T) {
		event := validEvent()
		event.Name = ""
		event.Path = ""
		err := ValidateStruct(&event)
		if err == nil {
			t.Fatal("Expected validation errors")
		}
		if len(err.Errors()) != 2 {
			t.Errorf("Expected 2 errors, got %d", len(err.Errors()))
		}
	})
}

func TestRequestValidationError_ToAPIError(t *testing.T) {
	event := validEvent()
	event.Timestamp = "not-a-timestamp"

	err := ValidateStruct(&event)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message == "" {
		t.Error("Expected non-empty message")
	}
	if apiErr.Details["field"] != "Timestamp" {
		t.Errorf("Details.field = %v, want Timestamp", apiErr.Details["field"])
	}
}
