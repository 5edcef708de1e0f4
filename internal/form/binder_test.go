package form

import (
	"testing"
	"time"

	"favehub/internal/docstore"
	"favehub/internal/domain/event"
)

func TestFromEventRendersLocalWallClock(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e := event.Event{
		Name:        "City Marathon",
		Description: "Annual run",
		StartAt:     start,
		Category:    event.CategorySports,
		IsPrivate:   true,
	}

	// offsets on both sides of UTC render the same instant as local wall clock
	tests := []struct {
		name string
		loc  *time.Location
		want string
	}{
		{"utc", time.UTC, "2025-03-01T10:00"},
		{"east_of_utc", time.FixedZone("UTC+2", 2*3600), "2025-03-01T12:00"},
		{"west_of_utc", time.FixedZone("UTC-5", -5*3600), "2025-03-01T05:00"},
		{"half_hour_offset", time.FixedZone("UTC+5:30", 5*3600+1800), "2025-03-01T15:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromEvent(e, tt.loc)

			if got.DateTime != tt.want {
				t.Fatalf("DateTime = %q, want %q", got.DateTime, tt.want)
			}
			if got.Name != "City Marathon" || got.Category != "Sports" {
				t.Fatalf("fields %+v", got)
			}
			if got.IsPrivate != "on" {
				t.Fatalf("IsPrivate = %q", got.IsPrivate)
			}
		})
	}
}

func TestFromEventUncheckedPrivate(t *testing.T) {
	e := event.Event{StartAt: time.Now().UTC()}

	if got := FromEvent(e, time.UTC); got.IsPrivate != "" {
		t.Fatalf("IsPrivate = %q, want empty", got.IsPrivate)
	}
}

func TestDateTimeValueShapes(t *testing.T) {
	instant := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*3600)

	// raw value and timestamp wrapper must render identically
	tests := []struct {
		name  string
		value any
	}{
		{"time_value", instant},
		{"wrapper", docstore.Timestamp{Seconds: instant.Unix()}},
		{"wrapper_pointer", &docstore.Timestamp{Seconds: instant.Unix()}},
		{"rfc3339_string", "2025-03-01T10:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DateTimeValue(tt.value, loc)
			if err != nil {
				t.Fatalf("DateTimeValue: %v", err)
			}
			if got != "2025-03-01T12:00" {
				t.Fatalf("got %q", got)
			}
		})
	}
}

func TestDateTimeValueRejectsUnknownShape(t *testing.T) {
	if _, err := DateTimeValue(42, time.UTC); err == nil {
		t.Fatal("expected error for unsupported value")
	}
}

func TestToRequest(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)

	f := Fields{
		Name:        "  Jazz Night  ",
		Description: " Late set ",
		DateTime:    "2025-03-01T12:00",
		Category:    "Music",
		IsPrivate:   "on",
	}

	req, err := f.ToRequest(loc)
	if err != nil {
		t.Fatalf("ToRequest: %v", err)
	}

	if req.Name != "Jazz Night" || req.Description != "Late set" {
		t.Fatalf("trimmed fields %+v", req)
	}

	// wall clock in UTC+2 is 10:00 UTC
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !req.StartAt.Equal(want) {
		t.Fatalf("StartAt = %v, want %v", req.StartAt, want)
	}
	if req.Category != "Music" || !req.IsPrivate {
		t.Fatalf("request %+v", req)
	}
}

func TestToRequestDefaults(t *testing.T) {
	f := Fields{
		Name:     "Minimal",
		DateTime: "2025-03-01T10:00",
	}

	req, err := f.ToRequest(time.UTC)
	if err != nil {
		t.Fatalf("ToRequest: %v", err)
	}

	if req.Category != "Other" {
		t.Fatalf("blank category = %q, want Other", req.Category)
	}
	if req.IsPrivate {
		t.Fatal("absent checkbox coerced to true")
	}
}

func TestToRequestInvalidDateTime(t *testing.T) {
	f := Fields{Name: "X", DateTime: "March 1st"}

	if _, err := f.ToRequest(time.UTC); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRoundTripPreservesInstant(t *testing.T) {
	start := time.Date(2025, 11, 7, 19, 30, 0, 0, time.UTC)
	e := event.Event{Name: "Reading", StartAt: start, Category: event.CategorySocial}
	loc := time.FixedZone("UTC-8", -8*3600)

	req, err := FromEvent(e, loc).ToRequest(loc)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}

	if !req.StartAt.Equal(start) {
		t.Fatalf("instant drifted: %v -> %v", start, req.StartAt)
	}
}
