package schedule

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	loc := mustLoadLocation(t, "America/New_York")
	// A Tuesday.
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, loc)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"today", time.Date(2025, 6, 10, 0, 0, 0, 0, loc)},
		{"", time.Date(2025, 6, 10, 0, 0, 0, 0, loc)},
		{"Tomorrow", time.Date(2025, 6, 11, 0, 0, 0, 0, loc)},
		{"yesterday", time.Date(2025, 6, 9, 0, 0, 0, 0, loc)},
		{"friday", time.Date(2025, 6, 13, 0, 0, 0, 0, loc)},
		// A weekday naming today means next week.
		{"tuesday", time.Date(2025, 6, 17, 0, 0, 0, 0, loc)},
		{"2025-07-04", time.Date(2025, 7, 4, 0, 0, 0, 0, loc)},
		{"July 4, 2025", time.Date(2025, 7, 4, 0, 0, 0, 0, loc)},
		{"Jul 4", time.Date(2025, 7, 4, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		got, err := ParseDay(tt.input, now, loc)
		if err != nil {
			t.Errorf("ParseDay(%q) returned an error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDay(%q) = %v, expected %v", tt.input, got, tt.want)
		}
	}
}

func TestParseDay_Invalid(t *testing.T) {
	loc := mustLoadLocation(t, "America/New_York")
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, loc)

	if _, err := ParseDay("not a day", now, loc); err == nil {
		t.Error("Expected an error for an unparseable day")
	}
}

func TestParseEventTime(t *testing.T) {
	loc := mustLoadLocation(t, "America/New_York")
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, loc)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"15:04", time.Date(2025, 6, 10, 15, 4, 0, 0, loc)},
		{"3pm", time.Date(2025, 6, 10, 15, 0, 0, 0, loc)},
		{"3PM", time.Date(2025, 6, 10, 15, 0, 0, 0, loc)},
		{"3:30pm", time.Date(2025, 6, 10, 15, 30, 0, 0, loc)},
		{"3:30 PM", time.Date(2025, 6, 10, 15, 30, 0, 0, loc)},
		{"2025-12-24 09:00", time.Date(2025, 12, 24, 9, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		got, err := ParseEventTime(tt.input, now, loc)
		if err != nil {
			t.Errorf("ParseEventTime(%q) returned an error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseEventTime(%q) = %v, expected %v", tt.input, got, tt.want)
		}
	}
}

func TestParseEventTime_Invalid(t *testing.T) {
	loc := mustLoadLocation(t, "America/New_York")
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, loc)

	if _, err := ParseEventTime("sometime soon", now, loc); err == nil {
		t.Error("Expected an error for an unparseable time")
	}
}
