package utils

import "testing"

func TestAddClockDurationWrapsMidnight(t *testing.T) {
	got := AddClockDuration("23:00", "02:30")
	if got != "01:30" {
		t.Fatalf("expected 01:30, got %s", got)
	}
}

func TestAddClockDurationSameDay(t *testing.T) {
	got := AddClockDuration("11:00", "00:45")
	if got != "11:45" {
		t.Fatalf("expected 11:45, got %s", got)
	}
}

func TestAddClockDurationMinuteCarry(t *testing.T) {
	got := AddClockDuration("10:50", "00:20")
	if got != "11:10" {
		t.Fatalf("expected 11:10, got %s", got)
	}
}

func TestAddClockDurationMalformedInputReturnsClock(t *testing.T) {
	cases := []struct{ clock, duration string }{
		{"abc", "01:00"},
		{"10:00", "soon"},
		{"10:00:00", "01:00"},
		{"", "01:00"},
		{"10:00", ""},
	}
	for _, tc := range cases {
		if got := AddClockDuration(tc.clock, tc.duration); got != tc.clock {
			t.Fatalf("AddClockDuration(%q, %q) = %q, want clock unchanged", tc.clock, tc.duration, got)
		}
	}
}

func TestFormatClockDurationEnglish(t *testing.T) {
	if got := FormatClockDuration("02:30", "en"); got != "2h 30m" {
		t.Fatalf("expected 2h 30m, got %q", got)
	}
	if got := FormatClockDuration("02:00", "en"); got != "2h" {
		t.Fatalf("expected 2h, got %q", got)
	}
	if got := FormatClockDuration("00:45", "en"); got != "45m" {
		t.Fatalf("expected 45m, got %q", got)
	}
}

func TestFormatClockDurationHebrewUnits(t *testing.T) {
	got := FormatClockDuration("01:15", "he")
	if got != "1 שע׳ 15 דק׳" {
		t.Fatalf("unexpected hebrew rendering: %q", got)
	}
}

func TestFormatClockDurationMalformedPassthrough(t *testing.T) {
	if got := FormatClockDuration("soon", "en"); got != "soon" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
