package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD in local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.Local)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(layoutDateTime)
}

// AddClockDuration adds an HH:MM duration to an HH:MM clock value with
// 24-hour wraparound: "23:00" + "02:30" = "01:30". A malformed clock or
// duration (wrong token count, non-numeric tokens) returns the clock
// string unmodified.
func AddClockDuration(clock, duration string) string {
	ch, cm, ok := splitClock(clock)
	if !ok {
		return clock
	}
	dh, dm, ok := splitClock(duration)
	if !ok {
		return clock
	}

	minutes := cm + dm
	hours := ch + dh + minutes/60
	minutes %= 60
	hours %= 24

	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// FormatClockDuration turns an HH:MM duration into human units for the
// given language ("02:30" -> "2h 30m"). Malformed input is returned as-is.
func FormatClockDuration(duration, lang string) string {
	h, m, ok := splitClock(duration)
	if !ok {
		return duration
	}

	hourUnit, minuteUnit := "h", "m"
	if lang == "he" {
		hourUnit, minuteUnit = " שע׳", " דק׳"
	}

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%d%s", h, hourUnit))
	}
	if m > 0 || h == 0 {
		parts = append(parts, fmt.Sprintf("%d%s", m, minuteUnit))
	}
	return strings.Join(parts, " ")
}

func splitClock(s string) (hours, minutes int, ok bool) {
	tokens := strings.Split(strings.TrimSpace(s), ":")
	if len(tokens) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
	if err != nil {
		return 0, 0, false
	}
	return h, m, true
}
