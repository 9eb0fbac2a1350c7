package utils

import (
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	ClockTimeLayout = "15:04"
)

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// NormalizeClockTime validates an "HH:MM" value and returns it zero padded.
func NormalizeClockTime(s string) (string, error) {
	t, err := time.Parse(ClockTimeLayout, s)
	if err != nil {
		// accept "7:05"
		if t, err = time.Parse("15:4", s); err != nil {
			return "", fmt.Errorf("invalid time of day %q", s)
		}
	}
	return t.Format(ClockTimeLayout), nil
}

func FormatRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
