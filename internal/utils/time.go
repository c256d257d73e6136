package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// ParseClock parses an HH:MM string into its hour and minute.
func ParseClock(timeStr string) (hour, minute int, err error) {
	t, err := ParseTime(timeStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: %w", timeStr, err)
	}
	return t.Hour(), t.Minute(), nil
}

// ClockUTC returns the UTC wall-clock time of t as HH:MM.
func ClockUTC(t time.Time) string {
	return t.UTC().Format(constants.TimeFormat)
}

// DateUTC returns the UTC calendar date of t as YYYY-MM-DD.
func DateUTC(t time.Time) string {
	return t.UTC().Format(constants.DateFormat)
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTime(timeStr)
	return err == nil
}

// ParseInstant parses a user-supplied instant. It accepts RFC3339, a bare
// date (midnight UTC) or "YYYY-MM-DD HH:MM" (UTC).
func ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(constants.DateFormat+" "+constants.TimeFormat, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(constants.DateFormat, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid instant %q: expected RFC3339, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\"", s)
}

// MinutesBetween returns the number of minutes from start to end, which may be
// negative or fractional.
func MinutesBetween(start, end time.Time) float64 {
	return end.Sub(start).Minutes()
}
