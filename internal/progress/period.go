// Package progress computes how far a habit is toward its recurrence goal in
// the current period, and how much of that period has already elapsed.
//
// Everything in this package is a pure function of its arguments. Callers
// capture "now" once and pass it in so a batch of habits is evaluated against
// a consistent instant.
package progress

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// Period is the half-open window [Start, End) a habit goal is measured in.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// ResolvePeriod returns the day, week or month period containing ref, in UTC.
//
// dayStart only moves day boundaries: a reference instant before the day
// start belongs to the previous day. Week and month periods stay on calendar
// midnight. The second return value is false for unknown units, which callers
// treat as untracked.
func ResolvePeriod(unit constants.FrequencyUnit, ref time.Time, weekStartsAtMonday bool, dayStart *models.DayStart) (Period, bool) {
	ref = ref.UTC()

	switch unit {
	case constants.UnitDay:
		offset := dayStart.Offset()
		shifted := ref.Add(-offset)
		start := calendarDay(shifted).Add(offset)
		return Period{Start: start, End: start.AddDate(0, 0, 1)}, true

	case constants.UnitWeek:
		start := weekStart(calendarDay(ref), weekStartsAtMonday)
		return Period{Start: start, End: start.AddDate(0, 0, 7)}, true

	case constants.UnitMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: first, End: first.AddDate(0, 1, 0)}, true
	}

	return Period{}, false
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart returns the midnight the week containing day began on.
func weekStart(day time.Time, weekStartsAtMonday bool) time.Time {
	start := day.AddDate(0, 0, -int(day.Weekday()))
	if !weekStartsAtMonday {
		return start
	}

	start = start.AddDate(0, 0, 1)
	// On a Sunday the Monday after the Sunday-based start is tomorrow, which
	// belongs to next week.
	if start.After(day) {
		start = start.AddDate(0, 0, -7)
	}
	return start
}
