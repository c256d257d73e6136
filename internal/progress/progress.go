package progress

import (
	"math"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// Snapshot bundles both percentages for a habit at one instant.
type Snapshot struct {
	Progress float64               `json:"progress"`
	Buffer   float64               `json:"buffer"`
	Status   constants.TrackStatus `json:"status"`
	Period   *Period               `json:"period,omitempty"`
}

// Compute returns the percent of the habit's goal completed in the period
// containing now, in [0, 100]. A pending completion not yet saved counts as
// one. Untracked habits report 0.
func Compute(habit models.Habit, now time.Time, pending bool, cfg models.UserConfig) float64 {
	if !habit.Tracked() {
		return 0
	}
	period, ok := ResolvePeriod(habit.FrequencyUnit, now, cfg.WeekStartsAtMonday, cfg.DayStartsAt)
	if !ok {
		return 0
	}

	completed := 0
	if pending {
		completed = 1
	}
	completed += CountSince(habit.Dates, period.Start)

	return clampPercent(float64(completed) / float64(habit.Goal()) * 100)
}

// Buffer returns the percent of the current period already elapsed at now,
// in [0, 100]. Elapsed time is measured from the period start moved forward
// by the day start; day periods already carry it. Untracked habits report 0.
func Buffer(habit models.Habit, now time.Time, cfg models.UserConfig) float64 {
	if !habit.Tracked() {
		return 0
	}
	period, ok := ResolvePeriod(habit.FrequencyUnit, now, cfg.WeekStartsAtMonday, cfg.DayStartsAt)
	if !ok {
		return 0
	}

	start := period.Start
	if habit.FrequencyUnit != constants.UnitDay {
		start = start.Add(cfg.DayStartsAt.Offset())
	}

	maxDuration := utils.MinutesBetween(start, period.End)
	if maxDuration <= 0 {
		return 0
	}
	elapsed := utils.MinutesBetween(start, now)

	return clampPercent(elapsed / maxDuration * 100)
}

// CountSince sums the completions recorded strictly after start. Keys that
// are not RFC3339 timestamps are ignored.
func CountSince(dates models.Completions, start time.Time) int {
	count := 0
	for key, n := range dates {
		ts, err := time.Parse(time.RFC3339, key)
		if err != nil {
			continue
		}
		if ts.After(start) && n > 0 {
			count += n
		}
	}
	return count
}

// Track classifies how far progress lags behind the elapsed buffer.
func Track(progress, buffer float64) constants.TrackStatus {
	delta := buffer - progress
	switch {
	case delta > constants.TrackDangerDelta:
		return constants.TrackDanger
	case delta > constants.TrackWarningDelta:
		return constants.TrackWarning
	default:
		return constants.TrackOnTrack
	}
}

// Evaluate computes a full snapshot for the habit at now.
func Evaluate(habit models.Habit, now time.Time, pending bool, cfg models.UserConfig) Snapshot {
	p := Compute(habit, now, pending, cfg)
	b := Buffer(habit, now, cfg)
	snap := Snapshot{Progress: p, Buffer: b, Status: Track(p, b)}
	if habit.Tracked() {
		if period, ok := ResolvePeriod(habit.FrequencyUnit, now, cfg.WeekStartsAtMonday, cfg.DayStartsAt); ok {
			snap.Period = &period
		}
	}
	return snap
}

func clampPercent(value float64) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
