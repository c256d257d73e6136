// Package reminder decides which habits are due a reminder and delivers them
// at most once per habit and minute.
package reminder

import (
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/progress"
	"github.com/julianstephens/habitual/internal/utils"
)

// Eligible reports whether a reminder should go out for habit at now.
//
// A habit with reminders disabled is never eligible. Otherwise bypass makes it
// eligible unconditionally; without bypass the habit's notification time must
// equal now's UTC HH:MM and the current period's goal must not be met yet.
func Eligible(habit models.Habit, cfg models.UserConfig, now time.Time, bypass bool) bool {
	if !habit.NotificationEnabled {
		return false
	}
	if bypass {
		return true
	}
	if habit.NotificationTime != utils.ClockUTC(now) {
		return false
	}
	return progress.Compute(habit, now, false, cfg) < 100
}

// Key is the idempotency key for a reminder: habitID:YYYY-MM-DD:HH:MM in UTC.
// Bypass sends get their own key so they never suppress the scheduled one.
func Key(habitID string, now time.Time, bypass bool) string {
	key := fmt.Sprintf("%s:%s:%s", habitID, utils.DateUTC(now), utils.ClockUTC(now))
	if bypass {
		key += ":bypass"
	}
	return key
}

// MessageBody renders the reminder text.
func MessageBody(habit models.Habit, percent float64) string {
	return fmt.Sprintf("Don't forget: %s (%d%% done)", habit.Name, int(math.Round(percent)))
}
