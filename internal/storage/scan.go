package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// HabitColumns is the column list ScanHabit expects, in order.
const HabitColumns = "id, user_id, name, icon, frequency, frequency_unit, notification_enabled, notification_time, created_at, updated_at"

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// FormatTime renders a timestamp the way every backend stores it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTime parses a stored timestamp.
func ParseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return t, nil
}

// ScanHabit reads a habit row selected with HabitColumns. Completions are
// loaded separately.
func ScanHabit(row RowScanner) (models.Habit, error) {
	var h models.Habit
	var frequency sql.NullInt64
	var unit sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Icon, &frequency, &unit,
		&h.NotificationEnabled, &h.NotificationTime, &createdAt, &updatedAt)
	if err != nil {
		return models.Habit{}, err
	}

	if frequency.Valid {
		f := int(frequency.Int64)
		h.Frequency = &f
	}
	if unit.Valid {
		h.FrequencyUnit = constants.FrequencyUnit(unit.String)
	}
	if h.CreatedAt, err = ParseTime("created_at", createdAt); err != nil {
		return models.Habit{}, err
	}
	if h.UpdatedAt, err = ParseTime("updated_at", updatedAt); err != nil {
		return models.Habit{}, err
	}
	h.Dates = models.Completions{}
	return h, nil
}

// HabitArgs returns the values for an insert or update, in HabitColumns order.
func HabitArgs(h models.Habit) []any {
	var frequency sql.NullInt64
	if h.Frequency != nil {
		frequency = sql.NullInt64{Int64: int64(*h.Frequency), Valid: true}
	}
	var unit sql.NullString
	if h.FrequencyUnit != "" {
		unit = sql.NullString{String: string(h.FrequencyUnit), Valid: true}
	}
	return []any{
		h.ID, h.UserID, h.Name, h.Icon, frequency, unit,
		h.NotificationEnabled, h.NotificationTime,
		FormatTime(h.CreatedAt), FormatTime(h.UpdatedAt),
	}
}

// ScanReminderLog reads a key, habit_id, user_id, sent_at row.
func ScanReminderLog(row RowScanner) (models.ReminderLog, error) {
	var l models.ReminderLog
	var sentAt string
	if err := row.Scan(&l.Key, &l.HabitID, &l.UserID, &sentAt); err != nil {
		return models.ReminderLog{}, err
	}
	var err error
	if l.SentAt, err = ParseTime("sent_at", sentAt); err != nil {
		return models.ReminderLog{}, err
	}
	return l, nil
}
