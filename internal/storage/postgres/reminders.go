package postgres

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

func (s *Store) RecordReminder(log models.ReminderLog) (bool, error) {
	result, err := s.db.Exec(`
		INSERT INTO reminder_logs (key, habit_id, user_id, sent_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT(key) DO NOTHING`,
		log.Key, log.HabitID, log.UserID, storage.FormatTime(log.SentAt))
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (s *Store) HasReminder(key string) (bool, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM reminder_logs WHERE key = $1`, key).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteReminder releases a key so a failed delivery can be retried.
func (s *Store) DeleteReminder(key string) error {
	_, err := s.db.Exec(`DELETE FROM reminder_logs WHERE key = $1`, key)
	return err
}

// GetReminderLogs returns the most recent reminders for a habit, newest first.
// An empty habitID returns reminders for every habit.
func (s *Store) GetReminderLogs(habitID string, limit int) ([]models.ReminderLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT key, habit_id, user_id, sent_at FROM reminder_logs`
	args := []any{}
	if habitID != "" {
		args = append(args, habitID)
		query += fmt.Sprintf(` WHERE habit_id = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY sent_at DESC, key DESC LIMIT $%d`, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.ReminderLog{}
	for rows.Next() {
		l, err := storage.ScanReminderLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
