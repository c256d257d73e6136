package postgres

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

func (s *Store) AddHabit(habit models.Habit) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO habits (`+storage.HabitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, storage.HabitArgs(habit)...)
	if err != nil {
		return translateError(err, fmt.Sprintf("add habit %q", habit.Name))
	}
	for key, count := range habit.Dates {
		if _, err := tx.Exec(`INSERT INTO habit_completions (habit_id, ts, count) VALUES ($1, $2, $3)`,
			habit.ID, key, count); err != nil {
			return fmt.Errorf("failed to import completion %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`SELECT `+storage.HabitColumns+` FROM habits WHERE id = $1`, id)
	h, err := storage.ScanHabit(row)
	if err != nil {
		return models.Habit{}, translateError(err, "habit "+id)
	}
	if err := s.loadCompletions(map[string]*models.Habit{h.ID: &h}, `WHERE habit_id = $1`, h.ID); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) GetHabitByName(userID, name string) (models.Habit, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM habits WHERE user_id = $1 AND name = $2`, userID, name).Scan(&id)
	if err != nil {
		return models.Habit{}, translateError(err, fmt.Sprintf("habit %q", name))
	}
	return s.GetHabit(id)
}

func (s *Store) GetHabitsForUser(userID string) ([]models.Habit, error) {
	rows, err := s.db.Query(`SELECT `+storage.HabitColumns+` FROM habits WHERE user_id = $1 ORDER BY created_at, name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := storage.ScanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	byID := make(map[string]*models.Habit, len(habits))
	for i := range habits {
		byID[habits[i].ID] = &habits[i]
	}
	err = s.loadCompletions(byID,
		`WHERE habit_id IN (SELECT id FROM habits WHERE user_id = $1)`, userID)
	if err != nil {
		return nil, err
	}
	return habits, nil
}

func (s *Store) loadCompletions(byID map[string]*models.Habit, where string, args ...any) error {
	rows, err := s.db.Query(`SELECT habit_id, ts, count FROM habit_completions `+where, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var habitID, ts string
		var count int
		if err := rows.Scan(&habitID, &ts, &count); err != nil {
			return err
		}
		if h, ok := byID[habitID]; ok {
			h.Dates[ts] = count
		}
	}
	return rows.Err()
}

func (s *Store) UpdateHabit(habit models.Habit) error {
	args := storage.HabitArgs(habit)
	// id and created_at are immutable
	result, err := s.db.Exec(`
		UPDATE habits SET user_id = $1, name = $2, icon = $3, frequency = $4, frequency_unit = $5,
			notification_enabled = $6, notification_time = $7, updated_at = $8
		WHERE id = $9`,
		args[1], args[2], args[3], args[4], args[5], args[6], args[7], args[9], habit.ID)
	if err != nil {
		return translateError(err, fmt.Sprintf("update habit %q", habit.Name))
	}
	return requireRow(result, "habit "+habit.ID)
}

func (s *Store) DeleteHabit(id string) error {
	result, err := s.db.Exec(`DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result, "habit "+id)
}

func (s *Store) RegisterCompletion(habitID string, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE habits SET updated_at = $1 WHERE id = $2`, storage.FormatTime(time.Now()), habitID)
	if err != nil {
		return err
	}
	if err := requireRow(result, "habit "+habitID); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO habit_completions (habit_id, ts, count) VALUES ($1, $2, 1)
		ON CONFLICT(habit_id, ts) DO UPDATE SET count = habit_completions.count + 1`,
		habitID, models.TimestampKey(at))
	if err != nil {
		return fmt.Errorf("failed to register completion: %w", err)
	}
	return tx.Commit()
}

func (s *Store) UnregisterCompletion(habitID string, since time.Time) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM habits WHERE id = $1`, habitID).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, fmt.Errorf("habit %s: %w", habitID, storage.ErrNotFound)
	}

	rows, err := tx.Query(`SELECT ts, count FROM habit_completions WHERE habit_id = $1`, habitID)
	if err != nil {
		return false, err
	}
	dates := models.Completions{}
	for rows.Next() {
		var ts string
		var count int
		if err := rows.Scan(&ts, &count); err != nil {
			rows.Close()
			return false, err
		}
		dates[ts] = count
	}
	rows.Close()

	key, ok := dates.LatestAfter(since)
	if !ok {
		return false, nil
	}
	if dates[key] > 1 {
		_, err = tx.Exec(`UPDATE habit_completions SET count = count - 1 WHERE habit_id = $1 AND ts = $2`, habitID, key)
	} else {
		_, err = tx.Exec(`DELETE FROM habit_completions WHERE habit_id = $1 AND ts = $2`, habitID, key)
	}
	if err != nil {
		return false, fmt.Errorf("failed to unregister completion: %w", err)
	}
	if _, err := tx.Exec(`UPDATE habits SET updated_at = $1 WHERE id = $2`, storage.FormatTime(time.Now()), habitID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}
