package postgres

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

// Set POSTGRES_TEST_URL to run, e.g.
// POSTGRES_TEST_URL="postgres://habitual@localhost:5432/habitual_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	userID := "it-" + uuid.NewString()
	habitID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)

	t.Cleanup(func() {
		store.db.Exec("DELETE FROM reminder_logs WHERE user_id = $1", userID)
		store.db.Exec("DELETE FROM users WHERE id = $1", userID)
	})

	t.Run("Users", func(t *testing.T) {
		user := models.User{
			ID:        userID,
			Name:      "Integration",
			Config:    models.UserConfig{WeekStartsAtMonday: true},
			CreatedAt: now,
		}
		if err := store.AddUser(user); err != nil {
			t.Fatalf("AddUser failed: %v", err)
		}
		if err := store.AddUser(user); !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("duplicate AddUser error = %v, want ErrDuplicate", err)
		}
		if err := store.AddPushToken(userID, "tok"); err != nil {
			t.Fatalf("AddPushToken failed: %v", err)
		}
		got, err := store.GetUser(userID)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if !got.Config.WeekStartsAtMonday || len(got.PushTokens) != 1 {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("Habits", func(t *testing.T) {
		freq := 2
		habit := models.Habit{
			ID:            habitID,
			UserID:        userID,
			Name:          "Stretch",
			Frequency:     &freq,
			FrequencyUnit: constants.UnitDay,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := store.AddHabit(habit); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		if err := store.RegisterCompletion(habitID, now); err != nil {
			t.Fatalf("RegisterCompletion failed: %v", err)
		}
		if err := store.RegisterCompletion(habitID, now); err != nil {
			t.Fatalf("RegisterCompletion failed: %v", err)
		}
		got, err := store.GetHabit(habitID)
		if err != nil {
			t.Fatalf("GetHabit failed: %v", err)
		}
		if got.Dates[models.TimestampKey(now)] != 2 {
			t.Errorf("expected count 2, got %v", got.Dates)
		}
		removed, err := store.UnregisterCompletion(habitID, now.Add(-time.Hour))
		if err != nil || !removed {
			t.Errorf("UnregisterCompletion = %v, %v", removed, err)
		}
	})

	t.Run("Reminders", func(t *testing.T) {
		log := models.ReminderLog{Key: habitID + ":it", HabitID: habitID, UserID: userID, SentAt: now}
		inserted, err := store.RecordReminder(log)
		if err != nil || !inserted {
			t.Fatalf("RecordReminder = %v, %v", inserted, err)
		}
		inserted, err = store.RecordReminder(log)
		if err != nil || inserted {
			t.Errorf("duplicate RecordReminder = %v, %v", inserted, err)
		}
		logs, err := store.GetReminderLogs(habitID, 5)
		if err != nil || len(logs) != 1 {
			t.Errorf("GetReminderLogs = %v, %v", logs, err)
		}
	})
}
