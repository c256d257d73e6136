package storage

import (
	"errors"
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

var (
	// ErrNotFound is returned when a user, habit or completion does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint (such as a habit name per user) is violated
	ErrDuplicate = errors.New("already exists")
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Users
	AddUser(models.User) error
	GetUser(id string) (models.User, error)
	GetAllUsers() ([]models.User, error)
	UpdateUserConfig(userID string, cfg models.UserConfig) error
	AddPushToken(userID, token string) error
	RemovePushToken(userID, token string) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitByName(userID, name string) (models.Habit, error)
	GetHabitsForUser(userID string) ([]models.Habit, error)
	// UpdateHabit overwrites the habit definition. Completions are left untouched.
	UpdateHabit(models.Habit) error
	DeleteHabit(id string) error

	// Completions
	// RegisterCompletion records one completion at the given instant, incrementing
	// the count when a completion already exists for that exact second.
	RegisterCompletion(habitID string, at time.Time) error
	// UnregisterCompletion removes one unit from the most recent completion
	// strictly after since. It returns false when there was nothing to remove.
	UnregisterCompletion(habitID string, since time.Time) (bool, error)

	// Reminder log
	// RecordReminder stores the log entry unless its key already exists.
	// It returns true when the entry was inserted.
	RecordReminder(models.ReminderLog) (bool, error)
	HasReminder(key string) (bool, error)
	DeleteReminder(key string) error
	GetReminderLogs(habitID string, limit int) ([]models.ReminderLog, error)

	// Utils
	GetConfigPath() string
}
