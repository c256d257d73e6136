// Package tracker applies completion changes to a user's habits and reports
// the resulting progress. The CLI, TUI and HTTP API all go through it.
package tracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/progress"
	"github.com/julianstephens/habitual/internal/storage"
)

// Completion sources, used as metric labels
const (
	SourceAPI = "api"
	SourceCLI = "cli"
	SourceTUI = "tui"
)

// ErrNothingToUnregister is returned when the current period has no completion to remove.
var ErrNothingToUnregister = errors.New("no completion in the current period")

// Store is the subset of storage.Provider the tracker needs.
type Store interface {
	GetUser(id string) (models.User, error)
	GetHabit(id string) (models.Habit, error)
	GetHabitsForUser(userID string) ([]models.Habit, error)
	RegisterCompletion(habitID string, at time.Time) error
	UnregisterCompletion(habitID string, since time.Time) (bool, error)
}

// HabitStatus is a habit together with its progress at one instant.
type HabitStatus struct {
	Habit    models.Habit      `json:"habit"`
	Snapshot progress.Snapshot `json:"progress"`
}

type Service struct {
	store  Store
	source string
}

// New returns a service that labels completion metrics with source.
func New(store Store, source string) *Service {
	return &Service{store: store, source: source}
}

// load fetches the habit and its owner's config, hiding habits owned by
// someone else behind storage.ErrNotFound.
func (s *Service) load(userID, habitID string) (models.Habit, models.UserConfig, error) {
	habit, err := s.store.GetHabit(habitID)
	if err != nil {
		return models.Habit{}, models.UserConfig{}, err
	}
	if habit.UserID != userID {
		return models.Habit{}, models.UserConfig{}, fmt.Errorf("habit %s: %w", habitID, storage.ErrNotFound)
	}
	user, err := s.store.GetUser(userID)
	if err != nil {
		return models.Habit{}, models.UserConfig{}, err
	}
	if habit.Dates == nil {
		habit.Dates = models.Completions{}
	}
	return habit, user.Config, nil
}

// Register records a completion at now and returns the updated status.
func (s *Service) Register(userID, habitID string, now time.Time) (HabitStatus, error) {
	habit, cfg, err := s.load(userID, habitID)
	if err != nil {
		return HabitStatus{}, err
	}

	if err := s.store.RegisterCompletion(habitID, now); err != nil {
		return HabitStatus{}, fmt.Errorf("failed to register completion: %w", err)
	}
	habit.Dates.Add(now)
	metrics.IncrementCompletion("register", s.source)
	logger.Debug("Registered completion", "habit", habitID, "user", userID, "source", s.source)

	return HabitStatus{Habit: habit, Snapshot: progress.Evaluate(habit, now, false, cfg)}, nil
}

// Unregister removes the latest completion counted towards the period
// containing now. Untracked habits have no period, so their latest
// completion is removed.
func (s *Service) Unregister(userID, habitID string, now time.Time) (HabitStatus, error) {
	habit, cfg, err := s.load(userID, habitID)
	if err != nil {
		return HabitStatus{}, err
	}

	var since time.Time
	if habit.Tracked() {
		if period, ok := progress.ResolvePeriod(habit.FrequencyUnit, now, cfg.WeekStartsAtMonday, cfg.DayStartsAt); ok {
			since = period.Start
		}
	}

	removed, err := s.store.UnregisterCompletion(habitID, since)
	if err != nil {
		return HabitStatus{}, fmt.Errorf("failed to unregister completion: %w", err)
	}
	if !removed {
		return HabitStatus{}, ErrNothingToUnregister
	}
	habit.Dates.RemoveLatestAfter(since)
	metrics.IncrementCompletion("unregister", s.source)
	logger.Debug("Unregistered completion", "habit", habitID, "user", userID, "source", s.source)

	return HabitStatus{Habit: habit, Snapshot: progress.Evaluate(habit, now, false, cfg)}, nil
}

// Status reports progress without changing anything. pending counts one
// extra completion, as a preview of registering now.
func (s *Service) Status(userID, habitID string, now time.Time, pending bool) (HabitStatus, error) {
	habit, cfg, err := s.load(userID, habitID)
	if err != nil {
		return HabitStatus{}, err
	}
	return HabitStatus{Habit: habit, Snapshot: progress.Evaluate(habit, now, pending, cfg)}, nil
}

// List evaluates every habit of the user against the same now.
func (s *Service) List(userID string, now time.Time) ([]HabitStatus, error) {
	user, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	habits, err := s.store.GetHabitsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}

	statuses := make([]HabitStatus, 0, len(habits))
	for _, h := range habits {
		statuses = append(statuses, HabitStatus{Habit: h, Snapshot: progress.Evaluate(h, now, false, user.Config)})
	}
	return statuses, nil
}
