package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/progress"
)

// Store is the subset of storage.Provider the dispatcher reads and writes.
type Store interface {
	GetAllUsers() ([]models.User, error)
	GetHabitsForUser(userID string) ([]models.Habit, error)
	RecordReminder(models.ReminderLog) (bool, error)
}

// Result summarises one dispatcher run.
type Result struct {
	Evaluated int `json:"evaluated"`
	Eligible  int `json:"eligible"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (r Result) String() string {
	return fmt.Sprintf("evaluated=%d eligible=%d sent=%d skipped=%d failed=%d",
		r.Evaluated, r.Eligible, r.Sent, r.Skipped, r.Failed)
}

type Dispatcher struct {
	store    Store
	notifier notifier.Notifier
	deduper  Deduper
	title    string
}

// NewDispatcher wires a dispatcher. A nil deduper means every eligible
// reminder is delivered.
func NewDispatcher(store Store, n notifier.Notifier, deduper Deduper) *Dispatcher {
	return &Dispatcher{
		store:    store,
		notifier: n,
		deduper:  deduper,
		title:    constants.DefaultReminderTitle,
	}
}

// Run evaluates every habit of every user against the single instant now and
// delivers due reminders. Per-habit failures are counted, not returned; the
// error is reserved for failures to list users.
func (d *Dispatcher) Run(ctx context.Context, now time.Time, bypass bool) (Result, error) {
	start := time.Now()
	defer func() { metrics.RecordDispatchDuration(time.Since(start)) }()

	var result Result
	users, err := d.store.GetAllUsers()
	if err != nil {
		return result, fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		habits, err := d.store.GetHabitsForUser(user.ID)
		if err != nil {
			logger.Error("Failed to list habits", "user", user.ID, "error", err)
			result.Failed++
			metrics.IncrementReminder(metrics.OutcomeFailed)
			continue
		}

		for _, habit := range habits {
			result.Evaluated++
			if !Eligible(habit, user.Config, now, bypass) {
				continue
			}
			result.Eligible++

			switch d.deliver(ctx, user, habit, now, bypass) {
			case metrics.OutcomeSent:
				result.Sent++
			case metrics.OutcomeSkipped:
				result.Skipped++
			default:
				result.Failed++
			}
		}
	}

	logger.Info("Reminder dispatch finished", "bypass", bypass, "result", result.String())
	return result, nil
}

func (d *Dispatcher) deliver(ctx context.Context, user models.User, habit models.Habit, now time.Time, bypass bool) string {
	entry := models.ReminderLog{
		Key:     Key(habit.ID, now, bypass),
		HabitID: habit.ID,
		UserID:  user.ID,
		SentAt:  now.UTC(),
	}

	if d.deduper != nil && !d.deduper.Acquire(ctx, entry) {
		metrics.IncrementReminder(metrics.OutcomeSkipped)
		return metrics.OutcomeSkipped
	}

	percent := progress.Compute(habit, now, false, user.Config)
	body := MessageBody(habit, percent)

	targets := user.PushTokens
	if len(targets) == 0 {
		targets = []string{""}
	}

	delivered := 0
	noRecipient := 0
	for _, token := range targets {
		err := d.notifier.Send(ctx, notifier.Message{To: token, Title: d.title, Body: body})
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, notifier.ErrNoRecipient):
			noRecipient++
		default:
			logger.Warn("Reminder delivery failed", "habit", habit.ID, "user", user.ID, "error", err)
		}
	}

	if delivered == 0 {
		if d.deduper != nil {
			d.deduper.Release(ctx, entry.Key)
		}
		if noRecipient == len(targets) {
			logger.Debug("No device registered for reminder", "habit", habit.ID, "user", user.ID)
			metrics.IncrementReminder(metrics.OutcomeSkipped)
			return metrics.OutcomeSkipped
		}
		metrics.IncrementReminder(metrics.OutcomeFailed)
		return metrics.OutcomeFailed
	}

	// Keep an audit trail even when the deduper is not the store itself.
	if _, err := d.store.RecordReminder(entry); err != nil {
		logger.Warn("Failed to record reminder", "key", entry.Key, "error", err)
	}
	logger.Info("Reminder sent", "habit", habit.Name, "user", user.ID, "devices", delivered)
	metrics.IncrementReminder(metrics.OutcomeSent)
	return metrics.OutcomeSent
}
