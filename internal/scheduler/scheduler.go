// Package scheduler runs the reminder dispatcher on a fixed tick.
package scheduler

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/reminder"
)

// Runner is satisfied by *reminder.Dispatcher.
type Runner interface {
	Run(ctx context.Context, now time.Time, bypass bool) (reminder.Result, error)
}

type Scheduler struct {
	runner   Runner
	interval time.Duration
	now      func() time.Time
}

func New(runner Runner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the dispatcher once immediately and then on every tick until
// ctx is cancelled. Each run gets the tick's instant truncated to the
// minute, so a slow run never shifts the minute it evaluates.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info("Reminder scheduler started", "interval", s.interval)
	s.tick(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			logger.Info("Reminder scheduler stopped")
			return nil
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, at time.Time) {
	now := at.UTC().Truncate(time.Minute)
	if _, err := s.runner.Run(ctx, now, false); err != nil && ctx.Err() == nil {
		logger.Error("Scheduled reminder run failed", "at", now, "error", err)
	}
}
