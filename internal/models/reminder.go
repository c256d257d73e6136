package models

import "time"

// ReminderLog records a reminder that was delivered for an idempotency key
type ReminderLog struct {
	Key     string    `json:"key"`
	HabitID string    `json:"habit_id"`
	UserID  string    `json:"user_id"`
	SentAt  time.Time `json:"sent_at"`
}
