package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// Habit represents a recurring goal owned by a user
type Habit struct {
	ID                  string                  `json:"id"`
	UserID              string                  `json:"user_id"`
	Name                string                  `json:"name"`
	Icon                string                  `json:"icon,omitempty"`
	Frequency           *int                    `json:"frequency,omitempty"`
	FrequencyUnit       constants.FrequencyUnit `json:"frequency_unit,omitempty"`
	Dates               Completions             `json:"dates,omitempty"`
	NotificationEnabled bool                    `json:"notification_enabled"`
	NotificationTime    string                  `json:"notification_time,omitempty"` // HH:MM, UTC
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

// Tracked reports whether the habit has a usable recurrence goal.
// Habits without one report zero progress and zero buffer.
func (h Habit) Tracked() bool {
	return h.Frequency != nil && *h.Frequency > 0 && h.FrequencyUnit.Valid()
}

// Goal returns the per-period goal count, or 0 when untracked.
func (h Habit) Goal() int {
	if !h.Tracked() {
		return 0
	}
	return *h.Frequency
}

// FormatGoal returns a short description like "3/week".
func (h Habit) FormatGoal() string {
	if !h.Tracked() {
		return "untracked"
	}
	return fmt.Sprintf("%d/%s", *h.Frequency, h.FrequencyUnit)
}

// Completions maps an RFC3339 UTC completion timestamp to a positive count.
//
// The JSON form accepts either `true` or a positive integer per key; a count
// of one is written back as `true`.
type Completions map[string]int

// TimestampKey formats t as a completion key.
func TimestampKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Add records one completion at t, incrementing an existing key.
func (c Completions) Add(t time.Time) {
	c[TimestampKey(t)]++
}

// LatestAfter returns the most recent key strictly after since. Keys that
// are not RFC3339 timestamps are ignored.
func (c Completions) LatestAfter(since time.Time) (string, bool) {
	var latestKey string
	var latest time.Time
	for k := range c {
		ts, err := time.Parse(time.RFC3339, k)
		if err != nil || !ts.After(since) {
			continue
		}
		if latestKey == "" || ts.After(latest) {
			latestKey, latest = k, ts
		}
	}
	return latestKey, latestKey != ""
}

// RemoveLatestAfter removes one completion from the most recent key strictly
// after since. It reports whether anything was removed.
func (c Completions) RemoveLatestAfter(since time.Time) bool {
	key, ok := c.LatestAfter(since)
	if !ok {
		return false
	}
	if c[key] > 1 {
		c[key]--
	} else {
		delete(c, key)
	}
	return true
}

// Keys returns the completion keys in ascending order.
func (c Completions) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total returns the sum of all completion counts.
func (c Completions) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

func (c Completions) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(c))
	for k, n := range c {
		if n == 1 {
			raw[k] = true
		} else {
			raw[k] = n
		}
	}
	return json.Marshal(raw)
}

func (c *Completions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Completions, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		switch {
		case bytes.Equal(v, []byte("true")):
			out[k] = 1
		case bytes.Equal(v, []byte("false")), bytes.Equal(v, []byte("null")):
			// falsy markers are not completions
		default:
			var n int
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("completion %q: expected true or a count: %w", k, err)
			}
			if n < 1 {
				return fmt.Errorf("completion %q: count must be positive, got %d", k, n)
			}
			out[k] = n
		}
	}
	*c = out
	return nil
}
