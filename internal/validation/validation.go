package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

var (
	ErrEmptyName            = errors.New("habit name cannot be empty")
	ErrInvalidFrequency     = errors.New("frequency must be a positive integer")
	ErrInvalidUnit          = errors.New("frequency unit must be one of day, week, month")
	ErrIncompleteRecurrence = errors.New("frequency and frequency unit must be set together")
	ErrInvalidReminderTime  = errors.New("notification time must be HH:MM")
)

// ValidateHabit checks a habit at the edit boundary, before it is persisted.
func ValidateHabit(h models.Habit) error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}

	hasFrequency := h.Frequency != nil
	hasUnit := h.FrequencyUnit != ""
	if hasFrequency != hasUnit {
		return ErrIncompleteRecurrence
	}
	if hasFrequency && *h.Frequency <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidFrequency, *h.Frequency)
	}
	if hasUnit && !h.FrequencyUnit.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidUnit, h.FrequencyUnit)
	}

	if h.NotificationEnabled || h.NotificationTime != "" {
		if !utils.ValidateTimeFormat(h.NotificationTime) {
			return fmt.Errorf("%w: got %q", ErrInvalidReminderTime, h.NotificationTime)
		}
	}

	return nil
}

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictInvalidHabit       ConflictType = "invalid_habit"
	ConflictInvalidCompletion  ConflictType = "invalid_completion"
	ConflictFutureCompletion   ConflictType = "future_completion"
)

// Conflict represents a detected problem in stored habits
type Conflict struct {
	Type        ConflictType
	Description string
	HabitIDs    []string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// ValidateHabits checks stored habits for integrity problems. now is used to
// flag completions recorded in the future.
func ValidateHabits(habits []models.Habit, now time.Time) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	// Names are unique per user
	byName := make(map[string][]string)
	for _, h := range habits {
		key := h.UserID + "\x00" + strings.ToLower(strings.TrimSpace(h.Name))
		byName[key] = append(byName[key], h.ID)
	}
	keys := make([]string, 0, len(byName))
	for k := range byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ids := byName[k]
		if len(ids) < 2 {
			continue
		}
		name := k[strings.IndexByte(k, 0)+1:]
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateHabitName,
			Description: fmt.Sprintf("Duplicate habit name %q (%d habits)", name, len(ids)),
			HabitIDs:    ids,
		})
	}

	for _, h := range habits {
		if err := ValidateHabit(h); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidHabit,
				Description: fmt.Sprintf("Habit %q: %v", h.Name, err),
				HabitIDs:    []string{h.ID},
			})
		}

		for _, key := range h.Dates.Keys() {
			ts, err := time.Parse(time.RFC3339, key)
			if err != nil {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidCompletion,
					Description: fmt.Sprintf("Habit %q has unparseable completion %q", h.Name, key),
					HabitIDs:    []string{h.ID},
				})
				continue
			}
			if ts.After(now) {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictFutureCompletion,
					Description: fmt.Sprintf("Habit %q has a completion in the future (%s)", h.Name, key),
					HabitIDs:    []string{h.ID},
				})
			}
		}
	}

	return result
}
