package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

func intPtr(n int) *int {
	return &n
}

func TestValidateHabit(t *testing.T) {
	tests := []struct {
		name    string
		habit   models.Habit
		wantErr error
	}{
		{
			name:  "untracked habit",
			habit: models.Habit{Name: "Stretch"},
		},
		{
			name:  "tracked habit with reminder",
			habit: models.Habit{Name: "Read", Frequency: intPtr(3), FrequencyUnit: constants.UnitWeek, NotificationEnabled: true, NotificationTime: "20:30"},
		},
		{
			name:    "blank name",
			habit:   models.Habit{Name: "   "},
			wantErr: ErrEmptyName,
		},
		{
			name:    "zero frequency",
			habit:   models.Habit{Name: "Read", Frequency: intPtr(0), FrequencyUnit: constants.UnitDay},
			wantErr: ErrInvalidFrequency,
		},
		{
			name:    "negative frequency",
			habit:   models.Habit{Name: "Read", Frequency: intPtr(-1), FrequencyUnit: constants.UnitDay},
			wantErr: ErrInvalidFrequency,
		},
		{
			name:    "frequency without unit",
			habit:   models.Habit{Name: "Read", Frequency: intPtr(1)},
			wantErr: ErrIncompleteRecurrence,
		},
		{
			name:    "unit without frequency",
			habit:   models.Habit{Name: "Read", FrequencyUnit: constants.UnitDay},
			wantErr: ErrIncompleteRecurrence,
		},
		{
			name:    "unknown unit",
			habit:   models.Habit{Name: "Read", Frequency: intPtr(1), FrequencyUnit: "year"},
			wantErr: ErrInvalidUnit,
		},
		{
			name:    "reminder enabled without time",
			habit:   models.Habit{Name: "Read", NotificationEnabled: true},
			wantErr: ErrInvalidReminderTime,
		},
		{
			name:    "malformed reminder time",
			habit:   models.Habit{Name: "Read", NotificationTime: "8pm"},
			wantErr: ErrInvalidReminderTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHabit(tt.habit)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateHabit() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateHabit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHabits(t *testing.T) {
	now := time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC)
	habits := []models.Habit{
		{ID: "h1", UserID: "u1", Name: "Read"},
		{ID: "h2", UserID: "u1", Name: "read "},
		{ID: "h3", UserID: "u2", Name: "Read"},
		{ID: "h4", UserID: "u1", Name: "Run", Dates: models.Completions{
			"garbage":              1,
			"2024-06-12T08:00:00Z": 1,
			"2024-06-10T08:00:00Z": 1,
		}},
		{ID: "h5", UserID: "u1", Name: "Swim", Frequency: intPtr(0), FrequencyUnit: constants.UnitDay},
	}

	result := ValidateHabits(habits, now)
	counts := make(map[ConflictType]int)
	for _, c := range result.Conflicts {
		counts[c.Type]++
	}

	if counts[ConflictDuplicateHabitName] != 1 {
		t.Errorf("duplicate name conflicts = %d, want 1", counts[ConflictDuplicateHabitName])
	}
	if counts[ConflictInvalidCompletion] != 1 {
		t.Errorf("invalid completion conflicts = %d, want 1", counts[ConflictInvalidCompletion])
	}
	if counts[ConflictFutureCompletion] != 1 {
		t.Errorf("future completion conflicts = %d, want 1", counts[ConflictFutureCompletion])
	}
	if counts[ConflictInvalidHabit] != 1 {
		t.Errorf("invalid habit conflicts = %d, want 1", counts[ConflictInvalidHabit])
	}

	report := result.FormatReport()
	if !strings.Contains(report, "Duplicate habit name") {
		t.Errorf("report missing duplicate entry: %s", report)
	}
}

func TestValidateHabits_Clean(t *testing.T) {
	result := ValidateHabits([]models.Habit{{ID: "h1", UserID: "u1", Name: "Read"}}, time.Now())
	if result.HasConflicts() {
		t.Errorf("expected no conflicts, got %s", result.FormatReport())
	}
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("unexpected report: %s", result.FormatReport())
	}
}
