package tui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

type HabitFormModel struct {
	Name      string
	Icon      string
	Frequency string
	Unit      string
	Remind    string
}

func NewHabitForm(f *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&f.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return validation.ErrEmptyName
					}
					return nil
				}),
			huh.NewInput().
				Title("Icon").
				Placeholder("optional").
				Value(&f.Icon),
			huh.NewSelect[string]().
				Title("Repeat").
				Options(
					huh.NewOption("Untracked", ""),
					huh.NewOption("Daily", string(constants.UnitDay)),
					huh.NewOption("Weekly", string(constants.UnitWeek)),
					huh.NewOption("Monthly", string(constants.UnitMonth)),
				).
				Value(&f.Unit),
			huh.NewInput().
				Title("Times per period").
				Placeholder("1").
				Value(&f.Frequency).
				Validate(validateFrequency),
			huh.NewInput().
				Title("Reminder (HH:MM UTC)").
				Placeholder("optional").
				Value(&f.Remind).
				Validate(func(s string) error {
					if s != "" && !utils.ValidateTimeFormat(s) {
						return validation.ErrInvalidReminderTime
					}
					return nil
				}),
		),
	)
}

func validateFrequency(s string) error {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return errors.New("must be a positive whole number")
	}
	return nil
}

// toHabit builds a validated habit from the submitted form. A repeat unit
// without a count means once per period.
func (f *HabitFormModel) toHabit(userID string, now func() time.Time) (models.Habit, error) {
	habit := models.Habit{
		ID:                  uuid.New().String(),
		UserID:              userID,
		Name:                strings.TrimSpace(f.Name),
		Icon:                strings.TrimSpace(f.Icon),
		Dates:               models.Completions{},
		NotificationEnabled: f.Remind != "",
		NotificationTime:    f.Remind,
		CreatedAt:           now(),
	}
	habit.UpdatedAt = habit.CreatedAt

	if f.Unit != "" {
		n := 1
		if f.Frequency != "" {
			var err error
			if n, err = strconv.Atoi(f.Frequency); err != nil {
				return models.Habit{}, validation.ErrInvalidFrequency
			}
		}
		habit.Frequency = &n
		habit.FrequencyUnit = constants.FrequencyUnit(f.Unit)
	}

	if err := validation.ValidateHabit(habit); err != nil {
		return models.Habit{}, err
	}
	return habit, nil
}
