package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/utils"
)

// User owns habits and the configuration their periods are resolved with
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Config     UserConfig `json:"config"`
	PushTokens []string   `json:"push_tokens,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// UserConfig holds the per-user period settings
type UserConfig struct {
	WeekStartsAtMonday bool      `json:"week_starts_at_monday"`
	DayStartsAt        *DayStart `json:"day_starts_at"`
}

// DayStart shifts when a "day" period begins. Nil means midnight.
type DayStart struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseDayStart parses an HH:MM string. An empty string yields nil (midnight).
func ParseDayStart(s string) (*DayStart, error) {
	if s == "" {
		return nil, nil
	}
	hour, minute, err := utils.ParseClock(s)
	if err != nil {
		return nil, fmt.Errorf("invalid day start (expected HH:MM): %w", err)
	}
	return &DayStart{Hour: hour, Minute: minute}, nil
}

// Offset returns the duration past midnight the day begins at.
func (d *DayStart) Offset() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(d.Hour)*time.Hour + time.Duration(d.Minute)*time.Minute
}

func (d *DayStart) String() string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// ConfigToMap converts a UserConfig to its stored key-value form.
func ConfigToMap(cfg UserConfig) map[string]string {
	return map[string]string{
		constants.SettingWeekStartsAtMonday: fmt.Sprintf("%v", cfg.WeekStartsAtMonday),
		constants.SettingDayStartsAt:        cfg.DayStartsAt.String(),
	}
}

// MapToConfig converts stored key-value pairs to a UserConfig.
func MapToConfig(data map[string]string) (UserConfig, error) {
	cfg := UserConfig{}
	for key, value := range data {
		switch key {
		case constants.SettingWeekStartsAtMonday:
			cfg.WeekStartsAtMonday = value == "true"
		case constants.SettingDayStartsAt:
			ds, err := ParseDayStart(value)
			if err != nil {
				return UserConfig{}, fmt.Errorf("parsing %s: %w", constants.SettingDayStartsAt, err)
			}
			cfg.DayStartsAt = ds
		}
	}
	return cfg, nil
}
