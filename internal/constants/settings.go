package constants

const (
	// User settings
	SettingWeekStartsAtMonday = "week_starts_at_monday"
	SettingDayStartsAt        = "day_starts_at"

	// Default Settings Values
	DefaultWeekStartsAtMonday = false
	DefaultDayStartsAt        = "" // midnight
)
