package constants

import "time"

// FrequencyUnit is the recurrence unit a habit goal is measured against
type FrequencyUnit string

// TrackStatus classifies how far progress lags behind the elapsed period
type TrackStatus string

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	PushKeyringUser    = "push-api-key"
	DefaultConfigPath  = "~/.config/habitual/habitual.db"
	ServerConfigName   = "server.yaml"
	DefaultUserID      = "default"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "habitual-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitual"
	TrayExecutablePrefix   = "habitual-tray"
	DefaultReminderTitle   = "Habit reminder"
	DefaultDedupeTTL       = 48 * time.Hour
	DefaultTickInterval    = time.Minute

	// Server constants
	DefaultListenAddr    = ":8080"
	CronSecretHeader     = "X-Habitual-Cron-Secret"
	TraySecretHeader     = "X-Habitual-Secret"
	ServerShutdownPeriod = 10 * time.Second

	// Frequency units
	UnitDay   FrequencyUnit = "day"
	UnitWeek  FrequencyUnit = "week"
	UnitMonth FrequencyUnit = "month"

	// Track status thresholds, in percentage points of buffer over progress
	TrackWarningDelta = 20
	TrackDangerDelta  = 40

	TrackOnTrack TrackStatus = "on_track"
	TrackWarning TrackStatus = "warning"
	TrackDanger  TrackStatus = "danger"
)

// Session States
const (
	StateHabits SessionState = iota
	StateAddHabit
	StateConfirmDelete
)

// Valid reports whether u is one of the known recurrence units.
func (u FrequencyUnit) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth:
		return true
	}
	return false
}
