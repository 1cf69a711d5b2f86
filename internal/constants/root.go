package constants

import "time"

// Frequency represents how often a habit is scheduled
type Frequency string

const (
	AppName             = "habithero"
	DefaultKeyringUser  = "current-user"
	DefaultConfigPath   = "~/.config/habithero/habithero.db"
	DefaultSettingsPath = "~/.config/habithero/config.toml"
	Version             = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MonthFormat identifies a calendar month (YYYY-MM)
	MonthFormat = "2006-01"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habithero-"
	BackupFileSuffix = ".db"

	// Frequency constants
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"

	// Habit defaults
	DefaultDeadlineHour          = 21
	DefaultDeadlineMinute        = 0
	DefaultDailyCompletionTarget = 1
	CustomCategory               = "Create Your Own"

	// Event routing keys
	EventHabitCreated   = "habit.created"
	EventHabitCompleted = "habit.completed"
	EventHabitDeleted   = "habit.deleted"
	EventsExchange      = "habithero.events"

	EventChallengeEnrolled  = "challenge.enrolled"
	EventChallengeLifeLost  = "challenge.life_lost"
	EventChallengeFailed    = "challenge.failed"
	EventChallengeCompleted = "challenge.completed"

	// Server defaults
	DefaultServerAddr      = "127.0.0.1:8080"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTokenTTL        = 24 * time.Hour
	DefaultCacheTTL        = 5 * time.Minute
	DefaultTimezone        = "Local"
)
