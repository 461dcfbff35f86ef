package config

import "time"

// Database/application settings.
const (
	AppName    = "daybook"
	DBFileName = "daybook.db"
	ConfigFile = "config.yaml"
)

// Pomodoro defaults.
const (
	PomodoroLength = 25 * time.Minute
	BreakLength    = 5 * time.Minute
)

// Recurrence bounds.
const (
	MinRecurrenceInterval = 1
	MaxRecurrenceInterval = 365
)

// Listing defaults.
const (
	SearchResultLimit = 50
	HistoryLimit      = 100
)
