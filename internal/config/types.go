package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Turso         TursoConfig
	Slack         SlackConfig
	Judge         JudgeConfig
	Reaper        ReaperConfig
	ProjectID     string
}

// TursoConfig holds the connection details for a remote Turso database.
// Leave PrimaryURL empty to use a local SQLite file.
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

// SlackConfig holds the Slack bot credentials.
type SlackConfig struct {
	Token     string
	ChannelID string
}

// JudgeConfig points at the external code judge service.
type JudgeConfig struct {
	BaseURL string
}

// ReaperConfig controls the background sweep cadence.
type ReaperConfig struct {
	Interval time.Duration
}
