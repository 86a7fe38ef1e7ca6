package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides for config.yaml.
const (
	EnvProjectID = "TASKTRACKER_PROJECT_ID"
	EnvAPIKey    = "TASKTRACKER_API_KEY"
)

// Defaults for optional settings.
const (
	DefaultDatabase       = "(default)"
	DefaultTimeout        = 5 * time.Second
	DefaultResyncAttempts = 3
	DefaultResyncBackoff  = 250 * time.Millisecond
)

// ErrNotConfigured is returned when the backend settings are incomplete.
var ErrNotConfigured = errors.New("backend not configured")

// Settings are the backend settings read from config.yaml.
type Settings struct {
	// ProjectID is the Firebase / Google Cloud project.
	ProjectID string `yaml:"project_id"`

	// APIKey is the Firebase web API key.
	APIKey string `yaml:"api_key"`

	// Database is the Firestore database id.
	Database string `yaml:"database"`

	// Timeout bounds every backend call.
	Timeout time.Duration `yaml:"timeout"`

	// ResyncAttempts bounds the follow-up reads after completing a task.
	ResyncAttempts int `yaml:"resync_attempts"`

	// ResyncBackoff is the first delay between follow-up reads.
	ResyncBackoff time.Duration `yaml:"resync_backoff"`
}

// LoadSettings reads config.yaml, applies environment overrides and defaults,
// and checks that the project and API key are set.
// A missing file is fine as long as the environment supplies both.
func (c *Config) LoadSettings() (Settings, error) {
	var s Settings

	data, err := os.ReadFile(c.SettingsPath())
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Settings{}, fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}

	if v := strings.TrimSpace(os.Getenv(EnvProjectID)); v != "" {
		s.ProjectID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		s.APIKey = v
	}

	if s.Database == "" {
		s.Database = DefaultDatabase
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.ResyncAttempts <= 0 {
		s.ResyncAttempts = DefaultResyncAttempts
	}
	if s.ResyncBackoff <= 0 {
		s.ResyncBackoff = DefaultResyncBackoff
	}

	if s.ProjectID == "" {
		return Settings{}, fmt.Errorf("%w: project_id not set in %s", ErrNotConfigured, c.SettingsPath())
	}
	if s.APIKey == "" {
		return Settings{}, fmt.Errorf("%w: api_key not set in %s", ErrNotConfigured, c.SettingsPath())
	}
	c.Settings = s
	return s, nil
}
