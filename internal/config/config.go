// Package config handles the XDG configuration directory and the files in it.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// AppName is the application directory name.
	AppName = "tasktracker"

	// SettingsFile holds the backend settings.
	SettingsFile = "config.yaml"

	// OAuthClientFile is the Google OAuth client used for federated sign-in.
	OAuthClientFile = "oauth_client.json"

	// SessionFile is the persisted session.
	SessionFile = "session.json"

	// SessionLockFile guards writes to SessionFile.
	SessionLockFile = "session.lock"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Logger receives debug logs. Never nil after New.
	Logger *slog.Logger

	// Settings holds the result of the last successful LoadSettings.
	Settings Settings
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasktracker or $HOME/.config/tasktracker.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir, Logger: slog.New(slog.DiscardHandler)}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Log returns the configured logger, or a discarding one.
func (c *Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// SessionPath returns the path to the persisted session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasSession checks if a session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}
