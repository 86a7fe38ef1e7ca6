package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"tasktracker/internal/config"
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	return cfg
}

func writeSettings(t *testing.T, cfg *config.Config, body string) {
	t.Helper()
	if err := os.WriteFile(cfg.SettingsPath(), []byte(body), 0600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := config.DefaultConfigDir(); got != filepath.Join("/tmp/xdg", "tasktracker") {
		t.Errorf("unexpected dir %q", got)
	}
}

func TestLoadSettings_FileAndDefaults(t *testing.T) {
	t.Setenv(config.EnvProjectID, "")
	t.Setenv(config.EnvAPIKey, "")
	cfg := newConfig(t)
	writeSettings(t, cfg, "project_id: demo\napi_key: key-123\ntimeout: 2s\n")

	s, err := cfg.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.ProjectID != "demo" || s.APIKey != "key-123" {
		t.Errorf("unexpected settings: %+v", s)
	}
	if s.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", s.Timeout)
	}
	if s.Database != config.DefaultDatabase {
		t.Errorf("expected default database, got %q", s.Database)
	}
	if s.ResyncAttempts != config.DefaultResyncAttempts || s.ResyncBackoff != config.DefaultResyncBackoff {
		t.Errorf("expected resync defaults, got %d / %v", s.ResyncAttempts, s.ResyncBackoff)
	}
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	cfg := newConfig(t)
	writeSettings(t, cfg, "project_id: from-file\napi_key: file-key\n")
	t.Setenv(config.EnvProjectID, "from-env")
	t.Setenv(config.EnvAPIKey, "")

	s, err := cfg.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.ProjectID != "from-env" || s.APIKey != "file-key" {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestLoadSettings_Missing(t *testing.T) {
	t.Setenv(config.EnvProjectID, "")
	t.Setenv(config.EnvAPIKey, "")
	cfg := newConfig(t)

	_, err := cfg.LoadSettings()
	if !errors.Is(err, config.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	cfg := newConfig(t)
	writeSettings(t, cfg, "project_id: [unterminated\n")

	_, err := cfg.LoadSettings()
	if err == nil || errors.Is(err, config.ErrNotConfigured) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestSession_RoundTrip(t *testing.T) {
	cfg := newConfig(t)

	if s, err := cfg.ReadSession(); err != nil || s != nil {
		t.Fatalf("expected no session, got %+v, %v", s, err)
	}

	unlock, err := cfg.LockSession(context.Background())
	if err != nil {
		t.Fatalf("LockSession: %v", err)
	}
	want := &config.StoredSession{
		UID:      "u1",
		Email:    "a@example.com",
		Provider: "password",
		Token:    &oauth2.Token{AccessToken: "id", RefreshToken: "refresh"},
	}
	if err := cfg.WriteSession(want); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}
	unlock()

	info, err := os.Stat(cfg.SessionPath())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	got, err := cfg.ReadSession()
	if err != nil {
		t.Fatalf("ReadSession: %v", err)
	}
	if got.UID != "u1" || got.Token.RefreshToken != "refresh" {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := cfg.RemoveSession(); err != nil {
		t.Fatalf("RemoveSession: %v", err)
	}
	if err := cfg.RemoveSession(); err != nil {
		t.Errorf("second RemoveSession should be a no-op, got %v", err)
	}
	if cfg.HasSession() {
		t.Error("session file should be gone")
	}
}

func TestReadSession_Corrupt(t *testing.T) {
	cfg := newConfig(t)
	if err := os.WriteFile(cfg.SessionPath(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.ReadSession(); err == nil {
		t.Error("expected error for corrupt session file")
	}
}
