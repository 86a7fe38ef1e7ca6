package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/oauth2"
)

// lockRetry is how often a blocked lock attempt is retried.
const lockRetry = 50 * time.Millisecond

// StoredSession is the on-disk form of a signed-in session.
type StoredSession struct {
	UID      string        `json:"uid"`
	Email    string        `json:"email"`
	Provider string        `json:"provider"`
	Token    *oauth2.Token `json:"token"`
}

// LockSession takes the advisory lock guarding the session file.
// The returned func releases it.
func (c *Config) LockSession(ctx context.Context) (func(), error) {
	if err := c.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	lock := flock.New(filepath.Join(c.Dir, SessionLockFile))
	ok, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !ok {
		return nil, errors.New("failed to lock session")
	}
	return func() { _ = lock.Unlock() }, nil
}

// ReadSession loads the session file. It returns nil, nil when there is none.
func (c *Config) ReadSession() (*StoredSession, error) {
	data, err := os.ReadFile(c.SessionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", SessionFile, err)
	}
	var s StoredSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", SessionFile, err)
	}
	if s.UID == "" || s.Token == nil {
		return nil, nil
	}
	return &s, nil
}

// WriteSession saves the session file with mode 0600.
// Callers hold LockSession.
func (c *Config) WriteSession(s *StoredSession) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.SessionPath(), data, 0600)
}

// RemoveSession deletes the session file. A missing file is not an error.
// Callers hold LockSession.
func (c *Config) RemoveSession() error {
	if err := os.Remove(c.SessionPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
