// Package tasks keeps the signed-in user's task list in step with the remote store.
//
// Every mutation is followed by a full re-read of the collection, so the
// cached list is always a snapshot the store returned, never a local patch.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tasktracker/internal/service"
)

const (
	// DefaultResyncAttempts bounds the follow-up reads after MarkComplete.
	DefaultResyncAttempts = 3

	// DefaultResyncBackoff is the delay before the first follow-up read.
	// It doubles on every attempt.
	DefaultResyncBackoff = 250 * time.Millisecond
)

// CompleteResult tells the caller what MarkComplete did.
type CompleteResult int

const (
	// Completed means the task was patched to completed.
	Completed CompleteResult = iota

	// AlreadyCompleted means the task was completed before; nothing was written.
	AlreadyCompleted
)

// Options tune a Cache. The zero value uses the defaults.
type Options struct {
	Logger         *slog.Logger
	ResyncAttempts int
	ResyncBackoff  time.Duration
}

// Cache is the in-memory task list of one session.
// It is safe for concurrent use. Concurrent mutations are not serialised;
// whichever refresh finishes last wins.
type Cache struct {
	store   service.Store
	session service.Session
	log     *slog.Logger

	resyncAttempts int
	resyncBackoff  time.Duration

	mu     sync.RWMutex
	list   []service.Task
	closed bool
}

// NewCache creates an empty cache bound to session.
func NewCache(store service.Store, session service.Session, opts Options) *Cache {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	attempts := opts.ResyncAttempts
	if attempts <= 0 {
		attempts = DefaultResyncAttempts
	}
	backoff := opts.ResyncBackoff
	if backoff <= 0 {
		backoff = DefaultResyncBackoff
	}
	return &Cache{
		store:          store,
		session:        session,
		log:            log.With("collection", session.ID),
		resyncAttempts: attempts,
		resyncBackoff:  backoff,
	}
}

// Session returns the session the cache is bound to.
func (c *Cache) Session() service.Session {
	return c.session
}

// Snapshot returns a copy of the cached list in store order.
func (c *Cache) Snapshot() []service.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]service.Task, len(c.list))
	copy(out, c.list)
	return out
}

// View returns the cached tasks matching mode.
func (c *Cache) View(mode FilterMode) []service.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Filter(c.list, mode)
}

// Lookup finds a cached task by id.
func (c *Cache) Lookup(taskID string) (service.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.list {
		if t.ID == taskID {
			return t, true
		}
	}
	return service.Task{}, false
}

// Close clears the cache and rejects further operations.
// Store calls already in flight finish on their own.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.list = nil
}

// Refresh replaces the cached list with the store's.
// Without a session it clears the cache and does nothing else.
// On failure the previous list is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	if !c.session.Active() {
		c.mu.Lock()
		c.list = nil
		c.mu.Unlock()
		return nil
	}
	if c.isClosed() {
		return ErrClosed
	}

	list, err := c.store.List(ctx, c.session.ID)
	if err != nil {
		c.log.Debug("refresh failed", "err", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.list = list
	c.log.Debug("refreshed", "count", len(list))
	return nil
}

// Create validates the draft, rejects labels already in the list
// (case-insensitive), inserts the task and refreshes.
// Nothing is written to the store when validation fails.
func (c *Cache) Create(ctx context.Context, d Draft) error {
	if err := c.ready(); err != nil {
		return err
	}
	fields, err := d.fields()
	if err != nil {
		return err
	}
	if c.hasLabel(*fields.Task) {
		return &DuplicateError{Task: *fields.Task}
	}

	id, err := c.store.Insert(ctx, c.session.ID, fields)
	if err != nil {
		c.log.Debug("insert failed", "err", err)
		return err
	}
	c.log.Debug("inserted", "task_id", id)
	return c.refreshAfter(ctx, "create")
}

// Update writes a partial patch and refreshes. Set fields are validated;
// the label is not checked for duplicates.
func (c *Cache) Update(ctx context.Context, taskID string, fields service.Fields) error {
	if err := c.ready(); err != nil {
		return err
	}
	fields, err := normalizePatch(fields)
	if err != nil {
		return err
	}

	if err := c.store.Patch(ctx, c.session.ID, taskID, fields); err != nil {
		c.log.Debug("patch failed", "task_id", taskID, "err", err)
		return err
	}
	c.log.Debug("patched", "task_id", taskID)
	return c.refreshAfter(ctx, "update")
}

// Delete removes a task and refreshes.
func (c *Cache) Delete(ctx context.Context, taskID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.store.Remove(ctx, c.session.ID, taskID); err != nil {
		c.log.Debug("remove failed", "task_id", taskID, "err", err)
		return err
	}
	c.log.Debug("removed", "task_id", taskID)
	return c.refreshAfter(ctx, "delete")
}

// MarkComplete sets the task's status to completed.
// A task that is already completed is left alone and AlreadyCompleted is
// returned with a nil error.
//
// After the patch the list is re-read until the store reports the task as
// completed, with at most ResyncAttempts extra reads and doubling backoff.
func (c *Cache) MarkComplete(ctx context.Context, taskID string) (CompleteResult, error) {
	if err := c.ready(); err != nil {
		return Completed, err
	}

	task, ok := c.Lookup(taskID)
	if !ok {
		var err error
		task, err = c.store.Get(ctx, c.session.ID, taskID)
		if err != nil {
			return Completed, err
		}
	}
	if task.IsCompleted() {
		return AlreadyCompleted, nil
	}

	status := service.StatusCompleted
	if err := c.Update(ctx, taskID, service.Fields{Status: &status}); err != nil {
		return Completed, err
	}
	return Completed, c.resync(ctx, taskID)
}

// resync re-reads the list until taskID shows as completed or is gone.
func (c *Cache) resync(ctx context.Context, taskID string) error {
	delay := c.resyncBackoff
	for attempt := 1; attempt <= c.resyncAttempts; attempt++ {
		if t, ok := c.Lookup(taskID); !ok || t.IsCompleted() {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2

		c.log.Debug("resync", "task_id", taskID, "attempt", attempt)
		if err := c.Refresh(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrStale, err)
		}
	}
	if t, ok := c.Lookup(taskID); ok && !t.IsCompleted() {
		c.log.Debug("resync gave up", "task_id", taskID)
	}
	return nil
}

func (c *Cache) refreshAfter(ctx context.Context, op string) error {
	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("%w after %s: %w", ErrStale, op, err)
	}
	return nil
}

func (c *Cache) ready() error {
	if c.isClosed() {
		return ErrClosed
	}
	if !c.session.Active() {
		return ErrNoSession
	}
	return nil
}

func (c *Cache) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Cache) hasLabel(label string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.list {
		if strings.EqualFold(strings.TrimSpace(t.Task), label) {
			return true
		}
	}
	return false
}

// normalizePatch trims the label and checks the values of the set fields.
func normalizePatch(f service.Fields) (service.Fields, error) {
	if f.Empty() {
		return f, &ValidationError{Field: "fields"}
	}
	if f.Task != nil {
		label := strings.TrimSpace(*f.Task)
		if label == "" {
			return f, &ValidationError{Field: "task"}
		}
		f.Task = &label
	}
	if f.Priority != nil {
		p, ok := service.ParsePriority(string(*f.Priority))
		if !ok {
			return f, &ValidationError{Field: "priority", Value: string(*f.Priority)}
		}
		f.Priority = &p
	}
	// Status only ever moves forward.
	if f.Status != nil && *f.Status != service.StatusCompleted {
		return f, &ValidationError{Field: "status", Value: string(*f.Status)}
	}
	return f, nil
}
