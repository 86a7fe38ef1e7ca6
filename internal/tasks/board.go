package tasks

import (
	"context"
	"errors"
	"sync"

	"tasktracker/internal/service"
)

// Messages shown to the user after an intent.
const (
	MsgAdded            = "Task added successfully!"
	MsgUpdated          = "Task updated successfully!"
	MsgDeleted          = "Task deleted successfully!"
	MsgCompleted        = "Task marked as completed!"
	MsgAlreadyCompleted = "Task already completed!"
	MsgInvalid          = "Enter all details correctly!"
	MsgDuplicate        = "This task already exists!"
	MsgNotEditable      = "Completed tasks cannot be edited!"
	MsgNotFound         = "Task not found!"
	MsgStale            = "Task list may be out of date, list again to refresh."
)

// Notifier receives the user-facing outcome of each intent.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Board is what the view talks to: a read-only task list, the current
// filter, and one method per user intent. Every intent reports its outcome
// through the Notifier and also returns the error, if any.
type Board struct {
	cache  *Cache
	form   *Form
	notify Notifier

	mu   sync.RWMutex
	mode FilterMode
}

// NewBoard wires a board over cache. The filter starts at all.
func NewBoard(cache *Cache, notify Notifier) *Board {
	return &Board{
		cache:  cache,
		form:   NewForm(cache),
		notify: notify,
		mode:   FilterAll,
	}
}

// Cache returns the underlying cache.
func (b *Board) Cache() *Cache { return b.cache }

// Form returns the underlying form.
func (b *Board) Form() *Form { return b.form }

// Mode returns the current filter.
func (b *Board) Mode() FilterMode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mode
}

// Tasks returns the cached tasks under the current filter.
func (b *Board) Tasks() []service.Task {
	return b.cache.View(b.Mode())
}

// All returns every cached task in store order.
func (b *Board) All() []service.Task {
	return b.cache.Snapshot()
}

// Load fetches the list for the board's session.
func (b *Board) Load(ctx context.Context) error {
	if err := b.cache.Refresh(ctx); err != nil {
		b.report(err, "")
		return err
	}
	return nil
}

// OnFilterChange switches the filter.
func (b *Board) OnFilterChange(mode FilterMode) {
	b.mu.Lock()
	b.mode = mode
	b.mu.Unlock()
}

// OnNewTask toggles the create form.
func (b *Board) OnNewTask() {
	b.form.Toggle()
}

// OnCreate opens the create form with d and submits it.
func (b *Board) OnCreate(ctx context.Context, d Draft) error {
	b.form.OpenCreate()
	b.form.Fill(d)
	return b.submit(ctx, MsgAdded)
}

// OnEdit opens the edit form for taskID.
func (b *Board) OnEdit(ctx context.Context, taskID string) error {
	if err := b.form.OpenEdit(ctx, taskID); err != nil {
		b.report(err, "")
		return err
	}
	return nil
}

// OnUpdate submits d as the new content of taskID, opening the edit form
// first if it is not already editing that task.
func (b *Board) OnUpdate(ctx context.Context, taskID string, d Draft) error {
	if state, id := b.form.State(); state != FormEdit || id != taskID {
		if err := b.OnEdit(ctx, taskID); err != nil {
			return err
		}
	}
	b.form.Fill(d)
	return b.submit(ctx, MsgUpdated)
}

// OnDelete removes taskID.
func (b *Board) OnDelete(ctx context.Context, taskID string) error {
	err := b.cache.Delete(ctx, taskID)
	b.report(err, MsgDeleted)
	return err
}

// OnMarkComplete completes taskID. An already completed task is an info
// notice, not an error.
func (b *Board) OnMarkComplete(ctx context.Context, taskID string) error {
	res, err := b.cache.MarkComplete(ctx, taskID)
	if err == nil && res == AlreadyCompleted {
		b.notify.Info(MsgAlreadyCompleted)
		return nil
	}
	b.report(err, MsgCompleted)
	return err
}

func (b *Board) submit(ctx context.Context, success string) error {
	err := b.form.Submit(ctx)
	b.report(err, success)
	return err
}

// report turns an intent result into notices.
func (b *Board) report(err error, success string) {
	if err == nil {
		if success != "" {
			b.notify.Success(success)
		}
		return
	}
	if errors.Is(err, ErrStale) {
		if success != "" {
			b.notify.Success(success)
		}
		b.notify.Error(MsgStale)
		return
	}
	b.notify.Error(Describe(err))
}

// Describe returns the user-facing message for err.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return MsgInvalid
	case errors.Is(err, ErrDuplicate):
		return MsgDuplicate
	case errors.Is(err, ErrTaskCompleted):
		return MsgNotEditable
	case errors.Is(err, service.ErrNotFound):
		return MsgNotFound
	default:
		return err.Error()
	}
}
