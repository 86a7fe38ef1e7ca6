package tasks

import (
	"context"
	"errors"
	"sync"

	"tasktracker/internal/service"
)

// FormState is the mode of the task form.
type FormState int

const (
	FormClosed FormState = iota
	FormCreate
	FormEdit
)

func (s FormState) String() string {
	switch s {
	case FormCreate:
		return "create"
	case FormEdit:
		return "edit"
	default:
		return "closed"
	}
}

// Form owns the draft and routes a submit to Create or Update.
type Form struct {
	cache *Cache

	mu        sync.Mutex
	state     FormState
	editingID string
	draft     Draft
}

// NewForm creates a closed form over cache.
func NewForm(cache *Cache) *Form {
	return &Form{cache: cache}
}

// State returns the mode and, in edit mode, the task being edited.
func (f *Form) State() (FormState, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.editingID
}

// Draft returns the current field values.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// SetTask sets the label field.
func (f *Form) SetTask(s string) {
	f.mu.Lock()
	f.draft.Task = s
	f.mu.Unlock()
}

// SetPriority sets the priority field.
func (f *Form) SetPriority(s string) {
	f.mu.Lock()
	f.draft.Priority = s
	f.mu.Unlock()
}

// Fill replaces both fields.
func (f *Form) Fill(d Draft) {
	f.mu.Lock()
	f.draft = d
	f.mu.Unlock()
}

// OpenCreate opens an empty create form.
func (f *Form) OpenCreate() {
	f.set(FormCreate, "", Draft{})
}

// Toggle opens an empty create form when closed and closes it otherwise.
// Either way the draft and edit target are reset.
func (f *Form) Toggle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormClosed {
		f.state = FormCreate
	} else {
		f.state = FormClosed
	}
	f.editingID = ""
	f.draft = Draft{}
}

// Close discards the draft.
func (f *Form) Close() {
	f.set(FormClosed, "", Draft{})
}

// OpenEdit loads the task with a point read and opens it for editing.
// Completed tasks cannot be edited. On any error the form is unchanged.
func (f *Form) OpenEdit(ctx context.Context, taskID string) error {
	if err := f.cache.ready(); err != nil {
		return err
	}
	task, err := f.cache.store.Get(ctx, f.cache.session.ID, taskID)
	if err != nil {
		return err
	}
	if task.IsCompleted() {
		return ErrTaskCompleted
	}
	f.set(FormEdit, task.ID, DraftFromTask(task))
	return nil
}

// Submit validates the draft and creates or updates the task.
//
// On success the form closes. On a validation, duplicate or store error the
// draft is cleared and the form stays open so the user re-enters the fields.
// ErrStale means the write went through, so the form closes as well.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	state, id, d := f.state, f.editingID, f.draft
	f.mu.Unlock()

	var err error
	switch state {
	case FormCreate:
		err = f.cache.Create(ctx, d)
	case FormEdit:
		err = f.update(ctx, id, d)
	default:
		return ErrFormClosed
	}

	if err == nil || errors.Is(err, ErrStale) {
		f.Close()
		return err
	}
	f.mu.Lock()
	f.draft = Draft{}
	f.mu.Unlock()
	return err
}

func (f *Form) update(ctx context.Context, taskID string, d Draft) error {
	fields, err := d.fields()
	if err != nil {
		return err
	}
	return f.cache.Update(ctx, taskID, service.Fields{Task: fields.Task, Priority: fields.Priority})
}

func (f *Form) set(state FormState, id string, d Draft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.editingID = id
	f.draft = d
}
