package tasks

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid task")

	// ErrDuplicate matches every *DuplicateError.
	ErrDuplicate = errors.New("duplicate task")

	// ErrNoSession is returned when the cache has no signed-in user.
	ErrNoSession = errors.New("no active session")

	// ErrClosed is returned after the cache was closed on sign-out.
	ErrClosed = errors.New("task cache closed")

	// ErrTaskCompleted is returned when editing a completed task.
	ErrTaskCompleted = errors.New("completed tasks cannot be edited")

	// ErrFormClosed is returned when submitting a form that is not open.
	ErrFormClosed = errors.New("form is not open")

	// ErrStale marks a mutation that was applied remotely but whose
	// follow-up refresh failed. The cache still holds the previous list.
	ErrStale = errors.New("task list out of date")
)

// ValidationError reports an empty or malformed required field.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s required", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Value)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateError reports a case-insensitive label clash on create.
type DuplicateError struct {
	Task string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("task already exists: %s", e.Task)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
