// Package service defines the backend-agnostic types and interfaces for tasks and sessions.
package service

import "strings"

// Priority is the user-chosen importance of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority parses a priority name (case-insensitive, trimmed).
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	}
	return "", false
}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Task represents a single task record of one user.
type Task struct {
	ID       string
	Task     string
	Priority Priority
	Status   Status // empty is read as pending
}

// IsCompleted reports whether the task has been marked completed.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Fields is a partial set of task attributes.
// Nil fields are not written.
type Fields struct {
	Task     *string
	Priority *Priority
	Status   *Status
}

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f.Task == nil && f.Priority == nil && f.Status == nil
}

// Session identifies the signed-in user.
type Session struct {
	ID       string
	Email    string
	Provider string // "password" or "google.com"
}

// Active reports whether the session carries a user id.
func (s Session) Active() bool {
	return s.ID != ""
}
