package tasks

import (
	"strings"

	"tasktracker/internal/service"
)

// Draft is the unsaved content of the task form.
type Draft struct {
	Task     string
	Priority string // empty means unselected
}

// IsEmpty reports whether both fields are blank.
func (d Draft) IsEmpty() bool {
	return d.Task == "" && d.Priority == ""
}

// DraftFromTask maps a stored task onto the form fields.
func DraftFromTask(t service.Task) Draft {
	return Draft{Task: t.Task, Priority: string(t.Priority)}
}

// fields validates the draft and converts it to store fields.
// The label is trimmed; the priority must be one of high, medium or low.
func (d Draft) fields() (service.Fields, error) {
	label := strings.TrimSpace(d.Task)
	if label == "" {
		return service.Fields{}, &ValidationError{Field: "task"}
	}
	if strings.TrimSpace(d.Priority) == "" {
		return service.Fields{}, &ValidationError{Field: "priority"}
	}
	p, ok := service.ParsePriority(d.Priority)
	if !ok {
		return service.Fields{}, &ValidationError{Field: "priority", Value: d.Priority}
	}
	return service.Fields{Task: &label, Priority: &p}, nil
}
