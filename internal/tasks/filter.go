package tasks

import (
	"fmt"
	"strings"

	"tasktracker/internal/service"
)

// FilterMode selects which tasks a view shows.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterPending   FilterMode = "pending"
	FilterCompleted FilterMode = "completed"
)

// FilterModes lists the modes in tab order.
var FilterModes = []FilterMode{FilterAll, FilterPending, FilterCompleted}

// ParseFilterMode parses a mode name. Empty selects all.
func ParseFilterMode(s string) (FilterMode, error) {
	switch m := FilterMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterCompleted:
		return m, nil
	}
	return "", fmt.Errorf("invalid filter: %s", s)
}

// Filter returns the tasks matching mode, preserving order.
// Tasks without a status count as pending. The input is never modified.
func Filter(list []service.Task, mode FilterMode) []service.Task {
	out := make([]service.Task, 0, len(list))
	for _, t := range list {
		if Matches(t, mode) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether t belongs in the view for mode.
// Unknown modes match everything.
func Matches(t service.Task, mode FilterMode) bool {
	switch mode {
	case FilterPending:
		return !t.IsCompleted()
	case FilterCompleted:
		return t.IsCompleted()
	default:
		return true
	}
}
