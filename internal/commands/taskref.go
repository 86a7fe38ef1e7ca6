package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"tasktracker/internal/service"
)

// TaskRef is a task reference from the command line: either the 1-based
// position in the unfiltered list, or a store-assigned task id.
type TaskRef struct {
	Num int    // 0 when ID is set
	ID  string // empty when Num is set
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ErrInvalidTaskRef indicates an argument that is neither a number nor an id.
var ErrInvalidTaskRef = errors.New("invalid task reference")

// ErrTaskRefRange indicates a number past the end of the list.
var ErrTaskRefRange = errors.New("task number out of range")

// ParseTaskRef parses the task reference in args[0].
//
// Parsing rules:
// 1. No args → task reference required
// 2. All digits → position, which must be at least 1
// 3. No whitespace and no slash → literal task id
// 4. Otherwise → invalid task reference
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TaskRef{}, ErrTaskRefRequired
	}
	arg := strings.TrimSpace(args[0])

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("%w: %s", ErrTaskRefRange, arg)
		}
		return TaskRef{Num: num}, nil
	}

	if strings.ContainsFunc(arg, func(r rune) bool { return r == '/' || unicode.IsSpace(r) }) {
		return TaskRef{}, fmt.Errorf("%w: %s", ErrInvalidTaskRef, arg)
	}
	return TaskRef{ID: arg}, nil
}

// Resolve returns the task id the reference names. Positions count from 1
// over all, the unfiltered list in store order. An id is returned as given;
// the store decides whether it exists.
func (r TaskRef) Resolve(all []service.Task) (string, error) {
	if r.ID != "" {
		return r.ID, nil
	}
	if r.Num < 1 || r.Num > len(all) {
		return "", fmt.Errorf("%w: %d", ErrTaskRefRange, r.Num)
	}
	return all[r.Num-1].ID, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
