package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("not found")

// AuthError is returned by the identity provider, and by stores whose
// credentials were rejected.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// StoreError is a failed call to the remote task store.
type StoreError struct {
	Op  string // list, get, insert, patch, remove
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsAuth reports whether err is, or wraps, an *AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
