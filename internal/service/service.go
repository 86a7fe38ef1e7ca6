package service

import (
	"context"
	"io"
)

// Store is the remote task store, scoped by a collection key.
// The collection key is the signed-in user's session id.
// Backends never leak SDK types through this interface.
type Store interface {
	// List returns every task in the collection in store order.
	List(ctx context.Context, collection string) ([]Task, error)

	// Get returns a single task. Fails with ErrNotFound if absent.
	Get(ctx context.Context, collection, taskID string) (Task, error)

	// Insert creates a task and returns its store-assigned id.
	Insert(ctx context.Context, collection string, fields Fields) (string, error)

	// Patch writes the set fields of an existing task.
	// Fails with ErrNotFound if the task does not exist.
	Patch(ctx context.Context, collection, taskID string, fields Fields) error

	// Remove deletes a task.
	Remove(ctx context.Context, collection, taskID string) error
}

// Sessions is the identity provider.
type Sessions interface {
	// CurrentSession returns the persisted session, or nil when signed out.
	CurrentSession(ctx context.Context) (*Session, error)

	// SignUp creates an email/password account and signs it in.
	SignUp(ctx context.Context, email, password string) (Session, error)

	// SignIn signs in with email and password.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// SignInWithGoogle runs the federated Google sign-in.
	// Instructions for the user are written to prompt.
	SignInWithGoogle(ctx context.Context, prompt io.Writer) (Session, error)

	// SignOut forgets the current session. Signing out twice is not an error.
	SignOut(ctx context.Context) error
}

// Backend bundles the collaborators commands run against.
type Backend struct {
	Store    Store
	Sessions Sessions
}
