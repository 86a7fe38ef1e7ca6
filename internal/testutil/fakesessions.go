package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"tasktracker/internal/service"
)

// GoogleUID is the user id FakeSessions assigns on Google sign-in.
const GoogleUID = "google-user"

// FakeSessions is an in-memory implementation of service.Sessions for testing.
type FakeSessions struct {
	mu       sync.Mutex
	accounts map[string]account // email -> account
	current  *service.Session
	nextID   int

	// Error injection for testing
	CurrentErr error
	GoogleErr  error
	SignOutErr error
}

type account struct {
	uid      string
	password string
}

// NewFakeSessions creates a FakeSessions with no accounts and no session.
func NewFakeSessions() *FakeSessions {
	return &FakeSessions{accounts: make(map[string]account)}
}

// SignedIn creates a FakeSessions already signed in as uid.
func SignedIn(uid string) *FakeSessions {
	f := NewFakeSessions()
	f.current = &service.Session{ID: uid, Email: uid + "@example.com", Provider: "password"}
	return f
}

// CurrentSession implements service.Sessions.
func (f *FakeSessions) CurrentSession(ctx context.Context) (*service.Session, error) {
	if f.CurrentErr != nil {
		return nil, f.CurrentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil, nil
	}
	s := *f.current
	return &s, nil
}

// SignUp implements service.Sessions. Passwords shorter than six characters
// are rejected, like the hosted provider does.
func (f *FakeSessions) SignUp(ctx context.Context, email, password string) (service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return service.Session{}, &service.AuthError{Reason: "invalid email"}
	}
	if _, ok := f.accounts[email]; ok {
		return service.Session{}, &service.AuthError{Reason: "email already in use"}
	}
	if len(password) < 6 {
		return service.Session{}, &service.AuthError{Reason: "weak password"}
	}
	f.nextID++
	uid := fmt.Sprintf("u%d", f.nextID)
	f.accounts[email] = account{uid: uid, password: password}
	f.current = &service.Session{ID: uid, Email: email, Provider: "password"}
	return *f.current, nil
}

// SignIn implements service.Sessions.
func (f *FakeSessions) SignIn(ctx context.Context, email, password string) (service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		return service.Session{}, &service.AuthError{Reason: "invalid credentials"}
	}
	f.current = &service.Session{ID: acct.uid, Email: email, Provider: "password"}
	return *f.current, nil
}

// SignInWithGoogle implements service.Sessions.
func (f *FakeSessions) SignInWithGoogle(ctx context.Context, prompt io.Writer) (service.Session, error) {
	if f.GoogleErr != nil {
		return service.Session{}, f.GoogleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = &service.Session{ID: GoogleUID, Email: "google@example.com", Provider: "google.com"}
	return *f.current, nil
}

// SignOut implements service.Sessions.
func (f *FakeSessions) SignOut(ctx context.Context) error {
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	return nil
}
