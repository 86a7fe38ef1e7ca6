// Package identity implements service.Sessions using the Firebase Auth
// (Identity Toolkit v3) REST API.
//
// A signed-in session is persisted to session.json. The Firebase ID token is
// the bearer token for the task store; it is refreshed through the Secure
// Token endpoint and written back whenever it changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"tasktracker/internal/config"
	"tasktracker/internal/service"
)

const (
	// SecureTokenURL refreshes Firebase ID tokens.
	SecureTokenURL = "https://securetoken.googleapis.com/v1/token"

	// Provider ids stored with the session.
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)

// Provider implements service.Sessions.
type Provider struct {
	cfg      *config.Config
	svc      *identitytoolkit.Service
	tokenURL string
	timeout  time.Duration
	log      *slog.Logger

	// googleIDToken runs the browser half of Google sign-in and returns a
	// Google ID token.
	googleIDToken func(ctx context.Context, prompt io.Writer) (string, error)
}

// New creates a provider for the Firebase project in settings.
func New(ctx context.Context, cfg *config.Config, settings config.Settings) (*Provider, error) {
	tokenURL := SecureTokenURL + "?key=" + url.QueryEscape(settings.APIKey)
	return NewWithOptions(ctx, cfg, settings, tokenURL, option.WithAPIKey(settings.APIKey))
}

// NewWithOptions creates a provider with a custom token endpoint and client
// options (for testing).
func NewWithOptions(ctx context.Context, cfg *config.Config, settings config.Settings, tokenURL string, opts ...option.ClientOption) (*Provider, error) {
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity service: %w", err)
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	p := &Provider{
		cfg:      cfg,
		svc:      svc,
		tokenURL: tokenURL,
		timeout:  timeout,
		log:      cfg.Log().With("backend", "identity"),
	}
	p.googleIDToken = p.loopbackIDToken
	return p, nil
}

// CurrentSession returns the persisted session, or nil when signed out.
func (p *Provider) CurrentSession(ctx context.Context) (*service.Session, error) {
	stored, err := p.cfg.ReadSession()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}
	return &service.Session{ID: stored.UID, Email: stored.Email, Provider: stored.Provider}, nil
}

// SignUp creates an email/password account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (service.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return service.Session{}, p.wrapError("sign up", err)
	}
	// signupNewUser predates returnSecureToken; its response carries the
	// token pair directly.
	return p.persist(ctx, &config.StoredSession{
		UID:      resp.LocalId,
		Email:    resp.Email,
		Provider: ProviderPassword,
		Token:    newToken(resp.IdToken, resp.RefreshToken, resp.ExpiresIn),
	})
}

// SignIn signs in with email and password.
func (p *Provider) SignIn(ctx context.Context, email, password string) (service.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return service.Session{}, p.wrapError("sign in", err)
	}
	return p.persist(ctx, &config.StoredSession{
		UID:      resp.LocalId,
		Email:    resp.Email,
		Provider: ProviderPassword,
		Token:    newToken(resp.IdToken, resp.RefreshToken, resp.ExpiresIn),
	})
}

// SignInWithGoogle signs in with a Google account. The browser half of the
// flow needs oauth_client.json in the config directory.
func (p *Provider) SignInWithGoogle(ctx context.Context, prompt io.Writer) (service.Session, error) {
	idToken, err := p.googleIDToken(ctx, prompt)
	if err != nil {
		return service.Session{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body := url.Values{"id_token": {idToken}, "providerId": {ProviderGoogle}}
	resp, err := p.svc.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        "http://localhost",
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return service.Session{}, p.wrapError("google sign in", err)
	}
	if resp.ErrorMessage != "" {
		return service.Session{}, &service.AuthError{Reason: describeReason(resp.ErrorMessage)}
	}
	return p.persist(ctx, &config.StoredSession{
		UID:      resp.LocalId,
		Email:    resp.Email,
		Provider: ProviderGoogle,
		Token:    newToken(resp.IdToken, resp.RefreshToken, resp.ExpiresIn),
	})
}

// SignOut removes the persisted session. Signing out twice is not an error.
func (p *Provider) SignOut(ctx context.Context) error {
	unlock, err := p.cfg.LockSession(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := p.cfg.RemoveSession(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	p.log.Debug("signed out")
	return nil
}

func (p *Provider) persist(ctx context.Context, s *config.StoredSession) (service.Session, error) {
	if s.UID == "" || s.Token == nil || s.Token.AccessToken == "" {
		return service.Session{}, &service.AuthError{Reason: "identity provider returned no session"}
	}
	if err := p.save(ctx, s); err != nil {
		return service.Session{}, err
	}
	p.log.Debug("signed in", "uid", s.UID, "provider", s.Provider)
	return service.Session{ID: s.UID, Email: s.Email, Provider: s.Provider}, nil
}

func (p *Provider) save(ctx context.Context, s *config.StoredSession) error {
	unlock, err := p.cfg.LockSession(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if err := p.cfg.WriteSession(s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func newToken(idToken, refreshToken string, expiresIn int64) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  idToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
	}
	if expiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return tok
}

// wrapError turns identity API failures into *service.AuthError with a
// readable reason. Transport failures are returned as they are.
func (p *Provider) wrapError(op string, err error) error {
	p.log.Debug("request failed", "op", op, "err", err)

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code >= http.StatusBadRequest && gerr.Code < http.StatusInternalServerError {
		return &service.AuthError{Reason: describeReason(gerr.Message)}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: request timed out", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// describeReason maps an Identity Toolkit error code such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to a message.
func describeReason(msg string) string {
	code, detail, _ := strings.Cut(msg, " : ")
	switch strings.TrimSpace(code) {
	case "EMAIL_EXISTS":
		return "email already in use"
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return "invalid email"
	case "WEAK_PASSWORD", "MISSING_PASSWORD":
		return "weak password"
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "invalid credentials"
	case "USER_DISABLED":
		return "account disabled"
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return "too many attempts, try again later"
	case "INVALID_IDP_RESPONSE", "INVALID_ID_TOKEN":
		return "google sign-in was rejected"
	case "":
		return "authentication failed"
	}
	if detail != "" {
		return strings.ToLower(detail)
	}
	return strings.ToLower(strings.ReplaceAll(code, "_", " "))
}
