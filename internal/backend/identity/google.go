package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"tasktracker/internal/service"
)

const (
	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	oauthStartPort = 8085

	// Max port attempts
	oauthMaxPortAttempts = 5
)

// ErrNoOAuthClient is returned by Google sign-in when oauth_client.json is missing.
var ErrNoOAuthClient = errors.New("oauth_client.json not found")

// loopbackIDToken runs the OAuth authorization code flow with PKCE against
// Google, receiving the code on a localhost callback, and returns the
// Google ID token.
func (p *Provider) loopbackIDToken(ctx context.Context, prompt io.Writer) (string, error) {
	if !p.cfg.HasOAuthClient() {
		return "", &service.AuthError{Reason: fmt.Sprintf("%s in %s", ErrNoOAuthClient, p.cfg.Dir), Err: ErrNoOAuthClient}
	}

	clientJSON, err := os.ReadFile(p.cfg.OAuthClientPath())
	if err != nil {
		return "", fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, "openid", "email")
	if err != nil {
		return "", fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	port, listener, err := findAvailablePort()
	if err != nil {
		return "", errors.New("could not bind to local port for OAuth callback")
	}
	defer listener.Close()

	oauthConfig.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := oauthConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	fmt.Fprintln(prompt, "Open this URL in your browser:")
	fmt.Fprintln(prompt, authURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle("/callback", callbackHandler(state, codeCh, errCh))

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	code, err := awaitCode(ctx, codeCh, errCh, oauthCallbackTimeout)
	if err != nil {
		return "", err
	}
	return exchangeIDToken(ctx, oauthConfig, code, verifier)
}

// callbackHandler accepts the redirect carrying the authorization code.
// The state must match the nonce sent with the auth URL.
func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			sendErr(errCh, errors.New("oauth state mismatch"))
			return
		}
		if reason := q.Get("error"); reason != "" {
			http.Error(w, "Sign-in was not completed", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("authorization denied: %s", reason))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, errors.New("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Signed in</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	}
}

// awaitCode waits for the callback to deliver a code or an error.
func awaitCode(ctx context.Context, codeCh <-chan string, errCh <-chan error, timeout time.Duration) (string, error) {
	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", &service.AuthError{Reason: "google sign-in failed", Err: err}
	case <-time.After(timeout):
		return "", &service.AuthError{Reason: "oauth callback timed out"}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// exchangeIDToken trades the code for tokens and returns the ID token.
func exchangeIDToken(ctx context.Context, oauthConfig *oauth2.Config, code, verifier string) (string, error) {
	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	tok, err := oauthConfig.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", &service.AuthError{Reason: "failed to exchange code for token", Err: err}
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", &service.AuthError{Reason: "google returned no id token"}
	}
	return idToken, nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// findAvailablePort tries to find an available port starting from oauthStartPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < oauthMaxPortAttempts; i++ {
		port := oauthStartPort + i
		addr := fmt.Sprintf("localhost:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}
