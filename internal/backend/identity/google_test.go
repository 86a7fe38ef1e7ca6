package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"tasktracker/internal/service"
)

// callback drives the handler with the given query and waits for the outcome.
func callback(t *testing.T, state, query string) (int, string, error) {
	t.Helper()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	srv := httptest.NewServer(callbackHandler(state, codeCh, errCh))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/callback?" + query)
	if err != nil {
		t.Fatalf("GET callback: %v", err)
	}
	resp.Body.Close()

	code, err := awaitCode(context.Background(), codeCh, errCh, time.Second)
	return resp.StatusCode, code, err
}

func TestCallback_DeliversCode(t *testing.T) {
	state := uuid.NewString()

	status, code, err := callback(t, state, "state="+state+"&code=abc")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
	if code != "abc" {
		t.Errorf("expected code abc, got %q", code)
	}
}

func TestCallback_Rejected(t *testing.T) {
	state := uuid.NewString()
	tests := []struct {
		name  string
		query string
	}{
		{"state mismatch", "state=" + uuid.NewString() + "&code=abc"},
		{"missing state", "code=abc"},
		{"missing code", "state=" + state},
		{"access denied", "state=" + state + "&error=access_denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, err := callback(t, state, tt.query)

			if status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
			if code != "" {
				t.Errorf("expected no code, got %q", code)
			}
			var ae *service.AuthError
			if !errors.As(err, &ae) || ae.Reason != "google sign-in failed" {
				t.Errorf("expected sign-in AuthError, got %v", err)
			}
		})
	}
}

func TestAwaitCode_TimesOut(t *testing.T) {
	_, err := awaitCode(context.Background(), make(chan string), make(chan error), 10*time.Millisecond)

	if !service.IsAuth(err) {
		t.Errorf("expected AuthError, got %v", err)
	}
}

func TestAwaitCode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := awaitCode(ctx, make(chan string), make(chan error), time.Minute)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// tokenEndpoint answers the code exchange with the given extra fields.
func tokenEndpoint(t *testing.T, extra map[string]any) *oauth2.Config {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code_verifier") == "" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		body := map[string]any{"access_token": "g-access", "token_type": "Bearer", "expires_in": 3600}
		for k, v := range extra {
			body[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams},
	}
}

func TestExchangeIDToken(t *testing.T) {
	oauthConfig := tokenEndpoint(t, map[string]any{"id_token": "google-id"})

	got, err := exchangeIDToken(context.Background(), oauthConfig, "abc", oauth2.GenerateVerifier())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "google-id" {
		t.Errorf("expected google-id, got %q", got)
	}
}

func TestExchangeIDToken_MissingIDToken(t *testing.T) {
	oauthConfig := tokenEndpoint(t, nil)

	_, err := exchangeIDToken(context.Background(), oauthConfig, "abc", oauth2.GenerateVerifier())

	var ae *service.AuthError
	if !errors.As(err, &ae) || ae.Reason != "google returned no id token" {
		t.Errorf("expected missing id token AuthError, got %v", err)
	}
}

func TestExchangeIDToken_Rejected(t *testing.T) {
	oauthConfig := tokenEndpoint(t, nil)

	_, err := exchangeIDToken(context.Background(), oauthConfig, "abc", "")

	var ae *service.AuthError
	if !errors.As(err, &ae) || ae.Reason != "failed to exchange code for token" {
		t.Errorf("expected exchange AuthError, got %v", err)
	}
}
