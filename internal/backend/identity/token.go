package identity

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"tasktracker/internal/config"
	"tasktracker/internal/service"
)

// refreshConfig exchanges a Firebase refresh token for a new ID token.
// The Secure Token endpoint takes the API key in the URL and no client id.
func (p *Provider) refreshConfig() *oauth2.Config {
	return &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// TokenSource returns the bearer token source for the task store.
// The session is read on first use, so a source can be built before sign-in.
// Refreshed tokens are written back to session.json.
func (p *Provider) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, p: p}
}

type sessionTokenSource struct {
	ctx context.Context
	p   *Provider

	mu     sync.Mutex
	stored *config.StoredSession
	src    oauth2.TokenSource
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		stored, err := s.p.cfg.ReadSession()
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, &service.AuthError{Reason: "not signed in (run: tasktracker login)"}
		}
		s.stored = stored
		s.src = s.p.refreshConfig().TokenSource(s.ctx, stored.Token)
	}

	tok, err := s.src.Token()
	if err != nil {
		return nil, &service.AuthError{Reason: "session expired (run: tasktracker login)", Err: err}
	}

	if tok.AccessToken != s.stored.Token.AccessToken {
		next := *s.stored
		next.Token = tok
		if err := s.p.save(s.ctx, &next); err != nil {
			// The refreshed token is still good for this run.
			s.p.log.Debug("failed to persist refreshed token", "err", err)
		} else {
			s.p.log.Debug("refreshed session token", "uid", next.UID)
		}
		s.stored = &next
	}
	return tok, nil
}
