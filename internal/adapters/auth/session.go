// Package auth resolves hosting provider credentials.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// envTokens lists the environment variables consulted per provider, in order.
var envTokens = map[string][]string{
	"github":    {"GITHUB_TOKEN", "GH_TOKEN"},
	"bitbucket": {"BITBUCKET_TOKEN"},
}

// SessionProvider implements ports.SessionProvider.
//
// Tokens are looked up in the configured set first, then in the environment.
// When createIfNone is set and nothing was found, a GitHub token is requested
// from the gh CLI. Sessions are cached for the lifetime of the provider.
type SessionProvider struct {
	tokens map[string]string
	runner ports.CommandRunner
	getenv func(string) string
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*ports.Session
}

// NewSessionProvider creates a session provider. runner may be nil to
// disable the gh CLI lookup.
func NewSessionProvider(tokens map[string]string, runner ports.CommandRunner, logger *slog.Logger) *SessionProvider {
	if logger == nil {
		logger = slog.Default()
	}
	configured := make(map[string]string, len(tokens))
	for provider, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			configured[provider] = token
		}
	}
	return &SessionProvider{
		tokens: configured,
		runner: runner,
		getenv: os.Getenv,
		logger: logger,
		cache:  make(map[string]*ports.Session),
	}
}

// Ensure SessionProvider implements ports.SessionProvider.
var _ ports.SessionProvider = (*SessionProvider)(nil)

// GetSession returns a session for providerID, or domain.ErrNoCredential
// when no token could be found.
func (s *SessionProvider) GetSession(ctx context.Context, providerID string, scopes []string, createIfNone bool) (*ports.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.cache[providerID]; ok {
		return session, nil
	}

	token, source := s.lookup(providerID)
	if token == "" && createIfNone {
		var err error
		token, err = s.create(ctx, providerID)
		if err != nil {
			s.logger.Warn("credential request failed", "provider", providerID, "error", err)
		}
		source = "cli"
	}
	if token == "" {
		return nil, fmt.Errorf("%w for %s", domain.ErrNoCredential, providerID)
	}

	session := &ports.Session{
		Provider:    providerID,
		AccessToken: token,
		Scopes:      scopes,
	}
	s.cache[providerID] = session
	s.logger.Debug("credential resolved", "provider", providerID, "source", source)
	return session, nil
}

// Forget drops a cached session so the next request resolves it again.
func (s *SessionProvider) Forget(providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, providerID)
}

func (s *SessionProvider) lookup(providerID string) (string, string) {
	if token := s.tokens[providerID]; token != "" {
		return token, "config"
	}
	for _, name := range envTokens[providerID] {
		if token := strings.TrimSpace(s.getenv(name)); token != "" {
			return token, "env"
		}
	}
	return "", ""
}

func (s *SessionProvider) create(ctx context.Context, providerID string) (string, error) {
	if providerID != "github" || s.runner == nil {
		return "", nil
	}
	out, err := s.runner.Run(ctx, "", "gh", "auth", "token")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Stdout), nil
}
