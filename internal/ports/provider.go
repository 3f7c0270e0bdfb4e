package ports

import (
	"context"

	"github.com/xvierd/commitwatch/internal/domain"
)

// RemoteCommitProvider queries a hosting provider for branch tips.
// This is a driven port (implemented by adapters).
type RemoteCommitProvider interface {
	// Name returns the unique identifier for this provider (e.g. "github").
	Name() string

	// ParseRemote maps a remote URL to an owner/repo pair, or nil when the
	// URL does not belong to this provider.
	ParseRemote(url string) *domain.RemoteLocation

	// LatestCommit returns the newest commit on branch. Every failure
	// resolves to nil; diagnostics are logged by the implementation.
	LatestCommit(ctx context.Context, owner, repo, branch string) *domain.CommitRecord
}

// Session is an authenticated session with a hosting provider.
type Session struct {
	Provider    string
	Account     string
	AccessToken string
	Scopes      []string
}

// SessionProvider acquires credentials for hosting providers.
// This is a driven port (implemented by adapters).
type SessionProvider interface {
	// GetSession returns a session for providerID. When createIfNone is set
	// the provider may try to obtain a new credential. Returns
	// domain.ErrNoCredential when none is available.
	GetSession(ctx context.Context, providerID string, scopes []string, createIfNone bool) (*Session, error)
}
