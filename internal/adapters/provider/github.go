package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
	"github.com/xvierd/commitwatch/internal/remote"
)

const (
	githubName = "github"

	// DefaultGitHubURL is the public GitHub REST endpoint.
	DefaultGitHubURL = "https://api.github.com"
)

// githubScopes are requested from the session provider.
var githubScopes = []string{"repo"}

// GitHub implements ports.RemoteCommitProvider for GitHub.
type GitHub struct {
	client
	sessions ports.SessionProvider
	pattern  remote.Pattern
}

// NewGitHub creates a GitHub client. Tokens are obtained from sessions on
// each request.
func NewGitHub(baseURL string, sessions ports.SessionProvider, opts ...Option) *GitHub {
	if baseURL == "" {
		baseURL = DefaultGitHubURL
	}
	return &GitHub{
		client:   newClient(baseURL, opts),
		sessions: sessions,
		pattern:  remote.NewPattern(githubName, "github.com"),
	}
}

// Ensure GitHub implements ports.RemoteCommitProvider.
var _ ports.RemoteCommitProvider = (*GitHub)(nil)

// Name returns "github".
func (g *GitHub) Name() string { return githubName }

// ParseRemote matches github.com SSH and HTTPS remote URLs.
func (g *GitHub) ParseRemote(rawURL string) *domain.RemoteLocation {
	return g.pattern.Match(rawURL)
}

// githubCommit mirrors one entry of the GitHub list-commits response.
type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string `json:"message"`
		Committer struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// LatestCommit returns the newest commit on branch, or nil on any failure.
func (g *GitHub) LatestCommit(ctx context.Context, owner, repo, branch string) *domain.CommitRecord {
	logger := g.logger.With("provider", githubName, "repo", owner+"/"+repo, "branch", branch)

	session, err := g.sessions.GetSession(ctx, githubName, githubScopes, true)
	if err != nil || session == nil || session.AccessToken == "" {
		logger.Warn("github credential unavailable", "error", err)
		return nil
	}

	reqURL := fmt.Sprintf("%s/repos/%s/%s/commits?sha=%s&per_page=1",
		g.baseURL, owner, repo, url.QueryEscape(branch))

	var commits []githubCommit
	err = g.getJSON(ctx, reqURL, func(req *http.Request) {
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	}, &commits)
	if err != nil {
		logger.Warn("github latest commit request failed", "error", err)
		return nil
	}
	if len(commits) == 0 {
		logger.Warn("github returned no commits")
		return nil
	}

	c := commits[0]
	rec, err := domain.NewCommitRecord(c.SHA, c.Commit.Committer.Name, c.Commit.Committer.Date, firstLine(c.Commit.Message))
	if err != nil {
		logger.Warn("github returned an unusable commit", "error", err)
		return nil
	}
	return &rec
}
