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
	bitbucketName = "bitbucket"

	// DefaultBitbucketURL is the Bitbucket Cloud REST endpoint.
	DefaultBitbucketURL = "https://api.bitbucket.org"

	unknownAuthor = "Unknown"
)

// Bitbucket implements ports.RemoteCommitProvider for Bitbucket Cloud.
// Requests use basic auth when both credentials are set and are anonymous
// otherwise.
type Bitbucket struct {
	client
	username    string
	appPassword string
	pattern     remote.Pattern
}

// NewBitbucket creates a Bitbucket client.
func NewBitbucket(baseURL, username, appPassword string, opts ...Option) *Bitbucket {
	if baseURL == "" {
		baseURL = DefaultBitbucketURL
	}
	return &Bitbucket{
		client:      newClient(baseURL, opts),
		username:    username,
		appPassword: appPassword,
		pattern:     remote.NewPattern(bitbucketName, "bitbucket.org"),
	}
}

// Ensure Bitbucket implements ports.RemoteCommitProvider.
var _ ports.RemoteCommitProvider = (*Bitbucket)(nil)

// Name returns "bitbucket".
func (b *Bitbucket) Name() string { return bitbucketName }

// ParseRemote matches bitbucket.org SSH and HTTPS remote URLs.
func (b *Bitbucket) ParseRemote(rawURL string) *domain.RemoteLocation {
	return b.pattern.Match(rawURL)
}

type bitbucketCommits struct {
	Values []bitbucketCommit `json:"values"`
}

type bitbucketCommit struct {
	Hash    string `json:"hash"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Author  struct {
		Raw  string `json:"raw"`
		User *struct {
			DisplayName string `json:"display_name"`
		} `json:"user"`
	} `json:"author"`
}

func (c bitbucketCommit) authorName() string {
	if c.Author.User != nil && c.Author.User.DisplayName != "" {
		return c.Author.User.DisplayName
	}
	if c.Author.Raw != "" {
		return c.Author.Raw
	}
	return unknownAuthor
}

// LatestCommit returns the newest commit on branch, or nil on any failure.
func (b *Bitbucket) LatestCommit(ctx context.Context, owner, repo, branch string) *domain.CommitRecord {
	logger := b.logger.With("provider", bitbucketName, "repo", owner+"/"+repo, "branch", branch)

	reqURL := fmt.Sprintf("%s/2.0/repositories/%s/%s/commits?include=%s&pagelen=1",
		b.baseURL, owner, repo, url.QueryEscape(branch))

	var page bitbucketCommits
	err := b.getJSON(ctx, reqURL, func(req *http.Request) {
		if b.username != "" && b.appPassword != "" {
			req.SetBasicAuth(b.username, b.appPassword)
		}
	}, &page)
	if err != nil {
		logger.Warn("bitbucket latest commit request failed", "error", err)
		return nil
	}
	if len(page.Values) == 0 {
		logger.Warn("bitbucket returned no commits")
		return nil
	}

	c := page.Values[0]
	rec, err := domain.NewCommitRecord(c.Hash, c.authorName(), c.Date, firstLine(c.Message))
	if err != nil {
		logger.Warn("bitbucket returned an unusable commit", "error", err)
		return nil
	}
	return &rec
}
