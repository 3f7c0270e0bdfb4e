// Package remote maps git remote URLs to hosting provider locations.
package remote

import (
	"regexp"
	"strings"

	"github.com/xvierd/commitwatch/internal/domain"
)

// Pattern matches the SSH and HTTPS remote URL forms of one hosting provider.
type Pattern struct {
	provider string
	ssh      *regexp.Regexp
	https    *regexp.Regexp
}

// NewPattern builds the URL patterns for a provider served from host:
//
//	user@host:owner/repo
//	https://[user@]host/owner/repo
//
// owner is the first path segment; repo is the remainder and may itself
// contain slashes.
func NewPattern(provider, host string) Pattern {
	h := regexp.QuoteMeta(host)
	return Pattern{
		provider: provider,
		ssh:      regexp.MustCompile(`^[^@/\s]+@` + h + `:([^/]+)/(.+)$`),
		https:    regexp.MustCompile(`^https://(?:[^@/\s]+@)?` + h + `/([^/]+)/(.+)$`),
	}
}

// Provider returns the provider name the pattern belongs to.
func (p Pattern) Provider() string {
	return p.provider
}

// Match parses url, returning nil when neither form matches.
func (p Pattern) Match(url string) *domain.RemoteLocation {
	clean := strings.TrimSuffix(strings.TrimSpace(url), ".git")

	for _, re := range []*regexp.Regexp{p.ssh, p.https} {
		if re == nil {
			continue
		}
		m := re.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		return &domain.RemoteLocation{
			Provider: p.provider,
			Owner:    m[1],
			Repo:     m[2],
		}
	}
	return nil
}

// Parse tries each pattern in order and returns the first match, or nil if
// the URL is not recognized.
func Parse(url string, patterns ...Pattern) *domain.RemoteLocation {
	for _, p := range patterns {
		if loc := p.Match(url); loc != nil {
			return loc
		}
	}
	return nil
}
