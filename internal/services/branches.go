package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/xvierd/commitwatch/internal/ports"
)

// maxSuggestions caps the branch names offered for an unknown branch.
const maxSuggestions = 3

// UnknownBranchError reports a branch the remote does not have.
type UnknownBranchError struct {
	Branch      string
	Remote      string
	Suggestions []string
}

// Error implements the error interface.
func (e *UnknownBranchError) Error() string {
	msg := fmt.Sprintf("branch %q not found on remote %s", e.Branch, e.Remote)
	if len(e.Suggestions) > 0 {
		msg += "; did you mean " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}

// SuggestBranches returns up to limit branches that fuzzy-match target,
// best match first.
func SuggestBranches(target string, branches []string, limit int) []string {
	if target == "" || limit <= 0 {
		return nil
	}

	var out []string
	for _, match := range fuzzy.Find(target, branches) {
		out = append(out, match.Str)
		if len(out) == limit {
			break
		}
	}
	return out
}

// VerifyBranch checks that branch is known for the inspector's remote. The
// remote-tracking refs are consulted, so a branch never fetched before is
// reported as unknown.
func VerifyBranch(ctx context.Context, inspector ports.RepositoryInspector, branch string) error {
	branches, err := inspector.RemoteBranches(ctx)
	if err != nil {
		return fmt.Errorf("failed to list remote branches: %w", err)
	}
	if slices.Contains(branches, branch) {
		return nil
	}
	return &UnknownBranchError{
		Branch:      branch,
		Remote:      inspector.Remote(),
		Suggestions: SuggestBranches(branch, branches, maxSuggestions),
	}
}
