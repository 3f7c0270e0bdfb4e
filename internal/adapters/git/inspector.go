package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/gitlog"
	"github.com/xvierd/commitwatch/internal/ports"
)

// Inspector implements ports.RepositoryInspector on top of the git CLI.
type Inspector struct {
	runner ports.CommandRunner
	dir    string
	remote string
}

// NewInspector creates an inspector for the repository at dir tracking remote.
func NewInspector(runner ports.CommandRunner, dir, remote string) *Inspector {
	return &Inspector{runner: runner, dir: dir, remote: remote}
}

// Ensure Inspector implements ports.RepositoryInspector.
var _ ports.RepositoryInspector = (*Inspector)(nil)

// Remote returns the tracked remote name.
func (i *Inspector) Remote() string {
	return i.remote
}

// CurrentBranch resolves the abbreviated name of HEAD.
func (i *Inspector) CurrentBranch(ctx context.Context) (string, error) {
	out, err := i.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// FetchBranch fetches only the given branch. It never merges or checks out.
func (i *Inspector) FetchBranch(ctx context.Context, branch string) error {
	if err := validateRefs(i.remote, branch); err != nil {
		return err
	}
	_, err := i.git(ctx, "fetch", "--no-tags", "--end-of-options", i.remote, branch)
	return err
}

// LocalHead resolves HEAD to its full hash.
func (i *Inspector) LocalHead(ctx context.Context) (string, error) {
	return i.revParse(ctx, "HEAD")
}

// RemoteHead resolves the remote-tracking ref for branch.
func (i *Inspector) RemoteHead(ctx context.Context, branch string) (string, error) {
	if err := validateRefs(i.remote, branch); err != nil {
		return "", err
	}
	return i.revParse(ctx, i.remote+"/"+branch)
}

// LogBetween returns structured log text for fromRef..toRef.
func (i *Inspector) LogBetween(ctx context.Context, fromRef, toRef string) (string, error) {
	if err := validateRefs(fromRef, toRef); err != nil {
		return "", err
	}
	return i.git(ctx, gitlog.LogArgs(fromRef, toRef)...)
}

// ShowCommit loads the full detail of ref.
func (i *Inspector) ShowCommit(ctx context.Context, ref string) (*domain.CommitDetail, error) {
	if err := domain.ValidateRef(ref); err != nil {
		return nil, err
	}
	out, err := i.git(ctx, gitlog.ShowArgs(ref)...)
	if err != nil {
		return nil, err
	}
	detail, err := gitlog.ParseDetail(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse commit %s: %w", ref, err)
	}
	return detail, nil
}

// RemoteBranches lists the remote-tracking branches of the tracked remote.
func (i *Inspector) RemoteBranches(ctx context.Context) ([]string, error) {
	out, err := i.git(ctx, "for-each-ref", "--format=%(refname:short)", "refs/remotes/"+i.remote)
	if err != nil {
		return nil, err
	}

	prefix := i.remote + "/"
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		name, ok := strings.CutPrefix(line, prefix)
		if !ok || name == "HEAD" {
			continue
		}
		branches = append(branches, name)
	}
	return branches, nil
}

// revParse resolves ref with --verify so that only a single revision is
// accepted. Callers validate ref first.
func (i *Inspector) revParse(ctx context.Context, ref string) (string, error) {
	out, err := i.git(ctx, "rev-parse", "--verify", ref)
	if err != nil {
		return "", err
	}
	hash := strings.TrimSpace(out)
	if hash == "" {
		return "", fmt.Errorf("rev-parse %s: %w", ref, domain.ErrMalformedResponse)
	}
	return hash, nil
}

// validateRefs checks every value that git receives as a positional argument.
func validateRefs(refs ...string) error {
	for _, ref := range refs {
		if err := domain.ValidateRef(ref); err != nil {
			return err
		}
	}
	return nil
}

func (i *Inspector) git(ctx context.Context, args ...string) (string, error) {
	out, err := i.runner.Run(ctx, i.dir, "git", args...)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}
