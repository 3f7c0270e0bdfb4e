// Package git provides local repository access: discovery with go-git and
// branch inspection through the git CLI.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// DefaultRemote is preferred when the repository has several remotes.
const DefaultRemote = "origin"

// Locator implements ports.RepositoryLocator using go-git.
type Locator struct{}

// NewLocator creates a new repository locator.
func NewLocator() *Locator {
	return &Locator{}
}

// Ensure Locator implements ports.RepositoryLocator.
var _ ports.RepositoryLocator = (*Locator)(nil)

// Locate finds the repository containing dir and the remote to track.
func (l *Locator) Locate(ctx context.Context, dir, preferredRemote string) (*ports.RepositoryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	root, err := findGitRepo(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoRepository, err)
	}

	repo, err := openRepo(root)
	if err != nil {
		return nil, err
	}

	info := &ports.RepositoryInfo{Root: root}

	// A repository without commits has no HEAD yet.
	head, err := repo.Head()
	switch {
	case err == nil:
		info.Head = head.Hash().String()
		info.Branch = branchName(head)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
	default:
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	name, url, err := selectRemote(repo, preferredRemote)
	if err != nil {
		return info, err
	}
	info.RemoteName = name
	info.RemoteURL = url

	return info, nil
}

// HeadReader implements ports.HeadReader with go-git, for hosts without a
// git binary.
type HeadReader struct {
	root string
}

// NewHeadReader creates a reader for the repository rooted at root.
func NewHeadReader(root string) *HeadReader {
	return &HeadReader{root: root}
}

// Ensure HeadReader implements ports.HeadReader.
var _ ports.HeadReader = (*HeadReader)(nil)

// CurrentBranch returns the short branch name, or "HEAD" when detached.
func (h *HeadReader) CurrentBranch(ctx context.Context) (string, error) {
	head, err := h.head(ctx)
	if err != nil {
		return "", err
	}
	return branchName(head), nil
}

// LocalHead returns the full hash HEAD points at.
func (h *HeadReader) LocalHead(ctx context.Context) (string, error) {
	head, err := h.head(ctx)
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}

func (h *HeadReader) head(ctx context.Context) (*plumbing.Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Reopen on every call so HEAD moves made by other tools are seen.
	repo, err := openRepo(h.root)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head, nil
}

func openRepo(root string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return repo, nil
}

func branchName(head *plumbing.Reference) string {
	if !head.Name().IsBranch() {
		return "HEAD"
	}
	return head.Name().Short()
}

// selectRemote returns the preferred remote if configured, otherwise the
// first remote by name.
func selectRemote(repo *git.Repository, preferred string) (string, string, error) {
	if preferred == "" {
		preferred = DefaultRemote
	}

	if r, err := repo.Remote(preferred); err == nil {
		return preferred, firstURL(r.Config().URLs), nil
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return "", "", fmt.Errorf("failed to list remotes: %w", err)
	}
	if len(remotes) == 0 {
		return "", "", domain.ErrNoRemote
	}

	sort.Slice(remotes, func(i, j int) bool {
		return remotes[i].Config().Name < remotes[j].Config().Name
	})
	cfg := remotes[0].Config()
	return cfg.Name, firstURL(cfg.URLs), nil
}

func firstURL(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// findGitRepo traverses up the directory tree to find a .git directory.
func findGitRepo(startPath string) (string, error) {
	currentPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	for {
		gitPath := filepath.Join(currentPath, ".git")
		info, err := os.Stat(gitPath)
		if err == nil && info.IsDir() {
			return currentPath, nil
		}

		// Worktrees and submodules use a file holding a gitdir reference.
		if err == nil && !info.IsDir() {
			content, err := os.ReadFile(gitPath)
			if err == nil && strings.HasPrefix(string(content), "gitdir: ") {
				return currentPath, nil
			}
		}

		parent := filepath.Dir(currentPath)
		if parent == currentPath {
			break
		}
		currentPath = parent
	}

	return "", fmt.Errorf("no .git directory found above %s", startPath)
}
