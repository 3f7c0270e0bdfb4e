// Package ports defines the interfaces (driven and driving ports) for
// commitwatch following hexagonal architecture principles. These interfaces
// define the contracts between the services layer and external
// infrastructure: git, hosting providers, credentials and presentation.
package ports

import (
	"context"

	"github.com/xvierd/commitwatch/internal/domain"
)

// CommandOutput holds the captured output of an external command.
type CommandOutput struct {
	Stdout string
	Stderr string
}

// CommandRunner executes external commands.
// This is a driven port (implemented by adapters).
type CommandRunner interface {
	// Run executes name with args in dir. A non-zero exit or spawn error is
	// returned as *domain.CommandFailure.
	Run(ctx context.Context, dir string, name string, args ...string) (CommandOutput, error)
}

// HeadReader resolves the local branch and HEAD commit.
// This is a driven port (implemented by adapters).
type HeadReader interface {
	// CurrentBranch resolves the symbolic ref for HEAD.
	CurrentBranch(ctx context.Context) (string, error)

	// LocalHead resolves HEAD to a full hash.
	LocalHead(ctx context.Context) (string, error)
}

// RepositoryInspector extracts branch and commit state from a local
// repository. None of its operations modify the working tree or index.
// This is a driven port (implemented by adapters).
type RepositoryInspector interface {
	HeadReader

	// FetchBranch fetches only the named branch from the tracked remote.
	FetchBranch(ctx context.Context, branch string) error

	// RemoteHead resolves <remote>/<branch>. Only valid after FetchBranch
	// completed for the branch in the same check.
	RemoteHead(ctx context.Context, branch string) (string, error)

	// LogBetween returns raw structured log text for commits reachable from
	// toRef but not fromRef, newest first.
	LogBetween(ctx context.Context, fromRef, toRef string) (string, error)

	// ShowCommit returns the full detail of a single commit.
	ShowCommit(ctx context.Context, ref string) (*domain.CommitDetail, error)

	// RemoteBranches lists the branches known locally for the tracked remote.
	RemoteBranches(ctx context.Context) ([]string, error)

	// Remote returns the name of the tracked remote.
	Remote() string
}

// RepositoryInfo describes a discovered local repository.
type RepositoryInfo struct {
	Root       string
	Branch     string
	Head       string
	RemoteName string
	RemoteURL  string
}

// RepositoryLocator discovers the repository containing a directory.
// This is a driven port (implemented by adapters).
type RepositoryLocator interface {
	// Locate finds the repository containing dir and resolves the preferred
	// remote, falling back to the first configured remote.
	Locate(ctx context.Context, dir, preferredRemote string) (*RepositoryInfo, error)
}
