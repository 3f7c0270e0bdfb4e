// Package services implements the commitwatch use cases: divergence
// detection, notification deduplication and the periodic watcher.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/gitlog"
	"github.com/xvierd/commitwatch/internal/ports"
)

// Strategy obtains remote state and compares it with the local branch.
type Strategy interface {
	// Name identifies the strategy.
	Name() domain.Strategy

	// Detect compares the local branch with the remote branch of the same
	// name. Failures are reported as domain.KindUnknown, never as errors.
	Detect(ctx context.Context, branch string) domain.DivergenceResult
}

// ChooseStrategy applies strategy precedence: the configured strategy is
// used unless it needs the git binary and none is installed, in which case
// the remote API is used instead.
func ChooseStrategy(configured domain.Strategy, gitAvailable bool) domain.Strategy {
	if configured == domain.StrategyRemoteAPI || !gitAvailable {
		return domain.StrategyRemoteAPI
	}
	return domain.StrategyLocalFetch
}

// LocalFetchStrategy fetches the branch and diffs it against HEAD with git.
type LocalFetchStrategy struct {
	inspector ports.RepositoryInspector
	logger    *slog.Logger
}

// NewLocalFetchStrategy creates the local fetch strategy.
func NewLocalFetchStrategy(inspector ports.RepositoryInspector, logger *slog.Logger) *LocalFetchStrategy {
	return &LocalFetchStrategy{inspector: inspector, logger: orDefault(logger)}
}

// Name returns domain.StrategyLocalFetch.
func (s *LocalFetchStrategy) Name() domain.Strategy { return domain.StrategyLocalFetch }

// Detect fetches branch, then lists the commits between HEAD and the
// remote-tracking ref.
func (s *LocalFetchStrategy) Detect(ctx context.Context, branch string) domain.DivergenceResult {
	if err := s.inspector.FetchBranch(ctx, branch); err != nil {
		return unknownFrom("fetch", err)
	}

	local, err := s.inspector.LocalHead(ctx)
	if err != nil {
		return unknownFrom("resolve local HEAD", err)
	}
	remote, err := s.inspector.RemoteHead(ctx, branch)
	if err != nil {
		return unknownFrom("resolve remote branch", err)
	}

	if local == remote {
		return domain.UpToDate()
	}

	raw, err := s.inspector.LogBetween(ctx, local, remote)
	if err != nil {
		return unknownFrom("read log", err)
	}

	// Empty when the local branch is ahead or the histories only differ
	// on the local side.
	return domain.Ahead(gitlog.Parse(raw, s.logger))
}

// RemoteAPIStrategy asks the hosting provider for the newest commit on the
// branch. It never reports more than one pending commit.
type RemoteAPIStrategy struct {
	heads    ports.HeadReader
	provider ports.RemoteCommitProvider
	location domain.RemoteLocation
	timeout  time.Duration
}

// NewRemoteAPIStrategy creates the remote API strategy for location served
// by provider. Each detection is bounded by timeout.
func NewRemoteAPIStrategy(heads ports.HeadReader, provider ports.RemoteCommitProvider, location domain.RemoteLocation, timeout time.Duration) *RemoteAPIStrategy {
	return &RemoteAPIStrategy{
		heads:    heads,
		provider: provider,
		location: location,
		timeout:  timeout,
	}
}

// Name returns domain.StrategyRemoteAPI.
func (s *RemoteAPIStrategy) Name() domain.Strategy { return domain.StrategyRemoteAPI }

// Detect compares the provider's newest commit with local HEAD.
func (s *RemoteAPIStrategy) Detect(ctx context.Context, branch string) domain.DivergenceResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	local, err := s.heads.LocalHead(ctx)
	if err != nil {
		return unknownFrom("resolve local HEAD", err)
	}

	latest := s.provider.LatestCommit(ctx, s.location.Owner, s.location.Repo, branch)
	if latest == nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Unknown(timeoutReason)
		}
		return domain.Unknown(fmt.Sprintf("no commit information from %s for %s", s.provider.Name(), s.location))
	}

	if latest.Hash == local {
		return domain.UpToDate()
	}
	return domain.Ahead([]domain.CommitRecord{*latest})
}

// DivergenceDetector runs one strategy against the tracked branch.
type DivergenceDetector struct {
	strategy Strategy
	heads    ports.HeadReader
	branch   string
}

// NewDivergenceDetector creates a detector. An empty branch tracks whatever
// branch is checked out at the time of each check.
func NewDivergenceDetector(strategy Strategy, heads ports.HeadReader, branch string) *DivergenceDetector {
	return &DivergenceDetector{strategy: strategy, heads: heads, branch: branch}
}

// Strategy returns the name of the active strategy.
func (d *DivergenceDetector) Strategy() domain.Strategy {
	return d.strategy.Name()
}

// Branch resolves the branch to compare.
func (d *DivergenceDetector) Branch(ctx context.Context) (string, error) {
	if d.branch != "" {
		return d.branch, nil
	}
	branch, err := d.heads.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}
	if branch == "" || branch == "HEAD" {
		return "", errDetachedHead
	}
	return branch, nil
}

// Detect resolves the branch and runs the strategy.
func (d *DivergenceDetector) Detect(ctx context.Context) (string, domain.DivergenceResult) {
	branch, err := d.Branch(ctx)
	if err != nil {
		return "", unknownFrom("resolve current branch", err)
	}
	return branch, d.strategy.Detect(ctx, branch)
}

const timeoutReason = "timeout"

var errDetachedHead = errors.New("HEAD is detached")

// unknownFrom converts a failure into an Unknown result with a short reason.
func unknownFrom(step string, err error) domain.DivergenceResult {
	if errors.Is(err, domain.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Unknown(timeoutReason)
	}

	var failure *domain.CommandFailure
	if errors.As(err, &failure) {
		if line := firstLine(failure.Stderr); line != "" {
			return domain.Unknown(fmt.Sprintf("%s failed: %s", step, line))
		}
	}
	return domain.Unknown(fmt.Sprintf("%s failed: %v", step, err))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
