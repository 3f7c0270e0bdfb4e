package ports

import (
	"context"

	"github.com/xvierd/commitwatch/internal/domain"
)

// ActionViewDetails is the notification action that opens the remote commit
// details report.
const ActionViewDetails = "View All Details"

// Notification is a user-facing alert about new remote commits.
type Notification struct {
	Title      string
	Body       string
	Persistent bool
	Actions    []string
}

// StatusIndicator is the passive status display.
type StatusIndicator struct {
	Visible bool
	Text    string
	Tooltip string
	Urgent  bool
}

// Presenter renders notifications and status.
// This is a driving port (called by the services layer).
type Presenter interface {
	// ShowNotification presents an alert and returns the selected action,
	// or "" when none was chosen.
	ShowNotification(ctx context.Context, n Notification) (string, error)

	// UpdateStatus refreshes the passive status display.
	UpdateStatus(status StatusIndicator)

	// ShowDetails presents a single commit's detail report.
	ShowDetails(detail *domain.CommitDetail)
}

// HistoryStore keeps a summary of recent checks for the lifetime of the
// process.
// This is a driven port (implemented by adapters).
type HistoryStore interface {
	// Record stores a check summary.
	Record(ctx context.Context, entry domain.HistoryEntry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)

	// Close releases the store.
	Close() error
}

// WatchController is the command surface exposed to hosts (CLI, TUI, MCP).
// This is a driving port (implemented by the services layer).
type WatchController interface {
	// Start begins periodic checking. Returns domain.ErrAlreadyWatching when
	// already running.
	Start(ctx context.Context) error

	// Stop cancels periodic checking.
	Stop() error

	// IsWatching returns true while periodic checking is active.
	IsWatching() bool

	// CheckNow runs one check out of band.
	CheckNow(ctx context.Context) (*domain.CheckReport, error)

	// ShowRemoteCommit fetches and describes ref, or the remote tip of the
	// tracked branch when ref is empty.
	ShowRemoteCommit(ctx context.Context, ref string) (*domain.CommitDetail, error)

	// Status returns a snapshot of the watcher.
	Status() domain.WatchStatus

	// History returns recent check summaries.
	History(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}
