package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = 30 * time.Second

// WatcherConfig holds the settings a watcher applies to each check.
type WatcherConfig struct {
	Interval      time.Duration
	Notifications bool
	Persistent    bool
	Repository    string
	Remote        string
}

// Watcher drives divergence checks on a timer and on demand, and presents
// their results. Its lifecycle is Idle -> Running -> Idle.
type Watcher struct {
	detector  *DivergenceDetector
	inspector ports.RepositoryInspector
	presenter ports.Presenter
	history   ports.HistoryStore
	dedup     *Deduplicator
	logger    *slog.Logger

	// guard admits one check at a time.
	guard *semaphore.Weighted

	mu         sync.Mutex
	cfg        WatcherConfig
	running    bool
	generation uint64
	baseCtx    context.Context
	cancel     context.CancelFunc
	lastReport *domain.CheckReport
}

// NewWatcher creates an idle watcher. inspector is only needed for commit
// details and may be nil; history may be nil.
func NewWatcher(detector *DivergenceDetector, inspector ports.RepositoryInspector, presenter ports.Presenter, history ports.HistoryStore, cfg WatcherConfig, logger *slog.Logger) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Watcher{
		detector:  detector,
		inspector: inspector,
		presenter: presenter,
		history:   history,
		dedup:     NewDeduplicator(),
		logger:    orDefault(logger),
		guard:     semaphore.NewWeighted(1),
		cfg:       cfg,
	}
}

// Ensure Watcher implements ports.WatchController.
var _ ports.WatchController = (*Watcher)(nil)

// Start begins periodic checking, running the first check immediately.
// The loop outlives ctx's cancellation; call Stop to end it.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return domain.ErrAlreadyWatching
	}
	w.startLocked(context.WithoutCancel(ctx))
	return nil
}

// Stop ends periodic checking. A check already running completes but its
// result is discarded.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return domain.ErrNotWatching
	}
	w.stopLocked()
	w.logger.Info("stopped periodic checking")
	return nil
}

// IsWatching returns true while periodic checking is active.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// SetInterval changes the check interval. A running schedule is torn down
// and recreated, which runs a check immediately.
func (w *Watcher) SetInterval(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if interval == w.cfg.Interval {
		return
	}
	w.logger.Info("check interval changed", "old", w.cfg.Interval, "new", interval)
	w.cfg.Interval = interval

	if w.running {
		ctx := w.baseCtx
		w.stopLocked()
		w.startLocked(ctx)
	}
}

// Reconfigure applies new settings, restarting the schedule only when the
// interval changed.
func (w *Watcher) Reconfigure(cfg WatcherConfig) {
	w.mu.Lock()
	w.cfg.Notifications = cfg.Notifications
	w.cfg.Persistent = cfg.Persistent
	w.mu.Unlock()

	w.SetInterval(cfg.Interval)
}

// CheckNow runs a check out of band. It does not disturb the schedule.
// Returns domain.ErrCheckInProgress if another check is running.
func (w *Watcher) CheckNow(ctx context.Context) (*domain.CheckReport, error) {
	return w.runCheck(ctx, domain.TriggerManual, 0)
}

// ShowRemoteCommit returns the details of ref. An empty ref means the
// remote tip of the tracked branch, fetched first.
func (w *Watcher) ShowRemoteCommit(ctx context.Context, ref string) (*domain.CommitDetail, error) {
	if w.inspector == nil {
		return nil, errors.New("commit details require the git command")
	}

	if ref == "" {
		branch, err := w.detector.Branch(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve branch: %w", err)
		}
		if err := w.inspector.FetchBranch(ctx, branch); err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", branch, err)
		}
		ref = w.inspector.Remote() + "/" + branch
	}

	detail, err := w.inspector.ShowCommit(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to show %s: %w", ref, err)
	}
	return detail, nil
}

// Status returns a snapshot of the watcher.
func (w *Watcher) Status() domain.WatchStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	return domain.WatchStatus{
		Watching:         w.running,
		Interval:         w.cfg.Interval,
		Strategy:         w.detector.Strategy(),
		Repository:       w.cfg.Repository,
		Remote:           w.cfg.Remote,
		LastNotifiedHash: w.dedup.LastNotified(),
		LastReport:       w.lastReport,
	}
}

// History returns recent checks, newest first.
func (w *Watcher) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if w.history == nil {
		return nil, nil
	}
	return w.history.Recent(ctx, limit)
}

func (w *Watcher) startLocked(ctx context.Context) {
	w.generation++
	gen := w.generation
	loopCtx, cancel := context.WithCancel(ctx)

	w.baseCtx = ctx
	w.cancel = cancel
	w.running = true

	w.logger.Info("started periodic checking", "interval", w.cfg.Interval, "strategy", w.detector.Strategy())
	go w.loop(loopCtx, gen, w.cfg.Interval)
}

func (w *Watcher) stopLocked() {
	w.generation++
	w.running = false
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Watcher) loop(ctx context.Context, gen uint64, interval time.Duration) {
	// Checks finish even if the loop is canceled mid-flight.
	checkCtx := context.WithoutCancel(ctx)

	w.scheduledCheck(checkCtx, domain.TriggerStart, gen)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scheduledCheck(checkCtx, domain.TriggerPeriodic, gen)
		}
	}
}

func (w *Watcher) scheduledCheck(ctx context.Context, trigger domain.Trigger, gen uint64) {
	if _, err := w.runCheck(ctx, trigger, gen); err != nil {
		w.logger.Debug("skipped check", "trigger", trigger, "reason", err)
	}
}

func (w *Watcher) currentGeneration() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}

// runCheck performs one check. gen is the schedule generation that issued a
// scheduled check; manual checks pass 0 and are always applied.
func (w *Watcher) runCheck(ctx context.Context, trigger domain.Trigger, gen uint64) (*domain.CheckReport, error) {
	if !w.guard.TryAcquire(1) {
		return nil, domain.ErrCheckInProgress
	}
	defer w.guard.Release(1)

	report := domain.NewCheckReport(trigger, w.detector.Strategy())
	logger := w.logger.With("check_id", report.ID, "trigger", trigger)
	logger.Debug("check started", "strategy", report.Strategy)

	branch, result := w.detector.Detect(ctx)
	report.Branch = branch
	report.Finish(result)

	if trigger != domain.TriggerManual && gen != w.currentGeneration() {
		report.Discarded = true
		logger.Debug("discarding result of stopped schedule", "kind", result.Kind)
	} else {
		w.apply(ctx, report, logger)
	}

	w.record(ctx, report, logger)
	logger.Info("check finished",
		"branch", branch,
		"kind", result.Kind,
		"commits", len(result.Commits),
		"notified", report.Notified,
		"duration", report.Duration())
	return report, nil
}

// apply updates notification state and presentation for a finished check.
func (w *Watcher) apply(ctx context.Context, report *domain.CheckReport, logger *slog.Logger) {
	result := report.Result

	switch w.dedup.Observe(result) {
	case DecisionNotify:
		w.presenter.UpdateStatus(StatusFor(result))
		notified, err := w.notify(ctx, result, logger)
		if err != nil {
			logger.Warn("failed to show notification, retrying on next check",
				"hash", domain.ShortHash(result.NewestHash), "error", err)
			break
		}
		report.Notified = notified
		w.dedup.MarkNotified(result.NewestHash)
	case DecisionSuppress:
		w.presenter.UpdateStatus(StatusFor(result))
		report.Suppressed = true
		logger.Debug("notification already shown", "hash", domain.ShortHash(result.NewestHash))
	case DecisionReset:
		w.presenter.UpdateStatus(StatusFor(result))
	default:
		logger.Warn("could not determine remote state", "reason", result.Reason)
	}

	w.mu.Lock()
	w.lastReport = report
	w.mu.Unlock()
}

// notify presents the alert for result and reports whether it was shown.
// With notifications disabled it reports false and no error, so the commit
// still counts as handled.
func (w *Watcher) notify(ctx context.Context, result domain.DivergenceResult, logger *slog.Logger) (bool, error) {
	w.mu.Lock()
	enabled, persistent := w.cfg.Notifications, w.cfg.Persistent
	w.mu.Unlock()

	if !enabled {
		logger.Debug("notifications disabled", "hash", domain.ShortHash(result.NewestHash))
		return false, nil
	}

	action, err := w.presenter.ShowNotification(ctx, NotificationFor(result, persistent))
	if err != nil {
		return false, err
	}
	if action == ports.ActionViewDetails {
		w.showDetails(ctx, logger)
	}
	return true, nil
}

func (w *Watcher) showDetails(ctx context.Context, logger *slog.Logger) {
	detail, err := w.ShowRemoteCommit(ctx, "")
	if err != nil {
		logger.Warn("failed to load remote commit details", "error", err)
		return
	}
	w.presenter.ShowDetails(detail)
}

func (w *Watcher) record(ctx context.Context, report *domain.CheckReport, logger *slog.Logger) {
	if w.history == nil {
		return
	}
	if err := w.history.Record(ctx, report.Entry()); err != nil {
		logger.Warn("failed to record check", "error", err)
	}
}
