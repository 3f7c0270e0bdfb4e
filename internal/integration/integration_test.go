package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/xvierd/commitwatch/internal/adapters/auth"
	"github.com/xvierd/commitwatch/internal/adapters/git"
	"github.com/xvierd/commitwatch/internal/adapters/provider"
	"github.com/xvierd/commitwatch/internal/adapters/storage"
	"github.com/xvierd/commitwatch/internal/adapters/tui"
	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/logging"
	"github.com/xvierd/commitwatch/internal/ports"
	"github.com/xvierd/commitwatch/internal/services"
)

// recordingPresenter captures everything the watcher presents.
type recordingPresenter struct {
	mu            sync.Mutex
	notifications []ports.Notification
	statuses      []ports.StatusIndicator
}

func (p *recordingPresenter) ShowNotification(_ context.Context, n ports.Notification) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
	return "", nil
}

func (p *recordingPresenter) UpdateStatus(s ports.StatusIndicator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, s)
}

func (p *recordingPresenter) ShowDetails(*domain.CommitDetail) {}

func (p *recordingPresenter) notified() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.notifications)
}

func (p *recordingPresenter) lastStatus() ports.StatusIndicator {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.statuses) == 0 {
		return ports.StatusIndicator{}
	}
	return p.statuses[len(p.statuses)-1]
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func commit(t *testing.T, repo *gogit.Repository, dir, file, author, message string) string {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(message), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", file, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := wt.Add(file); err != nil {
		t.Fatalf("failed to add %s: %v", file, err)
	}
	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: author, Email: author + "@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}

// setupClone creates an upstream repository and a clone of it.
func setupClone(t *testing.T) (upstreamDir string, upstream *gogit.Repository, localDir string) {
	t.Helper()

	upstreamDir = t.TempDir()
	upstream, err := gogit.PlainInit(upstreamDir, false)
	if err != nil {
		t.Fatalf("failed to init upstream: %v", err)
	}
	commit(t, upstream, upstreamDir, "README.md", "alice", "Initial commit")

	localDir = t.TempDir()
	if _, err := gogit.PlainClone(localDir, false, &gogit.CloneOptions{URL: upstreamDir}); err != nil {
		t.Fatalf("failed to clone: %v", err)
	}
	return upstreamDir, upstream, localDir
}

func newLocalWatcher(t *testing.T, localDir string, interval time.Duration) (*services.Watcher, *recordingPresenter) {
	t.Helper()
	presenter := &recordingPresenter{}
	return newLocalWatcherWith(t, localDir, interval, presenter), presenter
}

func newLocalWatcherWith(t *testing.T, localDir string, interval time.Duration, presenter ports.Presenter) *services.Watcher {
	t.Helper()

	runner := git.NewExecRunner(10 * time.Second)
	inspector := git.NewInspector(runner, localDir, git.DefaultRemote)
	logger := logging.Discard()

	history, err := storage.NewMemory(storage.DefaultRetention)
	if err != nil {
		t.Fatalf("failed to create history: %v", err)
	}
	t.Cleanup(func() { history.Close() })

	detector := services.NewDivergenceDetector(services.NewLocalFetchStrategy(inspector, logger), inspector, "")
	return services.NewWatcher(detector, inspector, presenter, history, services.WatcherConfig{
		Interval:      interval,
		Notifications: true,
		Repository:    localDir,
		Remote:        git.DefaultRemote,
	}, logger)
}

// TestLocalFetchLifecycle follows a branch falling behind, staying behind
// and catching up again.
func TestLocalFetchLifecycle(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	upstreamDir, upstream, localDir := setupClone(t)
	w, presenter := newLocalWatcher(t, localDir, time.Minute)

	report, err := w.CheckNow(ctx)
	if err != nil {
		t.Fatalf("CheckNow() error = %v", err)
	}
	if report.Result.Kind != domain.KindUpToDate {
		t.Fatalf("fresh clone: kind = %v (%s), want up to date", report.Result.Kind, report.Result.Reason)
	}

	first := commit(t, upstream, upstreamDir, "a.txt", "alice", "Add feature")
	second := commit(t, upstream, upstreamDir, "b.txt", "bob", "Fix bug\n\nwith a body\n\nspanning paragraphs")

	report, err = w.CheckNow(ctx)
	if err != nil {
		t.Fatalf("CheckNow() error = %v", err)
	}
	if report.Result.Kind != domain.KindAhead {
		t.Fatalf("kind = %v (%s), want ahead", report.Result.Kind, report.Result.Reason)
	}
	commits := report.Result.Commits
	if len(commits) != 2 || commits[0].Hash != second || commits[1].Hash != first {
		t.Fatalf("commits = %+v, want [%s %s]", commits, second, first)
	}
	if commits[0].Message != "Fix bug\n\nwith a body\n\nspanning paragraphs" {
		t.Errorf("multi-line message = %q", commits[0].Message)
	}
	if presenter.notified() != 1 {
		t.Errorf("notifications = %d, want 1", presenter.notified())
	}
	if got := presenter.lastStatus().Text; got != "Remote: bob, alice" {
		t.Errorf("status text = %q, want %q", got, "Remote: bob, alice")
	}
	if got := w.Status().LastNotifiedHash; got != second {
		t.Errorf("LastNotifiedHash = %q, want %q", got, second)
	}

	// Same remote tip: no second notification.
	if _, err := w.CheckNow(ctx); err != nil {
		t.Fatalf("CheckNow() error = %v", err)
	}
	if presenter.notified() != 1 {
		t.Errorf("repeat check notified again: %d notifications", presenter.notified())
	}

	// Catch up locally.
	merge := exec.Command("git", "merge", "--ff-only", "origin/master")
	merge.Dir = localDir
	if out, err := merge.CombinedOutput(); err != nil {
		t.Fatalf("git merge: %v\n%s", err, out)
	}

	report, err = w.CheckNow(ctx)
	if err != nil {
		t.Fatalf("CheckNow() error = %v", err)
	}
	if report.Result.Kind != domain.KindUpToDate {
		t.Errorf("after merge: kind = %v, want up to date", report.Result.Kind)
	}
	if w.Status().LastNotifiedHash != "" {
		t.Error("LastNotifiedHash should reset once in sync")
	}
	if presenter.lastStatus().Visible {
		t.Error("status should be hidden once in sync")
	}

	history, err := w.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("history has %d entries, want 4", len(history))
	}
	if history[0].Kind != domain.KindUpToDate || history[2].CommitCount != 2 {
		t.Errorf("unexpected history order: %+v", history)
	}

	detail, err := w.ShowRemoteCommit(ctx, "")
	if err != nil {
		t.Fatalf("ShowRemoteCommit() error = %v", err)
	}
	if detail.Hash != second || detail.AuthorEmail != "bob@example.com" {
		t.Errorf("detail = %+v", detail)
	}
}

// TestLocalFetch_MissingRemoteBranch reports Unknown without notifying.
func TestLocalFetch_MissingRemoteBranch(t *testing.T) {
	requireGit(t)

	_, _, localDir := setupClone(t)
	checkout := exec.Command("git", "checkout", "-q", "-b", "topic")
	checkout.Dir = localDir
	if out, err := checkout.CombinedOutput(); err != nil {
		t.Fatalf("git checkout: %v\n%s", err, out)
	}

	w, presenter := newLocalWatcher(t, localDir, time.Minute)
	report, err := w.CheckNow(context.Background())
	if err != nil {
		t.Fatalf("CheckNow() error = %v", err)
	}
	if report.Result.Kind != domain.KindUnknown {
		t.Fatalf("kind = %v, want unknown", report.Result.Kind)
	}
	if report.Result.Reason == "" {
		t.Error("unknown result should carry a reason")
	}
	if presenter.notified() != 0 || len(presenter.statuses) != 0 {
		t.Error("an unknown result should not be presented")
	}
}

// TestPeriodicChecks runs the schedule against a real repository.
func TestPeriodicChecks(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	upstreamDir, upstream, localDir := setupClone(t)
	commit(t, upstream, upstreamDir, "a.txt", "alice", "Add feature")

	w, presenter := newLocalWatcher(t, localDir, 200*time.Millisecond)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		history, _ := w.History(ctx, 10)
		if len(history) >= 3 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	history, err := w.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) < 3 {
		t.Fatalf("only %d checks ran", len(history))
	}
	if history[len(history)-1].Trigger != domain.TriggerStart {
		t.Errorf("first check trigger = %v, want start", history[len(history)-1].Trigger)
	}
	if presenter.notified() != 1 {
		t.Errorf("notifications = %d, want exactly 1 across periodic checks", presenter.notified())
	}
}

// TestRemoteAPIStrategy compares a go-git HEAD with a GitHub API response.
func TestRemoteAPIStrategy(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	head := commit(t, repo, dir, "README.md", "alice", "Initial commit")

	var mu sync.Mutex
	remoteSHA := head
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/widget/commits" || r.URL.Query().Get("sha") != "master" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer t0ken" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mu.Lock()
		sha := remoteSHA
		mu.Unlock()
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"sha": sha,
			"commit": map[string]any{
				"message":   "Remote change\n\nbody",
				"committer": map[string]any{"name": "carol", "date": "2024-01-02T10:00:00Z"},
			},
		}})
	}))
	defer srv.Close()

	sessions := auth.NewSessionProvider(map[string]string{"github": "t0ken"}, nil, logging.Discard())
	registry := provider.NewRegistry(
		provider.NewGitHub(srv.URL, sessions, provider.WithLogger(logging.Discard())),
		provider.NewBitbucket(srv.URL, "", "", provider.WithLogger(logging.Discard())),
	)
	remoteProvider, location := registry.Resolve("git@github.com:acme/widget.git")
	if location == nil {
		t.Fatal("github remote should resolve")
	}

	heads := git.NewHeadReader(dir)
	strategy := services.NewRemoteAPIStrategy(heads, remoteProvider, *location, 5*time.Second)
	detector := services.NewDivergenceDetector(strategy, heads, "")
	presenter := &recordingPresenter{}
	w := services.NewWatcher(detector, nil, presenter, nil, services.WatcherConfig{Notifications: true}, logging.Discard())

	report, err := w.CheckNow(context.Background())
	if err != nil {
		t.Fatalf("CheckNow() error = %v", err)
	}
	if report.Result.Kind != domain.KindUpToDate {
		t.Fatalf("equal sha: kind = %v (%s), want up to date", report.Result.Kind, report.Result.Reason)
	}

	mu.Lock()
	remoteSHA = "0123456789abcdef0123456789abcdef01234567"
	mu.Unlock()

	report, err = w.CheckNow(context.Background())
	if err != nil {
		t.Fatalf("CheckNow() error = %v", err)
	}
	if report.Result.Kind != domain.KindAhead || len(report.Result.Commits) != 1 {
		t.Fatalf("kind = %v, commits = %d, want one ahead", report.Result.Kind, len(report.Result.Commits))
	}
	c := report.Result.Commits[0]
	if c.Author != "carol" || c.Message != "Remote change" {
		t.Errorf("commit = %+v", c)
	}
	if presenter.notified() != 1 {
		t.Errorf("notifications = %d, want 1", presenter.notified())
	}

	if _, err := w.ShowRemoteCommit(context.Background(), ""); err == nil {
		t.Error("details need the git command and should fail without an inspector")
	}
}

// TestLinePresenterDetailsOnAlert checks that the plain watch output follows
// a new-commit alert with the details of the remote tip.
func TestLinePresenterDetailsOnAlert(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	upstreamDir, upstream, localDir := setupClone(t)
	tip := commit(t, upstream, upstreamDir, "feature.txt", "bob", "Add feature\n\nWith a body")

	var out bytes.Buffer
	w := newLocalWatcherWith(t, localDir, time.Hour, tui.NewLinePresenter(&out).WithDetails())

	report, err := w.CheckNow(ctx)
	if err != nil {
		t.Fatalf("CheckNow() error = %v", err)
	}
	if !report.Notified {
		t.Fatalf("report = %+v, want notified", report)
	}

	text := out.String()
	for _, want := range []string{"1 New Remote Commit Available", "=== REMOTE COMMIT DETAILS ===", tip, "bob@example.com", "With a body"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}
