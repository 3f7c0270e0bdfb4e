package services

import (
	"context"
	"sync"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/gitlog"
	"github.com/xvierd/commitwatch/internal/ports"
)

// fakeInspector is a scripted ports.RepositoryInspector.
type fakeInspector struct {
	mu       sync.Mutex
	branch   string
	local    string
	remote   string
	log      string
	detail   *domain.CommitDetail
	branches []string

	fetchErr error
	headErr  error
	logErr   error

	fetched []string
	shown   []string
}

func (f *fakeInspector) CurrentBranch(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branch, f.headErr
}

func (f *fakeInspector) LocalHead(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.local, f.headErr
}

func (f *fakeInspector) FetchBranch(_ context.Context, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, branch)
	return f.fetchErr
}

func (f *fakeInspector) RemoteHead(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remote, f.headErr
}

func (f *fakeInspector) LogBetween(context.Context, string, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.log, f.logErr
}

func (f *fakeInspector) ShowCommit(_ context.Context, ref string) (*domain.CommitDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, ref)
	if f.detail == nil {
		return nil, domain.ErrMalformedResponse
	}
	return f.detail, nil
}

func (f *fakeInspector) RemoteBranches(context.Context) ([]string, error) {
	return f.branches, nil
}

func (f *fakeInspector) Remote() string { return "origin" }

func (f *fakeInspector) set(fn func(*fakeInspector)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// logOf renders commits in the git log record format.
func logOf(commits ...domain.CommitRecord) string {
	var out string
	for _, c := range commits {
		out += c.Hash + gitlog.FieldDelimiter + c.Author + gitlog.FieldDelimiter +
			c.Date + gitlog.FieldDelimiter + c.Message + "\n" + gitlog.RecordTerminator + "\n"
	}
	return out
}

// fakePresenter records everything presented to it.
type fakePresenter struct {
	mu            sync.Mutex
	action        string
	notifyErr     error
	notifications []ports.Notification
	statuses      []ports.StatusIndicator
	details       []*domain.CommitDetail
}

func (p *fakePresenter) ShowNotification(_ context.Context, n ports.Notification) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.notifyErr != nil {
		return "", p.notifyErr
	}
	p.notifications = append(p.notifications, n)
	return p.action, nil
}

func (p *fakePresenter) UpdateStatus(s ports.StatusIndicator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, s)
}

func (p *fakePresenter) ShowDetails(d *domain.CommitDetail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.details = append(p.details, d)
}

func (p *fakePresenter) counts() (notifications, statuses int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.notifications), len(p.statuses)
}

// fakeHeads is a fixed ports.HeadReader.
type fakeHeads struct {
	branch string
	head   string
	err    error
}

func (h fakeHeads) CurrentBranch(context.Context) (string, error) { return h.branch, h.err }
func (h fakeHeads) LocalHead(context.Context) (string, error)     { return h.head, h.err }

// fakeProvider returns a fixed commit and records its arguments.
type fakeProvider struct {
	commit *domain.CommitRecord
	block  bool
	args   []string
}

func (p *fakeProvider) Name() string { return "github" }

func (p *fakeProvider) ParseRemote(string) *domain.RemoteLocation { return nil }

func (p *fakeProvider) LatestCommit(ctx context.Context, owner, repo, branch string) *domain.CommitRecord {
	p.args = []string{owner, repo, branch}
	if p.block {
		<-ctx.Done()
		return nil
	}
	return p.commit
}

// funcStrategy adapts a function to Strategy.
type funcStrategy struct {
	fn func(ctx context.Context, branch string) domain.DivergenceResult
}

func (s funcStrategy) Name() domain.Strategy { return domain.StrategyLocalFetch }

func (s funcStrategy) Detect(ctx context.Context, branch string) domain.DivergenceResult {
	return s.fn(ctx, branch)
}

// memHistory is an in-memory ports.HistoryStore.
type memHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (m *memHistory) Record(_ context.Context, e domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memHistory) Recent(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HistoryEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memHistory) Close() error { return nil }

func (m *memHistory) all() []domain.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.HistoryEntry(nil), m.entries...)
}
