package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/commitwatch/internal/domain"
)

func TestChooseStrategy(t *testing.T) {
	tests := []struct {
		configured   domain.Strategy
		gitAvailable bool
		want         domain.Strategy
	}{
		{domain.StrategyLocalFetch, true, domain.StrategyLocalFetch},
		{domain.StrategyRemoteAPI, true, domain.StrategyRemoteAPI},
		{domain.StrategyLocalFetch, false, domain.StrategyRemoteAPI},
		{domain.StrategyRemoteAPI, false, domain.StrategyRemoteAPI},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/git=%v", tt.configured, tt.gitAvailable), func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseStrategy(tt.configured, tt.gitAvailable))
		})
	}
}

func TestLocalFetchStrategy_Ahead(t *testing.T) {
	in := &fakeInspector{
		local:  "abc1234",
		remote: "def5678",
		log: logOf(
			domain.CommitRecord{Hash: "def5678", Author: "bob", Date: "2024-05-02 09:00:00", Message: "Add feature\n\nWith body"},
			domain.CommitRecord{Hash: "ccc0000", Author: "alice", Date: "2024-05-01 18:00:00", Message: "Prep"},
		),
	}

	result := NewLocalFetchStrategy(in, nil).Detect(context.Background(), "main")

	require.Equal(t, domain.KindAhead, result.Kind)
	assert.Equal(t, "def5678", result.NewestHash)
	require.Len(t, result.Commits, 2)
	assert.Equal(t, "def5678", result.Commits[0].Hash)
	assert.Equal(t, "Add feature\n\nWith body", result.Commits[0].Message)
	assert.Equal(t, []string{"main"}, in.fetched)
}

func TestLocalFetchStrategy_Reflexive(t *testing.T) {
	in := &fakeInspector{local: "abc1234", remote: "abc1234", log: "must not be read"}

	result := NewLocalFetchStrategy(in, nil).Detect(context.Background(), "main")
	assert.Equal(t, domain.KindUpToDate, result.Kind)
}

func TestLocalFetchStrategy_EmptyLogIsUpToDate(t *testing.T) {
	in := &fakeInspector{local: "abc1234", remote: "0001111", log: "\n"}

	result := NewLocalFetchStrategy(in, nil).Detect(context.Background(), "main")
	assert.Equal(t, domain.KindUpToDate, result.Kind)
}

func TestLocalFetchStrategy_Failures(t *testing.T) {
	failure := &domain.CommandFailure{
		Args:   []string{"git", "fetch", "--no-tags", "origin", "main"},
		Stderr: "fatal: unable to access remote\nmore detail",
		Err:    errors.New("exit status 128"),
	}

	tests := []struct {
		name       string
		inspector  *fakeInspector
		wantReason string
	}{
		{
			name:       "fetch fails",
			inspector:  &fakeInspector{fetchErr: failure},
			wantReason: "fetch failed: fatal: unable to access remote",
		},
		{
			name:       "fetch times out",
			inspector:  &fakeInspector{fetchErr: &domain.CommandFailure{Err: fmt.Errorf("%w: %w", domain.ErrTimeout, context.DeadlineExceeded)}},
			wantReason: "timeout",
		},
		{
			name:       "head fails",
			inspector:  &fakeInspector{headErr: errors.New("bad object")},
			wantReason: "resolve local HEAD failed: bad object",
		},
		{
			name:       "log fails",
			inspector:  &fakeInspector{local: "a", remote: "b", logErr: errors.New("boom")},
			wantReason: "read log failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewLocalFetchStrategy(tt.inspector, nil).Detect(context.Background(), "main")
			assert.Equal(t, domain.KindUnknown, result.Kind)
			assert.Equal(t, tt.wantReason, result.Reason)
			assert.Empty(t, result.Commits)
		})
	}
}

func TestRemoteAPIStrategy_UpToDate(t *testing.T) {
	const sha = "9fceb02d0ae598e95dc970b74767f19372d61af8"
	provider := &fakeProvider{commit: &domain.CommitRecord{Hash: sha, Author: "Bob"}}
	loc := domain.RemoteLocation{Provider: "github", Owner: "acme", Repo: "widget"}

	result := NewRemoteAPIStrategy(fakeHeads{head: sha}, provider, loc, time.Second).Detect(context.Background(), "main")

	assert.Equal(t, domain.KindUpToDate, result.Kind)
	assert.Equal(t, []string{"acme", "widget", "main"}, provider.args)
}

func TestRemoteAPIStrategy_AheadSingleCommit(t *testing.T) {
	provider := &fakeProvider{commit: &domain.CommitRecord{Hash: "def5678ffff", Author: "Bob", Message: "Add feature"}}
	loc := domain.RemoteLocation{Owner: "acme", Repo: "widget"}

	result := NewRemoteAPIStrategy(fakeHeads{head: "abc1234ffff"}, provider, loc, time.Second).Detect(context.Background(), "main")

	require.Equal(t, domain.KindAhead, result.Kind)
	assert.Len(t, result.Commits, 1)
	assert.Equal(t, "def5678ffff", result.NewestHash)
}

func TestRemoteAPIStrategy_ComparesFullHash(t *testing.T) {
	// Same short prefix, different commit.
	provider := &fakeProvider{commit: &domain.CommitRecord{Hash: "abc1234000"}}

	result := NewRemoteAPIStrategy(fakeHeads{head: "abc1234fff"}, provider, domain.RemoteLocation{}, 0).Detect(context.Background(), "main")
	assert.Equal(t, domain.KindAhead, result.Kind)
}

func TestRemoteAPIStrategy_Unknown(t *testing.T) {
	loc := domain.RemoteLocation{Owner: "acme", Repo: "widget"}

	t.Run("no provider result", func(t *testing.T) {
		result := NewRemoteAPIStrategy(fakeHeads{head: "abc"}, &fakeProvider{}, loc, time.Second).Detect(context.Background(), "main")
		assert.Equal(t, domain.KindUnknown, result.Kind)
		assert.Contains(t, result.Reason, "github")
	})

	t.Run("timeout", func(t *testing.T) {
		result := NewRemoteAPIStrategy(fakeHeads{head: "abc"}, &fakeProvider{block: true}, loc, 20*time.Millisecond).Detect(context.Background(), "main")
		assert.Equal(t, domain.Unknown("timeout"), result)
	})

	t.Run("local head fails", func(t *testing.T) {
		result := NewRemoteAPIStrategy(fakeHeads{err: errors.New("no HEAD")}, &fakeProvider{}, loc, time.Second).Detect(context.Background(), "main")
		assert.Equal(t, domain.KindUnknown, result.Kind)
	})
}

func TestDivergenceDetector_Branch(t *testing.T) {
	strategy := funcStrategy{fn: func(_ context.Context, branch string) domain.DivergenceResult {
		return domain.Unknown("saw " + branch)
	}}

	t.Run("configured branch wins", func(t *testing.T) {
		d := NewDivergenceDetector(strategy, fakeHeads{branch: "main"}, "release")
		branch, result := d.Detect(context.Background())
		assert.Equal(t, "release", branch)
		assert.Equal(t, "saw release", result.Reason)
	})

	t.Run("current branch", func(t *testing.T) {
		d := NewDivergenceDetector(strategy, fakeHeads{branch: "main"}, "")
		branch, _ := d.Detect(context.Background())
		assert.Equal(t, "main", branch)
	})

	t.Run("detached head", func(t *testing.T) {
		d := NewDivergenceDetector(strategy, fakeHeads{branch: "HEAD"}, "")
		branch, result := d.Detect(context.Background())
		assert.Empty(t, branch)
		assert.Equal(t, domain.KindUnknown, result.Kind)
		assert.Contains(t, result.Reason, "detached")
	})
}
