package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

type fakeRunner struct {
	stdout string
	err    error
	calls  int
}

func (f *fakeRunner) Run(_ context.Context, _ string, name string, args ...string) (ports.CommandOutput, error) {
	f.calls++
	if f.err != nil {
		return ports.CommandOutput{}, f.err
	}
	return ports.CommandOutput{Stdout: f.stdout}, nil
}

func newProvider(tokens map[string]string, runner ports.CommandRunner, env map[string]string) *SessionProvider {
	s := NewSessionProvider(tokens, runner, nil)
	s.getenv = func(k string) string { return env[k] }
	return s
}

func TestGetSession_ConfiguredTokenWins(t *testing.T) {
	runner := &fakeRunner{stdout: "cli-token"}
	s := newProvider(map[string]string{"github": " cfg-token "}, runner, map[string]string{"GITHUB_TOKEN": "env-token"})

	session, err := s.GetSession(context.Background(), "github", []string{"repo"}, true)
	require.NoError(t, err)
	assert.Equal(t, "cfg-token", session.AccessToken)
	assert.Equal(t, []string{"repo"}, session.Scopes)
	assert.Zero(t, runner.calls)
}

func TestGetSession_Environment(t *testing.T) {
	s := newProvider(nil, nil, map[string]string{"GH_TOKEN": "gh-env"})

	session, err := s.GetSession(context.Background(), "github", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "gh-env", session.AccessToken)
}

func TestGetSession_CreatesFromCLI(t *testing.T) {
	runner := &fakeRunner{stdout: "cli-token\n"}
	s := newProvider(nil, runner, nil)

	session, err := s.GetSession(context.Background(), "github", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "cli-token", session.AccessToken)

	// cached
	_, err = s.GetSession(context.Background(), "github", nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)

	s.Forget("github")
	_, err = s.GetSession(context.Background(), "github", nil, true)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestGetSession_NoCredential(t *testing.T) {
	tests := []struct {
		name         string
		provider     string
		runner       *fakeRunner
		createIfNone bool
	}{
		{name: "not allowed to create", provider: "github", runner: &fakeRunner{stdout: "tok"}},
		{name: "cli fails", provider: "github", runner: &fakeRunner{err: errors.New("not logged in")}, createIfNone: true},
		{name: "cli returns nothing", provider: "github", runner: &fakeRunner{}, createIfNone: true},
		{name: "no cli for bitbucket", provider: "bitbucket", runner: &fakeRunner{stdout: "tok"}, createIfNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newProvider(nil, tt.runner, nil)
			session, err := s.GetSession(context.Background(), tt.provider, nil, tt.createIfNone)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, domain.ErrNoCredential)
		})
	}
}
