package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// ExecRunner runs external commands with os/exec.
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner creates a runner that bounds every command by timeout.
// A zero timeout leaves commands bounded only by the caller's context.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

// Ensure ExecRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*ExecRunner)(nil)

// Run executes name with args in dir and captures stdout and stderr.
func (r *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (ports.CommandOutput, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	// Never block on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	out := ports.CommandOutput{}
	err := cmd.Run()
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", domain.ErrTimeout, ctx.Err())
		}
		return out, &domain.CommandFailure{
			Args:   append([]string{name}, args...),
			Dir:    dir,
			Stderr: out.Stderr,
			Err:    err,
		}
	}
	return out, nil
}

// Available reports whether the git binary can be found on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}
