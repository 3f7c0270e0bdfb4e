package git

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/xvierd/commitwatch/internal/domain"
)

func TestExecRunner_Success(t *testing.T) {
	if !Available() {
		t.Skip("git not installed")
	}

	out, err := NewExecRunner(5*time.Second).Run(context.Background(), t.TempDir(), "git", "--version")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(out.Stdout, "git version") {
		t.Errorf("Stdout = %q", out.Stdout)
	}
}

func TestExecRunner_FailureCapturesStderr(t *testing.T) {
	if !Available() {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	_, err := NewExecRunner(5*time.Second).Run(context.Background(), dir, "git", "rev-parse", "HEAD")
	var failure *domain.CommandFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Run() error = %v, want *CommandFailure", err)
	}
	if failure.Dir != dir || failure.Args[0] != "git" {
		t.Errorf("failure = %+v", failure)
	}
	if strings.TrimSpace(failure.Stderr) == "" {
		t.Error("expected stderr to be captured")
	}
	if errors.Is(err, domain.ErrTimeout) {
		t.Error("a plain failure must not be reported as a timeout")
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	_, err := NewExecRunner(50*time.Millisecond).Run(context.Background(), t.TempDir(), "sleep", "5")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Errorf("Run() error = %v, want ErrTimeout", err)
	}
}
