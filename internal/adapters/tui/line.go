package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
	"github.com/xvierd/commitwatch/internal/services"
)

// LinePresenter writes watcher output as plain lines, for when stdout is not
// a terminal or the full-screen UI is disabled.
type LinePresenter struct {
	mu      sync.Mutex
	out     io.Writer
	last    ports.StatusIndicator
	seen    bool
	details bool
	now     func() time.Time
}

var _ ports.Presenter = (*LinePresenter)(nil)

// NewLinePresenter creates a presenter writing to out.
func NewLinePresenter(out io.Writer) *LinePresenter {
	return &LinePresenter{out: out, now: time.Now}
}

// WithDetails makes every notification offering the details action choose
// it, so the full report of the newest commit follows each alert.
func (l *LinePresenter) WithDetails() *LinePresenter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.details = true
	return l
}

// ShowNotification prints the notification title and body.
func (l *LinePresenter) ShowNotification(_ context.Context, n ports.Notification) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	title := lipgloss.NewStyle().Bold(true).Render(n.Title)
	if _, err := fmt.Fprintf(l.out, "[%s] %s\n%s\n", l.now().Format("15:04:05"), title, indent(n.Body)); err != nil {
		return "", err
	}
	return chooseDetails(l.details, n), nil
}

// UpdateStatus prints the status only when it changes.
func (l *LinePresenter) UpdateStatus(status ports.StatusIndicator) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen && status == l.last {
		return
	}
	l.seen = true
	l.last = status
	if !status.Visible {
		fmt.Fprintf(l.out, "[%s] up to date\n", l.now().Format("15:04:05"))
		return
	}
	fmt.Fprintf(l.out, "[%s] %s\n", l.now().Format("15:04:05"), status.Text)
}

// ShowDetails prints the commit detail report.
func (l *LinePresenter) ShowDetails(detail *domain.CommitDetail) {
	if detail == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, services.FormatDetails(detail))
}

// chooseDetails returns the details action when enabled and offered by n.
func chooseDetails(enabled bool, n ports.Notification) string {
	if !enabled {
		return ""
	}
	for _, action := range n.Actions {
		if action == ports.ActionViewDetails {
			return action
		}
	}
	return ""
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
