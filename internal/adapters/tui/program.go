package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
)

// Program runs the watch screen and forwards watcher output to it.
type Program struct {
	mu      sync.Mutex
	program *tea.Program
	opts    []tea.ProgramOption
	details bool
}

var _ ports.Presenter = (*Program)(nil)

// NewProgram creates a presenter backed by a full-screen Bubbletea program.
// Messages sent before Run are dropped.
func NewProgram(opts ...tea.ProgramOption) *Program {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &Program{opts: opts}
}

// WithDetails opens the details panel with each new-commit alert.
func (p *Program) WithDetails() *Program {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.details = true
	return p
}

// Run starts the UI and blocks until the user quits or ctx is canceled.
func (p *Program) Run(ctx context.Context, model Model) error {
	p.mu.Lock()
	p.program = tea.NewProgram(model, p.opts...)
	program := p.program
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.program = nil
		p.mu.Unlock()
	}()

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// ShowNotification shows the alert inside the UI. Unless details are opened
// automatically, the user opens them with a key binding and no action is
// returned.
func (p *Program) ShowNotification(_ context.Context, n ports.Notification) (string, error) {
	if !p.send(notificationMsg(n)) {
		return "", nil
	}
	p.mu.Lock()
	details := p.details
	p.mu.Unlock()
	return chooseDetails(details, n), nil
}

// UpdateStatus refreshes the status line.
func (p *Program) UpdateStatus(status ports.StatusIndicator) {
	p.send(statusMsg(status))
}

// ShowDetails opens the details panel.
func (p *Program) ShowDetails(detail *domain.CommitDetail) {
	if detail == nil {
		return
	}
	p.send(detailsMsg{detail})
}

// send delivers msg to the running program and reports whether one was
// running.
func (p *Program) send(msg tea.Msg) bool {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program == nil {
		return false
	}
	program.Send(msg)
	return true
}
