// Package tui provides the terminal user interface for watching a branch,
// built on the Bubbletea framework.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
	"github.com/xvierd/commitwatch/internal/services"
)

const (
	refreshInterval = time.Second
	maxEvents       = 6
)

// tickMsg triggers a status refresh.
type tickMsg time.Time

// statusMsg carries a status indicator update from the watcher.
type statusMsg ports.StatusIndicator

// notificationMsg carries a notification from the watcher.
type notificationMsg ports.Notification

// detailsMsg carries a commit detail report.
type detailsMsg struct {
	detail *domain.CommitDetail
}

// reportMsg is the result of a manual check.
type reportMsg struct {
	report *domain.CheckReport
}

// watchingMsg reports the watcher state after start/stop.
type watchingMsg struct {
	watching bool
	note     string
}

// errMsg carries a failed command.
type errMsg struct {
	err error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	urgentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#F2C94C")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	eventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8A8A8"))
	noticeBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#F2C94C")).Padding(0, 1)
	detailBorder = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#7D56F4")).Padding(0, 1)
)

// Model is the watch screen.
type Model struct {
	ctx        context.Context
	controller ports.WatchController
	autoStart  bool

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	status       domain.WatchStatus
	indicator    ports.StatusIndicator
	notification *ports.Notification
	details      *domain.CommitDetail
	showDetails  bool
	checking     bool
	lastErr      error
	lastReportID string
	events       []string

	width  int
	height int
}

// NewModel creates the watch screen. When autoStart is set, periodic
// checking starts as soon as the program runs.
func NewModel(ctx context.Context, controller ports.WatchController, autoStart bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		ctx:        ctx,
		controller: controller,
		autoStart:  autoStart,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    s,
		status:     controller.Status(),
	}
}

// Init starts the refresh ticker and, if requested, the watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, tickCmd()}
	if m.autoStart {
		cmds = append(cmds, m.startCmd())
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) checkCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := m.controller.CheckNow(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return reportMsg{report}
	}
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.controller.Start(m.ctx)
		if errors.Is(err, domain.ErrAlreadyWatching) {
			return watchingMsg{watching: true, note: err.Error()}
		}
		if err != nil {
			return errMsg{err}
		}
		return watchingMsg{watching: true, note: "started checking for remote commits"}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.controller.Stop(); err != nil {
			return errMsg{err}
		}
		return watchingMsg{watching: false, note: "stopped checking for remote commits"}
	}
}

func (m Model) detailsCmd() tea.Cmd {
	return func() tea.Msg {
		detail, err := m.controller.ShowRemoteCommit(m.ctx, "")
		if err != nil {
			return errMsg{err}
		}
		return detailsMsg{detail}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.indicator = ports.StatusIndicator(msg)

	case notificationMsg:
		n := ports.Notification(msg)
		m.notification = &n
		m.addEvent(n.Title)

	case detailsMsg:
		m.details = msg.detail
		m.showDetails = true

	case reportMsg:
		m.checking = false
		m.lastErr = nil
		m.refresh()

	case watchingMsg:
		m.lastErr = nil
		m.addEvent(msg.note)
		m.refresh()

	case errMsg:
		m.checking = false
		m.lastErr = msg.err
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Check):
		if m.checking {
			return m, nil
		}
		m.checking = true
		return m, m.checkCmd()

	case key.Matches(msg, m.keys.Toggle):
		if m.controller.IsWatching() {
			return m, m.stopCmd()
		}
		return m, m.startCmd()

	case key.Matches(msg, m.keys.Details):
		if m.showDetails {
			m.showDetails = false
			return m, nil
		}
		return m, m.detailsCmd()

	case key.Matches(msg, m.keys.Dismiss):
		m.showDetails = false
		m.notification = nil
		m.lastErr = nil
	}

	return m, nil
}

// refresh pulls the watcher status and logs checks not seen before.
func (m *Model) refresh() {
	m.status = m.controller.Status()
	report := m.status.LastReport
	if report == nil || report.ID == m.lastReportID {
		return
	}
	m.lastReportID = report.ID
	m.addEvent(fmt.Sprintf("%s %s", report.FinishedAt.Format("15:04:05"), services.FormatReport(report)))
}

func (m *Model) addEvent(event string) {
	if event == "" {
		return
	}
	m.events = append(m.events, event)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

// View renders the watch screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string

	sections = append(sections, titleStyle.Render("🔔 commitwatch"))
	sections = append(sections, m.viewHeader())

	if m.indicator.Visible {
		line := urgentStyle.Render(m.indicator.Text)
		if m.indicator.Tooltip != "" {
			line += " " + labelStyle.Render(m.indicator.Tooltip)
		}
		sections = append(sections, "", line)
	}

	if m.showDetails && m.details != nil {
		sections = append(sections, "", detailBorder.Render(strings.TrimRight(services.FormatDetails(m.details), "\n")))
	} else if m.notification != nil {
		body := lipgloss.NewStyle().Bold(true).Render(m.notification.Title) + "\n\n" + m.notification.Body
		if len(m.notification.Actions) > 0 {
			body += "\n\n" + labelStyle.Render("d: "+strings.ToLower(m.notification.Actions[0]))
		}
		sections = append(sections, "", noticeBorder.Render(body))
	}

	if len(m.events) > 0 {
		sections = append(sections, "")
		for _, e := range m.events {
			sections = append(sections, eventStyle.Render("  "+e))
		}
	}

	if m.lastErr != nil {
		sections = append(sections, "", errorStyle.Render("Error: "+m.lastErr.Error()))
	}

	sections = append(sections, "", m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader() string {
	state := idleStyle.Render("○ idle")
	if m.status.Watching {
		state = activeStyle.Render(fmt.Sprintf("● watching every %s", m.status.Interval))
	}
	if m.checking {
		state += " " + m.spinner.View() + " checking"
	}

	lines := []string{state}
	if m.status.Repository != "" {
		lines = append(lines, labelStyle.Render("Repository: ")+m.status.Repository)
	}
	lines = append(lines, labelStyle.Render("Remote:     ")+m.status.Remote+"  "+labelStyle.Render("strategy ")+string(m.status.Strategy))
	return strings.Join(lines, "\n")
}
