// Package tui renders the Claude Buddy dashboard: pending pings per
// screen, the shared resource registry, and recent activity.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/claude-buddy/claude-buddy/internal/alert"
	"github.com/claude-buddy/claude-buddy/internal/config"
	"github.com/claude-buddy/claude-buddy/internal/feed"
	"github.com/claude-buddy/claude-buddy/internal/portscan"
	"github.com/claude-buddy/claude-buddy/internal/registry"
	"github.com/claude-buddy/claude-buddy/internal/stats"
)

type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewStats
	ViewHelp
)

type tickMsg time.Time

// changedMsg arrives when the alert store or scanner mutated.
type changedMsg struct{}

// AlertProvider is the dashboard's window onto the alert store.
type AlertProvider interface {
	Alerts() []alert.Alert
	PanelAlerts() []alert.Alert
	CountOnScreen(screen int) int
	RingEligibleCount(screen int) int
	RingThickness(screen int) int
	ScreensWithAnyAlert() []int
	Click(a alert.Alert)
	Dismiss(a alert.Alert)
	DismissAll()
	DismissAllOnScreen(screen int)
}

// FeedProvider serves recent activity entries.
type FeedProvider interface {
	ListAll() []feed.Entry
}

// ResourceProvider serves the registry contents.
type ResourceProvider interface {
	List() []registry.Resource
}

// ScannerProvider serves the latest port/simulator snapshot.
type ScannerProvider interface {
	Snapshot() portscan.Snapshot
	Rescan()
}

// StatsProvider serves engagement aggregates for the stats view.
type StatsProvider interface {
	Totals() (stats.Totals, error)
	DailySummaries(days int) ([]stats.DailySummary, error)
	ClickThroughRate() (float64, error)
	DroppedWrites() int64
}

// TerminalActivator raises the terminal window owning a pid.
type TerminalActivator interface {
	Activate(pid int) error
}

type Model struct {
	view     ViewState
	width    int
	height   int
	keys     KeyMap
	quitting bool

	cfg config.Config

	alerts    AlertProvider
	feed      FeedProvider
	resources ResourceProvider
	scanner   ScannerProvider
	stats     StatsProvider
	terminal  TerminalActivator

	pingCursor int
	statusLine string

	changeCh <-chan struct{}

	refreshRate time.Duration

	onShutdown func()
}

func NewModel(cfg config.Config, opts ...ModelOption) Model {
	m := Model{
		view:        ViewDashboard,
		keys:        DefaultKeyMap(),
		cfg:         cfg,
		refreshRate: time.Duration(cfg.Display.RefreshRateMS) * time.Millisecond,
	}
	if m.refreshRate <= 0 {
		m.refreshRate = time.Second
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

type ModelOption func(*Model)

func WithAlertProvider(a AlertProvider) ModelOption {
	return func(m *Model) { m.alerts = a }
}

func WithFeedProvider(f FeedProvider) ModelOption {
	return func(m *Model) { m.feed = f }
}

func WithResourceProvider(r ResourceProvider) ModelOption {
	return func(m *Model) { m.resources = r }
}

func WithScannerProvider(s ScannerProvider) ModelOption {
	return func(m *Model) { m.scanner = s }
}

func WithStatsProvider(s StatsProvider) ModelOption {
	return func(m *Model) { m.stats = s }
}

func WithTerminalActivator(t TerminalActivator) ModelOption {
	return func(m *Model) { m.terminal = t }
}

// WithChangeSignal re-renders whenever the channel receives; cmd/main
// feeds it from the store and scanner observers.
func WithChangeSignal(ch <-chan struct{}) ModelOption {
	return func(m *Model) { m.changeCh = ch }
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd()}
	if m.changeCh != nil {
		cmds = append(cmds, m.waitForChange())
	}
	return tea.Batch(cmds...)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.changeCh
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.clampCursor()
		return m, m.tickCmd()

	case changedMsg:
		m.clampCursor()
		return m, m.waitForChange()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// clampCursor keeps the selection inside the current panel list after
// pings are added or removed underneath the UI.
func (m *Model) clampCursor() {
	n := len(m.panelAlerts())
	if m.pingCursor >= n {
		m.pingCursor = n - 1
	}
	if m.pingCursor < 0 {
		m.pingCursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.onShutdown != nil {
			m.onShutdown()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		if m.view == ViewDashboard {
			m.view = ViewStats
		} else {
			m.view = ViewDashboard
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		if m.view == ViewHelp {
			m.view = ViewDashboard
		} else {
			m.view = ViewHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.view != ViewDashboard {
			m.view = ViewDashboard
		}
		m.statusLine = ""
		return m, nil
	}

	if m.view == ViewDashboard {
		return m.handleDashboardKey(msg)
	}
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pings := m.panelAlerts()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.pingCursor > 0 {
			m.pingCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.pingCursor < len(pings)-1 {
			m.pingCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if m.alerts != nil && m.pingCursor >= 0 && m.pingCursor < len(pings) {
			a := pings[m.pingCursor]
			m.alerts.Click(a)
			if m.terminal != nil {
				if err := m.terminal.Activate(a.PID); err != nil {
					m.statusLine = "activate failed: " + err.Error()
				}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.alerts != nil && m.pingCursor >= 0 && m.pingCursor < len(pings) {
			m.alerts.Dismiss(pings[m.pingCursor])
		}
		return m, nil

	case key.Matches(msg, m.keys.DismissAll):
		if m.alerts != nil {
			m.alerts.DismissAll()
		}
		return m, nil

	case key.Matches(msg, m.keys.DismissScreen):
		if m.alerts != nil && m.pingCursor >= 0 && m.pingCursor < len(pings) {
			m.alerts.DismissAllOnScreen(pings[m.pingCursor].Screen)
		}
		return m, nil

	case key.Matches(msg, m.keys.Rescan):
		if m.scanner != nil {
			m.scanner.Rescan()
			m.statusLine = "Rescanning..."
		}
		return m, nil
	}

	return m, nil
}

func (m Model) panelAlerts() []alert.Alert {
	if m.alerts == nil {
		return nil
	}
	return m.alerts.PanelAlerts()
}

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	switch m.view {
	case ViewStats:
		return m.renderStats()
	case ViewHelp:
		return m.renderHelp()
	default:
		return m.renderDashboard()
	}
}
