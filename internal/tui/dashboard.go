package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/claude-buddy/claude-buddy/internal/alert"
	"github.com/claude-buddy/claude-buddy/internal/feed"
)

func (m Model) renderDashboard() string {
	dims := computeDimensions(m.width, m.height)

	header := m.renderHeader()

	pings := m.renderPingsPanel(dims.pingsW, dims.pingsH)
	resources := m.renderResourcesPanel(dims.resourcesW, dims.resourcesH)
	activity := m.renderFeedPanel(dims.feedW, dims.feedH)

	rightCol := lipgloss.JoinVertical(lipgloss.Left, resources, activity)
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, pings, rightCol)

	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, mainContent, footer)
}

// renderHeader shows the per-screen ring summary: one indicator per
// screen that has alerts, sized by ring thickness. A screen whose pings
// are all ring-suppressed shows a dim count instead.
func (m Model) renderHeader() string {
	title := " claude-buddy "

	var rings []string
	if m.alerts != nil {
		for _, screen := range m.alerts.ScreensWithAnyAlert() {
			thickness := m.alerts.RingThickness(screen)
			total := m.alerts.CountOnScreen(screen)
			if thickness > 0 {
				rings = append(rings, ringStyle.Render(
					fmt.Sprintf("S%d%s%d", screen, strings.Repeat("●", ringWidth(thickness)), total)))
			} else {
				rings = append(rings, suppressedStyle.Render(fmt.Sprintf("S%d○%d", screen, total)))
			}
		}
	}
	ringBlock := strings.Join(rings, "  ")
	if ringBlock != "" {
		ringBlock = " " + ringBlock
	}

	help := "tab:stats  ?:help  q:quit "
	padding := m.width - lipgloss.Width(title) - lipgloss.Width(ringBlock) - lipgloss.Width(help)
	if padding < 0 {
		padding = 0
	}

	return headerStyle.Width(m.width).Render(title + ringBlock + strings.Repeat(" ", padding) + help)
}

// ringWidth maps a thickness in points to indicator characters, capped
// so a pile of pings cannot eat the whole header.
func ringWidth(thickness int) int {
	w := thickness / 2
	if w < 1 {
		w = 1
	}
	if w > 8 {
		w = 8
	}
	return w
}

func (m Model) renderPingsPanel(w, h int) string {
	title := panelTitleStyle.Render("Pings")
	lines := []string{title}

	pings := m.panelAlerts()
	if len(pings) == 0 {
		lines = append(lines, dimStyle.Render("  No pending pings"))
	}
	for i, a := range pings {
		cursor := "  "
		if i == m.pingCursor {
			cursor = "> "
		}
		line := cursor + formatPing(a, w-4)
		if i == m.pingCursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
}

// formatPing renders one panel row: age, pid, screen, project.
func formatPing(a alert.Alert, maxW int) string {
	age := time.Since(a.CreatedAt).Round(time.Second)
	line := fmt.Sprintf("%-6s pid %-7d S%d", age, a.PID, a.Screen)
	if a.Project != "" {
		line += " " + projectStyle.Render(a.Project)
	}
	if maxW > 0 && lipgloss.Width(line) > maxW {
		line = line[:maxW]
	}
	return line
}

func (m Model) renderResourcesPanel(w, h int) string {
	title := panelTitleStyle.Render("Resources")
	lines := []string{title}

	if m.resources != nil {
		for _, res := range m.resources.List() {
			lines = append(lines, fmt.Sprintf("  %-10s %s", res.Kind, res.Value))
		}
	}
	if len(lines) == 1 {
		lines = append(lines, dimStyle.Render("  Nothing claimed or scanned"))
	}

	if m.scanner != nil {
		snap := m.scanner.Snapshot()
		if !snap.ScannedAt.IsZero() {
			lines = append(lines, dimStyle.Render(
				"  scanned "+snap.ScannedAt.Format("15:04:05")))
		}
	}

	return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
}

func (m Model) renderFeedPanel(w, h int) string {
	title := panelTitleStyle.Render("Activity")
	lines := []string{title}

	if m.feed != nil {
		entries := m.feed.ListAll()
		// Newest entries win the limited panel space.
		visible := h - 3
		if visible < 1 {
			visible = 1
		}
		if len(entries) > visible {
			entries = entries[len(entries)-visible:]
		}
		for _, e := range entries {
			lines = append(lines, "  "+feed.FormatEntry(e))
		}
	}
	if len(lines) == 1 {
		lines = append(lines, dimStyle.Render("  No activity yet"))
	}

	return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
}

func (m Model) renderFooter() string {
	left := " enter:jump  d:dismiss  D:all  s:screen  r:rescan"
	if m.statusLine != "" {
		left = " " + m.statusLine
	}

	var right string
	if m.stats != nil && m.stats.DroppedWrites() > 0 {
		right = "[!] stats writes dropped "
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return statusBarStyle.Render(left + strings.Repeat(" ", padding) + right)
}

func (m Model) renderHelp() string {
	rows := []struct{ keys, desc string }{
		{"enter", "click ping and raise its terminal window"},
		{"d", "dismiss selected ping"},
		{"D", "dismiss all pings"},
		{"s", "dismiss all pings on the selected ping's screen"},
		{"tab", "switch between dashboard and stats"},
		{"r", "rescan ports and simulators"},
		{"↑/k ↓/j", "move selection"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Claude Buddy keys"))
	sb.WriteString("\n\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("  %-10s %s\n", r.keys, r.desc))
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  esc or ? to return"))
	return sb.String()
}
