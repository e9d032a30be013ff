package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderStats() string {
	title := " claude-buddy "
	label := "[Stats]"
	help := "tab:dashboard  q:quit "
	padding := m.width - lipgloss.Width(title) - lipgloss.Width(label) - lipgloss.Width(help)
	if padding < 0 {
		padding = 0
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Width(m.width).Render(title + label + strings.Repeat(" ", padding) + help))
	sb.WriteByte('\n')

	if m.stats == nil {
		sb.WriteString(dimStyle.Render("\n  Engagement history is disabled\n"))
		return sb.String()
	}

	totals, err := m.stats.Totals()
	if err != nil {
		sb.WriteString(dimStyle.Render("\n  stats unavailable: " + err.Error() + "\n"))
		return sb.String()
	}
	ctr, _ := m.stats.ClickThroughRate()

	sb.WriteString("\n")
	sb.WriteString(panelTitleStyle.Render("Engagement"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Pings:      %d\n", totals.Created))
	sb.WriteString(fmt.Sprintf("  Clicked:    %d\n", totals.Clicked))
	sb.WriteString(fmt.Sprintf("  Dismissed:  %d\n", totals.Dismissed))
	sb.WriteString(fmt.Sprintf("  Click rate: %s %.0f%%\n", renderRateBar(ctr, 20), ctr*100))

	sb.WriteString("\n")
	sb.WriteString(panelTitleStyle.Render("Last 14 days"))
	sb.WriteString("\n")

	summaries, err := m.stats.DailySummaries(14)
	if err != nil {
		sb.WriteString(dimStyle.Render("  history unavailable: " + err.Error() + "\n"))
		return sb.String()
	}
	if len(summaries) == 0 {
		sb.WriteString(dimStyle.Render("  No recorded activity\n"))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  %-12s %8s %8s %10s\n", "Date", "Pings", "Clicked", "Dismissed"))
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 42)))
	sb.WriteByte('\n')
	for _, d := range summaries {
		sb.WriteString(fmt.Sprintf("  %-12s %8d %8d %10d\n", d.Date, d.Created, d.Clicked, d.Dismissed))
	}

	if dropped := m.stats.DroppedWrites(); dropped > 0 {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  %d writes dropped under load", dropped)))
		sb.WriteByte('\n')
	}

	return sb.String()
}

func renderRateBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
