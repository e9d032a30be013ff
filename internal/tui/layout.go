package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type panelDimensions struct {
	pingsW, pingsH         int
	resourcesW, resourcesH int
	feedW, feedH           int
	headerH                int
}

const (
	minWidth  = 40
	minHeight = 10

	headerHeight = 1
	footerHeight = 1
)

// computeDimensions splits the terminal into the pings panel on the
// left (half the width) and a resources-over-feed column on the right.
func computeDimensions(totalW, totalH int) panelDimensions {
	if totalW < minWidth {
		totalW = minWidth
	}
	if totalH < minHeight {
		totalH = minHeight
	}

	d := panelDimensions{headerH: headerHeight}

	usableH := totalH - headerHeight - footerHeight
	if usableH < 6 {
		usableH = 6
	}

	d.pingsW = totalW * 50 / 100
	if d.pingsW < 24 {
		d.pingsW = 24
	}
	if d.pingsW > totalW-20 {
		d.pingsW = totalW - 20
	}
	d.pingsH = usableH

	rightW := totalW - d.pingsW
	if rightW < 20 {
		rightW = 20
	}

	d.resourcesW = rightW
	d.resourcesH = usableH * 40 / 100
	if d.resourcesH < 4 {
		d.resourcesH = 4
	}
	if d.resourcesH > usableH-3 {
		d.resourcesH = usableH - 3
	}

	d.feedW = rightW
	d.feedH = usableH - d.resourcesH
	if d.feedH < 3 {
		d.feedH = 3
	}

	return d
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	ringStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("208"))

	suppressedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	projectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

func renderBorderedPanel(content string, w, h int) string {
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	lines := strings.Split(content, "\n")
	if len(lines) > contentH {
		lines = lines[:contentH]
		content = strings.Join(lines, "\n")
	}

	return panelBorderStyle.
		Width(w - 2).
		Height(contentH).
		Render(content)
}
