package feed

import "fmt"

// FormatEntry renders one feed entry as a display line:
//
//	15:04:05 ping    pid 1234 screen 1 myproject
//	15:04:06 clicked pid 1234 screen 1 myproject
func FormatEntry(e Entry) string {
	verb := string(e.Kind)
	if e.Kind == KindCreated {
		verb = "ping"
	}

	line := fmt.Sprintf("%s %-9s pid %d screen %d",
		e.At.Format("15:04:05"), verb, e.PID, e.Screen)
	if e.Project != "" {
		line += " " + truncateProject(e.Project, 24)
	}
	return line
}

// truncateProject shortens a project name to maxLen with ellipsis.
func truncateProject(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
