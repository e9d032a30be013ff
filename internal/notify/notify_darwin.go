//go:build darwin

package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// OSAScriptNotifier sends macOS notifications via osascript. Delivery
// runs in a background goroutine so a slow notification daemon cannot
// stall the caller.
type OSAScriptNotifier struct {
	enabled bool
	log     *slog.Logger
}

// NewNotifier creates the platform notifier. When enabled is false,
// Ping is a no-op.
func NewNotifier(enabled bool, log *slog.Logger) *OSAScriptNotifier {
	return &OSAScriptNotifier{enabled: enabled, log: log}
}

// Ping announces a new ping. The call returns immediately.
func (n *OSAScriptNotifier) Ping(project string, pid int) {
	if !n.enabled {
		return
	}

	title := "Claude Buddy"
	subtitle := ""
	if project != "" {
		subtitle = truncateProject(project)
	}
	message := fmt.Sprintf("Claude is waiting for you (pid %d)", pid)

	go func() {
		if err := sendOSANotification(title, subtitle, message); err != nil && n.log != nil {
			n.log.Warn("notification_failed", slog.String("error", err.Error()))
		}
	}()
}

// sendOSANotification executes osascript to display a macOS notification.
func sendOSANotification(title, subtitle, message string) error {
	title = escapeAppleScript(title)
	subtitle = escapeAppleScript(subtitle)
	message = escapeAppleScript(message)

	script := fmt.Sprintf(
		`display notification "%s" with title "%s"`,
		message, title,
	)
	if subtitle != "" {
		script = fmt.Sprintf(
			`display notification "%s" with title "%s" subtitle "%s"`,
			message, title, subtitle,
		)
	}

	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// escapeAppleScript escapes characters that could break AppleScript strings.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
