//go:build linux

package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// NotifySendNotifier sends Linux desktop notifications via notify-send.
// Delivery runs in a background goroutine so a slow notification daemon
// cannot stall the caller.
type NotifySendNotifier struct {
	enabled bool
	log     *slog.Logger
}

// NewNotifier creates the platform notifier. When enabled is false,
// Ping is a no-op.
func NewNotifier(enabled bool, log *slog.Logger) *NotifySendNotifier {
	return &NotifySendNotifier{enabled: enabled, log: log}
}

// Ping announces a new ping. The call returns immediately.
func (n *NotifySendNotifier) Ping(project string, pid int) {
	if !n.enabled {
		return
	}

	title := "Claude Buddy"
	body := fmt.Sprintf("Claude is waiting for you (pid %d)", pid)
	if project != "" {
		body = fmt.Sprintf("%s\n%s", truncateProject(project), body)
	}

	go func() {
		cmd := exec.Command("notify-send", "--app-name", "claude-buddy", title, body)
		if err := cmd.Run(); err != nil && n.log != nil {
			n.log.Warn("notification_failed", slog.String("error", err.Error()))
		}
	}()
}
