// Package notify delivers system notifications for new pings.
package notify

// Notifier announces a new ping via the platform notification service.
// Implementations must be non-blocking; delivery failures are logged and
// swallowed so a notification glitch can never block alert creation.
type Notifier interface {
	Ping(project string, pid int)
}

// Disabled is a Notifier that drops everything.
type Disabled struct{}

func (Disabled) Ping(project string, pid int) {}

// truncateProject shortens a project label for display in notifications.
func truncateProject(name string) string {
	if len(name) <= 32 {
		return name
	}
	return name[:32] + "..."
}
