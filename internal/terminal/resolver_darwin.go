//go:build darwin

package terminal

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// OSAScriptResolver resolves terminal windows through System Events.
// Requires the Automation permission; the first query triggers the
// system prompt.
type OSAScriptResolver struct {
	log *slog.Logger

	// mainScreenWidth caches the main display width used to assign
	// windows to a screen index. Zero until the first lookup succeeds.
	mainScreenWidth int
}

// NewResolver creates the platform resolver.
func NewResolver(log *slog.Logger) *OSAScriptResolver {
	return &OSAScriptResolver{log: log}
}

// Resolve returns the screen index of the window owning pid and whether
// that window is frontmost. Any scripting failure degrades to
// (0, false): the ping stays fully visible and audible.
func (r *OSAScriptResolver) Resolve(pid int) (int, bool) {
	focused := r.isFrontmost(pid)
	screen := r.screenOf(pid)
	return screen, focused
}

// isFrontmost reports whether pid owns the frontmost process.
func (r *OSAScriptResolver) isFrontmost(pid int) bool {
	out, err := runOSAScript(
		`tell application "System Events" to get unix id of first process whose frontmost is true`,
	)
	if err != nil {
		r.warn("frontmost_query_failed", err)
		return false
	}
	front, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return false
	}
	return front == pid
}

// screenOf assigns the pid's front window to a screen index by its
// horizontal position relative to the main display width. Windows left
// of the main display edge map to screen 0, beyond it to screen 1, and
// negative positions to screen 2 (a display arranged to the left).
func (r *OSAScriptResolver) screenOf(pid int) int {
	width := r.mainWidth()
	if width <= 0 {
		return 0
	}

	script := fmt.Sprintf(
		`tell application "System Events" to get position of front window of (first process whose unix id is %d)`,
		pid,
	)
	out, err := runOSAScript(script)
	if err != nil {
		r.warn("window_position_failed", err)
		return 0
	}

	parts := strings.Split(strings.TrimSpace(out), ",")
	if len(parts) == 0 {
		return 0
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0
	}

	switch {
	case x < 0:
		return 2
	case x >= width:
		return 1
	default:
		return 0
	}
}

// mainWidth returns the main display width, cached after first success.
func (r *OSAScriptResolver) mainWidth() int {
	if r.mainScreenWidth > 0 {
		return r.mainScreenWidth
	}
	out, err := runOSAScript(
		`tell application "Finder" to get bounds of window of desktop`,
	)
	if err != nil {
		r.warn("screen_bounds_failed", err)
		return 0
	}
	// Bounds come back as "0, 0, width, height".
	parts := strings.Split(strings.TrimSpace(out), ",")
	if len(parts) < 3 {
		return 0
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0
	}
	r.mainScreenWidth = width
	return width
}

// Activate raises the window owning pid by setting its process frontmost.
func (r *OSAScriptResolver) Activate(pid int) error {
	script := fmt.Sprintf(
		`tell application "System Events" to set frontmost of (first process whose unix id is %d) to true`,
		pid,
	)
	if _, err := runOSAScript(script); err != nil {
		return fmt.Errorf("activating window for pid %d: %w", pid, err)
	}
	return nil
}

func (r *OSAScriptResolver) warn(event string, err error) {
	if r.log != nil {
		r.log.Warn(event, slog.String("error", err.Error()))
	}
}

func runOSAScript(script string) (string, error) {
	out, err := exec.Command("osascript", "-e", script).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
