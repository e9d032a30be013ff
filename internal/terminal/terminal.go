// Package terminal resolves trigger pids to the screen their window
// occupies and whether that window currently has focus, and raises
// terminal windows when the user clicks a ping.
package terminal

import (
	"errors"
	"fmt"
	"syscall"
)

// Resolver maps a terminal process to its display placement and focus
// state. Resolution is best-effort: on failure implementations fall back
// to screen 0, unfocused, which yields a fully audible/visible ping.
type Resolver interface {
	// Resolve returns the screen the pid's window occupies and whether
	// that window is frontmost.
	Resolve(pid int) (screen int, focused bool)

	// Activate raises the window owning pid.
	Activate(pid int) error
}

var errNoSuchProcess = errors.New("no such process")

// Alive reports whether a process with the given pid exists. It signals
// with 0, which probes existence without delivering anything; EPERM
// still means the process is there.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// CheckProcess returns nil if the process exists, errNoSuchProcess
// otherwise.
func CheckProcess(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid PID: %d", pid)
	}
	if !Alive(pid) {
		return errNoSuchProcess
	}
	return nil
}

// IsNoSuchProcess reports whether err indicates a missing process.
func IsNoSuchProcess(err error) bool {
	return errors.Is(err, errNoSuchProcess)
}
