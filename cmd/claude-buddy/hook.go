package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// hookPayload is the JSON Claude Code writes to a hook's stdin.
type hookPayload struct {
	HookEventName string `json:"hook_event_name"`
	SessionID     string `json:"session_id"`
	CWD           string `json:"cwd"`
	Message       string `json:"message"`
}

func parseHookPayload(data []byte) (hookPayload, error) {
	var p hookPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return hookPayload{}, fmt.Errorf("parsing hook payload: %w", err)
	}
	if p.HookEventName == "" {
		return hookPayload{}, fmt.Errorf("hook payload missing hook_event_name")
	}
	return p, nil
}

// shouldTrigger decides whether a payload becomes a ping. Stop always
// pings; Notification only for attention-requiring messages, so routine
// notifications do not ring.
func shouldTrigger(p hookPayload) bool {
	switch p.HookEventName {
	case "Stop":
		return true
	case "Notification":
		msg := strings.ToLower(p.Message)
		return strings.Contains(msg, "permission") || strings.Contains(msg, "waiting for")
	default:
		return false
	}
}

// terminalCommands are process names treated as the terminal emulator
// when walking up the process tree.
var terminalCommands = map[string]bool{
	"Terminal":  true,
	"iTerm2":    true,
	"alacritty": true,
	"Alacritty": true,
	"kitty":     true,
	"wezterm":   true,
	"ghostty":   true,
	"tmux":      true,
}

// terminalAncestor walks the process tree upward from startPid and
// returns the pid of the terminal emulator owning this session.
// parentOf maps a pid to its parent pid and the pid's own command name.
// When no known terminal appears, the top-most ancestor below pid 1 is
// used so the ping still lands somewhere stable.
func terminalAncestor(startPid int, parentOf func(pid int) (int, string, error)) int {
	pid := startPid
	for i := 0; i < 32; i++ {
		ppid, comm, err := parentOf(pid)
		if err != nil {
			return pid
		}
		if terminalCommands[baseName(comm)] {
			return pid
		}
		if ppid <= 1 {
			return pid
		}
		pid = ppid
	}
	return pid
}

func baseName(comm string) string {
	comm = strings.TrimSpace(comm)
	if idx := strings.LastIndexByte(comm, '/'); idx >= 0 {
		comm = comm[idx+1:]
	}
	return comm
}

// parentOf resolves a process's parent pid and command.
func parentOf(pid int) (int, string, error) {
	if runtime.GOOS == "linux" {
		return parentOfProc(pid)
	}
	return parentOfPS(pid)
}

// parentOfPS shells out to ps, which works on macOS without privileges.
func parentOfPS(pid int) (int, string, error) {
	out, err := exec.Command("ps", "-o", "ppid=,comm=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return 0, "", fmt.Errorf("running ps for pid %d: %w", pid, err)
	}
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return 0, "", fmt.Errorf("unexpected ps output %q", out)
	}
	ppid, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, "", fmt.Errorf("parsing ppid from %q: %w", out, err)
	}
	return ppid, strings.Join(fields[1:], " "), nil
}

// parentOfProc reads /proc/[pid]/stat; the comm field is parenthesised
// and may contain spaces.
func parentOfProc(pid int) (int, string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, "", err
	}
	s := string(data)
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return 0, "", fmt.Errorf("unexpected stat format for pid %d", pid)
	}
	comm := s[open+1 : end]
	rest := strings.Fields(s[end+1:])
	if len(rest) < 2 {
		return 0, "", fmt.Errorf("unexpected stat format for pid %d", pid)
	}
	ppid, err := strconv.Atoi(rest[1])
	if err != nil {
		return 0, "", err
	}
	return ppid, comm, nil
}

// appendTriggerLine appends "<pid>\t<project>" to the trigger file.
// O_APPEND keeps concurrent hooks from interleaving within a line.
func appendTriggerLine(path string, pid int, project string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating trigger directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening trigger file: %w", err)
	}
	defer f.Close()

	line := strconv.Itoa(pid)
	if project != "" {
		line += "\t" + project
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("appending trigger line: %w", err)
	}
	return nil
}

// RunHook handles hook mode: read the payload from stdin, decide, and
// append a trigger line. Errors go to stderr but never change the exit
// code, since a broken Buddy install must not break Claude Code.
func RunHook(stdin io.Reader, triggerPath string) {
	data, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
	if err != nil {
		fmt.Fprintf(os.Stderr, "claude-buddy hook: reading stdin: %v\n", err)
		return
	}

	payload, err := parseHookPayload(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claude-buddy hook: %v\n", err)
		return
	}
	if !shouldTrigger(payload) {
		return
	}

	pid := terminalAncestor(os.Getppid(), parentOf)

	project := ""
	if payload.CWD != "" {
		project = filepath.Base(payload.CWD)
	}

	if err := appendTriggerLine(triggerPath, pid, project); err != nil {
		fmt.Fprintf(os.Stderr, "claude-buddy hook: %v\n", err)
	}
}
