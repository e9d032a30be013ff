package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseHookPayload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    hookPayload
		wantErr bool
	}{
		{
			name:  "stop event",
			input: `{"hook_event_name":"Stop","session_id":"abc","cwd":"/home/me/myproj"}`,
			want:  hookPayload{HookEventName: "Stop", SessionID: "abc", CWD: "/home/me/myproj"},
		},
		{
			name:  "notification with message",
			input: `{"hook_event_name":"Notification","message":"Claude needs your permission to use Bash"}`,
			want:  hookPayload{HookEventName: "Notification", Message: "Claude needs your permission to use Bash"},
		},
		{
			name:  "extra fields ignored",
			input: `{"hook_event_name":"Stop","transcript_path":"/tmp/t.jsonl","unknown":42}`,
			want:  hookPayload{HookEventName: "Stop"},
		},
		{
			name:    "missing event name",
			input:   `{"session_id":"abc"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			input:   `{not json`,
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHookPayload([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHookPayload: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestShouldTrigger(t *testing.T) {
	tests := []struct {
		name    string
		payload hookPayload
		want    bool
	}{
		{"stop always triggers", hookPayload{HookEventName: "Stop"}, true},
		{"permission notification", hookPayload{HookEventName: "Notification", Message: "Claude needs your permission to use Bash"}, true},
		{"waiting notification", hookPayload{HookEventName: "Notification", Message: "Claude is waiting for your input"}, true},
		{"routine notification ignored", hookPayload{HookEventName: "Notification", Message: "Task completed"}, false},
		{"unknown event ignored", hookPayload{HookEventName: "PreToolUse"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldTrigger(tt.payload); got != tt.want {
				t.Errorf("shouldTrigger(%+v) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}

type fakeProc struct {
	ppid int
	comm string
}

func fakeParentOf(tree map[int]fakeProc) func(int) (int, string, error) {
	return func(pid int) (int, string, error) {
		p, ok := tree[pid]
		if !ok {
			return 0, "", errors.New("no such process")
		}
		return p.ppid, p.comm, nil
	}
}

func TestTerminalAncestor_FindsTerminal(t *testing.T) {
	tree := map[int]fakeProc{
		400: {300, "claude"},
		300: {200, "zsh"},
		200: {100, "/Applications/iTerm.app/Contents/MacOS/iTerm2"},
		100: {1, "launchd"},
	}
	if got := terminalAncestor(400, fakeParentOf(tree)); got != 200 {
		t.Errorf("terminalAncestor = %d, want 200 (iTerm2)", got)
	}
}

func TestTerminalAncestor_FallsBackToTopmost(t *testing.T) {
	tree := map[int]fakeProc{
		400: {300, "claude"},
		300: {200, "zsh"},
		200: {1, "login"},
	}
	if got := terminalAncestor(400, fakeParentOf(tree)); got != 200 {
		t.Errorf("terminalAncestor = %d, want 200 (topmost below init)", got)
	}
}

func TestTerminalAncestor_ErrorReturnsCurrent(t *testing.T) {
	tree := map[int]fakeProc{}
	if got := terminalAncestor(400, fakeParentOf(tree)); got != 400 {
		t.Errorf("terminalAncestor = %d, want 400", got)
	}
}

func TestTerminalAncestor_TmuxCountsAsTerminal(t *testing.T) {
	tree := map[int]fakeProc{
		400: {300, "claude"},
		300: {250, "bash"},
		250: {100, "tmux"},
		100: {1, "launchd"},
	}
	if got := terminalAncestor(400, fakeParentOf(tree)); got != 250 {
		t.Errorf("terminalAncestor = %d, want 250 (tmux)", got)
	}
}

func TestAppendTriggerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trigger")

	if err := appendTriggerLine(path, 1234, "myproj"); err != nil {
		t.Fatalf("appendTriggerLine: %v", err)
	}
	if err := appendTriggerLine(path, 77, ""); err != nil {
		t.Fatalf("appendTriggerLine: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading trigger file: %v", err)
	}
	want := "1234\tmyproj\n77\n"
	if string(data) != want {
		t.Errorf("trigger file = %q, want %q", data, want)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"zsh", "zsh"},
		{"/Applications/iTerm.app/Contents/MacOS/iTerm2", "iTerm2"},
		{"  kitty \n", "kitty"},
	}
	for _, tt := range tests {
		if got := baseName(tt.in); got != tt.want {
			t.Errorf("baseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
