package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// defaultSettingsPath returns the default path to Claude Code's settings.json.
func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "settings.json")
}

// Merge reads ~/.claude/settings.json (or the path in opts), merges the
// Buddy hook entries into the "hooks" block, and writes the file back
// atomically (temp file + rename).
//
// Behaviour:
//   - File not found: creates a new file with the Buddy hooks.
//   - Malformed JSON: creates a .bak backup and returns an error.
//   - All hooks already present: returns MergeAlreadyConfigured.
//   - An existing Buddy hook with a different command: Interactive=true
//     returns MergeNeedsConfirmation; otherwise warns without touching it.
func Merge(opts MergeOptions) MergeOutput {
	settingsPath := opts.SettingsPath
	if settingsPath == "" {
		settingsPath = defaultSettingsPath()
	}
	command := opts.Command
	if command == "" {
		command = defaultCommand
	}

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return createNewSettingsFile(settingsPath, command)
		}
		if errors.Is(err, fs.ErrPermission) {
			return MergeOutput{
				Result: MergeError,
				Err:    fmt.Errorf("permission denied reading %s", settingsPath),
			}
		}
		return MergeOutput{
			Result: MergeError,
			Err:    fmt.Errorf("reading settings file: %w", err),
		}
	}

	// Detect indentation before parsing.
	indent := detectIndent(data)

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		bakPath := settingsPath + ".bak"
		if bakErr := os.WriteFile(bakPath, data, 0644); bakErr != nil {
			return MergeOutput{
				Result:   MergeError,
				Err:      fmt.Errorf("settings.json contains invalid JSON and backup failed: %w", bakErr),
				Messages: []string{fmt.Sprintf("Failed to create backup at %s", bakPath)},
			}
		}
		return MergeOutput{
			Result:   MergeError,
			Err:      fmt.Errorf("settings.json contains invalid JSON (backup saved to %s)", bakPath),
			Messages: []string{fmt.Sprintf("Backup saved to %s", bakPath)},
		}
	}

	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooks = make(map[string]any)
		settings["hooks"] = hooks
	}

	var (
		messages     []string
		warnings     []string
		anyDifferent bool
		allCorrect   = true
	)

	for _, event := range hookEvents {
		switch hookState(hooks, event, command) {
		case hookCorrect:
			continue
		case hookDiffers:
			allCorrect = false
			anyDifferent = true
			if opts.Interactive {
				warnings = append(warnings, fmt.Sprintf(
					"%s already runs a different claude-buddy command", event))
			} else {
				warnings = append(warnings, fmt.Sprintf(
					"Warning: %s already runs a different claude-buddy command, not overwriting", event))
			}
		case hookAbsent:
			allCorrect = false
			appendHook(hooks, event, command)
			messages = append(messages, fmt.Sprintf("Added %s hook", event))
		}
	}

	if opts.Interactive && anyDifferent {
		return MergeOutput{
			Result:   MergeNeedsConfirmation,
			Messages: messages,
			Warnings: warnings,
		}
	}

	if allCorrect {
		return MergeOutput{
			Result:   MergeAlreadyConfigured,
			Messages: []string{"Claude Buddy hooks are already configured"},
		}
	}

	if err := writeSettingsAtomic(settingsPath, settings, indent); err != nil {
		return MergeOutput{
			Result: MergeError,
			Err:    fmt.Errorf("writing settings file: %w", err),
		}
	}

	return MergeOutput{
		Result:   MergeSuccess,
		Messages: messages,
		Warnings: warnings,
	}
}

type hookPresence int

const (
	hookAbsent hookPresence = iota
	hookCorrect
	hookDiffers
)

// hookState inspects the entries registered for one event. A Buddy hook
// is any command mentioning "claude-buddy"; it is correct only when the
// command matches exactly.
func hookState(hooks map[string]any, event, command string) hookPresence {
	entries, _ := hooks[event].([]any)
	state := hookAbsent
	for _, entryRaw := range entries {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		inner, _ := entry["hooks"].([]any)
		for _, hookRaw := range inner {
			hook, ok := hookRaw.(map[string]any)
			if !ok {
				continue
			}
			cmd, _ := hook["command"].(string)
			if cmd == command {
				return hookCorrect
			}
			if strings.Contains(cmd, "claude-buddy") {
				state = hookDiffers
			}
		}
	}
	return state
}

// appendHook adds a catch-all matcher entry running command for event.
func appendHook(hooks map[string]any, event, command string) {
	entries, _ := hooks[event].([]any)
	entries = append(entries, map[string]any{
		"matcher": "",
		"hooks": []any{
			map[string]any{
				"type":    "command",
				"command": command,
			},
		},
	})
	hooks[event] = entries
}

// createNewSettingsFile creates a fresh settings.json carrying only the
// Buddy hooks.
func createNewSettingsFile(path, command string) MergeOutput {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return MergeOutput{
				Result: MergeError,
				Err:    fmt.Errorf("permission denied creating directory %s", dir),
			}
		}
		return MergeOutput{
			Result: MergeError,
			Err:    fmt.Errorf("creating directory %s: %w", dir, err),
		}
	}

	hooks := make(map[string]any)
	for _, event := range hookEvents {
		appendHook(hooks, event, command)
	}
	settings := map[string]any{"hooks": hooks}

	if err := writeSettingsAtomic(path, settings, "  "); err != nil {
		return MergeOutput{
			Result: MergeError,
			Err:    fmt.Errorf("creating settings file: %w", err),
		}
	}

	return MergeOutput{
		Result:   MergeSuccess,
		Messages: []string{fmt.Sprintf("Created %s with Claude Buddy hooks", path)},
	}
}

// writeSettingsAtomic writes the settings map atomically using a temp
// file + rename so a crash never leaves a half-written settings.json.
func writeSettingsAtomic(path string, settings map[string]any, indent string) error {
	data, err := json.MarshalIndent(settings, "", indent)
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".settings-*.json.tmp")
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("permission denied writing to %s", dir)
		}
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	// Preserve the original file mode when replacing.
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	tmpPath = ""
	return nil
}
