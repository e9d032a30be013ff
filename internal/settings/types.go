// Package settings installs the Claude Code hook that makes Buddy work:
// a "hooks" block in ~/.claude/settings.json running `claude-buddy
// --hook` on Stop and Notification events.
package settings

// MergeResult classifies the outcome of a settings merge.
type MergeResult int

const (
	// MergeSuccess means the file was updated (or created).
	MergeSuccess MergeResult = iota
	// MergeAlreadyConfigured means every hook was already in place.
	MergeAlreadyConfigured
	// MergeNeedsConfirmation means an existing Buddy hook differs and
	// interactive confirmation is required before overwriting.
	MergeNeedsConfirmation
	// MergeError means the merge failed; see Err.
	MergeError
)

// MergeOptions controls the merge.
type MergeOptions struct {
	// SettingsPath overrides the default ~/.claude/settings.json.
	SettingsPath string
	// Command overrides the hook command. Defaults to
	// "claude-buddy --hook".
	Command string
	// Interactive makes differing existing hooks return
	// MergeNeedsConfirmation instead of being skipped with a warning.
	Interactive bool
}

// MergeOutput carries the merge outcome and any user-facing messages.
type MergeOutput struct {
	Result   MergeResult
	Messages []string
	Warnings []string
	Err      error
}

// hookEvents are the Claude Code events Buddy subscribes to. Stop fires
// when a session finishes responding; Notification when it needs
// attention (permission prompts, idle).
var hookEvents = []string{"Stop", "Notification"}

const defaultCommand = "claude-buddy --hook"
