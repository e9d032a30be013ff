//go:build darwin

package sound

import (
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
)

const systemSoundDir = "/System/Library/Sounds"

// AfplayPlayer plays macOS system sounds via afplay. Playback runs in a
// background goroutine so the caller never waits on audio.
type AfplayPlayer struct {
	log *slog.Logger
}

// NewPlayer creates the platform sound player.
func NewPlayer(log *slog.Logger) *AfplayPlayer {
	return &AfplayPlayer{log: log}
}

// Play plays the named system sound (e.g. "Glass"). The call returns
// immediately.
func (p *AfplayPlayer) Play(name string) {
	path := soundPath(name)
	go func() {
		cmd := exec.Command("afplay", path)
		if err := cmd.Run(); err != nil && p.log != nil {
			p.log.Warn("sound_failed",
				slog.String("sound", path),
				slog.String("error", err.Error()))
		}
	}()
}

// soundPath maps a sound name to its aiff file. Names containing a path
// separator or extension are treated as explicit file paths.
func soundPath(name string) string {
	if strings.ContainsRune(name, '/') || strings.Contains(name, ".") {
		return name
	}
	return filepath.Join(systemSoundDir, name+".aiff")
}
