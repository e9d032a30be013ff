//go:build linux

package sound

import (
	"log/slog"
	"os/exec"
)

// PaplayPlayer plays sounds via paplay when PulseAudio is available.
// Playback runs in a background goroutine.
type PaplayPlayer struct {
	log *slog.Logger
}

// NewPlayer creates the platform sound player.
func NewPlayer(log *slog.Logger) *PaplayPlayer {
	return &PaplayPlayer{log: log}
}

// Play plays the named sound from the freedesktop sound theme. The call
// returns immediately; a missing paplay binary is logged at debug only.
func (p *PaplayPlayer) Play(name string) {
	go func() {
		path := "/usr/share/sounds/freedesktop/stereo/" + name + ".oga"
		cmd := exec.Command("paplay", path)
		if err := cmd.Run(); err != nil && p.log != nil {
			p.log.Debug("sound_failed", slog.String("sound", name), slog.String("error", err.Error()))
		}
	}()
}
