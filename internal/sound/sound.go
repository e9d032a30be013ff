// Package sound plays the ping creation sound.
package sound

// Player plays a named system sound. Implementations must be
// non-blocking; playback failures are logged and swallowed.
type Player interface {
	Play(name string)
}

// Disabled is a Player that drops everything.
type Disabled struct{}

func (Disabled) Play(name string) {}
