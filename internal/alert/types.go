package alert

import (
	"fmt"
	"time"
)

// Identity is the logical identity of a ping: the originating terminal
// process and the screen its window occupies. Two alerts with the same
// Identity are the same alert; the creation timestamp and suppression
// flags do not participate in identity.
type Identity struct {
	PID    int
	Screen int
}

// Alert represents one pending ping tied to a terminal session.
type Alert struct {
	Identity
	CreatedAt     time.Time
	SuppressRing  bool   // visual ring indicator withheld
	SuppressPanel bool   // panel entry withheld
	Project       string // best-effort label, may be empty
}

// Key returns the correlation key used for engagement records:
// "{pid}-{screen}-{createdAt}". A refreshed alert gets a new key so its
// engagement records correlate to the refresh, not the original. The key
// is never used for equality or lookup.
func (a Alert) Key() string {
	return fmt.Sprintf("%d-%d-%d", a.PID, a.Screen, a.CreatedAt.UnixNano())
}

// Settings is the snapshot of tunables the store reads fresh on every
// call. Values are hot-reloadable by the user without restarting the
// store, so nothing here is cached.
type Settings struct {
	AutoDismissEnabled bool
	AutoDismissDelay   time.Duration
	SoundEnabled       bool
	SoundName          string
	RingBaseThickness  int
	RingIncrement      int
}

// SettingsProvider yields the current alert settings.
type SettingsProvider interface {
	AlertSettings() Settings
}

// Recorder receives engagement records for usage analytics. All methods
// are fire-and-forget; implementations must not block and their failures
// never propagate back to the store.
type Recorder interface {
	RecordCreated(a Alert)
	RecordClicked(a Alert)
	RecordDismissed(a Alert)
}

// SoundPlayer plays the creation sound. Implementations must be
// non-blocking.
type SoundPlayer interface {
	Play(name string)
}
