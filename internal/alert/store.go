// Package alert implements the ping lifecycle store: the set of active
// alerts keyed by (pid, screen) identity, their auto-dismiss timers, the
// ring/panel suppression policy, and the change broadcast that drives the
// presentation layer.
package alert

import (
	"sort"
	"sync"
	"time"
)

// Store owns the active alert set and the per-alert auto-dismiss timers.
// All mutation goes through its methods; observers hold no mutable
// reference and re-read derived views after each change notification.
//
// Every public operation is a critical section: the mutex serializes
// trigger callbacks, user actions, and timer expiry, so no two store
// operations ever interleave. No operation blocks: engagement
// recording, sound playback, and change notification are all
// fire-and-forget calls to collaborators.
type Store struct {
	mu     sync.Mutex
	alerts map[Identity]Alert
	timers map[Identity]*time.Timer

	settings SettingsProvider
	stats    Recorder
	sound    SoundPlayer

	obsMu     sync.Mutex
	observers []func()
}

// StoreOption configures optional collaborators on a Store.
type StoreOption func(*Store)

// WithRecorder sets the engagement stats collaborator.
func WithRecorder(r Recorder) StoreOption {
	return func(s *Store) { s.stats = r }
}

// WithSoundPlayer sets the creation-sound collaborator.
func WithSoundPlayer(p SoundPlayer) StoreOption {
	return func(s *Store) { s.sound = p }
}

// NewStore creates an empty alert store. The settings provider is
// consulted on every operation, never cached.
func NewStore(settings SettingsProvider, opts ...StoreOption) *Store {
	s := &Store{
		alerts:   make(map[Identity]Alert),
		timers:   make(map[Identity]*time.Timer),
		settings: settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers an observer called after every state change. The
// notification carries no payload: observers must re-query the store.
// Observers are invoked outside the store lock and must tolerate
// redundant notifications.
func (s *Store) OnChange(fn func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) notifyChanged() {
	s.obsMu.Lock()
	observers := s.observers
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// AddOrRefresh registers a ping for the given terminal process and
// screen. If an alert with the same identity is already pending, it is
// replaced in place: fresh timestamp, fresh suppression flags, timer
// reset, no duplicate entry, no second "created" record, no sound.
// For a genuinely new identity a "created" engagement is recorded and,
// unless suppressRing is set, the notification sound plays. suppressRing
// set means the user is already looking at the terminal, so no audible
// alert regardless of the sound setting.
func (s *Store) AddOrRefresh(pid, screen int, suppressRing, suppressPanel bool, project string) {
	set := s.settings.AlertSettings()
	cand := Alert{
		Identity:      Identity{PID: pid, Screen: screen},
		CreatedAt:     time.Now(),
		SuppressRing:  suppressRing,
		SuppressPanel: suppressPanel,
		Project:       project,
	}

	s.mu.Lock()
	_, refresh := s.alerts[cand.Identity]
	if refresh {
		s.cancelTimerLocked(cand.Identity)
	}
	s.alerts[cand.Identity] = cand
	if set.AutoDismissEnabled {
		s.timers[cand.Identity] = time.AfterFunc(set.AutoDismissDelay, func() {
			s.Dismiss(cand)
		})
	}
	if !refresh && s.stats != nil {
		s.stats.RecordCreated(cand)
	}
	s.mu.Unlock()

	if !refresh && !suppressRing && set.SoundEnabled && s.sound != nil {
		s.sound.Play(set.SoundName)
	}

	s.notifyChanged()
}

// Click records that the user acted on the alert, then removes it. This
// is the only path that marks an alert as successfully acted upon.
// Calling Click on an alert that is no longer current is a no-op aside
// from the change notification.
func (s *Store) Click(a Alert) {
	s.mu.Lock()
	if s.isCurrentLocked(a) {
		if s.stats != nil {
			s.stats.RecordClicked(a)
		}
		s.removeLocked(a.Identity)
	}
	s.mu.Unlock()

	s.notifyChanged()
}

// Dismiss records a "dismissed" engagement and removes the alert. It is
// invoked both by auto-dismiss timer expiry and by explicit user
// dismissal. A stale call (the alert was already removed or refreshed)
// is a no-op aside from the change notification.
func (s *Store) Dismiss(a Alert) {
	s.mu.Lock()
	if s.isCurrentLocked(a) {
		if s.stats != nil {
			s.stats.RecordDismissed(a)
		}
		s.removeLocked(a.Identity)
	}
	s.mu.Unlock()

	s.notifyChanged()
}

// DismissAll dismisses every pending alert: each one's timer is canceled
// and a "dismissed" engagement recorded, then both the alert set and the
// timer map are cleared. Exactly one change notification fires for the
// whole batch, so observers never see a partially cleared set.
func (s *Store) DismissAll() {
	s.mu.Lock()
	for id, a := range s.alerts {
		s.cancelTimerLocked(id)
		if s.stats != nil {
			s.stats.RecordDismissed(a)
		}
	}
	s.alerts = make(map[Identity]Alert)
	s.timers = make(map[Identity]*time.Timer)
	s.mu.Unlock()

	s.notifyChanged()
}

// DismissAllOnScreen dismisses every alert on the given screen through
// the single-alert path. Expected set sizes are small, so one
// notification per alert is acceptable here.
func (s *Store) DismissAllOnScreen(screen int) {
	s.mu.Lock()
	var matching []Alert
	for _, a := range s.alerts {
		if a.Screen == screen {
			matching = append(matching, a)
		}
	}
	s.mu.Unlock()

	for _, a := range matching {
		s.Dismiss(a)
	}
}

// PruneDead dismisses alerts whose originating process no longer exists.
// alive reports whether a pid is still running.
func (s *Store) PruneDead(alive func(pid int) bool) {
	s.mu.Lock()
	var dead []Alert
	for _, a := range s.alerts {
		if !alive(a.PID) {
			dead = append(dead, a)
		}
	}
	s.mu.Unlock()

	for _, a := range dead {
		s.Dismiss(a)
	}
}

// isCurrentLocked reports whether a is the generation currently stored
// for its identity. A timer armed for an earlier generation whose fire
// callback raced with a refresh fails this check and dismisses nothing.
func (s *Store) isCurrentLocked(a Alert) bool {
	cur, ok := s.alerts[a.Identity]
	return ok && cur.CreatedAt.Equal(a.CreatedAt)
}

// removeLocked cancels any pending timer and drops the alert.
func (s *Store) removeLocked(id Identity) {
	s.cancelTimerLocked(id)
	delete(s.alerts, id)
}

func (s *Store) cancelTimerLocked(id Identity) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Alerts returns a snapshot of all pending alerts, oldest first.
func (s *Store) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		result = append(result, a)
	}
	sortByAge(result)
	return result
}

// PanelAlerts returns the alerts eligible for the panel (SuppressPanel
// unset), oldest first.
func (s *Store) PanelAlerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Alert
	for _, a := range s.alerts {
		if !a.SuppressPanel {
			result = append(result, a)
		}
	}
	sortByAge(result)
	return result
}

// HasPanelAlerts reports whether any panel-eligible alert is pending.
func (s *Store) HasPanelAlerts() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.alerts {
		if !a.SuppressPanel {
			return true
		}
	}
	return false
}

// CountOnScreen returns the number of alerts on the given screen,
// suppressed or not.
func (s *Store) CountOnScreen(screen int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.alerts {
		if a.Screen == screen {
			n++
		}
	}
	return n
}

// RingEligibleCount returns the number of alerts on the given screen
// that should visually influence the ring (SuppressRing unset).
func (s *Store) RingEligibleCount(screen int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ringEligibleCountLocked(screen)
}

func (s *Store) ringEligibleCountLocked(screen int) int {
	n := 0
	for _, a := range s.alerts {
		if a.Screen == screen && !a.SuppressRing {
			n++
		}
	}
	return n
}

// RingThickness returns the ring thickness for a screen: zero when no
// ring-eligible alert is pending, otherwise base + (n-1)*increment. The
// value grows without a fixed maximum; clipping is the presentation
// layer's concern.
func (s *Store) RingThickness(screen int) int {
	set := s.settings.AlertSettings()

	s.mu.Lock()
	n := s.ringEligibleCountLocked(screen)
	s.mu.Unlock()

	if n == 0 {
		return 0
	}
	return set.RingBaseThickness + (n-1)*set.RingIncrement
}

// ScreensWithAnyAlert returns the distinct screens with at least one
// pending alert, in ascending order.
func (s *Store) ScreensWithAnyAlert() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int]bool)
	for _, a := range s.alerts {
		seen[a.Screen] = true
	}
	return sortedScreens(seen)
}

// ScreensWithRingAlert returns the distinct screens with at least one
// ring-eligible alert, in ascending order.
func (s *Store) ScreensWithRingAlert() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int]bool)
	for _, a := range s.alerts {
		if !a.SuppressRing {
			seen[a.Screen] = true
		}
	}
	return sortedScreens(seen)
}

func sortByAge(alerts []Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].PID < alerts[j].PID
		}
		return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
	})
}

func sortedScreens(seen map[int]bool) []int {
	screens := make([]int, 0, len(seen))
	for id := range seen {
		screens = append(screens, id)
	}
	sort.Ints(screens)
	return screens
}
