package alert

import (
	"sync"
	"testing"
	"time"
)

// stubSettings is a SettingsProvider returning a fixed snapshot. Tests
// mutate the Settings field between calls to exercise hot reload.
type stubSettings struct {
	mu  sync.Mutex
	set Settings
}

func (s *stubSettings) AlertSettings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

func (s *stubSettings) update(set Settings) {
	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
}

func defaultSettings() *stubSettings {
	return &stubSettings{set: Settings{
		AutoDismissEnabled: false,
		AutoDismissDelay:   30 * time.Second,
		SoundEnabled:       true,
		SoundName:          "Glass",
		RingBaseThickness:  4,
		RingIncrement:      2,
	}}
}

// captureRecorder records engagement calls in order.
type captureRecorder struct {
	mu        sync.Mutex
	created   []string
	clicked   []string
	dismissed []string
}

func (r *captureRecorder) RecordCreated(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, a.Key())
}

func (r *captureRecorder) RecordClicked(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicked = append(r.clicked, a.Key())
}

func (r *captureRecorder) RecordDismissed(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dismissed = append(r.dismissed, a.Key())
}

func (r *captureRecorder) counts() (created, clicked, dismissed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created), len(r.clicked), len(r.dismissed)
}

// captureSound records Play calls.
type captureSound struct {
	mu    sync.Mutex
	plays []string
}

func (c *captureSound) Play(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays = append(c.plays, name)
}

func (c *captureSound) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.plays)
}

func TestStore_DistinctIdentitiesAccumulate(t *testing.T) {
	store := NewStore(defaultSettings())

	store.AddOrRefresh(1, 0, false, false, "")
	store.AddOrRefresh(2, 0, true, false, "")
	store.AddOrRefresh(1, 1, false, true, "")
	store.AddOrRefresh(3, 2, true, true, "proj")

	if got := len(store.Alerts()); got != 4 {
		t.Errorf("expected 4 alerts for 4 distinct identities, got %d", got)
	}
}

func TestStore_RefreshReplacesInPlace(t *testing.T) {
	rec := &captureRecorder{}
	snd := &captureSound{}
	store := NewStore(defaultSettings(), WithRecorder(rec), WithSoundPlayer(snd))

	store.AddOrRefresh(1, 1, false, false, "first")
	before := store.Alerts()[0]

	time.Sleep(2 * time.Millisecond)
	store.AddOrRefresh(1, 1, true, true, "second")

	alerts := store.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert after refresh, got %d", len(alerts))
	}
	a := alerts[0]
	if !a.SuppressRing || !a.SuppressPanel {
		t.Errorf("expected refreshed suppression flags, got ring=%v panel=%v", a.SuppressRing, a.SuppressPanel)
	}
	if a.Project != "second" {
		t.Errorf("expected refreshed project, got %q", a.Project)
	}
	if !a.CreatedAt.After(before.CreatedAt) {
		t.Errorf("expected refreshed timestamp after %v, got %v", before.CreatedAt, a.CreatedAt)
	}

	created, _, _ := rec.counts()
	if created != 1 {
		t.Errorf("refresh must not record a second created engagement, got %d", created)
	}
	if snd.count() != 1 {
		t.Errorf("refresh must not play a second creation sound, got %d plays", snd.count())
	}
}

func TestStore_SoundPolicy(t *testing.T) {
	tests := []struct {
		name         string
		soundEnabled bool
		suppressRing bool
		wantPlays    int
	}{
		{"enabled and ring eligible", true, false, 1},
		{"enabled but ring suppressed", true, true, 0},
		{"disabled", false, false, 0},
		{"disabled and suppressed", false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := defaultSettings()
			settings.update(Settings{SoundEnabled: tt.soundEnabled, SoundName: "Glass"})
			snd := &captureSound{}
			store := NewStore(settings, WithSoundPlayer(snd))

			store.AddOrRefresh(10, 0, tt.suppressRing, false, "")

			if snd.count() != tt.wantPlays {
				t.Errorf("expected %d sound plays, got %d", tt.wantPlays, snd.count())
			}
		})
	}
}

func TestStore_RingQueries(t *testing.T) {
	store := NewStore(defaultSettings())

	store.AddOrRefresh(1, 1, false, false, "")
	if got := store.RingEligibleCount(1); got != 1 {
		t.Errorf("expected ring eligible count 1, got %d", got)
	}
	if got := store.RingThickness(1); got != 4 {
		t.Errorf("expected base thickness 4, got %d", got)
	}

	store.AddOrRefresh(2, 1, false, false, "")
	if got := store.RingEligibleCount(1); got != 2 {
		t.Errorf("expected ring eligible count 2, got %d", got)
	}
	if got := store.RingThickness(1); got != 6 {
		t.Errorf("expected base+increment=6, got %d", got)
	}

	// Ring-suppressed alerts count on screen but not toward the ring.
	store.AddOrRefresh(3, 1, true, false, "")
	if got := store.CountOnScreen(1); got != 3 {
		t.Errorf("expected 3 alerts on screen, got %d", got)
	}
	if got := store.RingEligibleCount(1); got != 2 {
		t.Errorf("suppressed alert must not be ring eligible, got %d", got)
	}

	if got := store.RingThickness(2); got != 0 {
		t.Errorf("expected zero thickness on empty screen, got %d", got)
	}
}

func TestStore_PanelSuppression(t *testing.T) {
	store := NewStore(defaultSettings())

	store.AddOrRefresh(1, 1, false, true, "")

	if got := store.CountOnScreen(1); got != 1 {
		t.Errorf("panel-suppressed alert must still count on screen, got %d", got)
	}
	if got := store.PanelAlerts(); len(got) != 0 {
		t.Errorf("expected no panel alerts, got %d", len(got))
	}
	if store.HasPanelAlerts() {
		t.Error("expected HasPanelAlerts to be false")
	}

	store.AddOrRefresh(2, 1, false, false, "")
	if got := store.PanelAlerts(); len(got) != 1 || got[0].PID != 2 {
		t.Errorf("expected only pid 2 in panel, got %v", got)
	}
	if !store.HasPanelAlerts() {
		t.Error("expected HasPanelAlerts to be true")
	}
}

func TestStore_ScreenSets(t *testing.T) {
	store := NewStore(defaultSettings())

	store.AddOrRefresh(1, 0, false, false, "")
	store.AddOrRefresh(2, 2, true, false, "")
	store.AddOrRefresh(3, 1, false, false, "")

	any := store.ScreensWithAnyAlert()
	if len(any) != 3 || any[0] != 0 || any[1] != 1 || any[2] != 2 {
		t.Errorf("expected screens [0 1 2], got %v", any)
	}

	ring := store.ScreensWithRingAlert()
	if len(ring) != 2 || ring[0] != 0 || ring[1] != 1 {
		t.Errorf("expected ring screens [0 1], got %v", ring)
	}
}

func TestStore_ClickRemovesAndRecordsOnce(t *testing.T) {
	rec := &captureRecorder{}
	store := NewStore(defaultSettings(), WithRecorder(rec))

	store.AddOrRefresh(1, 0, false, false, "")
	a := store.Alerts()[0]

	store.Click(a)
	if got := len(store.Alerts()); got != 0 {
		t.Fatalf("expected empty store after click, got %d alerts", got)
	}

	// Second click on the same alert is a no-op.
	store.Click(a)

	_, clicked, dismissed := rec.counts()
	if clicked != 1 {
		t.Errorf("expected exactly 1 clicked engagement, got %d", clicked)
	}
	if dismissed != 0 {
		t.Errorf("click must not record dismissed, got %d", dismissed)
	}
}

func TestStore_DismissIdempotent(t *testing.T) {
	rec := &captureRecorder{}
	store := NewStore(defaultSettings(), WithRecorder(rec))

	store.AddOrRefresh(1, 0, false, false, "")
	a := store.Alerts()[0]

	store.Dismiss(a)
	store.Dismiss(a)

	_, _, dismissed := rec.counts()
	if dismissed != 1 {
		t.Errorf("expected exactly 1 dismissed engagement, got %d", dismissed)
	}
}

func TestStore_DismissAllSingleNotification(t *testing.T) {
	rec := &captureRecorder{}
	store := NewStore(defaultSettings(), WithRecorder(rec))

	for pid := 1; pid <= 10; pid++ {
		store.AddOrRefresh(pid, pid%3, false, false, "")
	}

	var notifications int
	store.OnChange(func() { notifications++ })

	store.DismissAll()

	if got := len(store.Alerts()); got != 0 {
		t.Errorf("expected empty store, got %d alerts", got)
	}
	if notifications != 1 {
		t.Errorf("expected exactly 1 change notification for the batch, got %d", notifications)
	}
	_, _, dismissed := rec.counts()
	if dismissed != 10 {
		t.Errorf("expected 10 dismissed engagements, got %d", dismissed)
	}
}

func TestStore_DismissAllOnScreen(t *testing.T) {
	rec := &captureRecorder{}
	store := NewStore(defaultSettings(), WithRecorder(rec))

	store.AddOrRefresh(1, 0, false, false, "")
	store.AddOrRefresh(2, 1, false, false, "")
	store.AddOrRefresh(3, 0, true, true, "")

	store.DismissAllOnScreen(0)

	remaining := store.Alerts()
	if len(remaining) != 1 || remaining[0].PID != 2 {
		t.Errorf("expected only pid 2 to survive, got %v", remaining)
	}
	_, _, dismissed := rec.counts()
	if dismissed != 2 {
		t.Errorf("expected 2 dismissed engagements, got %d", dismissed)
	}
}

func TestStore_AutoDismissTimerFires(t *testing.T) {
	settings := defaultSettings()
	settings.update(Settings{
		AutoDismissEnabled: true,
		AutoDismissDelay:   60 * time.Millisecond,
	})
	rec := &captureRecorder{}
	store := NewStore(settings, WithRecorder(rec))

	store.AddOrRefresh(100, 0, false, false, "")

	time.Sleep(40 * time.Millisecond)
	if got := len(store.Alerts()); got != 1 {
		t.Fatalf("alert dismissed too early: %d alerts before delay elapsed", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := len(store.Alerts()); got != 0 {
		t.Fatalf("expected auto-dismiss after delay, got %d alerts", got)
	}
	_, _, dismissed := rec.counts()
	if dismissed != 1 {
		t.Errorf("expected 1 dismissed engagement from timer, got %d", dismissed)
	}
}

func TestStore_RefreshRestartsTimerWindow(t *testing.T) {
	settings := defaultSettings()
	settings.update(Settings{
		AutoDismissEnabled: true,
		AutoDismissDelay:   80 * time.Millisecond,
	})
	store := NewStore(settings)

	store.AddOrRefresh(100, 0, false, false, "")
	time.Sleep(50 * time.Millisecond)

	// Refresh before the first timer fires: a new full window starts now.
	store.AddOrRefresh(100, 0, false, false, "")
	time.Sleep(50 * time.Millisecond)

	// 100ms after the first add, but only 50ms into the refreshed window.
	if got := len(store.Alerts()); got != 1 {
		t.Fatalf("original timer was not canceled by refresh: %d alerts", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := len(store.Alerts()); got != 0 {
		t.Fatalf("refreshed timer never fired: %d alerts", got)
	}
}

func TestStore_ClickCancelsTimer(t *testing.T) {
	settings := defaultSettings()
	settings.update(Settings{
		AutoDismissEnabled: true,
		AutoDismissDelay:   50 * time.Millisecond,
	})
	rec := &captureRecorder{}
	store := NewStore(settings, WithRecorder(rec))

	store.AddOrRefresh(1, 0, false, false, "")
	store.Click(store.Alerts()[0])

	time.Sleep(80 * time.Millisecond)

	_, clicked, dismissed := rec.counts()
	if clicked != 1 || dismissed != 0 {
		t.Errorf("expected click to cancel the timer: clicked=%d dismissed=%d", clicked, dismissed)
	}
}

func TestStore_StaleTimerCannotDismissRefreshedAlert(t *testing.T) {
	store := NewStore(defaultSettings())

	store.AddOrRefresh(1, 0, false, false, "old")
	old := store.Alerts()[0]

	time.Sleep(2 * time.Millisecond)
	store.AddOrRefresh(1, 0, false, false, "new")

	// A dismiss carrying the old generation must not remove the refresh.
	store.Dismiss(old)

	alerts := store.Alerts()
	if len(alerts) != 1 || alerts[0].Project != "new" {
		t.Errorf("stale dismiss removed the refreshed alert: %v", alerts)
	}
}

func TestStore_PruneDead(t *testing.T) {
	rec := &captureRecorder{}
	store := NewStore(defaultSettings(), WithRecorder(rec))

	store.AddOrRefresh(1, 0, false, false, "")
	store.AddOrRefresh(2, 0, false, false, "")

	store.PruneDead(func(pid int) bool { return pid == 2 })

	remaining := store.Alerts()
	if len(remaining) != 1 || remaining[0].PID != 2 {
		t.Errorf("expected only live pid 2 to remain, got %v", remaining)
	}
	_, _, dismissed := rec.counts()
	if dismissed != 1 {
		t.Errorf("expected 1 dismissed engagement for the dead pid, got %d", dismissed)
	}
}

func TestStore_ObserversNotifiedOnEveryChange(t *testing.T) {
	store := NewStore(defaultSettings())

	var notifications int
	store.OnChange(func() { notifications++ })

	store.AddOrRefresh(1, 0, false, false, "")
	store.AddOrRefresh(1, 0, false, false, "") // refresh also notifies
	store.Dismiss(store.Alerts()[0])

	if notifications != 3 {
		t.Errorf("expected 3 notifications, got %d", notifications)
	}
}

func TestStore_SettingsReadFreshEachCall(t *testing.T) {
	settings := defaultSettings()
	store := NewStore(settings)

	store.AddOrRefresh(1, 0, false, false, "")
	if got := store.RingThickness(0); got != 4 {
		t.Fatalf("expected thickness 4, got %d", got)
	}

	settings.update(Settings{RingBaseThickness: 10, RingIncrement: 5})
	if got := store.RingThickness(0); got != 10 {
		t.Errorf("expected hot-reloaded thickness 10, got %d", got)
	}
}
