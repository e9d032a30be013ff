package portscan

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/claude-buddy/claude-buddy/internal/registry"
)

type fakeAPI struct {
	mu      sync.Mutex
	ports   []Port
	sims    []Simulator
	portErr error
	scans   int
}

func (f *fakeAPI) ListeningPorts() ([]Port, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	return f.ports, f.portErr
}

func (f *fakeAPI) BootedSimulators() ([]Simulator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sims, nil
}

func (f *fakeAPI) scanCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans
}

type fakeSink struct {
	mu    sync.Mutex
	syncs [][]registry.Resource
}

func (f *fakeSink) SyncOwned(owner string, resources []registry.Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs = append(f.syncs, resources)
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestScanner_FirstScanRunsImmediately(t *testing.T) {
	api := &fakeAPI{ports: []Port{{Port: 8080, PID: 1, Command: "node"}}}
	s := NewScanner(api, time.Hour, nil)
	s.Start()
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return api.scanCount() >= 1 })

	snap := s.Snapshot()
	if len(snap.Ports) != 1 || snap.Ports[0].Port != 8080 {
		t.Errorf("snapshot = %+v", snap.Ports)
	}
	if snap.ScannedAt.IsZero() {
		t.Error("ScannedAt should be set")
	}
}

func TestScanner_RescanTriggersCycle(t *testing.T) {
	api := &fakeAPI{}
	s := NewScanner(api, time.Hour, nil)
	s.Start()
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return api.scanCount() >= 1 })
	s.Rescan()
	waitFor(t, time.Second, func() bool { return api.scanCount() >= 2 })
}

func TestScanner_MirrorsPortsIntoSink(t *testing.T) {
	api := &fakeAPI{
		ports: []Port{{Port: 3000, PID: 5, Command: "node"}},
		sims:  []Simulator{{Name: "iPhone 16", UDID: "AAAA", State: "Booted"}},
	}
	sink := &fakeSink{}
	s := NewScanner(api, time.Hour, nil, WithResourceSink(sink), WithSimulators(true))
	s.Start()
	defer s.Stop()

	waitFor(t, time.Second, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.syncs) >= 1
	})

	sink.mu.Lock()
	resources := sink.syncs[0]
	sink.mu.Unlock()

	if len(resources) != 2 {
		t.Fatalf("expected port + simulator resource, got %+v", resources)
	}
	if resources[0].Name != "port-3000" || resources[0].Kind != registry.KindPort {
		t.Errorf("port resource = %+v", resources[0])
	}
	if resources[0].Value != "3000 (node)" {
		t.Errorf("port value = %q", resources[0].Value)
	}
	if resources[1].Name != "sim-AAAA" || resources[1].Kind != registry.KindSimulator {
		t.Errorf("simulator resource = %+v", resources[1])
	}
}

func TestScanner_FailedScanKeepsLastSnapshot(t *testing.T) {
	api := &fakeAPI{ports: []Port{{Port: 9090}}}
	s := NewScanner(api, time.Hour, nil)
	s.Start()
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return api.scanCount() >= 1 })

	api.mu.Lock()
	api.portErr = errors.New("lsof exploded")
	api.mu.Unlock()

	s.Rescan()
	waitFor(t, time.Second, func() bool { return api.scanCount() >= 2 })

	if snap := s.Snapshot(); len(snap.Ports) != 1 {
		t.Errorf("failed scan should keep previous ports, got %+v", snap.Ports)
	}
}

func TestScanner_ObserversNotified(t *testing.T) {
	api := &fakeAPI{}
	s := NewScanner(api, time.Hour, nil)

	var mu sync.Mutex
	notified := 0
	s.OnUpdate(func() {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	s.Start()
	defer s.Stop()

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return notified >= 1
	})
}

func TestScanner_StopIsIdempotent(t *testing.T) {
	s := NewScanner(&fakeAPI{}, time.Hour, nil)
	s.Start()
	s.Stop()
	s.Stop()
}
