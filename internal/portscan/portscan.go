// Package portscan periodically discovers listening TCP ports and booted
// simulators and mirrors them into the resource registry.
package portscan

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/claude-buddy/claude-buddy/internal/registry"
)

// scanOwner marks registry entries written by the scanner so manual
// claims are never clobbered.
const scanOwner = "scan"

// Port is one listening TCP socket.
type Port struct {
	Port    int
	PID     int
	Command string
}

// Simulator is one booted simulator device.
type Simulator struct {
	Name    string
	UDID    string
	State   string
	Runtime string
}

// Snapshot is the result of one scan cycle.
type Snapshot struct {
	Ports      []Port
	Simulators []Simulator
	ScannedAt  time.Time
}

// platformAPI abstracts the OS-specific discovery commands so the
// scanner loop is testable with a fake.
type platformAPI interface {
	ListeningPorts() ([]Port, error)
	BootedSimulators() ([]Simulator, error)
}

// ResourceSink receives the scanner's port snapshot. Satisfied by
// *registry.Registry.
type ResourceSink interface {
	SyncOwned(owner string, resources []registry.Resource) error
}

// Scanner runs the periodic scan loop.
type Scanner struct {
	api        platformAPI
	interval   time.Duration
	simulators bool
	sink       ResourceSink
	log        *slog.Logger

	mu       sync.RWMutex
	snapshot Snapshot

	obsMu     sync.Mutex
	observers []func()

	rescanCh  chan struct{}
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithResourceSink mirrors each scan's ports into the registry.
func WithResourceSink(sink ResourceSink) ScannerOption {
	return func(s *Scanner) { s.sink = sink }
}

// WithSimulators enables the simctl simulator scan.
func WithSimulators(enabled bool) ScannerOption {
	return func(s *Scanner) { s.simulators = enabled }
}

// NewScanner creates a scanner with the given platform API. Production
// callers use NewDefaultScanner.
func NewScanner(api platformAPI, interval time.Duration, log *slog.Logger, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		api:      api,
		interval: interval,
		log:      log,
		rescanCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefaultScanner creates a scanner using the real platform commands.
func NewDefaultScanner(intervalSeconds int, log *slog.Logger, opts ...ScannerOption) *Scanner {
	return NewScanner(newPlatformAPI(), time.Duration(intervalSeconds)*time.Second, log, opts...)
}

// Start launches the scan loop. The first scan runs immediately.
func (s *Scanner) Start() {
	go s.loop()
}

// Stop terminates the scan loop and waits for it to finish. Safe to
// call multiple times.
func (s *Scanner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
}

// Rescan requests an immediate scan cycle. Non-blocking; a request
// while one is already pending is coalesced.
func (s *Scanner) Rescan() {
	select {
	case s.rescanCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the most recent scan result.
func (s *Scanner) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// OnUpdate registers a callback invoked after each completed scan.
func (s *Scanner) OnUpdate(fn func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Scanner) loop() {
	defer close(s.doneCh)

	s.scan()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.scan()
		case <-s.rescanCh:
			s.scan()
		}
	}
}

// scan runs one discovery cycle and publishes the snapshot. A failed
// command keeps that half of the previous snapshot rather than blanking
// the display.
func (s *Scanner) scan() {
	s.mu.RLock()
	prev := s.snapshot
	s.mu.RUnlock()

	snap := Snapshot{ScannedAt: time.Now()}

	ports, err := s.api.ListeningPorts()
	if err != nil {
		if s.log != nil {
			s.log.Warn("port_scan_failed", slog.String("error", err.Error()))
		}
		snap.Ports = prev.Ports
	} else {
		snap.Ports = ports
	}

	if s.simulators {
		sims, err := s.api.BootedSimulators()
		if err != nil {
			if s.log != nil {
				s.log.Debug("simulator_scan_failed", slog.String("error", err.Error()))
			}
			snap.Simulators = prev.Simulators
		} else {
			snap.Simulators = sims
		}
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.SyncOwned(scanOwner, scanResources(snap)); err != nil && s.log != nil {
			s.log.Warn("registry_sync_failed", slog.String("error", err.Error()))
		}
	}

	s.obsMu.Lock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// scanResources converts a snapshot into registry entries.
func scanResources(snap Snapshot) []registry.Resource {
	out := make([]registry.Resource, 0, len(snap.Ports)+len(snap.Simulators))
	for _, p := range snap.Ports {
		name := fmt.Sprintf("port-%d", p.Port)
		value := strconv.Itoa(p.Port)
		if p.Command != "" {
			value = fmt.Sprintf("%d (%s)", p.Port, p.Command)
		}
		out = append(out, registry.Resource{Name: name, Kind: registry.KindPort, Value: value})
	}
	for _, sim := range snap.Simulators {
		out = append(out, registry.Resource{
			Name:  "sim-" + sim.UDID,
			Kind:  registry.KindSimulator,
			Value: sim.Name,
		})
	}
	return out
}
