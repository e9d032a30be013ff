// claude-buddy surfaces "your Claude Code session wants attention" pings
// in a terminal dashboard, alongside a shared dev-resource registry and
// a port/simulator scanner.
//
// Modes:
//
//	claude-buddy          run the dashboard
//	claude-buddy --setup  install the Claude Code hooks and exit
//	claude-buddy --hook   consume one hook payload from stdin (used by
//	                      Claude Code itself, never interactively)
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/claude-buddy/claude-buddy/internal/alert"
	"github.com/claude-buddy/claude-buddy/internal/config"
	"github.com/claude-buddy/claude-buddy/internal/feed"
	"github.com/claude-buddy/claude-buddy/internal/logging"
	"github.com/claude-buddy/claude-buddy/internal/notify"
	"github.com/claude-buddy/claude-buddy/internal/portscan"
	"github.com/claude-buddy/claude-buddy/internal/registry"
	"github.com/claude-buddy/claude-buddy/internal/sound"
	"github.com/claude-buddy/claude-buddy/internal/stats"
	"github.com/claude-buddy/claude-buddy/internal/terminal"
	"github.com/claude-buddy/claude-buddy/internal/trigger"
	"github.com/claude-buddy/claude-buddy/internal/tui"
)

func main() {
	setupFlag := flag.Bool("setup", false, "install the Claude Code hooks and exit")
	hookFlag := flag.Bool("hook", false, "consume a hook payload from stdin")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	result, err := config.Load()
	if err != nil {
		if *hookFlag {
			// A broken config must not break Claude Code; fall back to
			// defaults so the ping still lands.
			cfg := config.DefaultConfig()
			RunHook(os.Stdin, cfg.Trigger.FilePath)
			return
		}
		fmt.Fprintf(os.Stderr, "claude-buddy: %v\n", err)
		os.Exit(1)
	}
	cfg := result.Config

	if *hookFlag {
		RunHook(os.Stdin, cfg.Trigger.FilePath)
		return
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	if *setupFlag {
		os.Exit(RunSetup(os.Stdin))
	}

	logCfg := logging.Config{Dir: cfg.Logging.Dir, Level: cfg.Logging.Level}
	if *debugFlag {
		logCfg.Level = "debug"
		if logCfg.Dir == "" {
			logCfg.Dir = filepath.Dir(config.DefaultPath())
		}
	}
	logging.Init(logCfg)
	log := logging.Logger()
	log.Info("starting claude-buddy")

	provider := config.NewProvider(cfg, config.DefaultPath(), logging.ForComponent(logging.CompConfig))
	if err := provider.Watch(); err != nil {
		log.Warn("config hot-reload disabled", "error", err)
	}

	// Engagement history is best effort: a locked or corrupt database
	// disables the stats view but never the dashboard.
	var statsStore *stats.Store
	if st, err := stats.NewStore(cfg.Storage.DBPath, cfg.Storage.RetentionDays, logging.ForComponent(logging.CompStats)); err != nil {
		log.Warn("engagement history disabled", "error", err)
	} else {
		statsStore = st
	}

	activity := feed.New(cfg.Display.FeedBufferSize)
	notifier := notify.NewNotifier(cfg.Alerts.Notifications.SystemNotify, log)

	recorders := multiRecorder{activity, notifyRecorder{notifier}}
	if statsStore != nil {
		recorders = append(recorders, statsStore)
	}

	store := alert.NewStore(settingsSource{provider},
		alert.WithRecorder(recorders),
		alert.WithSoundPlayer(sound.NewPlayer(logging.ForComponent(logging.CompAlert))),
	)

	reg, err := registry.New(cfg.Registry.Path, logging.ForComponent(logging.CompRegistry))
	if err != nil {
		fmt.Fprintf(os.Stderr, "claude-buddy: opening resource registry: %v\n", err)
		os.Exit(1)
	}

	scanner := portscan.NewDefaultScanner(cfg.Scanner.IntervalSeconds,
		logging.ForComponent(logging.CompScanner),
		portscan.WithResourceSink(reg),
		portscan.WithSimulators(cfg.Scanner.Simulators),
	)
	scanner.Start()

	resolver := terminal.NewResolver(logging.ForComponent(logging.CompUI))

	if err := os.MkdirAll(filepath.Dir(cfg.Trigger.FilePath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "claude-buddy: creating trigger directory: %v\n", err)
		os.Exit(1)
	}
	watcher, err := trigger.NewWatcher(cfg.Trigger.FilePath, store, resolver,
		logging.ForComponent(logging.CompTrigger),
		trigger.WithLivenessSweep(
			time.Duration(cfg.Trigger.LivenessSweepSeconds)*time.Second,
			terminal.Alive,
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claude-buddy: watching trigger file: %v\n", err)
		os.Exit(1)
	}
	if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "claude-buddy: watching trigger file: %v\n", err)
		os.Exit(1)
	}

	// Coalesced change signal: the store and scanner fire on every
	// mutation, the UI only needs to know "something changed".
	changeCh := make(chan struct{}, 1)
	signalChange := func() {
		select {
		case changeCh <- struct{}{}:
		default:
		}
	}
	store.OnChange(signalChange)
	scanner.OnUpdate(signalChange)

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			log.Info("shutting down")
			_ = watcher.Close()
			scanner.Stop()
			_ = provider.Close()
			if statsStore != nil {
				if err := statsStore.Close(); err != nil {
					log.Warn("closing stats store", "error", err)
				}
			}
			logging.Shutdown()
		})
	}

	modelOpts := []tui.ModelOption{
		tui.WithAlertProvider(store),
		tui.WithFeedProvider(activity),
		tui.WithResourceProvider(reg),
		tui.WithScannerProvider(scanner),
		tui.WithTerminalActivator(resolver),
		tui.WithChangeSignal(changeCh),
		tui.WithOnShutdown(shutdown),
	}
	if statsStore != nil {
		modelOpts = append(modelOpts, tui.WithStatsProvider(statsStore))
	}

	model := tui.NewModel(provider.Get(), modelOpts...)
	p := tea.NewProgram(model, tea.WithAltScreen())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		shutdown()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		shutdown()
		fmt.Fprintf(os.Stderr, "claude-buddy: %v\n", err)
		os.Exit(1)
	}
	shutdown()
}

// settingsSource adapts the live config provider to the alert store, so
// edits to config.toml apply without a restart.
type settingsSource struct {
	provider *config.Provider
}

func (s settingsSource) AlertSettings() alert.Settings {
	c := s.provider.Get().Alerts
	return alert.Settings{
		AutoDismissEnabled: c.AutoDismissEnabled,
		AutoDismissDelay:   time.Duration(c.AutoDismissDelaySeconds) * time.Second,
		SoundEnabled:       c.SoundEnabled,
		SoundName:          c.SoundName,
		RingBaseThickness:  c.RingBaseThickness,
		RingIncrement:      c.RingThicknessIncrement,
	}
}

// multiRecorder fans engagement records out to every recorder.
type multiRecorder []alert.Recorder

func (m multiRecorder) RecordCreated(a alert.Alert) {
	for _, r := range m {
		r.RecordCreated(a)
	}
}

func (m multiRecorder) RecordClicked(a alert.Alert) {
	for _, r := range m {
		r.RecordClicked(a)
	}
}

func (m multiRecorder) RecordDismissed(a alert.Alert) {
	for _, r := range m {
		r.RecordDismissed(a)
	}
}

// notifyRecorder posts a system notification for each new ping. A ping
// from the focused terminal is suppressed the same way its ring is.
type notifyRecorder struct {
	notifier notify.Notifier
}

func (n notifyRecorder) RecordCreated(a alert.Alert) {
	if a.SuppressRing {
		return
	}
	n.notifier.Ping(a.Project, a.PID)
}

func (n notifyRecorder) RecordClicked(alert.Alert)   {}
func (n notifyRecorder) RecordDismissed(alert.Alert) {}
