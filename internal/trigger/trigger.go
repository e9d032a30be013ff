// Package trigger watches the trigger file the Claude Code hook appends
// to and turns new pid lines into alerts.
package trigger

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Sink receives resolved trigger signals. Satisfied by *alert.Store.
type Sink interface {
	AddOrRefresh(pid, screen int, suppressRing, suppressPanel bool, project string)
	PruneDead(alive func(pid int) bool)
}

// Resolver maps a pid to its screen and focus state. Satisfied by
// terminal.Resolver implementations.
type Resolver interface {
	Resolve(pid int) (screen int, focused bool)
}

// Watcher tails the trigger file. Each appended line is
// "<pid>" or "<pid>\t<project>"; malformed lines are skipped. A focused
// terminal gets both suppression bits so it still counts toward badges
// without ringing or taking panel space.
type Watcher struct {
	path     string
	sink     Sink
	resolver Resolver
	alive    func(pid int) bool
	log      *slog.Logger

	sweepInterval time.Duration

	fsw       *fsnotify.Watcher
	offset    int64
	closeOnce sync.Once
	closeCh   chan struct{}
	doneCh    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLivenessSweep enables periodic pruning of alerts whose originating
// process has exited.
func WithLivenessSweep(interval time.Duration, alive func(pid int) bool) WatcherOption {
	return func(w *Watcher) {
		w.sweepInterval = interval
		w.alive = alive
	}
}

// NewWatcher creates a watcher for the trigger file at path. The file
// does not need to exist yet; its parent directory is created.
func NewWatcher(path string, sink Sink, resolver Resolver, log *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		sink:     sink,
		resolver: resolver,
		log:      log,
		closeCh:  make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. Lines already in the file are skipped: only
// appends after startup become pings, so restarting the app does not
// replay stale signals.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	// Watch the parent directory so recreation of the file is caught;
	// editors and shells routinely replace rather than append.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		w.fsw = nil
		return err
	}

	if info, err := os.Stat(w.path); err == nil {
		w.offset = info.Size()
	}

	go w.watchLoop()
	if w.sweepInterval > 0 && w.alive != nil {
		go w.sweepLoop()
	}
	return nil
}

// Close stops the watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		if w.fsw != nil {
			err = w.fsw.Close()
		}
	})
	return err
}

func (w *Watcher) watchLoop() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Rename) != 0:
				// Recreated file: everything in it is new.
				w.offset = 0
				w.consume()
			case event.Op&fsnotify.Write != 0:
				w.consume()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warn("trigger_watch_error", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) sweepLoop() {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.closeCh:
			return
		case <-ticker.C:
			w.sink.PruneDead(w.alive)
		}
	}
}

// consume reads newly appended complete lines from the current offset
// and feeds them to the sink. The offset only advances past the last
// newline, so a partially written line is picked up on the next event.
func (w *Watcher) consume() {
	f, err := os.Open(w.path)
	if err != nil {
		if w.log != nil {
			w.log.Warn("trigger_open_failed", slog.String("error", err.Error()))
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < w.offset {
		// Truncated: start over from the top.
		w.offset = 0
	}

	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		return
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// Partial trailing line stays unconsumed.
			break
		}
		w.offset += int64(len(line))
		w.handleLine(string(bytes.TrimRight(line, "\n")))
	}
}

// handleLine parses one trigger line and registers the ping.
func (w *Watcher) handleLine(line string) {
	pid, project, ok := parseLine(line)
	if !ok {
		if w.log != nil && strings.TrimSpace(line) != "" {
			w.log.Warn("trigger_line_malformed", slog.String("line", line))
		}
		return
	}

	screen, focused := w.resolver.Resolve(pid)
	w.sink.AddOrRefresh(pid, screen, focused, focused, project)

	if w.log != nil {
		w.log.Debug("trigger_ping",
			slog.Int("pid", pid),
			slog.Int("screen", screen),
			slog.Bool("focused", focused),
			slog.String("project", project))
	}
}

// parseLine splits "<pid>" or "<pid>\t<project>". The project may itself
// contain tabs; only the first field is structural.
func parseLine(line string) (pid int, project string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, "", false
	}

	pidField := line
	if idx := strings.IndexByte(line, '\t'); idx >= 0 {
		pidField = line[:idx]
		project = strings.TrimSpace(line[idx+1:])
	}

	pid, err := strconv.Atoi(strings.TrimSpace(pidField))
	if err != nil || pid <= 0 {
		return 0, "", false
	}
	return pid, project, true
}
