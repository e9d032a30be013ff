// Package feed buffers recent alert lifecycle activity for the
// dashboard's activity panel.
package feed

import (
	"sync"
	"time"

	"github.com/claude-buddy/claude-buddy/internal/alert"
)

// Kind classifies a feed entry.
type Kind string

const (
	KindCreated   Kind = "created"
	KindClicked   Kind = "clicked"
	KindDismissed Kind = "dismissed"
)

// Entry is one line of recent activity.
type Entry struct {
	Kind    Kind
	Key     string
	PID     int
	Screen  int
	Project string
	At      time.Time
}

// Feed is a fixed-capacity, thread-safe ring buffer of entries. When
// full, the oldest entry is evicted. It implements alert.Recorder so
// the store feeds it directly.
type Feed struct {
	mu    sync.RWMutex
	items []Entry
	cap   int
	head  int // index of the oldest element
	count int // number of elements currently stored
}

// New creates a feed with the given capacity. Capacity must be at
// least 1.
func New(capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{
		items: make([]Entry, capacity),
		cap:   capacity,
	}
}

// Add inserts an entry, evicting the oldest when full.
func (f *Feed) Add(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	writePos := (f.head + f.count) % f.cap
	if f.count == f.cap {
		f.items[f.head] = e
		f.head = (f.head + 1) % f.cap
	} else {
		f.items[writePos] = e
		f.count++
	}
}

// ListAll returns all entries in chronological order (oldest first).
func (f *Feed) ListAll() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.listLocked()
}

// ListByKind returns all entries of one kind in chronological order.
func (f *Feed) ListByKind(kind Kind) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []Entry
	for _, e := range f.listLocked() {
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}

// Len returns the number of entries currently buffered.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// Cap returns the buffer capacity.
func (f *Feed) Cap() int {
	return f.cap
}

// RecordCreated implements alert.Recorder.
func (f *Feed) RecordCreated(a alert.Alert) { f.record(KindCreated, a) }

// RecordClicked implements alert.Recorder.
func (f *Feed) RecordClicked(a alert.Alert) { f.record(KindClicked, a) }

// RecordDismissed implements alert.Recorder.
func (f *Feed) RecordDismissed(a alert.Alert) { f.record(KindDismissed, a) }

func (f *Feed) record(kind Kind, a alert.Alert) {
	f.Add(Entry{
		Kind:    kind,
		Key:     a.Key(),
		PID:     a.PID,
		Screen:  a.Screen,
		Project: a.Project,
		At:      time.Now(),
	})
}

func (f *Feed) listLocked() []Entry {
	if f.count == 0 {
		return nil
	}
	result := make([]Entry, f.count)
	for i := 0; i < f.count; i++ {
		result[i] = f.items[(f.head+i)%f.cap]
	}
	return result
}
