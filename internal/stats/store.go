package stats

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/claude-buddy/claude-buddy/internal/alert"
)

const (
	writeChannelSize = 1000
	batchSize        = 50
	flushInterval    = 100 * time.Millisecond
)

// Kind values for engagement rows.
const (
	KindCreated   = "created"
	KindClicked   = "clicked"
	KindDismissed = "dismissed"
)

type engagementRow struct {
	Key       string
	Kind      string
	PID       int
	Screen    int
	Project   string
	CreatedAt string
}

// Store records alert engagements asynchronously: Record* enqueues onto
// a bounded channel drained by a single writer goroutine that batches
// rows into transactions. A full channel drops the write and bumps a
// counter rather than blocking the alert store.
//
// Store implements alert.Recorder.
type Store struct {
	db            *sql.DB
	log           *slog.Logger
	writeChan     chan engagementRow
	droppedWrites atomic.Int64
	closed        atomic.Bool
	doneChan      chan struct{}

	cancelMaint     context.CancelFunc
	maintenanceDone chan struct{}
}

// NewStore opens the engagement database at dbPath. Engagement rows
// older than retentionDays are folded into daily summaries and deleted
// by the hourly maintenance loop.
func NewStore(dbPath string, retentionDays int, log *slog.Logger) (*Store, error) {
	return newStoreWithChannelSize(dbPath, writeChannelSize, retentionDays, log)
}

func newStoreWithChannelSize(dbPath string, chanSize, retentionDays int, log *slog.Logger) (*Store, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:              db,
		log:             log,
		writeChan:       make(chan engagementRow, chanSize),
		doneChan:        make(chan struct{}),
		cancelMaint:     cancel,
		maintenanceDone: make(chan struct{}),
	}

	go s.writerLoop()
	go s.maintenanceLoop(ctx, retentionDays)

	return s, nil
}

// RecordCreated implements alert.Recorder.
func (s *Store) RecordCreated(a alert.Alert) { s.record(KindCreated, a) }

// RecordClicked implements alert.Recorder.
func (s *Store) RecordClicked(a alert.Alert) { s.record(KindClicked, a) }

// RecordDismissed implements alert.Recorder.
func (s *Store) RecordDismissed(a alert.Alert) { s.record(KindDismissed, a) }

func (s *Store) record(kind string, a alert.Alert) {
	s.sendWrite(engagementRow{
		Key:       a.Key(),
		Kind:      kind,
		PID:       a.PID,
		Screen:    a.Screen,
		Project:   a.Project,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Store) sendWrite(row engagementRow) {
	if s.closed.Load() {
		return
	}
	defer func() { _ = recover() }()
	select {
	case s.writeChan <- row:
	default:
		s.droppedWrites.Add(1)
		if s.log != nil {
			s.log.Warn("engagement_write_dropped",
				slog.String("kind", row.Kind),
				slog.String("key", row.Key))
		}
	}
}

// DroppedWrites reports how many engagements were lost to backpressure.
func (s *Store) DroppedWrites() int64 {
	return s.droppedWrites.Load()
}

// Close drains pending writes and shuts the database down in order:
// stop accepting, stop maintenance, close the channel, wait for the
// writer to flush, close the DB.
func (s *Store) Close() error {
	s.closed.Store(true)

	s.cancelMaint()
	select {
	case <-s.maintenanceDone:
	case <-time.After(30 * time.Second):
		if s.log != nil {
			s.log.Warn("maintenance_shutdown_timeout")
		}
	}

	close(s.writeChan)
	select {
	case <-s.doneChan:
	case <-time.After(10 * time.Second):
		if s.log != nil {
			s.log.Error("writer_drain_timeout")
		}
	}

	return s.db.Close()
}

func (s *Store) writerLoop() {
	defer close(s.doneChan)

	batch := make([]engagementRow, 0, batchSize)
	flushTimer := time.NewTimer(flushInterval)
	defer flushTimer.Stop()

	for {
		select {
		case row, ok := <-s.writeChan:
			if !ok {
				if len(batch) > 0 {
					s.flushBatch(batch)
				}
				return
			}

			batch = append(batch, row)
			if len(batch) >= batchSize {
				s.flushBatch(batch)
				batch = batch[:0]
				flushTimer.Reset(flushInterval)
			}

		case <-flushTimer.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
			flushTimer.Reset(flushInterval)
		}
	}
}

func (s *Store) flushBatch(batch []engagementRow) {
	tx, err := s.db.Begin()
	if err != nil {
		if s.log != nil {
			s.log.Error("begin_transaction_failed", slog.String("error", err.Error()))
		}
		return
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range batch {
		_, err := tx.Exec(
			"INSERT INTO engagements (key, kind, pid, screen, project, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			row.Key, row.Kind, row.PID, row.Screen, row.Project, row.CreatedAt,
		)
		if err != nil && s.log != nil {
			s.log.Error("engagement_insert_failed",
				slog.String("kind", row.Kind),
				slog.String("error", err.Error()))
		}
	}

	if err := tx.Commit(); err != nil && s.log != nil {
		s.log.Error("commit_failed", slog.String("error", err.Error()))
	}
}
