package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	maintenanceInterval = 1 * time.Hour
	vacuumInterval      = 7 * 24 * time.Hour

	// Folded summaries outlive raw rows by a year.
	summaryRetentionDays = 365
)

func (s *Store) maintenanceLoop(ctx context.Context, retentionDays int) {
	defer close(s.maintenanceDone)

	lastVacuum := time.Now()
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runMaintenanceCycle(retentionDays); err != nil && s.log != nil {
				s.log.Error("maintenance_cycle_failed", slog.String("error", err.Error()))
			}

			if time.Since(lastVacuum) >= vacuumInterval {
				if _, err := s.db.Exec("VACUUM"); err != nil {
					if s.log != nil {
						s.log.Error("vacuum_failed", slog.String("error", err.Error()))
					}
				} else {
					lastVacuum = time.Now()
				}
			}
		}
	}
}

// runMaintenanceCycle folds engagement rows older than the retention
// window into daily_summaries, then deletes them, then prunes summaries
// past their own retention.
func (s *Store) runMaintenanceCycle(retentionDays int) error {
	retentionModifier := fmt.Sprintf("-%d days", retentionDays)
	summaryModifier := fmt.Sprintf("-%d days", summaryRetentionDays)

	_, err := s.db.Exec(`
		INSERT INTO daily_summaries (date, created, clicked, dismissed)
		SELECT
			date(created_at),
			COUNT(CASE WHEN kind = 'created' THEN 1 END),
			COUNT(CASE WHEN kind = 'clicked' THEN 1 END),
			COUNT(CASE WHEN kind = 'dismissed' THEN 1 END)
		FROM engagements
		WHERE datetime(created_at) < datetime('now', ?)
		GROUP BY date(created_at)
		ON CONFLICT(date) DO UPDATE SET
			created = created + excluded.created,
			clicked = clicked + excluded.clicked,
			dismissed = dismissed + excluded.dismissed
	`, retentionModifier)
	if err != nil {
		return fmt.Errorf("folding old engagements: %w", err)
	}

	_, err = s.db.Exec("DELETE FROM engagements WHERE datetime(created_at) < datetime('now', ?)", retentionModifier)
	if err != nil {
		return fmt.Errorf("pruning old engagements: %w", err)
	}

	_, err = s.db.Exec("DELETE FROM daily_summaries WHERE date < date('now', ?)", summaryModifier)
	if err != nil {
		return fmt.Errorf("pruning old summaries: %w", err)
	}

	return nil
}
