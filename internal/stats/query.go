package stats

import (
	"fmt"
	"sort"
	"time"
)

// Totals holds all-time engagement counts.
type Totals struct {
	Created   int
	Clicked   int
	Dismissed int
}

// DailySummary holds one day's engagement counts.
type DailySummary struct {
	Date      string // YYYY-MM-DD
	Created   int
	Clicked   int
	Dismissed int
}

// Engagement is one recorded lifecycle event.
type Engagement struct {
	Key       string
	Kind      string
	PID       int
	Screen    int
	Project   string
	CreatedAt time.Time
}

// Totals returns all-time counts, combining live engagement rows with
// folded daily summaries.
func (s *Store) Totals() (Totals, error) {
	var t Totals

	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM engagements GROUP BY kind")
	if err != nil {
		return t, fmt.Errorf("counting engagements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return t, fmt.Errorf("scanning engagement counts: %w", err)
		}
		switch kind {
		case KindCreated:
			t.Created += count
		case KindClicked:
			t.Clicked += count
		case KindDismissed:
			t.Dismissed += count
		}
	}
	if err := rows.Err(); err != nil {
		return t, err
	}

	var created, clicked, dismissed int
	err = s.db.QueryRow(
		"SELECT COALESCE(SUM(created), 0), COALESCE(SUM(clicked), 0), COALESCE(SUM(dismissed), 0) FROM daily_summaries",
	).Scan(&created, &clicked, &dismissed)
	if err != nil {
		return t, fmt.Errorf("summing daily summaries: %w", err)
	}
	t.Created += created
	t.Clicked += clicked
	t.Dismissed += dismissed

	return t, nil
}

// ClickThroughRate returns clicked/created over all time, 0 when no
// alerts were created yet.
func (s *Store) ClickThroughRate() (float64, error) {
	t, err := s.Totals()
	if err != nil {
		return 0, err
	}
	if t.Created == 0 {
		return 0, nil
	}
	return float64(t.Clicked) / float64(t.Created), nil
}

// DailySummaries returns per-day counts for the last n days, newest
// first. Live rows and folded summaries for the same day merge.
func (s *Store) DailySummaries(days int) ([]DailySummary, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	byDate := make(map[string]*DailySummary)

	rows, err := s.db.Query(`
		SELECT date(created_at), kind, COUNT(*)
		FROM engagements
		WHERE date(created_at) >= ?
		GROUP BY date(created_at), kind
	`, since)
	if err != nil {
		return nil, fmt.Errorf("querying live engagements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var date, kind string
		var count int
		if err := rows.Scan(&date, &kind, &count); err != nil {
			return nil, fmt.Errorf("scanning live engagements: %w", err)
		}
		d := byDate[date]
		if d == nil {
			d = &DailySummary{Date: date}
			byDate[date] = d
		}
		switch kind {
		case KindCreated:
			d.Created += count
		case KindClicked:
			d.Clicked += count
		case KindDismissed:
			d.Dismissed += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sumRows, err := s.db.Query(
		"SELECT date, created, clicked, dismissed FROM daily_summaries WHERE date >= ?", since)
	if err != nil {
		return nil, fmt.Errorf("querying daily summaries: %w", err)
	}
	defer sumRows.Close()
	for sumRows.Next() {
		var date string
		var created, clicked, dismissed int
		if err := sumRows.Scan(&date, &created, &clicked, &dismissed); err != nil {
			return nil, fmt.Errorf("scanning daily summaries: %w", err)
		}
		d := byDate[date]
		if d == nil {
			d = &DailySummary{Date: date}
			byDate[date] = d
		}
		d.Created += created
		d.Clicked += clicked
		d.Dismissed += dismissed
	}
	if err := sumRows.Err(); err != nil {
		return nil, err
	}

	out := make([]DailySummary, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// RecentEngagements returns the latest n engagement rows, newest first.
func (s *Store) RecentEngagements(n int) ([]Engagement, error) {
	rows, err := s.db.Query(`
		SELECT key, kind, pid, screen, COALESCE(project, ''), created_at
		FROM engagements
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("querying recent engagements: %w", err)
	}
	defer rows.Close()

	var out []Engagement
	for rows.Next() {
		var e Engagement
		var ts string
		if err := rows.Scan(&e.Key, &e.Kind, &e.PID, &e.Screen, &e.Project, &ts); err != nil {
			return nil, fmt.Errorf("scanning engagement: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
