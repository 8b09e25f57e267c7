package analytics

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// realtimeWindow is how far back GetRealtimeVisitors looks.
const realtimeWindow = 5 * time.Minute

var schema = []string{
	`CREATE TABLE IF NOT EXISTS visits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	visitor_id TEXT NOT NULL,
	ip_hash TEXT NOT NULL,
	browser TEXT NOT NULL,
	os TEXT NOT NULL,
	device TEXT NOT NULL,
	slug TEXT NOT NULL,
	referrer TEXT,
	timestamp TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS visits_by_time ON visits(timestamp)`,
	`CREATE INDEX IF NOT EXISTS visits_by_visitor ON visits(visitor_id)`,
	`CREATE INDEX IF NOT EXISTS visits_by_slug ON visits(slug)`,
	`CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`,
}

// Store provides database operations for analytics. Visits live in
// their own database file so heavy traffic never contends with the
// page store.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the visits database at dbPath and
// prepares its schema.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("analytics: open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("analytics: set journal mode: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("analytics: init schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// sqlTime renders a timestamp the way the visits table stores it.
// RFC 3339 in UTC keeps range scans lexicographic.
func sqlTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// GetSetting returns the stored value for key, or "" when the key has
// never been set.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

// SetSetting writes the value for key, replacing any previous one.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// SaveVisit appends one page view to the visits table.
func (s *Store) SaveVisit(v *Visit) error {
	_, err := s.db.Exec(
		`INSERT INTO visits (visitor_id, ip_hash, browser, os, device, slug, referrer, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.IPHash, v.Browser, v.OS, v.Device, v.Slug, v.Referrer, sqlTime(v.Timestamp))
	return err
}

// GetStats aggregates the visits between from (inclusive) and to
// (exclusive). Slices are always non-nil so the JSON API emits arrays.
func (s *Store) GetStats(from, to time.Time) (*Stats, error) {
	lo, hi := sqlTime(from), sqlTime(to)
	stats := &Stats{
		Period: from.Format("2006-01-02") + " ~ " + to.Format("2006-01-02"),
	}

	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM visits WHERE timestamp >= ? AND timestamp < ?
	`, lo, hi).Scan(&stats.TotalViews)
	if err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}

	err = s.db.QueryRow(`
		SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ? AND timestamp < ?
	`, lo, hi).Scan(&stats.UniqueVisitors)
	if err != nil {
		return nil, fmt.Errorf("count unique visitors: %w", err)
	}

	stats.TopPages = []PageStat{}
	rows, err := s.db.Query(`
		SELECT slug, COUNT(*) AS views FROM visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY slug ORDER BY views DESC, slug LIMIT 10
	`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("top pages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p PageStat
		if err := rows.Scan(&p.Slug, &p.Views); err != nil {
			return nil, fmt.Errorf("top pages: %w", err)
		}
		stats.TopPages = append(stats.TopPages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top pages: %w", err)
	}

	stats.LatestVisits = []LatestVisit{}
	latest, err := s.db.Query(`
		SELECT slug, strftime('%Y-%m-%d %H:%M', timestamp), browser FROM visits
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC LIMIT 10
	`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("latest visits: %w", err)
	}
	defer latest.Close()
	for latest.Next() {
		var v LatestVisit
		if err := latest.Scan(&v.Slug, &v.Timestamp, &v.Browser); err != nil {
			return nil, fmt.Errorf("latest visits: %w", err)
		}
		stats.LatestVisits = append(stats.LatestVisits, v)
	}
	if err := latest.Err(); err != nil {
		return nil, fmt.Errorf("latest visits: %w", err)
	}

	for _, dim := range []struct {
		column string
		dest   *[]DimensionStat
	}{
		{"browser", &stats.BrowserStats},
		{"os", &stats.OSStats},
		{"device", &stats.DeviceStats},
		{"referrer", &stats.ReferrerStats},
	} {
		result, err := s.dimensionStats(dim.column, lo, hi)
		if err != nil {
			return nil, fmt.Errorf("%s stats: %w", dim.column, err)
		}
		*dim.dest = result
	}

	stats.DailyViews = []DailyView{}
	daily, err := s.db.Query(`
		SELECT strftime('%Y-%m-%d', timestamp) AS date, COUNT(*) AS views FROM visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY date ORDER BY date
	`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("daily views: %w", err)
	}
	defer daily.Close()
	for daily.Next() {
		var d DailyView
		if err := daily.Scan(&d.Date, &d.Views); err != nil {
			return nil, fmt.Errorf("daily views: %w", err)
		}
		stats.DailyViews = append(stats.DailyViews, d)
	}
	if err := daily.Err(); err != nil {
		return nil, fmt.Errorf("daily views: %w", err)
	}

	return stats, nil
}

// dimensionStats groups visits by one column. The column name comes
// from the fixed caller set in GetStats, never from request input.
func (s *Store) dimensionStats(column, lo, hi string) ([]DimensionStat, error) {
	rows, err := s.db.Query(`
		SELECT `+column+`, COUNT(*) AS count FROM visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY `+column+` ORDER BY count DESC, `+column+` LIMIT 10
	`, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// GetRealtimeVisitors counts distinct visitors seen within the
// realtime window.
func (s *Store) GetRealtimeVisitors() (int, error) {
	cutoff := sqlTime(time.Now().Add(-realtimeWindow))
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ?
	`, cutoff).Scan(&count)
	return count, err
}

// CleanupOldVisits deletes visits past the retention period.
func (s *Store) CleanupOldVisits(retentionDays int) error {
	cutoff := sqlTime(time.Now().AddDate(0, 0, -retentionDays))
	if _, err := s.db.Exec(`DELETE FROM visits WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup visits: %w", err)
	}
	return nil
}

// StartCleanupScheduler prunes old visits every interval until the
// returned stop function is called.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.CleanupOldVisits(retentionDays); err != nil {
					log.Printf("analytics cleanup: %v", err)
				}
			}
		}
	}()
	return func() { close(stop) }
}
