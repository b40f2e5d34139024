package store

import (
	"fmt"
	"time"
)

// Request-log rows older than this are dropped on every write; the
// rate watcher only ever looks back 24 hours.
const requestLogRetention = 24 * time.Hour

// LogRequest records one external call in the request log and prunes
// entries older than the retention window.
func (s *Store) LogRequest(requestType string) error {
	if _, err := s.db.Exec(`INSERT INTO request_log (request_type, timestamp) VALUES (?, ?)`,
		requestType, time.Now().UTC()); err != nil {
		return fmt.Errorf("log request: %w", err)
	}
	cutoff := time.Now().UTC().Add(-requestLogRetention)
	if _, err := s.db.Exec(`DELETE FROM request_log WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("prune request log: %w", err)
	}
	return nil
}

// CountRequests counts external calls recorded in the last d window
func (s *Store) CountRequests(d time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-d)
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM request_log WHERE timestamp > ?`, cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}
