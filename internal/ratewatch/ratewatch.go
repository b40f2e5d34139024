package ratewatch

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Thresholds for request-rate warnings (requests per hour)
const (
	WarnThresholdPerHour = 200
	HighThresholdPerHour = 400
)

// Counter exposes the store's request-log counts
type Counter interface {
	CountRequests(d time.Duration) (int, error)
}

// Status summarizes recent external call volume
type Status struct {
	LastHour int
	LastDay  int
	Warning  string
}

// GetStatus returns the current request-rate status with a warning
// message when the last-hour count crosses a threshold.
func GetStatus(c Counter) (Status, error) {
	lastHour, err := c.CountRequests(time.Hour)
	if err != nil {
		return Status{}, fmt.Errorf("rate status: %w", err)
	}
	lastDay, err := c.CountRequests(24 * time.Hour)
	if err != nil {
		return Status{}, fmt.Errorf("rate status: %w", err)
	}

	st := Status{LastHour: lastHour, LastDay: lastDay}
	switch {
	case lastHour >= HighThresholdPerHour:
		st.Warning = fmt.Sprintf(
			"high request rate: %d YouTube requests in the last hour (threshold %d); consider reducing --concurrency or waiting",
			lastHour, HighThresholdPerHour)
	case lastHour >= WarnThresholdPerHour:
		st.Warning = fmt.Sprintf(
			"elevated request rate: %d YouTube requests in the last hour (threshold %d); monitor for 429 errors",
			lastHour, WarnThresholdPerHour)
	}
	return st, nil
}

// PrintWarning writes a warning to w if the request rate is high.
// Called before bulk operations; best-effort, failures only logged.
func PrintWarning(w io.Writer, c Counter) {
	st, err := GetStatus(c)
	if err != nil {
		slog.Debug("rate status unavailable", "error", err)
		return
	}
	if st.Warning != "" {
		fmt.Fprintf(w, "\n  warning: %s\n\n", st.Warning)
	}
}
