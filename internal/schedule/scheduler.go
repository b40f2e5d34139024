// Package schedule runs cron-scheduled channel refreshes: each watch
// entry periodically re-fetches its channel and pushes new videos
// through the transcribe→summarize pipeline.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ytscribe/ytscribe/internal/config"
)

// RunFunc performs one refresh for a watch entry
type RunFunc func(ctx context.Context, entry config.WatchEntry) error

// Scheduler decides when each watch entry is due and runs it
type Scheduler struct {
	entries map[string]config.WatchEntry
	parser  cron.Parser
	lastRun map[string]time.Time
	running map[string]bool
	mu      sync.RWMutex
}

// New creates a Scheduler, validating every entry's cron expression
func New(entries []config.WatchEntry) (*Scheduler, error) {
	s := &Scheduler{
		entries: make(map[string]config.WatchEntry),
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		lastRun: make(map[string]time.Time),
		running: make(map[string]bool),
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("watch entry needs a name")
		}
		if e.ChannelURL == "" {
			return nil, fmt.Errorf("watch entry %s needs a channel_url", e.Name)
		}
		if _, err := s.parser.Parse(e.Cron); err != nil {
			return nil, fmt.Errorf("watch entry %s: invalid cron %q: %w", e.Name, e.Cron, err)
		}
		s.entries[e.Name] = e
	}
	return s, nil
}

// Names returns all watch entry names
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// NextRun returns the next scheduled run time for an entry
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	sched, err := s.parser.Parse(entry.Cron)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(time.Now())
}

// ShouldRun reports whether an entry is due and not already running
func (s *Scheduler) ShouldRun(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[name]
	if !ok || s.running[name] {
		return false
	}
	sched, err := s.parser.Parse(entry.Cron)
	if err != nil {
		return false
	}

	lastRun := s.lastRun[name]
	if lastRun.IsZero() {
		lastRun = time.Now().Add(-24 * time.Hour)
	}
	return time.Now().After(sched.Next(lastRun))
}

func (s *Scheduler) markRunning(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = true
}

func (s *Scheduler) markComplete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = false
	s.lastRun[name] = time.Now()
}

// Run drives the scheduler loop until ctx is cancelled. Due entries
// run one at a time; YouTube pressure comes from the pipeline inside
// each run, not from parallel refreshes.
func (s *Scheduler) Run(ctx context.Context, fn RunFunc) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	slog.Info("watch scheduler started", "entries", len(s.entries))
	for {
		select {
		case <-ctx.Done():
			slog.Info("watch scheduler stopping")
			return
		case <-ticker.C:
			for name := range s.entries {
				if !s.ShouldRun(name) {
					continue
				}
				entry := s.entries[name]
				s.markRunning(name)
				slog.Info("watch entry due", "name", name, "channel", entry.ChannelURL)
				if err := fn(ctx, entry); err != nil {
					slog.Error("watch run failed", "name", name, "error", err)
				}
				s.markComplete(name)
			}
		}
	}
}
