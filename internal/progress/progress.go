package progress

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ytscribe/ytscribe/internal/domain"
)

// JobSink mirrors counter updates into a persisted job row.
// *store.Store satisfies it.
type JobSink interface {
	UpdateJobProgress(id string, done, errors, total *int) error
	FinalizeJob(id string, status domain.JobStatus, errorMessage string) error
}

// Counter is a thread-safe tally for parallel bulk operations. When
// attached to a job it also persists done/errors on every Tick so a
// lister in another process can display live progress.
type Counter struct {
	total int
	t0    time.Time

	mu     sync.Mutex
	done   int
	errors int

	jobID string
	sink  JobSink
}

// New creates a pure in-memory counter for an expected total
func New(total int) *Counter {
	return &Counter{total: total, t0: time.Now()}
}

// NewForJob creates a counter that mirrors into the given job row.
// The expected total is written immediately.
func NewForJob(total int, jobID string, sink JobSink) *Counter {
	c := &Counter{total: total, t0: time.Now(), jobID: jobID, sink: sink}
	if err := sink.UpdateJobProgress(jobID, nil, nil, &total); err != nil {
		slog.Debug("progress: writing total failed", "job", jobID, "error", err)
	}
	return c
}

// Tick records one finished item. A non-nil itemErr also increments
// the error count. Persisting to the job row is best-effort and never
// fails the caller.
func (c *Counter) Tick(label, itemID string, itemErr error) {
	c.mu.Lock()
	c.done++
	if itemErr != nil {
		c.errors++
	}
	done, errors := c.done, c.errors
	c.mu.Unlock()

	elapsed := time.Since(c.t0)
	attrs := []any{"item", itemID, "done", done, "total", c.total, "elapsed", elapsed.Round(time.Second)}
	if done > 0 && done < c.total {
		avg := elapsed / time.Duration(done)
		attrs = append(attrs, "eta", (avg * time.Duration(c.total-done)).Round(time.Second))
	}
	if itemErr != nil {
		attrs = append(attrs, "error", itemErr)
	}
	slog.Info(label, attrs...)

	if c.sink != nil {
		if err := c.sink.UpdateJobProgress(c.jobID, &done, &errors, nil); err != nil {
			slog.Debug("progress: persisting tick failed", "job", c.jobID, "error", err)
		}
	}
}

// Finalize marks the attached job as finished. It is a no-op for a
// pure in-memory counter.
func (c *Counter) Finalize(status domain.JobStatus, errorMessage string) error {
	if c.sink == nil {
		return nil
	}
	if err := c.sink.FinalizeJob(c.jobID, status, errorMessage); err != nil {
		return fmt.Errorf("finalize job %s: %w", c.jobID, err)
	}
	return nil
}

// Done returns the latest committed done count
func (c *Counter) Done() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Errors returns the latest committed error count
func (c *Counter) Errors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors
}

// Total returns the expected total
func (c *Counter) Total() int {
	return c.total
}
