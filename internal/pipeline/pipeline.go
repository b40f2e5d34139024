// Package pipeline overlaps transcription and summarization across a
// work set. Instead of transcribing everything and then summarizing
// everything, a poller watches durable state for freshly transcribed
// videos and feeds them to the summarize pool as they land.
//
// Coordination is DB-polling against the caller's store, not an
// in-memory queue: simpler, idempotent, and crash-recoverable.
package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ytscribe/ytscribe/internal/progress"
)

// DefaultPollInterval is how often the poller asks durable state for
// newly transcribed videos.
const DefaultPollInterval = 5 * time.Second

// pollerGrace bounds how long Run waits for the poller after the
// producer finishes; the poller only has one final poll left by then.
const pollerGrace = 10 * time.Second

// Result is the outcome of one pipeline run
type Result struct {
	Transcribed      int
	TranscribeErrors int
	Summarized       int
	SummarizeErrors  int
	Scored           int
	ScoreErrors      int
	Elapsed          time.Duration
}

// Options configures one pipeline run.
//
// TranscribeFn and SummarizeFn report per-item failures as return
// values; the pipeline never aborts other items because one failed.
// PollFn returns video IDs whose durable state says transcribed but
// not yet summarized; a nil PollFn disables the poller, so only
// SummarizeIDs reach the summarize pool.
//
// ScoreFn and ScorePollFn enable the optional scoring stage, which
// runs after the summarize pool has drained: ScorePollFn lists
// summaries without a quality score and ScoreFn scores one of them.
type Options struct {
	TranscribeIDs []string // need phase 1 (and then phase 2)
	SummarizeIDs  []string // already transcribed, summarize immediately

	TranscribeFn func(videoID string) (string, error)
	SummarizeFn  func(videoID string) (string, string, error)
	PollFn       func() ([]string, error)
	ScoreFn      func(videoID string) (string, error)
	ScorePollFn  func() ([]string, error)

	TranscribeWorkers int
	SummarizeWorkers  int
	InterDelay        time.Duration // pause between transcribe submissions
	PollInterval      time.Duration

	TranscribeProgress *progress.Counter
	SummarizeProgress  *progress.Counter
	ScoreProgress      *progress.Counter
}

// SplitWorkers splits a concurrency budget between transcribe and
// summarize workers. Transcribe gets the surplus because YouTube I/O
// is the rate-limited bottleneck; one summarize worker keeps up.
//
// 1 → (1,1), 2 → (1,1), 3 → (2,1), n → (n-1,1).
func SplitWorkers(total int) (transcribeWorkers, summarizeWorkers int) {
	if total <= 2 {
		return 1, 1
	}
	return total - 1, 1
}

// Run executes the transcribe→summarize pipeline and blocks until
// every transcription finished and the summarize pool fully drained.
// Each video is submitted for summarization at most once, whether it
// arrived via SummarizeIDs or was discovered by the poller.
func Run(opts Options) *Result {
	t0 := time.Now()
	if opts.TranscribeWorkers <= 0 {
		opts.TranscribeWorkers = 1
	}
	if opts.SummarizeWorkers <= 0 {
		opts.SummarizeWorkers = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	result := &Result{}
	var resultMu sync.Mutex

	// Only videos from this run's work set are ever summarized; the
	// poller may see unrelated transcripts in the store.
	summarizable := make(map[string]bool, len(opts.TranscribeIDs)+len(opts.SummarizeIDs))
	for _, id := range opts.TranscribeIDs {
		summarizable[id] = true
	}
	for _, id := range opts.SummarizeIDs {
		summarizable[id] = true
	}

	var submittedMu sync.Mutex
	submitted := make(map[string]bool, len(summarizable))

	slog.Info("pipeline starting",
		"transcribe", len(opts.TranscribeIDs),
		"summarize_now", len(opts.SummarizeIDs),
		"total", len(summarizable),
		"transcribe_workers", opts.TranscribeWorkers,
		"summarize_workers", opts.SummarizeWorkers)

	// Summarize pool: submissions spawn goroutines gated by a slot
	// channel; the WaitGroup is the drain barrier.
	slots := make(chan struct{}, opts.SummarizeWorkers)
	var summarizeWG sync.WaitGroup

	submitSummarize := func(videoID string) {
		summarizeWG.Add(1)
		go func() {
			defer summarizeWG.Done()
			slots <- struct{}{}
			defer func() { <-slots }()

			id, _, err := opts.SummarizeFn(videoID)
			resultMu.Lock()
			if err != nil {
				result.SummarizeErrors++
			} else {
				result.Summarized++
			}
			resultMu.Unlock()
			if opts.SummarizeProgress != nil {
				opts.SummarizeProgress.Tick("summarizing", id, err)
			}
		}()
	}

	// Immediate work: already transcribed, straight to summarize.
	for _, id := range opts.SummarizeIDs {
		submittedMu.Lock()
		submitted[id] = true
		submittedMu.Unlock()
		submitSummarize(id)
	}

	producerDone := make(chan struct{})
	pollerDone := make(chan struct{})
	if opts.PollFn == nil {
		close(pollerDone)
	}

	pollOnce := func() {
		ready, err := opts.PollFn()
		if err != nil {
			slog.Debug("pipeline poll failed, will retry", "error", err)
			return
		}
		var fresh []string
		submittedMu.Lock()
		for _, id := range ready {
			if summarizable[id] && !submitted[id] {
				submitted[id] = true
				fresh = append(fresh, id)
			}
		}
		submittedMu.Unlock()
		for _, id := range fresh {
			submitSummarize(id)
		}
	}

	if opts.PollFn != nil {
		go func() {
			defer close(pollerDone)
			for {
				select {
				case <-producerDone:
					// One final poll catches videos transcribed in the
					// gap before the signal was observed.
					pollOnce()
					return
				default:
				}
				pollOnce()

				// Sleep in small increments so producerDone is noticed
				// promptly instead of oversleeping a whole interval.
				deadline := time.Now().Add(opts.PollInterval)
			sleep:
				for {
					remain := time.Until(deadline)
					if remain <= 0 {
						break
					}
					if remain > 500*time.Millisecond {
						remain = 500 * time.Millisecond
					}
					select {
					case <-producerDone:
						break sleep
					case <-time.After(remain):
					}
				}
			}
		}()
	}

	// Producer: transcribe pool, blocking until every item resolved.
	// Per-item errors are tallied, never propagated, so one bad video
	// cannot cancel the group.
	g := new(errgroup.Group)
	g.SetLimit(opts.TranscribeWorkers)
	for i, videoID := range opts.TranscribeIDs {
		id := videoID
		g.Go(func() error {
			resolvedID, err := opts.TranscribeFn(id)
			resultMu.Lock()
			if err != nil {
				result.TranscribeErrors++
			} else {
				result.Transcribed++
			}
			resultMu.Unlock()
			if opts.TranscribeProgress != nil {
				opts.TranscribeProgress.Tick("transcribing", resolvedID, err)
			}
			return nil
		})
		if opts.InterDelay > 0 && i < len(opts.TranscribeIDs)-1 {
			time.Sleep(opts.InterDelay)
		}
	}
	_ = g.Wait()

	close(producerDone)
	select {
	case <-pollerDone:
	case <-time.After(opts.PollInterval + pollerGrace):
		slog.Warn("pipeline poller slow to stop, continuing to drain")
	}
	summarizeWG.Wait()

	// Optional scoring stage: runs once the summarize pool has fully
	// drained, so every summary this run produced is visible to the
	// score poll. Sequential on purpose, the calls are tiny.
	if opts.ScoreFn != nil && opts.ScorePollFn != nil {
		unscored, err := opts.ScorePollFn()
		if err != nil {
			slog.Debug("score poll failed, skipping scoring stage", "error", err)
			unscored = nil
		}
		if len(unscored) > 0 {
			slog.Info("pipeline scoring stage starting", "unscored", len(unscored))
		}
		scoreSeen := make(map[string]bool, len(unscored))
		for _, id := range unscored {
			if scoreSeen[id] {
				continue
			}
			scoreSeen[id] = true
			resolvedID, err := opts.ScoreFn(id)
			if err != nil {
				result.ScoreErrors++
			} else {
				result.Scored++
			}
			if opts.ScoreProgress != nil {
				opts.ScoreProgress.Tick("scoring", resolvedID, err)
			}
		}
		if result.Scored > 0 || result.ScoreErrors > 0 {
			slog.Info("pipeline scoring done", "scored", result.Scored, "errors", result.ScoreErrors)
		}
	}

	result.Elapsed = time.Since(t0)
	return result
}
