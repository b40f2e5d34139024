package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/jobs"
	"github.com/ytscribe/ytscribe/internal/notify"
)

// maxErrorMessageLen caps the error text stored on a failed job row
const maxErrorMessageLen = 500

func backgroundRequested() bool {
	return bgFlag || bgAliasFlag
}

// dispatchBackground re-executes the current invocation as a detached
// worker and prints how to manage it.
func dispatchBackground(a *app) error {
	jobID, warning, err := a.supervisor.Launch(os.Args)
	if err != nil {
		return err
	}
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	fmt.Printf("Job started: %s\n", short)
	if warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	if !quiet {
		fmt.Printf("  attach: yt-scribe jobs attach %s\n", short)
		fmt.Printf("  stop:   yt-scribe jobs stop %s\n", short)
	}
	return nil
}

// runAsWorker wraps fn with the worker lifecycle: startup sentinel,
// SIGTERM-to-stopped handler, and exactly one terminal finalization
// (completed, failed with a truncated message, or stopped via the
// signal path).
func runAsWorker(a *app, jobID string, fn func() error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		<-sigCh
		if err := a.store.FinalizeJob(jobID, domain.JobStopped, ""); err != nil {
			slog.Error("finalizing stopped job", "job", jobID, "error", err)
		}
		notifyJob(a, jobID)
		os.Exit(0)
	}()

	// The launcher's health check waits for this line in the log.
	slog.Info(jobs.StartSentinel, "job", jobID)

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("panic: %v", r)
			}
		}()
		runErr = fn()
	}()

	if runErr != nil {
		if err := a.store.FinalizeJob(jobID, domain.JobFailed, truncateMessage(runErr.Error())); err != nil {
			slog.Error("finalizing failed job", "job", jobID, "error", err)
		}
		notifyJob(a, jobID)
		return runErr
	}

	// The SIGTERM path may have finalized already; only a job still
	// marked running belongs to this completion.
	job, err := a.store.GetJob(jobID)
	if err != nil {
		return err
	}
	if job != nil && job.Status == domain.JobRunning {
		if err := a.store.FinalizeJob(jobID, domain.JobCompleted, ""); err != nil {
			return err
		}
	}
	notifyJob(a, jobID)
	return nil
}

// notifyJob sends the configured completion notification. Best-effort:
// a notification failure never affects the job outcome.
func notifyJob(a *app, jobID string) {
	job, err := a.store.GetJob(jobID)
	if err != nil || job == nil || !job.Status.IsTerminal() {
		return
	}
	if err := notify.FromConfig(a.cfg.Notifications).Send(notify.ForJob(job)); err != nil {
		slog.Debug("notification failed", "job", jobID, "error", err)
	}
}

func truncateMessage(s string) string {
	if len(s) > maxErrorMessageLen {
		return s[:maxErrorMessageLen]
	}
	return s
}
