// Package jobs manages detached background jobs: launch, list,
// attach, stop, clean. Launcher, worker, and lister processes
// coordinate only through the shared jobs table and per-job log files.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/store"
)

// StartSentinel is written to the job log as soon as a worker begins
// executing; the launcher's health check looks for it.
const StartSentinel = "worker started"

const (
	listLimit = 20

	// Bounded post-launch health check: poll the log for the startup
	// sentinel before declaring the launch healthy.
	healthCheckAttempts = 25
	healthCheckInterval = 200 * time.Millisecond

	attachPollInterval = 500 * time.Millisecond

	// DefaultRetentionDays is how long terminal jobs are kept before
	// Cleanup removes them.
	DefaultRetentionDays = 7
)

// WorkerFlag marks a child process as the worker for a job; the
// launcher substitutes it for the --bg flag when re-executing the
// invocation.
const WorkerFlag = "--bg-worker"

// NotFoundError indicates no job matched the given ID or prefix
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.ID)
}

// NotRunningError indicates an operation that requires a running job
// hit a terminal one.
type NotRunningError struct {
	ID     string
	Status domain.JobStatus
}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("job %s is not running (status: %s)", e.ID, e.Status)
}

// PermissionError indicates the job's process exists but cannot be
// signaled by this user.
type PermissionError struct {
	PID int
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot signal PID %d (permission denied)", e.PID)
}

// Supervisor launches and manages background jobs against a shared
// store and a per-job log directory under dataDir.
type Supervisor struct {
	store   *store.Store
	dataDir string
}

// NewSupervisor creates a Supervisor
func NewSupervisor(st *store.Store, dataDir string) *Supervisor {
	return &Supervisor{store: st, dataDir: dataDir}
}

// NewJobID generates a 12-hex-char unique job ID
func NewJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// LogDir returns the job log directory, creating it if needed
func (s *Supervisor) LogDir() (string, error) {
	dir := filepath.Join(s.dataDir, "jobs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating jobs dir: %w", err)
	}
	return dir, nil
}

// PIDAlive checks whether a process with the given PID is running.
// Signal 0 probes existence without delivering anything; a permission
// error means the process exists but belongs to someone else, which
// still counts as alive.
func PIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// Launch re-executes the current invocation as a detached worker
// process and returns the new job ID. The job row is written before
// the spawn so a spawn failure still leaves an inspectable record.
// The returned warning is non-empty when the bounded startup health
// check could not confirm the worker began.
func (s *Supervisor) Launch(argv []string) (jobID, warning string, err error) {
	jobID = NewJobID()
	logDir, err := s.LogDir()
	if err != nil {
		return "", "", err
	}
	logPath := filepath.Join(logDir, jobID+".log")

	exe, err := os.Executable()
	if err != nil {
		return "", "", fmt.Errorf("resolving executable: %w", err)
	}

	var childArgs []string
	var display []string
	for _, arg := range argv[1:] {
		if arg == "--bg" || arg == "--background" {
			continue
		}
		childArgs = append(childArgs, arg)
		display = append(display, arg)
	}
	childArgs = append(childArgs, WorkerFlag, jobID)

	job := &domain.Job{
		ID:      jobID,
		Command: strings.Join(display, " "),
		Status:  domain.JobRunning,
		PID:     -1,
		LogFile: logPath,
	}
	if err := s.store.CreateJob(job); err != nil {
		return "", "", err
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("opening job log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(exe, childArgs...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	// New session so the worker survives the parent's terminal.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return "", "", fmt.Errorf("spawning worker: %w", err)
	}
	pid := cmd.Process.Pid
	if err := s.store.UpdateJobPID(jobID, pid); err != nil {
		return "", "", err
	}
	if err := cmd.Process.Release(); err != nil {
		return "", "", fmt.Errorf("detaching worker: %w", err)
	}

	return jobID, s.checkStartup(logPath, pid), nil
}

// checkStartup polls the log file for the startup sentinel. The
// launch already succeeded by the time this runs; a non-empty return
// is only a warning for the operator.
func (s *Supervisor) checkStartup(logPath string, pid int) string {
	for i := 0; i < healthCheckAttempts; i++ {
		data, err := os.ReadFile(logPath)
		if err == nil && strings.Contains(string(data), StartSentinel) {
			return ""
		}
		if !PIDAlive(pid) {
			return fmt.Sprintf("worker exited before reporting startup; check the log: %s", logPath)
		}
		time.Sleep(healthCheckInterval)
	}
	return "worker slow to initialize; it may still be starting"
}

// List returns the most recent jobs, optionally filtered by status.
// Running jobs whose process died are self-healed to failed before
// being returned, so stale state never reaches the operator.
func (s *Supervisor) List(statusFilter domain.JobStatus) ([]*domain.Job, error) {
	jobsList, err := s.store.ListJobs(statusFilter, listLimit)
	if err != nil {
		return nil, err
	}
	for _, job := range jobsList {
		if job.Status == domain.JobRunning && !PIDAlive(job.PID) {
			if err := s.store.MarkJobStale(job.ID); err != nil {
				return nil, err
			}
			job.Status = domain.JobFailed
			job.ErrorMessage = "process died unexpectedly"
		}
	}
	return jobsList, nil
}

// Get resolves a job by exact ID or unique prefix
func (s *Supervisor) Get(idOrPrefix string) (*domain.Job, error) {
	job, err := s.store.GetJob(idOrPrefix)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &NotFoundError{ID: idOrPrefix}
	}
	return job, nil
}

// Stop requests termination of a running job by sending SIGTERM to
// its worker; the worker's own signal handler finalizes the job as
// stopped. If the process is already dead the job is self-healed to
// failed and returned without error — stopping a dead job is not a
// failure for the caller. Permission to signal is a hard error.
func (s *Supervisor) Stop(idOrPrefix string) (*domain.Job, error) {
	job, err := s.Get(idOrPrefix)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobRunning {
		return nil, &NotRunningError{ID: job.ShortID(), Status: job.Status}
	}

	if !PIDAlive(job.PID) {
		if err := s.store.MarkJobStale(job.ID); err != nil {
			return nil, err
		}
		job.Status = domain.JobFailed
		job.ErrorMessage = "process died unexpectedly"
		return job, nil
	}

	if err := syscall.Kill(job.PID, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.EPERM) {
			return nil, &PermissionError{PID: job.PID}
		}
		if errors.Is(err, syscall.ESRCH) {
			if herr := s.store.MarkJobStale(job.ID); herr != nil {
				return nil, herr
			}
			job.Status = domain.JobFailed
			job.ErrorMessage = "process died unexpectedly"
			return job, nil
		}
		return nil, fmt.Errorf("signaling PID %d: %w", job.PID, err)
	}
	return job, nil
}

// Attach streams a job's log to out: the existing contents first,
// then newly appended bytes until the job leaves the running state.
// Cancelling ctx detaches cleanly without affecting the job. Status
// lines go to info so piped output stays clean.
func (s *Supervisor) Attach(ctx context.Context, idOrPrefix string, out, info io.Writer) error {
	job, err := s.Get(idOrPrefix)
	if err != nil {
		return err
	}

	f, err := os.Open(job.LogFile)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(info, "attached to job %s (PID %d), Ctrl-C to detach\n", job.ShortID(), job.PID)
	fmt.Fprintf(info, "command: %s\n---\n", job.Command)

	buf := make([]byte, 32*1024)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
			continue
		}
		if rerr != nil && rerr != io.EOF {
			return rerr
		}

		current, err := s.store.GetJob(job.ID)
		if err != nil {
			return err
		}
		if current == nil || current.Status != domain.JobRunning {
			// Flush whatever landed between the last read and the
			// status change.
			if _, err := io.Copy(out, f); err != nil {
				return err
			}
			status := domain.JobStatus("removed")
			if current != nil {
				status = current.Status
			}
			fmt.Fprintf(info, "\n--- job %s finished (status: %s)\n", job.ShortID(), status)
			return nil
		}

		select {
		case <-ctx.Done():
			fmt.Fprintf(info, "\n--- detached from job %s (still running in background)\n", job.ShortID())
			return nil
		case <-time.After(attachPollInterval):
		}
	}
}

// Cleanup deletes terminal jobs that finished before the retention
// window, removing each job's log file first. Returns the number of
// jobs removed.
func (s *Supervisor) Cleanup(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	old, err := s.store.ListFinishedBefore(cutoff)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, job := range old {
		if err := os.Remove(job.LogFile); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing log for job %s: %w", job.ShortID(), err)
		}
		if err := s.store.DeleteJob(job.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
