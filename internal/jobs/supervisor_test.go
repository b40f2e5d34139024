package jobs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ytscribe/ytscribe/internal/domain"
	"github.com/ytscribe/ytscribe/internal/store"
)

func newTestSupervisor(t *testing.T) (*Supervisor, *store.Store) {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return NewSupervisor(st, t.TempDir()), st
}

// deadPID returns the PID of a process that has already exited
func deadPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatal(err)
	}
	return pid
}

func TestNewJobID(t *testing.T) {
	id := NewJobID()
	if len(id) != 12 {
		t.Errorf("len(NewJobID()) = %d, want 12", len(id))
	}
	if id == NewJobID() {
		t.Error("NewJobID returned the same ID twice")
	}
}

func TestPIDAlive(t *testing.T) {
	if !PIDAlive(os.Getpid()) {
		t.Error("PIDAlive(self) = false, want true")
	}
	if PIDAlive(-1) {
		t.Error("PIDAlive(-1) = true, want false")
	}
	if PIDAlive(0) {
		t.Error("PIDAlive(0) = true, want false")
	}
	if PIDAlive(deadPID(t)) {
		t.Error("PIDAlive(exited process) = true, want false")
	}
}

func TestSupervisor_List_SelfHealsDeadJobs(t *testing.T) {
	sup, st := newTestSupervisor(t)

	if err := st.CreateJob(&domain.Job{ID: "deadjob00001", Status: domain.JobRunning, PID: deadPID(t)}); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateJob(&domain.Job{ID: "livejob00001", Status: domain.JobRunning, PID: os.Getpid()}); err != nil {
		t.Fatal(err)
	}

	list, err := sup.List("")
	if err != nil {
		t.Fatal(err)
	}
	byID := make(map[string]*domain.Job)
	for _, j := range list {
		byID[j.ID] = j
	}

	dead := byID["deadjob00001"]
	if dead.Status != domain.JobFailed {
		t.Errorf("dead job status = %q, want failed", dead.Status)
	}
	if dead.ErrorMessage != "process died unexpectedly" {
		t.Errorf("dead job message = %q", dead.ErrorMessage)
	}
	if byID["livejob00001"].Status != domain.JobRunning {
		t.Errorf("live job status = %q, want running", byID["livejob00001"].Status)
	}

	// The self-heal is durable, not display-only
	stored, err := st.GetJob("deadjob00001")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.JobFailed {
		t.Errorf("stored status = %q, want failed", stored.Status)
	}
}

func TestSupervisor_Get(t *testing.T) {
	sup, st := newTestSupervisor(t)

	if err := st.CreateJob(&domain.Job{ID: "abc123def456", Status: domain.JobRunning, PID: 1}); err != nil {
		t.Fatal(err)
	}

	got, err := sup.Get("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "abc123def456" {
		t.Errorf("ID = %q, want abc123def456", got.ID)
	}

	_, err = sup.Get("nope")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("error = %v, want *NotFoundError", err)
	}
}

func TestSupervisor_Stop_NotRunning(t *testing.T) {
	sup, st := newTestSupervisor(t)

	if err := st.CreateJob(&domain.Job{ID: "finishedjob1", Status: domain.JobRunning, PID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := st.FinalizeJob("finishedjob1", domain.JobCompleted, ""); err != nil {
		t.Fatal(err)
	}

	_, err := sup.Stop("finishedjob1")
	var nr *NotRunningError
	if !errors.As(err, &nr) {
		t.Fatalf("error = %v, want *NotRunningError", err)
	}
	if nr.Status != domain.JobCompleted {
		t.Errorf("Status = %q, want completed", nr.Status)
	}
}

func TestSupervisor_Stop_DeadProcessSelfHeals(t *testing.T) {
	sup, st := newTestSupervisor(t)

	if err := st.CreateJob(&domain.Job{ID: "staleJob0001", Status: domain.JobRunning, PID: deadPID(t)}); err != nil {
		t.Fatal(err)
	}

	job, err := sup.Stop("staleJob0001")
	if err != nil {
		t.Fatalf("Stop on dead job should not error, got %v", err)
	}
	if job.Status != domain.JobFailed {
		t.Errorf("Status = %q, want failed", job.Status)
	}
}

func TestSupervisor_Cleanup(t *testing.T) {
	sup, st := newTestSupervisor(t)
	logDir, err := sup.LogDir()
	if err != nil {
		t.Fatal(err)
	}

	oldLog := filepath.Join(logDir, "oldjob.log")
	if err := os.WriteFile(oldLog, []byte("log"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateJob(&domain.Job{ID: "oldjob000001", Status: domain.JobRunning, PID: 1, LogFile: oldLog}); err != nil {
		t.Fatal(err)
	}
	if err := st.FinalizeJob("oldjob000001", domain.JobCompleted, ""); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateJob(&domain.Job{ID: "runjob000001", Status: domain.JobRunning, PID: os.Getpid()}); err != nil {
		t.Fatal(err)
	}

	// Zero retention: everything terminal is past the window
	removed, err := sup.Cleanup(0)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(oldLog); !os.IsNotExist(err) {
		t.Error("log file should have been deleted")
	}
	if job, _ := st.GetJob("oldjob000001"); job != nil {
		t.Error("job row should have been deleted")
	}
	if job, _ := st.GetJob("runjob000001"); job == nil {
		t.Error("running job must survive cleanup")
	}

	// Recent jobs inside the retention window survive
	recentLog := filepath.Join(logDir, "recent.log")
	if err := os.WriteFile(recentLog, []byte("log"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateJob(&domain.Job{ID: "recentjob001", Status: domain.JobRunning, PID: 1, LogFile: recentLog}); err != nil {
		t.Fatal(err)
	}
	if err := st.FinalizeJob("recentjob001", domain.JobFailed, "x"); err != nil {
		t.Fatal(err)
	}
	removed, err = sup.Cleanup(DefaultRetentionDays * 24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestSupervisor_Attach_ReplaysAndFollowsUntilTerminal(t *testing.T) {
	sup, st := newTestSupervisor(t)

	logPath := filepath.Join(t.TempDir(), "attach.log")
	if err := os.WriteFile(logPath, []byte("line one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateJob(&domain.Job{ID: "attachjob001", Command: "yt-scribe summarize x", Status: domain.JobRunning, PID: os.Getpid(), LogFile: logPath}); err != nil {
		t.Fatal(err)
	}

	// Simulated worker: appends output, then finalizes the job.
	go func() {
		time.Sleep(100 * time.Millisecond)
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		f.WriteString("line two\n")
		f.Close()
		time.Sleep(100 * time.Millisecond)
		st.FinalizeJob("attachjob001", domain.JobCompleted, "")
	}()

	var out, info bytes.Buffer
	if err := sup.Attach(context.Background(), "attachjob", &out, &info); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if got := out.String(); got != "line one\nline two\n" {
		t.Errorf("streamed output = %q, want both lines", got)
	}
	if !strings.Contains(info.String(), "finished (status: completed)") {
		t.Errorf("info output missing finish line: %q", info.String())
	}
}

func TestSupervisor_Attach_FlushesBytesWrittenBeforeFinalize(t *testing.T) {
	sup, st := newTestSupervisor(t)

	// Job is already terminal: Attach must replay the full log and
	// return without tailing.
	logPath := filepath.Join(t.TempDir(), "done.log")
	if err := os.WriteFile(logPath, []byte("all output\nfinal line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateJob(&domain.Job{ID: "donejob00001", Status: domain.JobRunning, PID: 1, LogFile: logPath}); err != nil {
		t.Fatal(err)
	}
	if err := st.FinalizeJob("donejob00001", domain.JobStopped, ""); err != nil {
		t.Fatal(err)
	}

	var out, info bytes.Buffer
	if err := sup.Attach(context.Background(), "donejob00001", &out, &info); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if got := out.String(); got != "all output\nfinal line\n" {
		t.Errorf("streamed output = %q, want full log", got)
	}
	if !strings.Contains(info.String(), "status: stopped") {
		t.Errorf("info output missing status: %q", info.String())
	}
}

func TestSupervisor_Attach_CancelDetachesWithoutTouchingJob(t *testing.T) {
	sup, st := newTestSupervisor(t)

	logPath := filepath.Join(t.TempDir(), "running.log")
	if err := os.WriteFile(logPath, []byte("still going\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateJob(&domain.Job{ID: "runningjob01", Status: domain.JobRunning, PID: os.Getpid(), LogFile: logPath}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, info bytes.Buffer
	if err := sup.Attach(ctx, "runningjob01", &out, &info); err != nil {
		t.Fatalf("Attach after cancel: %v", err)
	}
	if !strings.Contains(info.String(), "detached") {
		t.Errorf("info output missing detach line: %q", info.String())
	}

	job, err := st.GetJob("runningjob01")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != domain.JobRunning {
		t.Errorf("detach changed job status to %s", job.Status)
	}
}

func TestSupervisor_Attach_UnknownJob(t *testing.T) {
	sup, _ := newTestSupervisor(t)

	var out, info bytes.Buffer
	err := sup.Attach(context.Background(), "nosuchjob", &out, &info)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}
