package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ytscribe/ytscribe/internal/domain"
)

// CreateJob inserts a new job row. The caller sets pid to -1 when the
// worker process has not been spawned yet, so that a spawn failure
// still leaves an inspectable record.
func (s *Store) CreateJob(job *domain.Job) error {
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, command, status, pid, log_file, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		job.ID,
		job.Command,
		string(job.Status),
		job.PID,
		job.LogFile,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return nil
}

// UpdateJobPID sets the real pid once the worker process exists
func (s *Store) UpdateJobPID(id string, pid int) error {
	_, err := s.db.Exec(`UPDATE jobs SET pid = ? WHERE id = ?`, pid, id)
	if err != nil {
		return fmt.Errorf("update pid for job %s: %w", id, err)
	}
	return nil
}

// GetJob retrieves a job by exact ID first, falling back to a prefix
// match against the most recently started candidate. Returns nil when
// no job matches.
func (s *Store) GetJob(idOrPrefix string) (*domain.Job, error) {
	row := s.db.QueryRow(`
		SELECT id, command, status, pid, log_file, started_at, finished_at, total, done, errors, error_message
		FROM jobs WHERE id = ?
	`, idOrPrefix)

	job, err := scanJob(row)
	if err == nil {
		return job, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get job %s: %w", idOrPrefix, err)
	}

	row = s.db.QueryRow(`
		SELECT id, command, status, pid, log_file, started_at, finished_at, total, done, errors, error_message
		FROM jobs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 1
	`, idOrPrefix+"%")

	job, err = scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", idOrPrefix, err)
	}
	return job, nil
}

// ListJobs returns the most recent jobs ordered by start time
// descending, optionally filtered by status.
func (s *Store) ListJobs(statusFilter domain.JobStatus, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, command, status, pid, log_file, started_at, finished_at, total, done, errors, error_message
		FROM jobs`
	var args []interface{}
	if statusFilter != "" {
		query += " WHERE status = ?"
		args = append(args, string(statusFilter))
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateJobProgress performs a partial update of only the supplied
// counter fields. Called repeatedly by the owning worker's progress
// counter.
func (s *Store) UpdateJobProgress(id string, done, errors, total *int) error {
	var parts []string
	var args []interface{}
	if total != nil {
		parts = append(parts, "total = ?")
		args = append(args, *total)
	}
	if done != nil {
		parts = append(parts, "done = ?")
		args = append(args, *done)
	}
	if errors != nil {
		parts = append(parts, "errors = ?")
		args = append(args, *errors)
	}
	if len(parts) == 0 {
		return nil
	}

	query := "UPDATE jobs SET " + parts[0]
	for _, p := range parts[1:] {
		query += ", " + p
	}
	query += " WHERE id = ?"
	args = append(args, id)

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("update progress for job %s: %w", id, err)
	}
	return nil
}

// FinalizeJob marks a job as finished with the given terminal status.
// An empty errorMessage is stored as NULL; stopped jobs carry none.
func (s *Store) FinalizeJob(id string, status domain.JobStatus, errorMessage string) error {
	var msg interface{}
	if errorMessage != "" {
		msg = errorMessage
	}
	_, err := s.db.Exec(`
		UPDATE jobs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?
	`, string(status), time.Now().UTC(), msg, id)
	if err != nil {
		return fmt.Errorf("finalize job %s: %w", id, err)
	}
	return nil
}

// MarkJobStale rewrites a running job whose process died to failed.
// The status guard makes the self-heal a no-op if the worker finalized
// in the meantime.
func (s *Store) MarkJobStale(id string) error {
	_, err := s.db.Exec(`
		UPDATE jobs SET status = ?, finished_at = ?, error_message = 'process died unexpectedly'
		WHERE id = ? AND status = ?
	`, string(domain.JobFailed), time.Now().UTC(), id, string(domain.JobRunning))
	if err != nil {
		return fmt.Errorf("mark job %s stale: %w", id, err)
	}
	return nil
}

// ListFinishedBefore returns terminal jobs whose finished_at is older
// than the cutoff.
func (s *Store) ListFinishedBefore(cutoff time.Time) ([]*domain.Job, error) {
	rows, err := s.db.Query(`
		SELECT id, command, status, pid, log_file, started_at, finished_at, total, done, errors, error_message
		FROM jobs WHERE status != ? AND finished_at IS NOT NULL AND finished_at < ?
	`, string(domain.JobRunning), cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("list finished jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job row
func (s *Store) DeleteJob(id string) error {
	_, err := s.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var status string
	var finishedAt sql.NullTime
	var errorMessage sql.NullString

	err := row.Scan(
		&job.ID, &job.Command, &status, &job.PID, &job.LogFile,
		&job.StartedAt, &finishedAt, &job.Total, &job.Done, &job.Errors,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	job.Status = domain.JobStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	if errorMessage.Valid {
		job.ErrorMessage = errorMessage.String
	}
	return &job, nil
}
