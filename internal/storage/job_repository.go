package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cleanestdotsol/viralreels/internal/models"
)

// maxErrorLen bounds persisted error messages so an encoder stderr dump
// cannot blow up the row.
const maxErrorLen = 1000

const jobColumns = `id, user_id, script_id, status, file_path, error, publish,
	post_id, story_id, publish_error, posted_at, created_at, started_at, completed_at`

// JobRepository is the data access layer for render jobs.
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job in status pending and returns its id.
// This is the only work done on the triggering request path.
func (r *JobRepository) Create(ctx context.Context, userID, scriptID string, publish bool) (string, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, user_id, script_id, status, publish, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, scriptID, models.JobStatusPending, publish, now)
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	return id, nil
}

// Claim atomically transitions up to limit pending jobs to processing,
// stamping started_at, and returns them oldest first. The conditional
// update makes it safe against concurrent claim calls: a row already
// moved out of pending by another caller is not matched again.
func (r *JobRepository) Claim(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		return nil, nil
	}
	now := time.Now()

	rows, err := r.db.QueryContext(ctx, `
		UPDATE jobs SET status = ?, started_at = ?
		WHERE id IN (
			SELECT id FROM jobs
			WHERE status = ?
			ORDER BY created_at, id
			LIMIT ?
		) AND status = ?
		RETURNING `+jobColumns,
		models.JobStatusProcessing, now,
		models.JobStatusPending, limit,
		models.JobStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to claim jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// RequeueInterrupted returns processing jobs to pending. Called once at
// startup: with a single worker process, any row still in processing
// was interrupted by a previous run and would otherwise never be
// claimed again.
func (r *JobRepository) RequeueInterrupted(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, started_at = NULL
		WHERE status = ?`,
		models.JobStatusPending, models.JobStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Complete marks a processing job completed and records its artifact path.
func (r *JobRepository) Complete(ctx context.Context, id, filePath string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, file_path = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		models.JobStatusCompleted, filePath, now, id, models.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// Fail marks a processing job failed with a truncated error message.
func (r *JobRepository) Fail(ctx context.Context, id, message string) error {
	if len(message) > maxErrorLen {
		message = message[:maxErrorLen]
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		models.JobStatusFailed, message, now, id, models.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return nil
}

// RecordPublish stores the publish outcome for a completed job. The job
// status is untouched: rendering success and publish success are
// independent outcomes.
func (r *JobRepository) RecordPublish(ctx context.Context, id, postID, storyID string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET post_id = ?, story_id = ?, posted_at = ?, publish_error = ''
		WHERE id = ?`,
		postID, storyID, now, id)
	if err != nil {
		return fmt.Errorf("failed to record publish: %w", err)
	}
	return nil
}

// RecordPublishError stores a failed publish attempt without touching the
// job status.
func (r *JobRepository) RecordPublishError(ctx context.Context, id, message string) error {
	if len(message) > maxErrorLen {
		message = message[:maxErrorLen]
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET publish_error = ? WHERE id = ?`,
		message, id)
	if err != nil {
		return fmt.Errorf("failed to record publish error: %w", err)
	}
	return nil
}

// GetByID returns a job by id, or nil if it does not exist. Safe to call
// at any time, including mid-processing.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListByStatus returns jobs with the given status, newest first.
func (r *JobRepository) ListByStatus(ctx context.Context, status string, limit int) ([]models.Job, error) {
	// sqlite treats a negative LIMIT as unbounded.
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE status = ? ORDER BY created_at DESC LIMIT ?`,
		status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

// ListRecent returns the most recently created jobs.
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

// CountByStatus returns the number of jobs per status.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CleanupCompleted deletes terminal jobs older than the given number of
// days. Operator utility; the pipeline itself never deletes rows.
func (r *JobRepository) CleanupCompleted(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM jobs
		WHERE status IN (?, ?) AND completed_at IS NOT NULL AND completed_at < ?`,
		models.JobStatusCompleted, models.JobStatusFailed, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	err := row.Scan(
		&job.ID, &job.UserID, &job.ScriptID, &job.Status,
		&job.FilePath, &job.Error, &job.Publish,
		&job.PostID, &job.StoryID, &job.PublishError, &job.PostedAt,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func scanJobs(rows *sql.Rows) ([]models.Job, error) {
	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}
