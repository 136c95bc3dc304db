package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/questlog/questlog-be/internal/importer/domain"
)

const pqUniqueViolation = "23505"

const jobColumns = `
	job_id, user_id, source, source_username, status, payload,
	total, progress, imported, skipped, failed,
	error_message, created_at, finished_at
`

// JobStorage handles all import_jobs persistence.
type JobStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewJobStorage creates a new JobStorage instance.
func NewJobStorage(db *sqlx.DB, logger *slog.Logger) *JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

// CreateJob inserts a new job row. The partial unique index on active jobs
// turns a start/start race for the same user into ErrActiveJobExists.
func (s *JobStorage) CreateJob(ctx context.Context, job *domain.ImportJob) error {
	query := `
		INSERT INTO import_jobs (
			job_id, user_id, source, source_username, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.UserID,
		job.Source,
		job.SourceUsername,
		job.Status,
		job.CreatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.ErrActiveJobExists
		}
		return fmt.Errorf("failed to create import job: %w", err)
	}

	return nil
}

// GetJobByID retrieves one job, payload included.
func (s *JobStorage) GetJobByID(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	query := `SELECT ` + jobColumns + ` FROM import_jobs WHERE job_id = $1`

	var job domain.ImportJob
	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}

	return &job, nil
}

// LatestJobForUser returns the user's most recent job for one source, or
// nil if the user never started an import from it.
func (s *JobStorage) LatestJobForUser(ctx context.Context, userID, source string) (*domain.ImportJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM import_jobs
		WHERE user_id = $1 AND source = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var job domain.ImportJob
	err := s.db.GetContext(ctx, &job, query, userID, source)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest import job: %w", err)
	}

	return &job, nil
}

// ActiveJobForUser returns the user's job in a non-terminal status, or nil.
func (s *JobStorage) ActiveJobForUser(ctx context.Context, userID string) (*domain.ImportJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM import_jobs
		WHERE user_id = $1 AND status IN ($2, $3)
		LIMIT 1
	`

	var job domain.ImportJob
	err := s.db.GetContext(ctx, &job, query, userID, domain.StatusScraping, domain.StatusRunning)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active import job: %w", err)
	}

	return &job, nil
}

// MarkRunning stages the scraped payload and moves the job to running.
func (s *JobStorage) MarkRunning(ctx context.Context, jobID string, payload domain.StagedPayload) error {
	query := `
		UPDATE import_jobs
		SET status = $1, payload = $2, total = $3
		WHERE job_id = $4
	`

	_, err := s.db.ExecContext(ctx, query, domain.StatusRunning, payload, len(payload), jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	return nil
}

// MarkCompleted finalizes the job and clears the staged payload.
func (s *JobStorage) MarkCompleted(ctx context.Context, jobID string) error {
	query := `
		UPDATE import_jobs
		SET status = $1, payload = NULL, finished_at = NOW()
		WHERE job_id = $2
	`

	_, err := s.db.ExecContext(ctx, query, domain.StatusCompleted, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	return nil
}

// MarkFailed records the failure reason, finalizes the job and clears the
// staged payload.
func (s *JobStorage) MarkFailed(ctx context.Context, jobID, reason string) error {
	query := `
		UPDATE import_jobs
		SET status = $1, error_message = $2, payload = NULL, finished_at = NOW()
		WHERE job_id = $3
	`

	_, err := s.db.ExecContext(ctx, query, domain.StatusFailed, reason, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	s.logger.Warn("Import job failed",
		slog.String("job_id", jobID),
		slog.String("reason", reason),
	)

	return nil
}

// MarkCancelled cancels the job only while it is still active, so a cancel
// racing a terminal transition loses. Zero rows affected means the job was
// no longer cancellable.
func (s *JobStorage) MarkCancelled(ctx context.Context, jobID string) error {
	query := `
		UPDATE import_jobs
		SET status = $1, payload = NULL, finished_at = NOW()
		WHERE job_id = $2 AND status IN ($3, $4)
	`

	result, err := s.db.ExecContext(ctx, query, domain.StatusCancelled, jobID, domain.StatusScraping, domain.StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotActive
	}

	return nil
}

// ApplyBatchResult advances the cursor and counters in a single update so
// concurrent process calls for the same job never lose increments. When the
// batch exhausted the payload the job is finalized in the same statement.
func (s *JobStorage) ApplyBatchResult(ctx context.Context, jobID string, res domain.BatchResult, completed bool) error {
	query := `
		UPDATE import_jobs
		SET progress = progress + $1,
			imported = imported + $2,
			skipped = skipped + $3,
			failed = failed + $4,
			status = CASE WHEN $5 THEN $6 ELSE status END,
			payload = CASE WHEN $5 THEN NULL ELSE payload END,
			finished_at = CASE WHEN $5 THEN NOW() ELSE finished_at END
		WHERE job_id = $7 AND status = $8
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		res.Advanced,
		res.Imported,
		res.Skipped,
		res.Failed,
		completed,
		domain.StatusCompleted,
		jobID,
		domain.StatusRunning,
	)

	if err != nil {
		return fmt.Errorf("failed to apply batch result: %w", err)
	}

	return nil
}

// LibraryStorage handles the user's library table.
type LibraryStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewLibraryStorage creates a new LibraryStorage instance.
func NewLibraryStorage(db *sqlx.DB, logger *slog.Logger) *LibraryStorage {
	return &LibraryStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertEntry commits one staged entry into the user's library. The insert
// is conflict-tolerant on (user_id, external_game_id): a game already in the
// library reports imported=false so the caller counts it as skipped.
func (l *LibraryStorage) UpsertEntry(ctx context.Context, userID string, entry domain.StagedGameEntry) (bool, error) {
	status := "unplayed"
	if entry.Played {
		status = "played"
	}

	query := `
		INSERT INTO library_entries (
			user_id, external_game_id, slug, title, cover, rating,
			status, playing, backlog, wishlist, created_at
		) VALUES (
			$1, $2, $3, $4, NULLIF($5, ''), $6,
			$7, $8, $9, $10, NOW()
		)
		ON CONFLICT (user_id, external_game_id) DO NOTHING
	`

	result, err := l.db.ExecContext(
		ctx,
		query,
		userID,
		entry.ExternalGameID,
		entry.Slug,
		entry.Title,
		entry.Cover,
		entry.Rating,
		status,
		entry.Playing,
		entry.Backlog,
		entry.Wishlist,
	)

	if err != nil {
		return false, fmt.Errorf("failed to upsert library entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}
