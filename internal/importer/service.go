package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/questlog/questlog-be/internal/importer/domain"
)

const (
	// Source is the provenance tag recorded on every job this service creates.
	Source = "backloggd"

	// BatchSize bounds the work one Process call performs.
	BatchSize = 25

	// MaxUsernameLength bounds the accepted external username.
	MaxUsernameLength = 32
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// JobStore is the durable record of import attempts.
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.ImportJob) error
	GetJobByID(ctx context.Context, jobID string) (*domain.ImportJob, error)
	LatestJobForUser(ctx context.Context, userID, source string) (*domain.ImportJob, error)
	ActiveJobForUser(ctx context.Context, userID string) (*domain.ImportJob, error)
	MarkRunning(ctx context.Context, jobID string, payload domain.StagedPayload) error
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, reason string) error
	MarkCancelled(ctx context.Context, jobID string) error
	ApplyBatchResult(ctx context.Context, jobID string, res domain.BatchResult, completed bool) error
}

// LibraryStore commits staged entries into the user's library.
type LibraryStore interface {
	// UpsertEntry reports imported=true for a newly committed entry and
	// imported=false when the game was already in the library.
	UpsertEntry(ctx context.Context, userID string, entry domain.StagedGameEntry) (bool, error)
}

// CollectionFetcher scrapes the external collection site.
type CollectionFetcher interface {
	ProfileExists(ctx context.Context, username string) bool
	FetchCollection(ctx context.Context, username string) (*domain.Collection, error)
}

// Service drives an import job from creation to a terminal status. Progress
// is entirely caller-driven: Start scrapes and stages synchronously, then
// repeated Process calls each commit one bounded batch.
type Service struct {
	jobs    JobStore
	library LibraryStore
	fetcher CollectionFetcher
	logger  *slog.Logger
}

// NewService creates a new import Service.
func NewService(jobs JobStore, library LibraryStore, fetcher CollectionFetcher, logger *slog.Logger) *Service {
	return &Service{
		jobs:    jobs,
		library: library,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Start validates the external username, verifies the profile exists,
// creates the job and runs the full scrape synchronously. With zero entries
// the job completes immediately; otherwise the normalized payload is staged
// and the job is left running for Process calls.
func (s *Service) Start(ctx context.Context, userID, sourceUsername string) (*domain.ImportJob, error) {
	username := strings.TrimSpace(sourceUsername)
	if username == "" || len(username) > MaxUsernameLength || !usernamePattern.MatchString(username) {
		return nil, domain.ErrInvalidUsername
	}

	active, err := s.jobs.ActiveJobForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, &domain.ConflictError{ActiveJobID: active.JobID}
	}

	if !s.fetcher.ProfileExists(ctx, username) {
		return nil, domain.ErrProfileNotFound
	}

	job := &domain.ImportJob{
		JobID:          uuid.New().String(),
		UserID:         userID,
		Source:         Source,
		SourceUsername: username,
		Status:         domain.StatusScraping,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		if errors.Is(err, domain.ErrActiveJobExists) {
			// Lost a start/start race; report whichever job won.
			if winner, lookupErr := s.jobs.ActiveJobForUser(ctx, userID); lookupErr == nil && winner != nil {
				return nil, &domain.ConflictError{ActiveJobID: winner.JobID}
			}
		}
		return nil, err
	}

	s.logger.Info("Import job started",
		slog.String("job_id", job.JobID),
		slog.String("user_id", userID),
		slog.String("source_username", username),
	)

	collection, err := s.fetcher.FetchCollection(ctx, username)
	if err != nil {
		if markErr := s.jobs.MarkFailed(ctx, job.JobID, err.Error()); markErr != nil {
			s.logger.Error("Failed to record scrape failure",
				slog.String("job_id", job.JobID),
				slog.String("error", markErr.Error()),
			)
		}
		return nil, &domain.ScrapeError{JobID: job.JobID, Err: err}
	}

	payload := domain.StagedPayload(domain.MergeCollection(*collection))

	if len(payload) == 0 {
		if err := s.jobs.MarkCompleted(ctx, job.JobID); err != nil {
			return nil, err
		}
	} else {
		if err := s.jobs.MarkRunning(ctx, job.JobID, payload); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Import payload staged",
		slog.String("job_id", job.JobID),
		slog.Int("total", len(payload)),
	)

	return s.jobs.GetJobByID(ctx, job.JobID)
}

// Status returns the user's most recent import job for this source, or nil
// if the user never started one. Read-only.
func (s *Service) Status(ctx context.Context, userID string) (*domain.ImportJob, error) {
	return s.jobs.LatestJobForUser(ctx, userID, Source)
}

// Process commits the next batch of the staged payload. Jobs in any status
// other than running are returned unchanged, so redundant calls after a
// terminal transition are harmless. Each item commits independently: an
// already-imported game counts as skipped, any other persistence error
// counts as failed, and neither aborts the batch.
func (s *Service) Process(ctx context.Context, userID, jobID string) (*domain.ImportJob, error) {
	job, err := s.getOwnedJob(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != domain.StatusRunning {
		return job, nil
	}

	end := job.Progress + BatchSize
	if end > job.Total {
		end = job.Total
	}
	if job.Progress >= end || job.Progress >= len(job.Payload) {
		// Payload already exhausted without a transition; finalize.
		if err := s.jobs.MarkCompleted(ctx, job.JobID); err != nil {
			return nil, err
		}
		return s.jobs.GetJobByID(ctx, job.JobID)
	}

	var res domain.BatchResult
	for _, entry := range job.Payload[job.Progress:end] {
		imported, err := s.library.UpsertEntry(ctx, job.UserID, entry)
		switch {
		case err != nil:
			res.Failed++
			s.logger.Warn("Failed to commit library entry",
				slog.String("job_id", job.JobID),
				slog.Int64("external_game_id", entry.ExternalGameID),
				slog.String("error", err.Error()),
			)
		case imported:
			res.Imported++
		default:
			res.Skipped++
		}
		res.Advanced++
	}

	completed := job.Progress+res.Advanced >= job.Total
	if err := s.jobs.ApplyBatchResult(ctx, job.JobID, res, completed); err != nil {
		return nil, err
	}

	s.logger.Info("Import batch committed",
		slog.String("job_id", job.JobID),
		slog.Int("advanced", res.Advanced),
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Bool("completed", completed),
	)

	return s.jobs.GetJobByID(ctx, job.JobID)
}

// Cancel transitions an active job to cancelled. Terminal jobs reject with
// ErrJobNotActive.
func (s *Service) Cancel(ctx context.Context, userID, jobID string) error {
	job, err := s.getOwnedJob(ctx, userID, jobID)
	if err != nil {
		return err
	}

	if !job.Active() {
		return domain.ErrJobNotActive
	}

	if err := s.jobs.MarkCancelled(ctx, job.JobID); err != nil {
		return err
	}

	s.logger.Info("Import job cancelled",
		slog.String("job_id", job.JobID),
		slog.String("user_id", userID),
	)

	return nil
}

// getOwnedJob loads a job and hides other users' jobs behind not-found.
func (s *Service) getOwnedJob(ctx context.Context, userID, jobID string) (*domain.ImportJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, fmt.Errorf("%w: malformed job id", domain.ErrJobNotFound)
	}

	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.ErrJobNotFound
	}

	return job, nil
}
