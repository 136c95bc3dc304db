package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUsername is returned when the external username fails validation.
	ErrInvalidUsername = errors.New("invalid source username")

	// ErrJobNotFound is returned when a job does not exist or is not owned by the caller.
	ErrJobNotFound = errors.New("import job not found")

	// ErrProfileNotFound is returned when the external profile does not exist.
	ErrProfileNotFound = errors.New("external profile not found")

	// ErrJobNotActive is returned when cancelling a job that is already terminal.
	ErrJobNotActive = errors.New("import job is not active")

	// ErrActiveJobExists is returned by the store when the partial unique
	// index rejects a second non-terminal job for the same user.
	ErrActiveJobExists = errors.New("user already has an active import job")
)

// ConflictError reports that the user already has an active import job.
type ConflictError struct {
	ActiveJobID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("import already in progress: job %s", e.ActiveJobID)
}

// ScrapeError reports a failed scrape attempt along with the job that
// recorded it, so the caller can reference the failed job.
type ScrapeError struct {
	JobID string
	Err   error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape failed for job %s: %s", e.JobID, e.Err.Error())
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}
