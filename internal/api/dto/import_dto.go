package dto

import (
	"time"

	"github.com/questlog/questlog-be/internal/importer/domain"
)

type StartImportRequest struct {
	Username string `json:"username" binding:"required"`
}

type StartImportResponse struct {
	JobID  string `json:"job_id"`
	Total  int    `json:"total"`
	Status string `json:"status"`
}

type ImportJobDTO struct {
	JobID          string `json:"job_id"`
	SourceUsername string `json:"source_username"`
	Status         string `json:"status"`
	Total          int    `json:"total"`
	Progress       int    `json:"progress"`
	Imported       int    `json:"imported"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	Error          string `json:"error,omitempty"`
	CreatedAt      string `json:"created_at"`
	FinishedAt     string `json:"finished_at,omitempty"`
}

type ImportStatusResponse struct {
	Job *ImportJobDTO `json:"job"`
}

type CancelImportResponse struct {
	Cancelled bool `json:"cancelled"`
}

// FromJob builds the public view of a job. The staged payload never crosses
// the API boundary.
func FromJob(job *domain.ImportJob) *ImportJobDTO {
	if job == nil {
		return nil
	}

	d := &ImportJobDTO{
		JobID:          job.JobID,
		SourceUsername: job.SourceUsername,
		Status:         job.Status,
		Total:          job.Total,
		Progress:       job.Progress,
		Imported:       job.Imported,
		Skipped:        job.Skipped,
		Failed:         job.Failed,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
	}
	if job.ErrorMessage.Valid {
		d.Error = job.ErrorMessage.String
	}
	if job.FinishedAt.Valid {
		d.FinishedAt = job.FinishedAt.Time.Format(time.RFC3339)
	}

	return d
}
