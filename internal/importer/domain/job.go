package domain

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Import job status constants. A job is created in "scraping", moves to
// "running" once a non-empty payload is staged, and ends in one of the
// three terminal statuses.
const (
	StatusScraping  = "scraping"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// IsTerminal reports whether no further transition is defined for status.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// StagedGameEntry is one normalized record scraped from the external
// collection site, not yet committed to the user's library.
type StagedGameEntry struct {
	ExternalGameID int64  `json:"external_game_id"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	Cover          string `json:"cover,omitempty"`
	Rating         *int   `json:"rating,omitempty"`
	Played         bool   `json:"played"`
	Playing        bool   `json:"playing"`
	Backlog        bool   `json:"backlog"`
	Wishlist       bool   `json:"wishlist"`
}

// StagedPayload is the ordered staged entry list, stored inline on the job
// row as JSONB.
type StagedPayload []StagedGameEntry

// Value implements driver.Valuer so sqlx can write the payload column.
func (p StagedPayload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for reading the payload column back.
func (p *StagedPayload) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported staged payload type %T", src)
	}
	return json.Unmarshal(b, p)
}

// ImportJob is one attempt to import a user's external collection.
type ImportJob struct {
	JobID          string         `db:"job_id"`
	UserID         string         `db:"user_id"`
	Source         string         `db:"source"`
	SourceUsername string         `db:"source_username"`
	Status         string         `db:"status"`
	Payload        StagedPayload  `db:"payload"`
	Total          int            `db:"total"`
	Progress       int            `db:"progress"`
	Imported       int            `db:"imported"`
	Skipped        int            `db:"skipped"`
	Failed         int            `db:"failed"`
	ErrorMessage   sql.NullString `db:"error_message"`
	CreatedAt      time.Time      `db:"created_at"`
	FinishedAt     sql.NullTime   `db:"finished_at"`
}

// Active reports whether the job still accepts transitions.
func (j *ImportJob) Active() bool {
	return j.Status == StatusScraping || j.Status == StatusRunning
}

// BatchResult aggregates the per-item outcomes of one committed batch.
type BatchResult struct {
	Advanced int
	Imported int
	Skipped  int
	Failed   int
}
