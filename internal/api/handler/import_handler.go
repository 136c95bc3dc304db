package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questlog/questlog-be/internal/api/dto"
	"github.com/questlog/questlog-be/internal/api/router/authctx"
	"github.com/questlog/questlog-be/internal/importer/domain"
)

// StartImport handles POST /api/v1/library/import
// Scrapes the external profile synchronously and stages the import payload.
func (h *ImportHandler) StartImport(c *gin.Context) {
	userID := authctx.UserID(c)

	var req dto.StartImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.svc.Start(c.Request.Context(), userID, req.Username)
	if err != nil {
		var conflict *domain.ConflictError
		var scrape *domain.ScrapeError
		switch {
		case errors.Is(err, domain.ErrInvalidUsername):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "username must be 1-32 characters of letters, digits, underscores or dashes",
			})
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":  "an import is already in progress",
				"job_id": conflict.ActiveJobID,
			})
		case errors.Is(err, domain.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "external profile not found",
			})
		case errors.As(err, &scrape):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":  "failed to scrape external collection",
				"job_id": scrape.JobID,
			})
		default:
			h.logger.Error("Failed to start import", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to start import",
			})
		}
		return
	}

	c.JSON(http.StatusOK, dto.StartImportResponse{
		JobID:  job.JobID,
		Total:  job.Total,
		Status: job.Status,
	})
}

// ImportStatus handles GET /api/v1/library/import
// Returns the caller's most recent import job, or null if none exists.
func (h *ImportHandler) ImportStatus(c *gin.Context) {
	userID := authctx.UserID(c)

	job, err := h.svc.Status(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get import status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get import status",
		})
		return
	}

	c.JSON(http.StatusOK, dto.ImportStatusResponse{
		Job: dto.FromJob(job),
	})
}

// ProcessImport handles POST /api/v1/library/import/:job_id/process
// Commits the next batch of the staged payload and returns the job view.
// Safe to call redundantly on a terminal job.
func (h *ImportHandler) ProcessImport(c *gin.Context) {
	userID := authctx.UserID(c)
	jobID := c.Param("job_id")

	job, err := h.svc.Process(c.Request.Context(), userID, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "import job not found",
			})
			return
		}
		h.logger.Error("Failed to process import batch",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process import batch",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// CancelImport handles POST /api/v1/library/import/:job_id/cancel
// Cancels an active import job.
func (h *ImportHandler) CancelImport(c *gin.Context) {
	userID := authctx.UserID(c)
	jobID := c.Param("job_id")

	err := h.svc.Cancel(c.Request.Context(), userID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "import job not found",
			})
		case errors.Is(err, domain.ErrJobNotActive):
			c.JSON(http.StatusConflict, gin.H{
				"error": "import job is not active",
			})
		default:
			h.logger.Error("Failed to cancel import",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to cancel import",
			})
		}
		return
	}

	c.JSON(http.StatusOK, dto.CancelImportResponse{Cancelled: true})
}
