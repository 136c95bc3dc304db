package handler

import (
	"log/slog"

	"github.com/questlog/questlog-be/internal/identity"
	"github.com/questlog/questlog-be/internal/importer"
)

// Dependencies holds all dependencies needed by handlers.
type Dependencies struct {
	Logger   *slog.Logger
	Importer *importer.Service
	Resolver identity.Resolver
}

// ImportHandler handles library import HTTP requests.
type ImportHandler struct {
	logger *slog.Logger
	svc    *importer.Service
}

// NewImportHandler creates a new ImportHandler instance.
func NewImportHandler(deps *Dependencies) *ImportHandler {
	return &ImportHandler{
		logger: deps.Logger,
		svc:    deps.Importer,
	}
}
