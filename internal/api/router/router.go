package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questlog/questlog-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "library-import-service",
		})
	})

	importHandler := handler.NewImportHandler(deps)

	// API v1 routes, all behind bearer auth
	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(deps.Resolver, deps.Logger))
	{
		imports := v1.Group("/library/import")
		{
			// POST /api/v1/library/import - Start an external-library import
			imports.POST("", importHandler.StartImport)

			// GET /api/v1/library/import - Most recent import job for the caller
			imports.GET("", importHandler.ImportStatus)

			// POST /api/v1/library/import/:job_id/process - Commit next batch
			imports.POST("/:job_id/process", importHandler.ProcessImport)

			// POST /api/v1/library/import/:job_id/cancel - Cancel an active job
			imports.POST("/:job_id/cancel", importHandler.CancelImport)
		}
	}

	return r
}
