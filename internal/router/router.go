package router

import (
	"github.com/gin-gonic/gin"

	"marksheet/internal/config"
	"marksheet/internal/handler"
	"marksheet/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	extractionH *handler.ExtractionHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/", healthH.Liveness)
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	limit := middleware.BodyLimit(cfg.Upload.MaxBytes())

	// Unversioned alias kept for existing clients
	r.POST("/extract", limit, extractionH.Extract)

	v1 := r.Group("/api/v1")
	v1.Use(limit)
	v1.POST("/extract", extractionH.Extract)
	v1.POST("/extract/export", extractionH.Export)

	return r
}
