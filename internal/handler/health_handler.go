package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marksheet/internal/config"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	model *config.ModelConfig
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(model *config.ModelConfig) *HealthHandler {
	return &HealthHandler{model: model}
}

// Liveness handles GET / and GET /healthz
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "service running"})
}

// Readiness handles GET /readyz. The service is ready once at least one model
// provider has credentials; without one every request degrades to the fallback.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	for _, p := range h.model.ProviderConfigs() {
		if p.Provider != "" && p.APIKey != "" {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": p.Provider})
			return
		}
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no model provider configured"})
}
