package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spotiscience/internal/repositories"
	"spotiscience/internal/services"
)

// HealthHandler reports whether the store and the platform are reachable
type HealthHandler struct {
	acquisition *services.AcquisitionService
	records     repositories.RecordRepository
	timeout     time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(acquisition *services.AcquisitionService, records repositories.RecordRepository) *HealthHandler {
	return &HealthHandler{acquisition: acquisition, records: records, timeout: 5 * time.Second}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if count, err := h.records.Count(ctx); err != nil {
		checks["store"] = err.Error()
		healthy = false
	} else {
		checks["store"] = "ok"
		checks["records"] = count
	}

	if err := h.acquisition.Health(ctx); err != nil {
		checks["platform"] = err.Error()
		healthy = false
	} else {
		checks["platform"] = "ok"
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}
