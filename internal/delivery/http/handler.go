package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/catalogbridge/migrator/internal/domain"
)

// ProgressProvider reports the state of the running migration
type ProgressProvider interface {
	Progress() domain.Progress
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	runID    string
	progress ProgressProvider
	gatherer prometheus.Gatherer
}

// NewHandler creates a new HTTP handler. gatherer may be nil, in which case
// /metrics is not served.
func NewHandler(runID string, progress ProgressProvider, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		runID:    runID,
		progress: progress,
		gatherer: gatherer,
	}
}

// HealthCheck returns the health status of the migrator
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "catalog-migrator",
		"runId":   h.runID,
	})
}

// MigrationStatus returns progress counters of the current run
func (h *Handler) MigrationStatus(c *gin.Context) {
	if h.progress == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "migration not started"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runId":    h.runID,
		"progress": h.progress.Progress(),
	})
}

// Metrics exposes the run collectors in the prometheus text format
func (h *Handler) Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
