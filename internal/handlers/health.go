package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/issuecal/internal/monitoring"
)

// HealthHandler exposes liveness and readiness reports.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	if manager == nil {
		manager = monitoring.NewHealthManager()
	}
	return &HealthHandler{manager: manager}
}

// Summary returns the readiness outcome without per-check details.
func (h *HealthHandler) Summary(c *gin.Context) {
	report := h.manager.EvaluateReadiness(c.Request.Context())
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checked_at": report.CheckedAt,
	})
}

func (h *HealthHandler) Live(c *gin.Context) {
	report := h.manager.EvaluateLiveness(c.Request.Context())
	c.JSON(reportStatus(report), report)
}

func (h *HealthHandler) Ready(c *gin.Context) {
	report := h.manager.EvaluateReadiness(c.Request.Context())
	c.JSON(reportStatus(report), report)
}

// Disabled answers health routes when health checks are switched off.
func Disabled(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}

func reportStatus(report monitoring.HealthReport) int {
	if !report.Success {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
