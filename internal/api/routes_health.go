package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/issuecal/internal/app"
	"github.com/charlesng35/issuecal/internal/handlers"
	"github.com/charlesng35/issuecal/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, manager *monitoring.HealthManager) {
	if !cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Disabled)
		r.GET("/health/live", handlers.Disabled)
		r.GET("/health/ready", handlers.Disabled)
		return
	}

	h := handlers.NewHealthHandler(manager)
	r.GET("/health", h.Summary)
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
}
