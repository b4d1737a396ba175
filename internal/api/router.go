package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/issuecal/internal/app"
	"github.com/charlesng35/issuecal/internal/handlers"
	"github.com/charlesng35/issuecal/internal/middleware"
	"github.com/charlesng35/issuecal/internal/monitoring"
	"github.com/charlesng35/issuecal/web"
)

// Dependencies groups what the router needs to serve requests.
type Dependencies struct {
	Config *app.Config
	Issues handlers.EventLister
	Health *monitoring.HealthManager
}

// NewRouter builds the Gin engine with middleware, the calendar page and the API routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil {
		return nil, errors.New("router: config is required")
	}
	if deps.Issues == nil {
		return nil, errors.New("router: issue service is required")
	}

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(""))

	if err := registerStaticRoutes(r); err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.GET("/issues", handlers.NewIssueHandler(deps.Issues).List)

	registerHealthRoutes(r, deps.Config, deps.Health)

	if deps.Config.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(deps.Config.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func registerStaticRoutes(r *gin.Engine) error {
	root, err := web.FS()
	if err != nil {
		return fmt.Errorf("router: embedded site: %w", err)
	}
	index, err := fs.ReadFile(root, web.IndexFile)
	if err != nil {
		return fmt.Errorf("router: embedded %s: %w", web.IndexFile, err)
	}
	assets, err := web.Assets()
	if err != nil {
		return fmt.Errorf("router: embedded assets: %w", err)
	}

	serveIndex := func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	}
	r.GET("/", serveIndex)
	r.HEAD("/", serveIndex)
	r.StaticFS("/static", http.FS(assets))
	return nil
}
