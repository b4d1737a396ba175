package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/issuecal/internal/api"
	"github.com/charlesng35/issuecal/internal/app"
	"github.com/charlesng35/issuecal/internal/app/maintenance"
	"github.com/charlesng35/issuecal/internal/cache"
	"github.com/charlesng35/issuecal/internal/database"
	"github.com/charlesng35/issuecal/internal/github"
	"github.com/charlesng35/issuecal/internal/monitoring"
	"github.com/charlesng35/issuecal/internal/monitoring/checks"
	"github.com/charlesng35/issuecal/internal/services"
	"github.com/charlesng35/issuecal/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Store    *cache.DatabaseStore
	Upstream *github.Client
	Issues   *services.IssueService
	Cleaner  *maintenance.Cleaner
	Health   *monitoring.HealthManager
	Router   *gin.Engine
}

// bootstrapRuntime opens the cache database and wires the upstream client, the issue
// service, maintenance and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mode
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	stack.Store = cache.NewDatabaseStore(stack.DB)

	if !cfg.TokenConfigured() {
		log.Warn("GITHUB_TOKEN not set; upstream requests are anonymous and heavily rate limited")
	}

	stack.Upstream, err = github.NewClient(github.Config{
		BaseURL: cfg.GitHub.BaseURL,
		Token:   cfg.GitHubToken,
		Timeout: cfg.GitHub.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise github client: %w", err)
	}

	stack.Issues, err = services.NewIssueService(stack.Store, stack.Upstream, services.IssueServiceConfig{
		Repo:         cfg.Repo,
		TTL:          cfg.CacheTTL,
		StoreTimeout: cfg.Cache.StoreTimeout,
		SingleFlight: cfg.Cache.SingleFlight,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise issue service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.Store, cfg.Repo,
			maintenance.WithSchedule(cfg.Maintenance.Schedule),
			maintenance.WithRetention(cfg.Maintenance.Retention),
			maintenance.WithTTL(cfg.CacheTTL),
			maintenance.WithDatabase(stack.DB),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Health = buildHealth(cfg, stack)

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config: cfg,
		Issues: stack.Issues,
		Health: stack.Health,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func buildHealth(cfg *app.Config, stack *runtimeStack) *monitoring.HealthManager {
	manager := monitoring.NewHealthManager()
	manager.RegisterLiveness(monitoring.NewCheck("process", func(context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(checks.Database(stack.DB, 0))
	manager.RegisterReadiness(checks.Cache(stack.Store, cfg.Repo, cfg.CacheTTL, 0))
	if stack.Cleaner != nil {
		manager.RegisterReadiness(checks.Maintenance(stack.Cleaner, 0))
	}
	return manager
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
		s.DB = nil
	}
}

func initialiseDatabase(ctx context.Context, cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db.WithContext(ctx)); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	var auth app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		auth = cfg.Database.Postgres
	case "mysql":
		auth = cfg.Database.MySQL
	default:
		// unsupported drivers surface from database.Open
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
	return dbCfg
}
