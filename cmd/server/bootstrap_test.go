package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/issuecal/internal/app"
	"github.com/charlesng35/issuecal/internal/models"
)

func TestBootstrapRuntimeServesIssues(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"title":"Ship","html_url":"https://github.com/acme/widgets/issues/1","updated_at":"2029-06-01T10:00:00Z"}]`))
	}))
	t.Cleanup(upstream.Close)

	cfg := &app.Config{
		Repo:        "acme/widgets",
		GitHubToken: "ghp_test",
		CacheTTL:    time.Hour,
		Database: app.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "cache.db"),
		},
		GitHub: app.GitHubConfig{BaseURL: upstream.URL, Timeout: 2 * time.Second},
		Cache:  app.CacheConfig{StoreTimeout: time.Second},
		Maintenance: app.MaintenanceConfig{
			Enabled:   true,
			Schedule:  "@daily",
			Retention: 24 * time.Hour,
		},
		Monitoring: app.MonitoringConfig{Health: app.HealthConfig{Enabled: true}},
	}

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })

	require.True(t, stack.Upstream.Authenticated())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/issues", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.JSONEq(t, `[{"title":"Ship","start":"2029-06-01T10:00:00Z","url":"https://github.com/acme/widgets/issues/1"}]`, rec.Body.String())
	}
	require.Equal(t, int32(1), calls.Load())

	var row models.IssueCache
	require.NoError(t, stack.DB.First(&row, "repo = ?", "acme/widgets").Error)
	require.Len(t, row.Events, 1)

	rec := httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestBootstrapRuntimeRejectsUnknownDriver(t *testing.T) {
	cfg := &app.Config{
		Repo:     "acme/widgets",
		CacheTTL: time.Hour,
		Database: app.DatabaseConfig{Driver: "oracle"},
	}

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "open database")
}

func TestConvertDatabaseConfig(t *testing.T) {
	cfg := &app.Config{Database: app.DatabaseConfig{
		Driver: " PostgreSQL ",
		Postgres: app.DBAuthConfig{
			Host:     " db.example.com ",
			Port:     5432,
			Database: "issuecal",
			Username: "svc",
			Password: " secret ",
		},
	}}

	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.example.com", dbCfg.Host)
	require.Equal(t, 5432, dbCfg.Port)
	require.Equal(t, "issuecal", dbCfg.Name)
	require.Equal(t, "svc", dbCfg.User)
	require.Equal(t, " secret ", dbCfg.Password)

	dbCfg = convertDatabaseConfig(&app.Config{Database: app.DatabaseConfig{Path: " ./cache.db "}})
	require.Equal(t, "sqlite", dbCfg.Driver)
	require.Equal(t, "./cache.db", dbCfg.Path)
	require.Empty(t, dbCfg.Host)
}

func TestLoadApplicationConfigPaths(t *testing.T) {
	t.Setenv(app.EnvRepo, "acme/widgets")

	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 9191\n"), 0o600))

	cfg, err := loadApplicationConfig(file)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)

	cfg, err = loadApplicationConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)

	_, err = loadApplicationConfig(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestRunFailsFastWithoutRepo(t *testing.T) {
	t.Setenv(app.EnvRepo, "")

	err := run(context.Background(), []string{"-config", t.TempDir()})
	var cfgErr *app.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, app.EnvRepo, cfgErr.Key)
}
