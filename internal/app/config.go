package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/charlesng35/issuecal/pkg/validator"
)

// Environment variables read without the ISSUECAL_ prefix.
const (
	EnvRepo        = "REPO"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvCacheTTL    = "CACHE_TTL"

	defaultCacheTTLSeconds = 3600
)

// Config represents the runtime configuration for the issuecal backend.
type Config struct {
	Repo        string        `mapstructure:"repo" validate:"required,repo"`
	GitHubToken string        `mapstructure:"github_token"`
	CacheTTL    time.Duration `mapstructure:"-" validate:"gt=0"`

	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	GitHub      GitHubConfig      `mapstructure:"github"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel  string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=console json"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres postgresql mysql"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// GitHubConfig configures the upstream issues API.
type GitHubConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// CacheConfig tunes the issue cache behaviour.
type CacheConfig struct {
	SingleFlight bool          `mapstructure:"single_flight"`
	StoreTimeout time.Duration `mapstructure:"store_timeout" validate:"gt=0"`
}

// MaintenanceConfig controls the cache pruning job.
type MaintenanceConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Schedule  string        `mapstructure:"schedule"`
	Retention time.Duration `mapstructure:"retention" validate:"gte=0"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ConfigurationError reports a missing or invalid setting. The process must not
// start serving when one is returned.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
// REPO, GITHUB_TOKEN and CACHE_TTL are read from the environment as is; every other
// key may come from config.yaml or an ISSUECAL_ prefixed variable.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("ISSUECAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("repo", EnvRepo)
	_ = v.BindEnv("github_token", EnvGitHubToken)
	_ = v.BindEnv("cache_ttl", EnvCacheTTL)

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	config.Repo = strings.TrimSpace(config.Repo)
	config.GitHubToken = strings.TrimSpace(config.GitHubToken)

	ttl, err := parseCacheTTL(v.GetString("cache_ttl"))
	if err != nil {
		return nil, err
	}
	config.CacheTTL = ttl

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the loaded configuration and returns a *ConfigurationError naming
// the first offending key.
func (c *Config) Validate() error {
	err := validator.ValidateStruct(c)
	if err == nil {
		return nil
	}

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return &ConfigurationError{Key: "config", Reason: err.Error()}
	}

	first := failures[0]
	key := configKey(first.Field)
	return &ConfigurationError{Key: key, Reason: reasonFor(key, first)}
}

// TokenConfigured reports whether upstream requests will be authenticated.
func (c *Config) TokenConfigured() bool {
	return c.GitHubToken != ""
}

func parseCacheTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultCacheTTLSeconds * time.Second, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigurationError{Key: EnvCacheTTL, Reason: fmt.Sprintf("%q is not a whole number of seconds", raw)}
	}
	if seconds <= 0 {
		return 0, &ConfigurationError{Key: EnvCacheTTL, Reason: "must be greater than zero"}
	}
	return time.Duration(seconds) * time.Second, nil
}

// configKey turns a validator namespace such as "Config.github.timeout" into the
// setting name an operator would recognise.
func configKey(namespace string) string {
	key := namespace
	if idx := strings.Index(key, "."); idx >= 0 {
		key = key[idx+1:]
	}
	switch key {
	case "repo":
		return EnvRepo
	case "CacheTTL":
		return EnvCacheTTL
	}
	return key
}

func reasonFor(key string, failure validator.ValidationError) string {
	switch {
	case key == EnvRepo && failure.Tag == "required":
		return "must be set to owner/name"
	case key == EnvRepo:
		return "must have the form owner/name"
	case failure.Param != "":
		return fmt.Sprintf("failed %s=%s", failure.Tag, failure.Param)
	default:
		return "failed " + failure.Tag
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "console")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./cache.db")

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.timeout", "10s")

	v.SetDefault("cache.single_flight", false)
	v.SetDefault("cache.store_timeout", "5s")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@daily")
	v.SetDefault("maintenance.retention", "168h") // 7 days

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
