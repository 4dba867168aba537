// Package config provides configuration management for the FPL insights core.
package config

import (
	"fmt"
	"time"
)

// Provider kinds
const (
	ProviderMemory   = "memory"
	ProviderPostgres = "postgres"
	ProviderFPLAPI   = "fpl_api"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Secrets     SecretsConfig     `mapstructure:"secrets"`
	Provider    ProviderConfig    `mapstructure:"provider" validate:"required"`
	Model       ModelConfig       `mapstructure:"model" validate:"required"`
	Simulation  SimulationConfig  `mapstructure:"simulation" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration" validate:"required"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration.
// Only required when the provider kind is postgres.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// SecretsConfig controls the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// ProviderConfig selects and tunes the player data source
type ProviderConfig struct {
	Kind              string  `mapstructure:"kind" validate:"required,providerkind"`
	SnapshotPath      string  `mapstructure:"snapshot_path"`
	BaseURL           string  `mapstructure:"base_url" validate:"omitempty,url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	CacheEnabled      bool    `mapstructure:"cache_enabled"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	CacheMaxSize      int     `mapstructure:"cache_max_size" validate:"gte=0"`
}

// ModelConfig points at the persisted model parameters
type ModelConfig struct {
	ParamsPath string `mapstructure:"params_path" validate:"required"`
}

// SimulationConfig represents team simulation settings
type SimulationConfig struct {
	DefaultSamples int     `mapstructure:"default_samples" validate:"required,gt=0"`
	MaxSamples     int     `mapstructure:"max_samples" validate:"required,gt=0"`
	CorrelationGK  float64 `mapstructure:"correlation_gk" validate:"gte=0,lte=1"`
	CorrelationDEF float64 `mapstructure:"correlation_def" validate:"gte=0,lte=1"`
	CorrelationMID float64 `mapstructure:"correlation_mid" validate:"gte=0,lte=1"`
	CorrelationFWD float64 `mapstructure:"correlation_fwd" validate:"gte=0,lte=1"`
}

// CalibrationConfig represents grid-search calibration settings
type CalibrationConfig struct {
	Workers       int    `mapstructure:"workers" validate:"gte=0"`
	SampleSize    int    `mapstructure:"sample_size" validate:"gte=0"`
	Seed          int64  `mapstructure:"seed"`
	WindowPeriods int    `mapstructure:"window_periods" validate:"required,gt=0"`
	OutputPath    string `mapstructure:"output_path"`
}

// SchedulerConfig represents recurring calibration scheduling
type SchedulerConfig struct {
	Enabled                 bool    `mapstructure:"enabled"`
	CalibrationCron         string  `mapstructure:"calibration_cron" validate:"omitempty,cronspec"`
	SyncCron                string  `mapstructure:"sync_cron" validate:"omitempty,cronspec"`
	WriteBack               bool    `mapstructure:"write_back"`
	ImprovementThresholdPct float64 `mapstructure:"improvement_threshold_pct" validate:"gte=0,lte=100"`
	TimeoutMinutes          int     `mapstructure:"timeout_minutes" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// TracingConfig configures AWS X-Ray segments around long-running operations
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DaemonAddr   string  `mapstructure:"daemon_addr" validate:"omitempty,hostname_port"`
	SamplingRate float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ProviderTimeout returns the HTTP timeout for the remote provider
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// CacheTTL returns the provider cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Provider.CacheTTLSeconds) * time.Second
}

// CorrelationWeights returns the per-position shared-factor weights in GK, DEF, MID, FWD order
func (c *Config) CorrelationWeights() [4]float64 {
	return [4]float64{
		c.Simulation.CorrelationGK,
		c.Simulation.CorrelationDEF,
		c.Simulation.CorrelationMID,
		c.Simulation.CorrelationFWD,
	}
}
