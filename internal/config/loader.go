package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "FPL_INSIGHTS"
	defaultConfigPath = "config/config.yaml"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers defaults so env-only deployments still bind every key
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fpl-insights")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("secrets.enabled", false)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")

	v.SetDefault("provider.kind", ProviderMemory)
	v.SetDefault("provider.snapshot_path", "data/snapshot.json")
	v.SetDefault("provider.base_url", "https://fantasy.premierleague.com/api")
	v.SetDefault("provider.timeout_seconds", 15)
	v.SetDefault("provider.retry_attempts", 3)
	v.SetDefault("provider.requests_per_second", 2.0)
	v.SetDefault("provider.cache_enabled", true)
	v.SetDefault("provider.cache_ttl_seconds", 300)
	v.SetDefault("provider.cache_max_size", 10000)

	v.SetDefault("model.params_path", "data/model_params.json")

	v.SetDefault("simulation.default_samples", 10000)
	v.SetDefault("simulation.max_samples", 1000000)
	v.SetDefault("simulation.correlation_gk", 0.15)
	v.SetDefault("simulation.correlation_def", 0.12)
	v.SetDefault("simulation.correlation_mid", 0.08)
	v.SetDefault("simulation.correlation_fwd", 0.08)

	v.SetDefault("calibration.workers", 0)
	v.SetDefault("calibration.sample_size", 2000)
	v.SetDefault("calibration.seed", 42)
	v.SetDefault("calibration.window_periods", 6)
	v.SetDefault("calibration.output_path", "")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.calibration_cron", "0 6 * * 2")
	v.SetDefault("scheduler.sync_cron", "")
	v.SetDefault("scheduler.write_back", false)
	v.SetDefault("scheduler.improvement_threshold_pct", 1.0)
	v.SetDefault("scheduler.timeout_minutes", 30)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.daemon_addr", "127.0.0.1:2000")
	v.SetDefault("tracing.sampling_rate", 0.1)
}

func readExpanded(v *viper.Viper, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables.
// The file must exist; ${VAR} placeholders in it are expanded.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)
	if err := readExpanded(v, configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but tolerates a missing file
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)
	if err := readExpanded(v, configPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadAndValidate loads the configuration, applies the secrets overlay when
// enabled, and validates the result.
func LoadAndValidate(ctx context.Context, configPath string) (*Config, error) {
	cfg, err := LoadWithDefaults(configPath)
	if err != nil {
		return nil, err
	}

	if cfg.Secrets.Enabled {
		if err := LoadSecretsFromAWS(ctx, cfg, cfg.Secrets.Region, cfg.Secrets.SecretName); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
