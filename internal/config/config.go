// Package config handles configuration loading and validation for the
// miner, the same way the pool's config layer does: Viper for file and
// environment binding, explicit defaults, and a Validate pass that fails
// fast at startup rather than letting a bad setting surface as a mining
// bug.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Algorithm selects which worker family the coordinator runs.
type Algorithm string

const (
	AlgorithmDistinguishedPoints Algorithm = "dpoints"
	AlgorithmMemoization         Algorithm = "memo"
)

// Config holds all configuration for the miner.
type Config struct {
	Node       NodeConfig       `mapstructure:"node"`
	Mining     MiningConfig     `mapstructure:"mining"`
	API        APIConfig        `mapstructure:"api"`
	Profiling  ProfilingConfig  `mapstructure:"profiling"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	NewRelic   NewRelicConfig   `mapstructure:"newrelic"`
	Log        LogConfig        `mapstructure:"log"`
}

// NodeConfig defines node connection settings.
type NodeConfig struct {
	URL                 string        `mapstructure:"url"`
	Backups             []string      `mapstructure:"backups"`
	Timeout             time.Duration `mapstructure:"timeout"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	MaxFailures         int           `mapstructure:"max_failures"`
	RecoveryThreshold   int           `mapstructure:"recovery_threshold"`
	WatchNext           bool          `mapstructure:"watch_next"`
}

// MiningConfig defines the mining parameters from spec.md §6.
type MiningConfig struct {
	Payload            string        `mapstructure:"payload"`
	Algorithm          Algorithm     `mapstructure:"algorithm"`
	DifficultyOverride *uint64       `mapstructure:"-"`
	NumWorkers         int           `mapstructure:"num_workers"`
	Alpha              float64       `mapstructure:"alpha"`
	Beta               float64       `mapstructure:"beta"`
	MaxTimeToAttempt   time.Duration `mapstructure:"max_time_to_attempt"`
	MaxDifficulty      uint64        `mapstructure:"max_difficulty"`
	TimestampGrace     time.Duration `mapstructure:"timestamp_grace"`
	MemoryBudgetBytes  uint64        `mapstructure:"memory_budget_bytes"`
	SolutionBufferSize int           `mapstructure:"solution_buffer_size"`
}

// APIConfig defines the read-only admin/status server.
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// ProfilingConfig defines the pprof debug server.
type ProfilingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// NotifyConfig defines webhook notification settings.
type NotifyConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DiscordURL   string `mapstructure:"discord_url"`
	TelegramBot  string `mapstructure:"telegram_bot"`
	TelegramChat string `mapstructure:"telegram_chat"`
}

// NewRelicConfig defines APM settings.
type NewRelicConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AppName    string `mapstructure:"app_name"`
	LicenseKey string `mapstructure:"license_key"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment, applying defaults
// and running Validate before returning.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("cminer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/cminer")
	}

	v.SetEnvPrefix("CMINER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("node.url", "http://127.0.0.1:8080")
	v.SetDefault("node.timeout", "10s")
	v.SetDefault("node.health_check_interval", "5s")
	v.SetDefault("node.max_failures", 3)
	v.SetDefault("node.recovery_threshold", 2)
	v.SetDefault("node.watch_next", true)

	v.SetDefault("mining.algorithm", string(AlgorithmDistinguishedPoints))
	v.SetDefault("mining.num_workers", 8)
	v.SetDefault("mining.alpha", 0.666)
	v.SetDefault("mining.beta", 0.667)
	v.SetDefault("mining.max_time_to_attempt", "9m")
	v.SetDefault("mining.max_difficulty", 64)
	v.SetDefault("mining.timestamp_grace", "5m")
	v.SetDefault("mining.memory_budget_bytes", uint64(4)<<30) // 4 GiB
	v.SetDefault("mining.solution_buffer_size", 16)

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.bind", "127.0.0.1:9080")

	v.SetDefault("profiling.enabled", false)
	v.SetDefault("profiling.bind", "127.0.0.1:6060")

	v.SetDefault("notify.enabled", false)

	v.SetDefault("newrelic.enabled", false)
	v.SetDefault("newrelic.app_name", "cminer")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks configuration for the fail-fast errors spec.md §7
// classifies as configuration errors: invalid α/β, difficulty out of
// range, missing node URL.
func (c *Config) Validate() error {
	if c.Node.URL == "" {
		return fmt.Errorf("node.url is required")
	}
	if c.Mining.MaxDifficulty > MaxDifficultyCeiling {
		return fmt.Errorf("mining.max_difficulty must be <= %d", MaxDifficultyCeiling)
	}
	if c.Mining.NumWorkers <= 0 {
		return fmt.Errorf("mining.num_workers must be positive")
	}
	if c.Mining.Algorithm != AlgorithmDistinguishedPoints && c.Mining.Algorithm != AlgorithmMemoization {
		return fmt.Errorf("mining.algorithm must be %q or %q", AlgorithmDistinguishedPoints, AlgorithmMemoization)
	}
	if c.Mining.Algorithm == AlgorithmMemoization {
		if c.Mining.Alpha <= 0 || c.Mining.Alpha >= 1 {
			return fmt.Errorf("mining.alpha must be in (0,1)")
		}
		if c.Mining.Beta <= 0 || c.Mining.Beta >= 1 {
			return fmt.Errorf("mining.beta must be in (0,1)")
		}
		// Feasibility constraint from spec.md §4.4: beta >= 1 - alpha/2.
		if c.Mining.Beta < 1-c.Mining.Alpha/2 {
			return fmt.Errorf("mining.alpha/beta fail feasibility constraint beta >= 1 - alpha/2 (alpha=%.3f beta=%.3f)", c.Mining.Alpha, c.Mining.Beta)
		}
	}
	if c.Mining.MaxTimeToAttempt <= 0 {
		return fmt.Errorf("mining.max_time_to_attempt must be positive")
	}
	return nil
}

// MaxDifficultyCeiling is the hard ceiling from spec.md §6
// (MAX_DIFFICULTY <= 64, since a SHA-256 truncation cannot exceed 64
// bits under this miner's reduction).
const MaxDifficultyCeiling = 64

// ValidateDifficultyOverride checks a CLI-supplied difficulty override
// against spec.md §6's CLI surface rule: it must not exceed
// MAX_DIFFICULTY and must be >= the template's own difficulty.
func (c *Config) ValidateDifficultyOverride(override, templateDifficulty uint64) error {
	if override > c.Mining.MaxDifficulty {
		return fmt.Errorf("difficulty override %d exceeds configured max %d", override, c.Mining.MaxDifficulty)
	}
	if override < templateDifficulty {
		return fmt.Errorf("difficulty override %d is below template difficulty %d", override, templateDifficulty)
	}
	return nil
}
