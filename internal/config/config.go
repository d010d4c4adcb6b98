package config

import (
	"os"
	"strconv"
	"time"

	"studio/domain/template"
	"studio/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Database DatabaseConfig
	Cache    CacheConfig
	LogLevel string
}

// AnalysisConfig bounds per-request analysis cost and sets defaults
type AnalysisConfig struct {
	MaxProfileRows int
	MaxComputeRows int
	TemplateID     string
}

// DatabaseConfig holds the optional query connector settings
type DatabaseConfig struct {
	URL      string
	RowLimit int
}

// CacheConfig holds dataset cache settings
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Analysis: AnalysisConfig{
			MaxProfileRows: getEnvIntOrDefault("MAX_PROFILE_ROWS", 2000),
			MaxComputeRows: getEnvIntOrDefault("MAX_COMPUTE_ROWS", 20000),
			TemplateID:     getEnvOrDefault("TEMPLATE_ID", template.GeneralID),
		},
		Database: DatabaseConfig{
			URL:      getEnvOrDefault("DATABASE_URL", ""),
			RowLimit: getEnvIntOrDefault("DB_ROW_LIMIT", 50000),
		},
		Cache: CacheConfig{
			Enabled: getEnvBoolOrDefault("CACHE_ENABLED", false),
			TTL:     getEnvDurationOrDefault("CACHE_TTL", 15*time.Minute),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Analysis.MaxProfileRows <= 0 {
		return errors.ConfigInvalid("MAX_PROFILE_ROWS must be positive")
	}
	if config.Analysis.MaxComputeRows <= 0 {
		return errors.ConfigInvalid("MAX_COMPUTE_ROWS must be positive")
	}
	if !template.Builtin().Has(config.Analysis.TemplateID) {
		return errors.ConfigInvalid("unknown template id " + config.Analysis.TemplateID)
	}
	if config.Cache.TTL < 0 {
		return errors.ConfigInvalid("CACHE_TTL must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
