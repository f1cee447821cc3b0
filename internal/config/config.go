package config

import (
	"math"
	"os"
	"strconv"
	"time"

	"spcdash/internal/errors"
)

// Config is the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
	Stats    StatsConfig
	Zoom     ZoomConfig
}

// DatabaseConfig holds the optional read-only Postgres connection
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database was configured
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	UIPort  string
	GinMode string
}

// DataConfig holds record source settings
type DataConfig struct {
	ExcelFile  string
	MaxRecords int
	CacheTTL   time.Duration
}

// StatsConfig holds statistics engine settings
type StatsConfig struct {
	OutlierThreshold float64
}

// ZoomConfig holds zoom interaction settings
type ZoomConfig struct {
	Debounce time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			UIPort:  getEnvOrDefault("UI_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Data: DataConfig{
			ExcelFile:  getEnvOrDefault("EXCEL_FILE", ""),
			MaxRecords: getEnvIntOrDefault("MAX_RECORDS", 1000),
			CacheTTL:   getEnvDurationOrDefault("CACHE_TTL", 5*time.Minute),
		},
		Stats: StatsConfig{
			OutlierThreshold: getEnvFloatOrDefault("OUTLIER_THRESHOLD", 1.5),
		},
		Zoom: ZoomConfig{
			Debounce: getEnvDurationOrDefault("ZOOM_DEBOUNCE", 100*time.Millisecond),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	k := config.Stats.OutlierThreshold
	if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
		return errors.ConfigInvalid("OUTLIER_THRESHOLD must be a finite non-negative number")
	}
	if config.Data.MaxRecords <= 0 || config.Data.MaxRecords > 1000 {
		return errors.ConfigInvalid("MAX_RECORDS must be between 1 and 1000")
	}
	if config.Data.CacheTTL <= 0 {
		return errors.ConfigInvalid("CACHE_TTL must be positive")
	}
	if config.Zoom.Debounce < 0 {
		return errors.ConfigInvalid("ZOOM_DEBOUNCE must not be negative")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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
