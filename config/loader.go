package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Loader reads configuration documents from disk, validates them against
// the embedded schema, applies ORDERFLOW_* environment overrides, and runs
// semantic validation.
type Loader struct{}

// NewLoader creates a config loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile loads, validates, and normalizes the config at path
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator flags
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return l.Load(data)
}

// Load parses and validates a raw config document
func (l *Loader) Load(data []byte) (*Config, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides lets deployment environments adjust sizing and logging
// without editing the config file. Environment always wins over the file.
func applyEnvOverrides(cfg *Config) {
	cfg.Pipeline.Name = getEnv("ORDERFLOW_PIPELINE_NAME", cfg.Pipeline.Name)
	cfg.Pipeline.QueueCapacity = getEnvInt("ORDERFLOW_QUEUE_CAPACITY", cfg.Pipeline.QueueCapacity)
	cfg.Pipeline.ReserveWorkers = getEnvInt("ORDERFLOW_RESERVE_WORKERS", cfg.Pipeline.ReserveWorkers)
	cfg.Pipeline.DispatchWorkers = getEnvInt("ORDERFLOW_DISPATCH_WORKERS", cfg.Pipeline.DispatchWorkers)
	cfg.Pipeline.DispatchQueueSize = getEnvInt("ORDERFLOW_DISPATCH_QUEUE_SIZE", cfg.Pipeline.DispatchQueueSize)
	cfg.Pipeline.AwaitTimeout = getEnvDuration("ORDERFLOW_AWAIT_TIMEOUT", cfg.Pipeline.AwaitTimeout)
	cfg.Pipeline.DrainTimeout = getEnvDuration("ORDERFLOW_DRAIN_TIMEOUT", cfg.Pipeline.DrainTimeout)
	cfg.Pipeline.ForceGrace = getEnvDuration("ORDERFLOW_FORCE_GRACE", cfg.Pipeline.ForceGrace)
	cfg.Pipeline.Admission = getEnv("ORDERFLOW_ADMISSION", cfg.Pipeline.Admission)

	cfg.Logging.Level = getEnv("ORDERFLOW_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("ORDERFLOW_LOG_FORMAT", cfg.Logging.Format)

	cfg.Metrics.Enabled = getEnvBool("ORDERFLOW_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Port = getEnvInt("ORDERFLOW_METRICS_PORT", cfg.Metrics.Port)
}

// Environment variable helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue Duration) Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return Duration(parsed)
		}
	}
	return defaultValue
}
