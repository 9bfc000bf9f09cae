package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/c360/orderflow/pkg/retry"
)

// Admission policy constants
const (
	AdmissionFIFO     = "fifo"     // Strict arrival order (default)
	AdmissionPriority = "priority" // Higher-priority items admitted to workers first
)

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig   `json:"pipeline"`
	Resources map[string]int64 `json:"resources"` // Initial reservable units per resource key
	Logging   LoggingConfig    `json:"logging,omitempty"`
	Metrics   MetricsConfig    `json:"metrics,omitempty"`
}

// PipelineConfig defines sizing and timing for the order pipeline.
// The reserve and dispatch stages are sized independently: reserve workers
// do short compute-bound work, dispatch workers block on dependent calls.
type PipelineConfig struct {
	Name              string      `json:"name,omitempty"`
	QueueCapacity     int         `json:"queue_capacity,omitempty"`
	ReserveWorkers    int         `json:"reserve_workers,omitempty"`
	DispatchWorkers   int         `json:"dispatch_workers,omitempty"`
	DispatchQueueSize int         `json:"dispatch_queue_size,omitempty"`
	AwaitTimeout      Duration    `json:"await_timeout,omitempty"`
	DrainTimeout      Duration    `json:"drain_timeout,omitempty"`
	ForceGrace        Duration    `json:"force_grace,omitempty"`
	Admission         string      `json:"admission,omitempty"`
	ReserveRetry      RetryConfig `json:"reserve_retry,omitempty"`
}

// RetryConfig controls the bounded abort-and-retry path for contended
// reservations. Disabled by default: a failed reservation fails the item.
type RetryConfig struct {
	Enabled      bool     `json:"enabled,omitempty"`
	MaxAttempts  int      `json:"max_attempts,omitempty"`
	InitialDelay Duration `json:"initial_delay,omitempty"`
	MaxDelay     Duration `json:"max_delay,omitempty"`
	Multiplier   float64  `json:"multiplier,omitempty"`
	Jitter       bool     `json:"jitter,omitempty"`
}

// ToRetryConfig converts to the retry package's Config type.
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxAttempts,
		InitialDelay: time.Duration(rc.InitialDelay),
		MaxDelay:     time.Duration(rc.MaxDelay),
		Multiplier:   rc.Multiplier,
		AddJitter:    rc.Jitter,
	}
}

// LoggingConfig defines log output settings
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // json, text
}

// MetricsConfig defines the optional Prometheus metrics endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Duration is a time.Duration that unmarshals from either a JSON string
// ("30s", "1m30s") or a number of nanoseconds, so config files stay
// human-writable while programmatic round-trips keep working.
type Duration time.Duration

// MarshalJSON encodes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from a string or nanosecond number
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration type %T", v)
	}
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate before updating
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// Use JSON marshaling/unmarshaling for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		// Fallback to shallow copy if marshaling fails
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		// Fallback to shallow copy if unmarshaling fails
		copied := *c
		return &copied
	}

	return &clone
}

// Validate checks the config and normalizes unset fields to defaults
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline configuration: %w", err)
	}

	for key, qty := range c.Resources {
		if key == "" {
			return errors.New("resource key cannot be empty")
		}
		if qty < 0 {
			return fmt.Errorf("resource %s: quantity cannot be negative", key)
		}
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics configuration: %w", err)
	}

	return nil
}

// Validate normalizes and checks pipeline settings
func (pc *PipelineConfig) Validate() error {
	if pc.Name == "" {
		pc.Name = "orderflow"
	}
	if pc.QueueCapacity < 0 {
		return errors.New("queue_capacity cannot be negative")
	}
	if pc.QueueCapacity == 0 {
		pc.QueueCapacity = 64
	}
	if pc.ReserveWorkers < 0 {
		return errors.New("reserve_workers cannot be negative")
	}
	if pc.ReserveWorkers == 0 {
		// Compute-bound stage: one loop per core
		pc.ReserveWorkers = runtime.NumCPU()
	}
	if pc.DispatchWorkers < 0 {
		return errors.New("dispatch_workers cannot be negative")
	}
	if pc.DispatchWorkers == 0 {
		// Blocking stage: several loops per core so slow dependents
		// do not starve the reserve stage
		pc.DispatchWorkers = 4 * runtime.NumCPU()
	}
	if pc.DispatchQueueSize < 0 {
		return errors.New("dispatch_queue_size cannot be negative")
	}
	if pc.DispatchQueueSize == 0 {
		pc.DispatchQueueSize = 256
	}

	if pc.AwaitTimeout < 0 {
		return errors.New("await_timeout cannot be negative")
	}
	if pc.AwaitTimeout == 0 {
		// An unbounded wait on dependent work is never allowed
		pc.AwaitTimeout = Duration(5 * time.Second)
	}
	if pc.DrainTimeout < 0 {
		return errors.New("drain_timeout cannot be negative")
	}
	if pc.DrainTimeout == 0 {
		pc.DrainTimeout = Duration(30 * time.Second)
	}
	if pc.ForceGrace < 0 {
		return errors.New("force_grace cannot be negative")
	}
	if pc.ForceGrace == 0 {
		pc.ForceGrace = Duration(5 * time.Second)
	}

	pc.Admission = strings.ToLower(pc.Admission)
	switch pc.Admission {
	case "":
		pc.Admission = AdmissionFIFO
	case AdmissionFIFO, AdmissionPriority:
	default:
		return fmt.Errorf("admission must be %q or %q, got %q",
			AdmissionFIFO, AdmissionPriority, pc.Admission)
	}

	if err := pc.ReserveRetry.Validate(); err != nil {
		return fmt.Errorf("reserve_retry: %w", err)
	}

	return nil
}

// Validate normalizes retry settings when the retry path is enabled
func (rc *RetryConfig) Validate() error {
	if !rc.Enabled {
		return nil
	}
	if rc.MaxAttempts < 0 {
		return errors.New("max_attempts cannot be negative")
	}
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = 3
	}
	if rc.InitialDelay < 0 || rc.MaxDelay < 0 {
		return errors.New("delays cannot be negative")
	}
	if rc.InitialDelay == 0 {
		rc.InitialDelay = Duration(10 * time.Millisecond)
	}
	if rc.MaxDelay == 0 {
		rc.MaxDelay = Duration(500 * time.Millisecond)
	}
	if rc.MaxDelay < rc.InitialDelay {
		return errors.New("max_delay must be >= initial_delay")
	}
	if rc.Multiplier < 0 {
		return errors.New("multiplier cannot be negative")
	}
	if rc.Multiplier == 0 {
		rc.Multiplier = 2.0
	}
	return nil
}

// Validate normalizes and checks logging settings
func (lc *LoggingConfig) Validate() error {
	lc.Level = strings.ToLower(lc.Level)
	switch lc.Level {
	case "":
		lc.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	lc.Format = strings.ToLower(lc.Format)
	switch lc.Format {
	case "":
		lc.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	return nil
}

// Validate normalizes and checks metrics settings
func (mc *MetricsConfig) Validate() error {
	if mc.Port < 0 || mc.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", mc.Port)
	}
	if mc.Enabled && mc.Port == 0 {
		mc.Port = 9090
	}
	if mc.Path == "" {
		mc.Path = "/metrics"
	}
	return nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{
		Resources: make(map[string]int64),
	}
	// Validate never fails on the zero config: it only applies defaults
	_ = cfg.Validate()
	return cfg
}
