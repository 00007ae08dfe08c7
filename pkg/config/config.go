// Package config provides the configuration surface of the pooling engine:
// one ManagerConfig per Manager and one PoolConfig per pooled object kind.
//
// Example usage:
//
//	cfg := config.NewManagerConfig()
//	cfg.InitMode = config.InitModeDeferred
//	cfg.Pools = append(cfg.Pools, config.DefaultPoolConfig("Bullet"))
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"strings"
	"time"

	poolerrors "github.com/ajitpratap0/objpool/pkg/errors"
)

// InitMode selects when a Manager pre-populates its configured pools.
type InitMode string

const (
	// InitModeImmediate populates pools as soon as the Manager exists
	InitModeImmediate InitMode = "immediate"
	// InitModeDeferred populates pools on an external readiness signal
	InitModeDeferred InitMode = "deferred"
	// InitModeManual populates pools only when Initialize is called
	InitModeManual InitMode = "manual"
)

// ParseInitMode parses a mode name, case-insensitively. "awake" and "start"
// are accepted as aliases of immediate and deferred.
func ParseInitMode(s string) (InitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "immediate", "awake":
		return InitModeImmediate, nil
	case "deferred", "start":
		return InitModeDeferred, nil
	case "manual":
		return InitModeManual, nil
	default:
		return "", fmt.Errorf("unknown init mode %q", s)
	}
}

// Default values for a pool entry.
const (
	DefaultInitialCount         = 50
	DefaultGrowThresholdPercent = 25
	DefaultGrowCoefficient      = 0.5
	DefaultMaxInstances         = 200
	DefaultWatchInterval        = time.Second
)

// Bounds accepted for the growth parameters.
const (
	MinGrowThresholdPercent = 1
	MaxGrowThresholdPercent = 99
	MinGrowCoefficient      = 0.1
	MaxGrowCoefficient      = 1.0
)

// ManagerConfig configures one Manager.
type ManagerConfig struct {
	// InitMode selects when pools are populated
	InitMode InitMode `yaml:"init_mode" json:"init_mode" mapstructure:"init_mode"`
	// AllowLogs gates every diagnostic message of the Manager
	AllowLogs bool `yaml:"allow_logs" json:"allow_logs" mapstructure:"allow_logs"`
	// WatchInterval is the period of the auto-increase watcher
	WatchInterval time.Duration `yaml:"watch_interval" json:"watch_interval" mapstructure:"watch_interval"`
	// Pools lists the pools registered on initialization
	Pools []PoolConfig `yaml:"pools" json:"pools" mapstructure:"pools"`
	// Observability configures the ambient metrics and tracing of the CLI
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// PoolConfig configures a single pool.
type PoolConfig struct {
	// Key names the template the pool is built from
	Key string `yaml:"key" json:"key" mapstructure:"key"`
	// InitialCount is the number of instances created on registration
	InitialCount int `yaml:"initial_count" json:"initial_count" mapstructure:"initial_count"`
	// IsSpecialLifecycle attaches a lifecycle hook to every instance so it
	// returns to the pool when its use naturally ends
	IsSpecialLifecycle bool `yaml:"is_special_lifecycle" json:"is_special_lifecycle" mapstructure:"is_special_lifecycle"`
	// AutoGrow lets the watcher raise the target population
	AutoGrow bool `yaml:"auto_grow" json:"auto_grow" mapstructure:"auto_grow"`
	// GrowThresholdPercent of the target below which the reserve triggers growth
	GrowThresholdPercent int `yaml:"grow_threshold_percent" json:"grow_threshold_percent" mapstructure:"grow_threshold_percent"`
	// GrowCoefficient of the target added on each growth step
	GrowCoefficient float64 `yaml:"grow_coefficient" json:"grow_coefficient" mapstructure:"grow_coefficient"`
	// MaxInstances caps the population
	MaxInstances int `yaml:"max_instances" json:"max_instances" mapstructure:"max_instances"`
}

// ObservabilityConfig contains monitoring settings used by the CLI.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// MetricsAddress serves Prometheus metrics when non-empty
	MetricsAddress string `yaml:"metrics_address" json:"metrics_address" mapstructure:"metrics_address"`
	// EnableTracing exports watcher spans to stdout
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
}

// NewManagerConfig creates a ManagerConfig with defaults and no pools.
func NewManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		InitMode:      InitModeImmediate,
		AllowLogs:     true,
		WatchInterval: DefaultWatchInterval,
		Pools:         []PoolConfig{},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			TracingSampleRate: 1.0,
		},
	}
}

// DefaultPoolConfig returns a pool entry with the engine defaults.
func DefaultPoolConfig(key string) PoolConfig {
	return PoolConfig{
		Key:                  key,
		InitialCount:         DefaultInitialCount,
		GrowThresholdPercent: DefaultGrowThresholdPercent,
		GrowCoefficient:      DefaultGrowCoefficient,
		MaxInstances:         DefaultMaxInstances,
	}
}

// Validate checks the manager settings and every pool entry. Duplicate keys
// are reported here as well, even though the Manager tolerates them.
func (c *ManagerConfig) Validate() error {
	if _, err := ParseInitMode(string(c.InitMode)); err != nil {
		return poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, "invalid init_mode")
	}
	if c.WatchInterval <= 0 {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "watch_interval must be positive").
			WithDetail("watch_interval", c.WatchInterval)
	}

	seen := make(map[string]struct{}, len(c.Pools))
	for i := range c.Pools {
		if err := c.Pools[i].Validate(); err != nil {
			return poolerrors.Wrap(err, poolerrors.ErrorTypeConfig, fmt.Sprintf("pool #%d", i))
		}
		if _, ok := seen[c.Pools[i].Key]; ok {
			return poolerrors.Newf(poolerrors.ErrorTypeConfig, "duplicate pool key %q", c.Pools[i].Key)
		}
		seen[c.Pools[i].Key] = struct{}{}
	}
	return nil
}

// Validate checks ranges of a single pool entry.
func (p *PoolConfig) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "key is required")
	}
	if p.InitialCount < 0 {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "initial_count cannot be negative").
			WithDetail("initial_count", p.InitialCount)
	}
	if p.MaxInstances < p.InitialCount {
		return poolerrors.New(poolerrors.ErrorTypeConfig, "max_instances must be at least initial_count").
			WithDetail("initial_count", p.InitialCount).
			WithDetail("max_instances", p.MaxInstances)
	}
	if p.GrowThresholdPercent < MinGrowThresholdPercent || p.GrowThresholdPercent > MaxGrowThresholdPercent {
		return poolerrors.Newf(poolerrors.ErrorTypeConfig, "grow_threshold_percent must be within [%d, %d]",
			MinGrowThresholdPercent, MaxGrowThresholdPercent).
			WithDetail("grow_threshold_percent", p.GrowThresholdPercent)
	}
	if p.GrowCoefficient < MinGrowCoefficient || p.GrowCoefficient > MaxGrowCoefficient {
		return poolerrors.Newf(poolerrors.ErrorTypeConfig, "grow_coefficient must be within [%.1f, %.1f]",
			MinGrowCoefficient, MaxGrowCoefficient).
			WithDetail("grow_coefficient", p.GrowCoefficient)
	}
	return nil
}

// Find returns the pool entry for key.
func (c *ManagerConfig) Find(key string) (PoolConfig, bool) {
	for _, p := range c.Pools {
		if p.Key == key {
			return p, true
		}
	}
	return PoolConfig{}, false
}

// HasAutoGrow reports whether any configured pool grows automatically
func (c *ManagerConfig) HasAutoGrow() bool {
	for _, p := range c.Pools {
		if p.AutoGrow {
			return true
		}
	}
	return false
}
