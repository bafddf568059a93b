package sim

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/triage-sim/triage-sim/sim/trace"
)

// DefaultShiftStart is 08:00 expressed in minutes since midnight.
const DefaultShiftStart = 480.0

// Config holds the parameters consumed by the admission and dispatch core.
// Loadable from a YAML file; zero-valued fields are filled by DefaultConfig
// before decoding so a file only needs to name what it changes.
type Config struct {
	LaneLoadThreshold int           `yaml:"lane_load_threshold"` // max entities per lane before another opens
	InitialLanes      int           `yaml:"initial_lanes"`       // lanes open before admission starts
	MaxLanes          int           `yaml:"max_lanes"`           // 0 = unlimited
	OpenPolicy        OpenPolicy    `yaml:"open_policy"`         // "lazy" (default) or "eager"
	PrivilegedClass   PriorityClass `yaml:"privileged_class"`    // class served first within a lane

	ResponderPoolSize int           `yaml:"responder_pool_size"`
	ReassignBackoff   time.Duration `yaml:"reassign_backoff"`   // pause between full responder scans
	BackoffStrategy   string        `yaml:"backoff_strategy"`   // "constant" (default) or "exponential"
	MaxBackoff        time.Duration `yaml:"max_backoff"`        // cap for exponential backoff
	ServiceTimeScale  time.Duration `yaml:"service_time_scale"` // wall-clock delay per simulated minute of responder service

	ShiftStart float64 `yaml:"shift_start"` // minutes since midnight at which every worker clock starts

	TraceLevel string `yaml:"trace_level"`
}

// DefaultConfig returns the configuration of the reference facility:
// one lane of up to 25 patients to start, five responders, shift at 08:00.
func DefaultConfig() Config {
	return Config{
		LaneLoadThreshold: 25,
		InitialLanes:      1,
		OpenPolicy:        OpenLazy,
		PrivilegedClass:   Critical,
		ResponderPoolSize: 5,
		ReassignBackoff:   DefaultReassignBackoff,
		BackoffStrategy:   "constant",
		MaxBackoff:        time.Second,
		ServiceTimeScale:  100 * time.Millisecond,
		ShiftStart:        DefaultShiftStart,
		TraceLevel:        "decisions",
	}
}

// LoadConfig reads a YAML config file over DefaultConfig.
// Unknown keys are rejected so typos surface as errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all values are in range.
func (c Config) Validate() error {
	if c.LaneLoadThreshold < 1 {
		return fmt.Errorf("lane_load_threshold must be >= 1, got %d", c.LaneLoadThreshold)
	}
	if c.InitialLanes < 0 {
		return fmt.Errorf("initial_lanes must be non-negative, got %d", c.InitialLanes)
	}
	if c.MaxLanes < 0 {
		return fmt.Errorf("max_lanes must be non-negative, got %d", c.MaxLanes)
	}
	if c.MaxLanes > 0 && c.InitialLanes > c.MaxLanes {
		return fmt.Errorf("initial_lanes (%d) exceeds max_lanes (%d)", c.InitialLanes, c.MaxLanes)
	}
	if !IsValidOpenPolicy(string(c.OpenPolicy)) {
		return fmt.Errorf("unknown open policy %q", c.OpenPolicy)
	}
	if _, ok := priorityNames[c.PrivilegedClass]; !ok {
		return fmt.Errorf("unknown privileged class %d", int(c.PrivilegedClass))
	}
	if c.ResponderPoolSize < 1 {
		return fmt.Errorf("responder_pool_size must be >= 1, got %d", c.ResponderPoolSize)
	}
	if c.ReassignBackoff <= 0 {
		return fmt.Errorf("reassign_backoff must be positive, got %v", c.ReassignBackoff)
	}
	if !IsValidBackoffStrategy(c.BackoffStrategy) {
		return fmt.Errorf("unknown backoff strategy %q", c.BackoffStrategy)
	}
	if c.MaxBackoff < 0 {
		return fmt.Errorf("max_backoff must be non-negative, got %v", c.MaxBackoff)
	}
	if c.ServiceTimeScale < 0 {
		return fmt.Errorf("service_time_scale must be non-negative, got %v", c.ServiceTimeScale)
	}
	if c.ShiftStart < 0 {
		return fmt.Errorf("shift_start must be non-negative, got %f", c.ShiftStart)
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}

// RouterConfig returns the admission router parameters.
func (c Config) RouterConfig() RouterConfig {
	return RouterConfig{
		Threshold:    c.LaneLoadThreshold,
		Policy:       c.OpenPolicy,
		InitialLanes: c.InitialLanes,
		MaxLanes:     c.MaxLanes,
		Privileged:   c.PrivilegedClass,
	}
}

// PoolConfig returns the responder pool parameters.
func (c Config) PoolConfig() PoolConfig {
	return PoolConfig{
		Size:             c.ResponderPoolSize,
		ShiftStart:       c.ShiftStart,
		ServiceTimeScale: c.ServiceTimeScale,
		Backoff:          NewBackoffStrategy(c.BackoffStrategy, c.ReassignBackoff, c.MaxBackoff),
	}
}

// YAML renders the config in the same format LoadConfig reads.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("rendering config: %w", err)
	}
	return string(out), nil
}
