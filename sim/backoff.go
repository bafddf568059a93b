package sim

import (
	"fmt"
	"math"
	"time"
)

// BackoffStrategy computes the delay before a responder rescan.
type BackoffStrategy interface {
	// Delay returns how long to wait after failed scan n (1-indexed).
	Delay(attempt int) time.Duration
}

// ConstantBackoff always waits the same interval. This is the default
// reassignment behaviour: a fixed short pause between full scans.
type ConstantBackoff struct {
	Interval time.Duration
}

// Delay returns the fixed interval.
func (c *ConstantBackoff) Delay(_ int) time.Duration {
	return c.Interval
}

// ExponentialBackoff doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && d > float64(e.Max) {
		return e.Max
	}
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// validBackoffStrategies maps accepted strategy names. Empty defaults to constant.
var validBackoffStrategies = map[string]bool{"": true, "constant": true, "exponential": true}

// IsValidBackoffStrategy returns true if name is a recognized backoff strategy.
func IsValidBackoffStrategy(name string) bool {
	return validBackoffStrategies[name]
}

// NewBackoffStrategy creates a strategy by name.
// Panics on unrecognized names.
func NewBackoffStrategy(name string, interval, maxDelay time.Duration) BackoffStrategy {
	if !IsValidBackoffStrategy(name) {
		panic(fmt.Sprintf("unknown backoff strategy %q", name))
	}
	switch name {
	case "", "constant":
		return &ConstantBackoff{Interval: interval}
	case "exponential":
		return &ExponentialBackoff{Initial: interval, Max: maxDelay}
	default:
		panic(fmt.Sprintf("unhandled backoff strategy %q", name))
	}
}
