// Package config loads the process-wide, immutable resilience
// configuration from the environment once per process. It is the Go
// analogue of the reference client's Config static-method namespace: the
// same environment variables, the same defaults, read once and never
// re-read mid-flight.
package config

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/last9/pyhystrix/internal/classify"
)

// Config is an immutable snapshot of the resilience layer's tunables.
type Config struct {
	// ConnectTimeout and ReadTimeout are the default transport timeouts
	// applied when a caller's request doesn't specify its own.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// MaxTries is the default attempt budget; 0 disables retry.
	MaxTries int
	// BackoffFactor is the base, in seconds, of the exponential backoff
	// delay: backoff_factor * 2^(n-1) before attempt n.
	BackoffFactor float64

	// RetriableErrors classifies which transport failures the retry
	// policy treats as retriable, and which the breaker counts as
	// failures.
	RetriableErrors classify.Set

	// MethodWhitelist lists the HTTP methods eligible for status-based
	// retry without an explicit per-call opt-in.
	MethodWhitelist []string
	// StatusForcelist lists response status codes that trigger a retry
	// when the method is in the effective whitelist.
	StatusForcelist []int

	// CircuitFailThreshold feeds allowed_fails: consecutive failures
	// before a breaker trips to Open.
	CircuitFailThreshold int
	// CircuitDelay feeds retry_time: how long a breaker stays Open before
	// becoming eligible for Half-Open under the time-based rule.
	CircuitDelay time.Duration
	// CircuitAliveThreshold feeds rejected_threshold: Open-state
	// rejections that force Half-Open eligibility independent of time.
	CircuitAliveThreshold int
}

// Default values, used whenever the corresponding environment variable is
// unset or unparsable. These mirror the reference client's Config exactly.
const (
	DefaultConnectTimeout        = 5 * time.Second
	DefaultReadTimeout           = 5 * time.Second
	DefaultMaxTries              = 3
	DefaultBackoffFactor         = 0.5
	DefaultCircuitFailThreshold  = 5
	DefaultCircuitDelay          = 5 * time.Second
	DefaultCircuitAliveThreshold = 20
)

// Load reads Config from the environment. It never returns an error:
// unparsable or missing values silently fall back to their documented
// default, matching the reference client's permissive os.environ.get
// style.
func Load() Config {
	return Config{
		ConnectTimeout:        envSeconds("PYH_CONNECT_TIMEOUT", DefaultConnectTimeout),
		ReadTimeout:           envSeconds("PYH_READ_TIMEOUT", DefaultReadTimeout),
		MaxTries:              envInt("PHY_MAX_TRIES", DefaultMaxTries),
		BackoffFactor:         envFloat("PHY_BACKOFF_FACTOR", DefaultBackoffFactor),
		RetriableErrors:       classify.NewSet(classify.Connection, classify.DNS, classify.Timeout),
		MethodWhitelist:       []string{http.MethodHead, http.MethodGet},
		StatusForcelist:       []int{http.StatusInternalServerError},
		CircuitFailThreshold:  envInt("PYH_CIRCUIT_FAIL_THRESHOLD", DefaultCircuitFailThreshold),
		CircuitDelay:          envSeconds("PYH_CIRCUIT_DELAY", DefaultCircuitDelay),
		CircuitAliveThreshold: envInt("PYH_CIRCUIT_ALIVE_THRESHOLD", DefaultCircuitAliveThreshold),
	}
}

func envInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(name string, def float64) float64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envSeconds(name string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}
