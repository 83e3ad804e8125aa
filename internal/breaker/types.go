// Package breaker implements a single-endpoint circuit breaker: a
// mutex-guarded three-state machine (Closed, Open, Half-Open) that decides
// whether a call should be attempted and classifies its outcome.
//
// A Breaker knows nothing about HTTP, retry budgets, or endpoint registries;
// it is the leaf of the fault-tolerance engine. The registry and retry
// packages build on top of it.
package breaker

import (
	"errors"
	"time"

	"github.com/last9/pyhystrix/internal/classify"
	"github.com/last9/pyhystrix/internal/clock"
)

// State is the circuit breaker's current phase.
type State int32

const (
	// Closed is the healthy state: calls pass through and failures are counted.
	Closed State = iota
	// Open is the unhealthy state: calls are rejected without being attempted.
	Open
	// HalfOpen is the probing state: calls are let through, and the first
	// outcome recorded decides whether the breaker closes or reopens. The
	// number of calls admitted concurrently while HalfOpen is not limited.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpenCircuit is returned by Call, and by the client orchestrator, when a
// call is rejected because the breaker is Open. No network I/O occurs when
// this error is returned. The retry policy does not return it: when the
// breaker opens between attempts, the policy returns its Exhausted error.
var ErrOpenCircuit = errors.New("pyhystrix: circuit breaker is open")

// ErrConfig is returned by New when a Config is invalid.
var ErrConfig = errors.New("pyhystrix: invalid breaker configuration")

// Validator checks whether a successful call's result value should still
// count as a success. A nil Validator means every non-error result is a
// success. Validator mirrors the reference implementation's
// validation_func hook.
type Validator func(result any) bool

// Classifier selects which of the breaker's two mutually exclusive
// error-set modes is active, mirroring the reference implementation's
// allowed_exceptions/failure_exceptions pair. The zero Classifier treats
// every non-nil error as a failure.
type Classifier struct {
	mode classifierMode
	set  classify.Set
}

type classifierMode int

const (
	modeNone classifierMode = iota
	modeAllowed
	modeFailure
)

// NoClassifier is the default: any error is a failure.
func NoClassifier() Classifier { return Classifier{mode: modeNone} }

// AllowedErrors builds a Classifier where errors matching set count as
// neither success nor failure, leaving breaker state untouched; any other
// error is a failure.
func AllowedErrors(set classify.Set) Classifier {
	return Classifier{mode: modeAllowed, set: set}
}

// FailureErrors builds a Classifier where only errors matching set count as
// failures; any other error counts as neither success nor failure.
func FailureErrors(set classify.Set) Classifier {
	return Classifier{mode: modeFailure, set: set}
}

// outcome classifies a non-nil error against the configured mode.
// skip means the error should not move the breaker's counters at all.
func (c Classifier) outcome(err error) (failure bool, skip bool) {
	switch c.mode {
	case modeAllowed:
		if c.set.Match(err) {
			return false, true
		}
		return true, false
	case modeFailure:
		if c.set.Match(err) {
			return true, false
		}
		return false, true
	default:
		return true, false
	}
}

// Config configures a Breaker. Construct with New; New validates Config and
// returns ErrConfig if it's unusable.
type Config struct {
	// Name identifies the breaker, typically an endpoint key. Used only for
	// logging and metrics labels.
	Name string

	// AllowedFails is the number of consecutive failures tolerated in
	// Closed state before the breaker trips to Open. Must be > 0.
	AllowedFails int

	// RetryTime is how long the breaker stays Open before becoming
	// eligible for Half-Open under the time-based rule. Must be > 0.
	RetryTime time.Duration

	// RejectedThreshold is the number of Open-state rejections that also
	// forces Half-Open eligibility, independent of RetryTime elapsing.
	// Must be > 0.
	RejectedThreshold int

	// Classifier selects the allowed/failure error-set mode. The zero
	// value, NoClassifier(), treats every error as a failure.
	Classifier Classifier

	// Validator, if set, is consulted on every call that returned no
	// error; a result value it rejects is treated as a failure.
	Validator Validator

	// Clock is the time source used for half-open eligibility checks.
	// Defaults to clock.Real{} if nil.
	Clock clock.Clock
}

func (c Config) validate() error {
	switch {
	case c.AllowedFails <= 0:
		return errors.New("pyhystrix: AllowedFails must be > 0")
	case c.RetryTime <= 0:
		return errors.New("pyhystrix: RetryTime must be > 0")
	case c.RejectedThreshold <= 0:
		return errors.New("pyhystrix: RejectedThreshold must be > 0")
	default:
		return nil
	}
}

// Snapshot is a point-in-time copy of a Breaker's counters, safe to read
// without holding the breaker's lock. Used by diagnostics and the
// Prometheus collector.
type Snapshot struct {
	Name          string
	State         State
	FailureCount  int
	RejectedCount int
	HalfOpenAt    time.Time
}
