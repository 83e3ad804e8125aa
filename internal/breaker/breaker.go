package breaker

import (
	"sync"
	"time"

	"github.com/last9/pyhystrix/internal/clock"
)

// Breaker guards calls to a single endpoint. All state is protected by a
// single mutex; outcome classification happens inside the critical section,
// but the guarded function itself runs with the lock released so a slow
// downstream call never blocks unrelated goroutines from observing or
// updating breaker state.
type Breaker struct {
	cfg Config

	mu            sync.Mutex
	state         State
	failureCount  int
	rejectedCount int
	halfOpenAt    time.Time
}

// New builds a Breaker from cfg. It validates cfg and fills in a real clock
// if none was supplied.
func New(cfg Config) (*Breaker, error) {
	if err := cfg.validate(); err != nil {
		return nil, ConfigError{err}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	return &Breaker{cfg: cfg, state: Closed}, nil
}

// ConfigError wraps a validation failure from New so callers can match it
// with errors.Is(err, ErrConfig).
type ConfigError struct{ err error }

func (e ConfigError) Error() string { return e.err.Error() }
func (e ConfigError) Unwrap() error { return ErrConfig }

// Name returns the breaker's identifier.
func (cb *Breaker) Name() string { return cb.cfg.Name }

// IsOpen reports whether the breaker currently rejects calls, applying the
// state-refresh rule first. It does not count as a rejection by itself.
func (cb *Breaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	return cb.state == Open
}

// State returns the breaker's current phase, after applying the
// state-refresh rule.
func (cb *Breaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	return cb.state
}

// Snapshot returns a consistent copy of the breaker's counters.
func (cb *Breaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	return Snapshot{
		Name:          cb.cfg.Name,
		State:         cb.state,
		FailureCount:  cb.failureCount,
		RejectedCount: cb.rejectedCount,
		HalfOpenAt:    cb.halfOpenAt,
	}
}

// Close forces the breaker back to Closed and clears its counters. It is
// meant for operator intervention and tests, not for the normal call path.
func (cb *Breaker) Close() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = Closed
	cb.failureCount = 0
	cb.rejectedCount = 0
}

// Call runs fn through the breaker. If the breaker is Open, fn is never
// invoked and Call returns ErrOpenCircuit. Otherwise fn runs with the
// breaker's lock released, and its outcome is classified against cfg.
func (cb *Breaker) Call(fn func() (any, error)) (any, error) {
	cb.mu.Lock()
	cb.refreshLocked()
	if cb.state == Open {
		cb.rejectedCount++
		cb.mu.Unlock()
		return nil, ErrOpenCircuit
	}
	cb.mu.Unlock()

	result, err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.classifyLocked(result, err)
	return result, err
}

// classifyLocked applies cfg.Classifier and cfg.Validator to a call outcome
// and updates the state machine accordingly. Must be called with cb.mu held.
func (cb *Breaker) classifyLocked(result any, err error) {
	if err == nil {
		if cb.cfg.Validator != nil && !cb.cfg.Validator(result) {
			cb.recordFailureLocked()
			return
		}
		cb.recordSuccessLocked()
		return
	}

	failure, skip := cb.cfg.Classifier.outcome(err)
	if skip {
		return
	}
	if failure {
		cb.recordFailureLocked()
		return
	}
	cb.recordSuccessLocked()
}

// MarkFailure records a failure observed outside of Call — the retry
// policy uses this between attempts it drives itself, mirroring the
// reference client's circuit.mark_failure().
func (cb *Breaker) MarkFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	cb.recordFailureLocked()
}

// MarkSuccess records a success observed outside of Call.
func (cb *Breaker) MarkSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	cb.recordSuccessLocked()
}

// IncrementRejected records a rejection observed by a caller that checked
// IsOpen itself rather than going through Call — the request orchestrator
// uses this so it can skip the network entirely without invoking fn.
func (cb *Breaker) IncrementRejected() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	cb.rejectedCount++
}
