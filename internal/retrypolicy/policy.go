// Package retrypolicy bounds the number of attempts made for one logical
// request and decides which outcomes deserve a retry. It is coupled to a
// breaker.Breaker: every retry decision also feeds the breaker, so a
// persistently failing endpoint trips its circuit mid-retry-loop instead of
// only after the orchestrator gives up.
package retrypolicy

import (
	"net/http"
	"slices"
	"time"

	"github.com/last9/pyhystrix/internal/breaker"
	"github.com/last9/pyhystrix/internal/classify"
)

// Attempt performs one transport call and returns its response or error.
type Attempt func() (*http.Response, error)

// Options configures a single logical request's retry behavior. The
// request orchestrator builds this from caller-supplied per-request
// overrides merged with the process Config.
type Options struct {
	// Method is the HTTP method being retried.
	Method string

	// MaxTries is the total attempt budget. 0 disables retry (exactly one
	// attempt is made).
	MaxTries int

	// ExplicitMaxTries records whether the caller passed MaxTries
	// themselves (rather than it coming from Config's default). Per the
	// opt-in rule, an explicit MaxTries > 0 adds Method to the effective
	// whitelist even if it wasn't in MethodWhitelist.
	ExplicitMaxTries bool

	// StatusForcelist lists response statuses that trigger a retry when
	// Method is in the effective whitelist.
	StatusForcelist []int

	// MethodWhitelist lists methods eligible for status-based retry
	// without the explicit per-call opt-in.
	MethodWhitelist []string

	// BackoffFactor is the base, in seconds, of the exponential backoff
	// delay applied between attempts.
	BackoffFactor float64

	// RetriableErrors classifies which transport errors trigger a retry
	// (and failure accounting).
	RetriableErrors classify.Set

	// Sleep is the delay primitive used between attempts. Defaults to
	// time.Sleep; tests substitute a no-op or recording function.
	Sleep func(time.Duration)
}

func (o Options) effectiveWhitelist() []string {
	if o.ExplicitMaxTries && o.MaxTries > 0 && !slices.Contains(o.MethodWhitelist, o.Method) {
		return append(slices.Clone(o.MethodWhitelist), o.Method)
	}
	return o.MethodWhitelist
}

func (o Options) sleep(d time.Duration) {
	if o.Sleep != nil {
		o.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Do runs attempt at most opts.MaxTries times in total: MaxTries is the
// whole attempt budget, not a count of retries after a first try, and a
// MaxTries of 0 (or less) still makes exactly one attempt. Between retries
// it calls cb.MarkFailure and
// aborts immediately if cb.IsOpen afterward, surfacing the most recent
// outcome rather than a fresh OpenCircuit.
func Do(cb *breaker.Breaker, opts Options, attempt Attempt) (*http.Response, error) {
	maxTries := opts.MaxTries
	if maxTries < 1 {
		maxTries = 1
	}
	whitelist := opts.effectiveWhitelist()

	var lastErr error
	for n := 1; n <= maxTries; n++ {
		resp, err := attempt()

		if err == nil {
			if slices.Contains(opts.StatusForcelist, resp.StatusCode) && slices.Contains(whitelist, opts.Method) {
				lastErr = &StatusError{StatusCode: resp.StatusCode}
			} else {
				return resp, nil
			}
		} else {
			if !opts.RetriableErrors.Match(err) {
				return resp, err
			}
			lastErr = err
		}

		if n == maxTries {
			break
		}

		cb.MarkFailure()
		if cb.IsOpen() {
			return nil, &Exhausted{Attempts: n, Last: lastErr}
		}

		opts.sleep(Backoff(opts.BackoffFactor, n))
	}

	return nil, &Exhausted{Attempts: maxTries, Last: lastErr}
}
