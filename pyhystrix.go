// Package pyhystrix is a client-side HTTP resilience layer: bounded
// retry-with-backoff plus a per-endpoint circuit breaker, wrapped around an
// http.RoundTripper.
//
// # Overview
//
// Every outbound call passes through a Client, which resolves the
// destination's circuit breaker from the Client's own Registry, rejects the
// call outright if that breaker is Open, and otherwise drives the call
// through a bounded retry policy that consults the breaker between
// attempts. A successful call always closes the breaker, even a probe from
// Half-Open.
//
// # Quick Start
//
//	c := pyhystrix.New(pyhystrix.LoadConfig(), nil)
//	resp, err := c.Do(req)
//	if errors.Is(err, pyhystrix.ErrOpenCircuit) {
//	    // breaker is open for this endpoint, fail fast
//	}
//
// Per-request overrides use functional options:
//
//	resp, err := c.Do(req, pyhystrix.WithMaxTries(1), pyhystrix.WithTimeout(2*time.Second))
//
// # Configuration
//
// LoadConfig reads the environment once; see LoadConfig for the variable
// names and defaults. Configuration is immutable once
// loaded — changing behavior requires constructing a new Client.
//
// # Observability
//
// Install a custom *slog.Logger with SetLogger, or leave the PHY_LOG
// environment variable to control the default logger's level. Export
// breaker and retry metrics to Prometheus by registering a
// metrics/prometheus.Collector built from Client.Registry().
package pyhystrix

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/last9/pyhystrix/client"
	"github.com/last9/pyhystrix/internal/breaker"
	"github.com/last9/pyhystrix/internal/classify"
	"github.com/last9/pyhystrix/internal/config"
	"github.com/last9/pyhystrix/internal/pyhlog"
	"github.com/last9/pyhystrix/internal/registry"
	"github.com/last9/pyhystrix/internal/retrypolicy"
)

// Client is the request orchestrator: an http.RoundTripper decorator that
// applies per-endpoint circuit breaking and bounded retry to every request
// it sees.
type Client = client.Client

// New builds a Client from cfg, dispatching every transport attempt of an
// admitted request, retries included, to next. A nil next uses
// http.DefaultTransport.
func New(cfg Config, next http.RoundTripper) *Client {
	return client.New(cfg, next)
}

// Config is the immutable, environment-derived resilience configuration.
// Construct it with LoadConfig.
type Config = config.Config

// LoadConfig reads Config from the environment: PYH_CONNECT_TIMEOUT and
// PYH_READ_TIMEOUT (seconds, default 5 each), PHY_MAX_TRIES (default 3),
// PHY_BACKOFF_FACTOR (seconds, default 0.5), PYH_CIRCUIT_FAIL_THRESHOLD
// (default 5), PYH_CIRCUIT_DELAY (seconds, default 5) and
// PYH_CIRCUIT_ALIVE_THRESHOLD (default 20). Every field falls back to its
// default when its variable is unset or unparsable.
func LoadConfig() Config {
	return config.Load()
}

// Option overrides part of a single request's resilience behavior. See
// WithMaxTries, WithStatusForcelist, WithBackoffFactor, and WithTimeout.
type Option = client.Option

// WithMaxTries overrides the attempt budget for one request.
func WithMaxTries(n int) Option { return client.WithMaxTries(n) }

// WithStatusForcelist overrides which response statuses trigger a retry
// for one request.
func WithStatusForcelist(statuses ...int) Option { return client.WithStatusForcelist(statuses...) }

// WithBackoffFactor overrides the exponential backoff base, in seconds,
// for one request.
func WithBackoffFactor(factor float64) Option { return client.WithBackoffFactor(factor) }

// WithTimeout overrides both the connect and read timeout for one request.
func WithTimeout(d time.Duration) Option { return client.WithTimeout(d) }

// WithConnectReadTimeout overrides the connect and read timeouts
// independently for one request.
func WithConnectReadTimeout(connect, read time.Duration) Option {
	return client.WithConnectReadTimeout(connect, read)
}

// State is a circuit breaker's current phase: Closed, Open, or HalfOpen.
type State = breaker.State

const (
	Closed   = breaker.Closed
	Open     = breaker.Open
	HalfOpen = breaker.HalfOpen
)

// Registry hands out one Breaker per endpoint. Client owns one internally;
// Registry is exported for building a metrics collector over it.
type Registry = registry.Registry

// ErrOpenCircuit is returned when a request is rejected because its
// endpoint's breaker is Open. No network I/O occurred.
var ErrOpenCircuit = breaker.ErrOpenCircuit

// ErrConfig is matched, via errors.Is, by the error returned when a breaker
// is constructed with an invalid configuration, such as a non-positive
// failure threshold, retry time or rejected threshold.
var ErrConfig = breaker.ErrConfig

// RetryExhausted is surfaced when a request's attempt budget runs out
// without a terminal success.
type RetryExhausted = retrypolicy.Exhausted

// ErrRetryExhausted is the sentinel to match with errors.Is when only the
// exhausted-budget outcome matters, not RetryExhausted's fields.
var ErrRetryExhausted = retrypolicy.ErrRetryExhausted

// ErrorKind tags a transport error with its place in the failure
// taxonomy used by classifier error sets.
type ErrorKind = classify.Kind

// Predefined transport error kinds.
var (
	KindTransportError = classify.TransportError
	KindConnection     = classify.Connection
	KindTimeout        = classify.Timeout
	KindDNS            = classify.DNS
	KindCanceled       = classify.Canceled
)

// SetLogger installs a custom structured logger for the package. Call it
// before the first request if you don't want the PHY_LOG-derived default.
func SetLogger(l *slog.Logger) { pyhlog.SetLogger(l) }
