// Package client is the request orchestrator: the single entry point that
// wraps each outbound request with endpoint-keyed circuit breaking and
// bounded retry. It plays the role the reference implementation fills by
// monkey-patching the host HTTP library's request function; here that
// becomes an explicit decorator around an http.RoundTripper, following the
// reference's own design note that global mutation of third-party state is
// not required by the design.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/last9/pyhystrix/internal/breaker"
	"github.com/last9/pyhystrix/internal/classify"
	"github.com/last9/pyhystrix/internal/config"
	"github.com/last9/pyhystrix/internal/pyhlog"
	"github.com/last9/pyhystrix/internal/registry"
	"github.com/last9/pyhystrix/internal/retrypolicy"
	pyhmetrics "github.com/last9/pyhystrix/metrics/prometheus"
)

// RequestIDHeader is the correlation header added to every outbound request
// that doesn't already carry one.
const RequestIDHeader = "x-request-id"

// Client wraps an underlying http.RoundTripper with per-endpoint circuit
// breaking and retry. The zero value is not usable; construct with New.
type Client struct {
	cfg      config.Config
	registry *registry.Registry
	next     http.RoundTripper
	sleep    func(time.Duration)
	metrics  *pyhmetrics.Collector
}

// Registry exposes the endpoint breaker registry, primarily so a
// prometheus.Collector can be built from it with pyhmetrics.NewCollector.
func (c *Client) Registry() *registry.Registry { return c.registry }

// SetMetrics installs a metrics collector. When set, every transport
// attempt and every completed logical request is reported to it. Pass the
// collector built with pyhmetrics.NewCollector(c.Registry()), and register
// that collector with a prometheus.Registerer to expose breaker state as
// gauges too.
func (c *Client) SetMetrics(collector *pyhmetrics.Collector) {
	c.metrics = collector
}

// New builds a Client from cfg, dispatching every transport attempt of an
// admitted request, retries included, to next. If next is nil,
// http.DefaultTransport is used.
func New(cfg config.Config, next http.RoundTripper) *Client {
	if next == nil {
		next = http.DefaultTransport
	}
	c := &Client{cfg: cfg, next: next}
	c.registry = registry.New(func(endpointKey string) breaker.Config {
		return breaker.Config{
			Name:              endpointKey,
			AllowedFails:      cfg.CircuitFailThreshold,
			RetryTime:         cfg.CircuitDelay,
			RejectedThreshold: cfg.CircuitAliveThreshold,
			Classifier:        breaker.FailureErrors(cfg.RetriableErrors),
		}
	})
	return c
}

// HTTPClient returns an *http.Client that routes all requests through this
// orchestrator with no per-request overrides. Use Do directly when a call
// needs WithMaxTries, WithStatusForcelist, and similar per-request Options.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{Transport: c}
}

// Do executes req through the orchestrator: breaker admission, retry, and
// the breaker-closing-on-success rule, with opts applied on top of the
// process Config for this call only.
func (c *Client) Do(req *http.Request, opts ...Option) (*http.Response, error) {
	overrides := applyOptions(opts)
	ctx := context.WithValue(req.Context(), overridesKey{}, overrides)
	return c.RoundTrip(req.WithContext(ctx))
}

type overridesKey struct{}

// RoundTrip implements http.RoundTripper, so a Client can also be installed
// directly as an http.Client's Transport for callers who don't need
// per-request Options.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	overrides, _ := req.Context().Value(overridesKey{}).(requestOverrides)

	endpointKey := registry.Key(req.URL)
	cb, err := c.registry.Get(req.URL.String())
	if err != nil {
		return nil, fmt.Errorf("pyhystrix: resolving breaker for %s: %w", endpointKey, err)
	}

	if cb.IsOpen() {
		cb.IncrementRejected()
		pyhlog.Logger().Warn("request rejected by open circuit", "endpoint", endpointKey)
		c.observeRequest(pyhmetrics.OutcomeOpenCircuit)
		return nil, breaker.ErrOpenCircuit
	}

	ensureRequestID(req)

	connectTimeout, readTimeout := c.cfg.ConnectTimeout, c.cfg.ReadTimeout
	if overrides.connectTimeout != nil {
		connectTimeout = *overrides.connectTimeout
	}
	if overrides.readTimeout != nil {
		readTimeout = *overrides.readTimeout
	}
	ctx, cancel := context.WithTimeout(req.Context(), connectTimeout+readTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	retryOpts := c.retryOptions(req.Method, overrides)

	resp, err := retrypolicy.Do(cb, retryOpts, func() (*http.Response, error) {
		c.observeAttempt(endpointKey)
		attemptReq, cloneErr := cloneForAttempt(req)
		if cloneErr != nil {
			return nil, cloneErr
		}
		resp, rtErr := c.next.RoundTrip(attemptReq)
		return resp, classify.FromTransport(rtErr)
	})
	if err != nil {
		var exhausted *retrypolicy.Exhausted
		if errors.As(err, &exhausted) {
			pyhlog.Logger().Warn("retry budget exhausted", "endpoint", endpointKey, "attempts", exhausted.Attempts)
			c.observeRequest(pyhmetrics.OutcomeExhausted)
		} else {
			c.observeRequest(pyhmetrics.OutcomeError)
		}
		return nil, err
	}

	cb.MarkSuccess()
	c.observeRequest(pyhmetrics.OutcomeSuccess)
	return resp, nil
}

func (c *Client) observeAttempt(endpoint string) {
	if c.metrics != nil {
		c.metrics.ObserveAttempt(endpoint)
	}
}

func (c *Client) observeRequest(outcome pyhmetrics.Outcome) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(outcome)
	}
}

func (c *Client) retryOptions(method string, overrides requestOverrides) retrypolicy.Options {
	maxTries := c.cfg.MaxTries
	explicit := false
	if overrides.maxTries != nil {
		maxTries = *overrides.maxTries
		explicit = true
	}

	statusForcelist := c.cfg.StatusForcelist
	if overrides.statusForcelist != nil {
		statusForcelist = overrides.statusForcelist
	}

	backoffFactor := c.cfg.BackoffFactor
	if overrides.backoffFactor != nil {
		backoffFactor = *overrides.backoffFactor
	}

	return retrypolicy.Options{
		Method:           method,
		MaxTries:         maxTries,
		ExplicitMaxTries: explicit,
		StatusForcelist:  statusForcelist,
		MethodWhitelist:  c.cfg.MethodWhitelist,
		BackoffFactor:    backoffFactor,
		RetriableErrors:  c.cfg.RetriableErrors,
		Sleep:            c.sleep,
	}
}

func ensureRequestID(req *http.Request) {
	if req.Header.Get(RequestIDHeader) != "" {
		return
	}
	req.Header.Set(RequestIDHeader, uuid.New().String())
}

// cloneForAttempt produces a fresh *http.Request for one retry attempt,
// rewinding the body via GetBody so the same logical request can be sent
// more than once.
func cloneForAttempt(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody == nil {
		return clone, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("pyhystrix: rewinding request body for retry: %w", err)
	}
	clone.Body = body
	return clone, nil
}
