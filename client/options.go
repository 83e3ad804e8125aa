package client

import "time"

// Option overrides part of a single request's resilience behavior. Options
// apply on top of the process Config; an unset Option leaves the Config
// default in place.
type Option func(*requestOverrides)

type requestOverrides struct {
	maxTries        *int
	statusForcelist []int
	backoffFactor   *float64
	connectTimeout  *time.Duration
	readTimeout     *time.Duration
}

// WithMaxTries overrides the attempt budget for this request. A value
// greater than 0 also opts a non-whitelisted method into status-based
// retry for this call, per the method-whitelist opt-in rule; a value of 0
// disables retry outright, making the whitelist moot.
func WithMaxTries(n int) Option {
	return func(o *requestOverrides) { o.maxTries = &n }
}

// WithStatusForcelist overrides which response statuses trigger a retry for
// this request.
func WithStatusForcelist(statuses ...int) Option {
	return func(o *requestOverrides) { o.statusForcelist = statuses }
}

// WithBackoffFactor overrides the exponential backoff base, in seconds, for
// this request.
func WithBackoffFactor(factor float64) Option {
	return func(o *requestOverrides) { o.backoffFactor = &factor }
}

// WithTimeout overrides both the connect and read timeout for this request.
func WithTimeout(d time.Duration) Option {
	return func(o *requestOverrides) {
		o.connectTimeout = &d
		o.readTimeout = &d
	}
}

// WithConnectReadTimeout overrides the connect and read timeouts
// independently for this request.
func WithConnectReadTimeout(connect, read time.Duration) Option {
	return func(o *requestOverrides) {
		o.connectTimeout = &connect
		o.readTimeout = &read
	}
}

func applyOptions(opts []Option) requestOverrides {
	var o requestOverrides
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
