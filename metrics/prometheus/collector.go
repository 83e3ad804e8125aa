// Package prometheus exports the resilience layer's per-endpoint breaker
// state and counters as Prometheus metrics, following the same
// Collector-scrapes-live-state pattern the teacher pack's own
// examples/prometheus integration uses for autobreaker.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/last9/pyhystrix/internal/breaker"
	"github.com/last9/pyhystrix/internal/registry"
)

// Collector implements prometheus.Collector by scraping a Registry on
// every collection pass. It holds no counters of its own for breaker
// state — those live on the breakers — but does own the monotonic
// attempt/outcome counters that the registry itself can't see.
type Collector struct {
	registry *registry.Registry

	state         *prometheus.Desc
	failureCount  *prometheus.Desc
	rejectedCount *prometheus.Desc

	retryAttempts *prometheus.CounterVec
	requestsTotal *prometheus.CounterVec
}

// NewCollector builds a Collector scraping reg. Register it with a
// prometheus.Registerer to expose the pyhystrix_* metric family.
func NewCollector(reg *registry.Registry) *Collector {
	return &Collector{
		registry: reg,
		state: prometheus.NewDesc(
			"pyhystrix_breaker_state",
			"Current breaker state (0=closed, 1=open, 2=half-open).",
			[]string{"endpoint"}, nil,
		),
		failureCount: prometheus.NewDesc(
			"pyhystrix_breaker_failure_count",
			"Consecutive failure count observed by the breaker.",
			[]string{"endpoint"}, nil,
		),
		rejectedCount: prometheus.NewDesc(
			"pyhystrix_breaker_rejected_count",
			"Rejections observed while the breaker was open.",
			[]string{"endpoint"}, nil,
		),
		retryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pyhystrix_retry_attempts_total",
			Help: "Transport attempts made by the retry policy, by endpoint.",
		}, []string{"endpoint"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pyhystrix_requests_total",
			Help: "Logical requests completed through the orchestrator, by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveAttempt increments the attempt counter for endpoint. The client
// package calls this once per transport attempt the retry policy makes.
func (c *Collector) ObserveAttempt(endpoint string) {
	c.retryAttempts.WithLabelValues(endpoint).Inc()
}

// Outcome labels a completed logical request for ObserveRequest.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeOpenCircuit Outcome = "open_circuit"
	OutcomeExhausted   Outcome = "retry_exhausted"
	OutcomeError       Outcome = "error"
)

// ObserveRequest increments the outcome counter for a completed logical
// request. The client package calls this once per Do/RoundTrip call.
func (c *Collector) ObserveRequest(outcome Outcome) {
	c.requestsTotal.WithLabelValues(string(outcome)).Inc()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.state
	ch <- c.failureCount
	ch <- c.rejectedCount
	c.retryAttempts.Describe(ch)
	c.requestsTotal.Describe(ch)
}

// Collect implements prometheus.Collector, scraping the live registry on
// every call so gauges never go stale between scrapes.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.registry.Range(func(endpoint string, cb *breaker.Breaker) bool {
		snap := cb.Snapshot()
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, float64(snap.State), endpoint)
		ch <- prometheus.MustNewConstMetric(c.failureCount, prometheus.GaugeValue, float64(snap.FailureCount), endpoint)
		ch <- prometheus.MustNewConstMetric(c.rejectedCount, prometheus.GaugeValue, float64(snap.RejectedCount), endpoint)
		return true
	})
	c.retryAttempts.Collect(ch)
	c.requestsTotal.Collect(ch)
}
