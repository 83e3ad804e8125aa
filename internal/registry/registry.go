// Package registry hands out a single Breaker per endpoint, creating it
// lazily on first use and never evicting it.
package registry

import (
	"net/url"
	"sync"

	"github.com/last9/pyhystrix/internal/breaker"
)

// BreakerConfig builds the breaker.Config for a freshly discovered
// endpoint key. The registry calls this exactly once per key, holding its
// own lock, so implementations don't need to be safe for concurrent use by
// more than one caller — but they must not themselves call back into the
// registry.
type BreakerConfig func(endpointKey string) breaker.Config

// Registry is the process-wide endpoint → Breaker map described by the
// request orchestrator. The zero value is not usable; construct with New.
type Registry struct {
	newConfig BreakerConfig

	mu       sync.Mutex
	breakers map[string]*breaker.Breaker
}

// New builds a Registry that configures each newly created Breaker with
// newConfig.
func New(newConfig BreakerConfig) *Registry {
	return &Registry{
		newConfig: newConfig,
		breakers:  make(map[string]*breaker.Breaker),
	}
}

// Key derives the endpoint key for u: scheme, host (with port if present),
// and path. The query string and fragment are intentionally excluded so
// that requests differing only in query parameters share a breaker.
func Key(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}

// Get returns the Breaker for rawURL's endpoint key, creating it if this is
// the first time the key has been seen. Creation is at-most-once per key
// even under concurrent callers.
func (r *Registry) Get(rawURL string) (*breaker.Breaker, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	key := Key(u)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[key]; ok {
		return cb, nil
	}

	cfg := r.newConfig(key)
	cfg.Name = key
	cb, err := breaker.New(cfg)
	if err != nil {
		return nil, err
	}
	r.breakers[key] = cb
	return cb, nil
}

// Range calls fn for every breaker currently registered, in no particular
// order. Range stops early if fn returns false. It's used by the
// Prometheus collector to scrape per-endpoint state without exposing the
// internal map.
func (r *Registry) Range(fn func(key string, cb *breaker.Breaker) bool) {
	r.mu.Lock()
	snapshot := make(map[string]*breaker.Breaker, len(r.breakers))
	for k, v := range r.breakers {
		snapshot[k] = v
	}
	r.mu.Unlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}

// Len reports how many distinct endpoint breakers exist.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.breakers)
}
