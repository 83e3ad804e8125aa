package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/last9/pyhystrix/internal/breaker"
	"github.com/last9/pyhystrix/internal/registry"
)

var errBoom = errors.New("boom")

func TestCollectorReportsBreakerState(t *testing.T) {
	reg := registry.New(func(key string) breaker.Config {
		return breaker.Config{
			Name:              key,
			AllowedFails:      1,
			RetryTime:         5 * time.Second,
			RejectedThreshold: 20,
		}
	})
	cb, err := reg.Get("https://api.example.com/things")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	cb.Call(func() (any, error) { return nil, errBoom })

	c := NewCollector(reg)
	ch := make(chan prometheus.Metric, 16)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	found := 0
	for m := range ch {
		var out dto.Metric
		if err := m.Write(&out); err != nil {
			t.Fatalf("Write: %v", err)
		}
		found++
	}
	if found == 0 {
		t.Fatal("expected at least one metric from Collect")
	}
}
