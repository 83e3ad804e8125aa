package retrypolicy

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/last9/pyhystrix/internal/breaker"
	"github.com/last9/pyhystrix/internal/classify"
	"github.com/last9/pyhystrix/internal/clock"
)

func newBreaker(t *testing.T, fc *clock.Fake, allowedFails, rejectedThreshold int) *breaker.Breaker {
	t.Helper()
	cb, err := breaker.New(breaker.Config{
		Name:              "test",
		AllowedFails:      allowedFails,
		RetryTime:         5 * time.Second,
		RejectedThreshold: rejectedThreshold,
		Clock:             fc,
	})
	if err != nil {
		t.Fatalf("breaker.New: %v", err)
	}
	return cb
}

func noSleep(time.Duration) {}

var errConn = classify.New(classify.Connection, errors.New("connection refused"))

// Scenario 1: default retry on GET connect failure makes exactly max_tries
// transport attempts, then surfaces Exhausted; breaker not yet Open.
func TestDefaultRetryOnConnectFailure(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	cb := newBreaker(t, fc, 5, 20)

	attempts := 0
	_, err := Do(cb, Options{
		Method:          http.MethodGet,
		MaxTries:        3,
		RetriableErrors: classify.NewSet(classify.Connection),
		MethodWhitelist: []string{http.MethodHead, http.MethodGet},
		BackoffFactor:   0.5,
		Sleep:           noSleep,
	}, func() (*http.Response, error) {
		attempts++
		return nil, errConn
	})

	if attempts != 3 {
		t.Fatalf("expected 3 transport attempts, got %d", attempts)
	}
	var exhausted *Exhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected Exhausted, got %v", err)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected errors.Is(err, ErrRetryExhausted) to match")
	}
	if cb.IsOpen() {
		t.Fatalf("breaker should not yet be open after 3 of 5 allowed failures")
	}
}

// Scenario 2: breaker opens after threshold — max_tries=7 but the breaker
// trips after the 5th consecutive failure, aborting the rest of the budget.
func TestBreakerOpensMidRetryAbortsBudget(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	cb := newBreaker(t, fc, 5, 20)

	attempts := 0
	_, err := Do(cb, Options{
		Method:          http.MethodGet,
		MaxTries:        7,
		RetriableErrors: classify.NewSet(classify.Connection),
		MethodWhitelist: []string{http.MethodHead, http.MethodGet},
		BackoffFactor:   0.01,
		Sleep:           noSleep,
	}, func() (*http.Response, error) {
		attempts++
		return nil, errConn
	})

	if attempts != 5 {
		t.Fatalf("expected exactly 5 transport attempts, got %d", attempts)
	}
	if err == nil {
		t.Fatal("expected an error")
	}
	if !cb.IsOpen() {
		t.Fatalf("expected breaker to be open")
	}
}

// Scenario 6: PUT against a 500-returning server retries only because the
// caller explicitly opted a non-idempotent method in via max_tries > 0.
func TestExplicitMaxTriesWhitelistsMethod(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	cb := newBreaker(t, fc, 5, 20)

	attempts := 0
	resp500 := &http.Response{StatusCode: http.StatusInternalServerError}
	_, err := Do(cb, Options{
		Method:           http.MethodPut,
		MaxTries:         7,
		ExplicitMaxTries: true,
		StatusForcelist:  []int{500},
		MethodWhitelist:  []string{http.MethodHead, http.MethodGet},
		BackoffFactor:    0.01,
		Sleep:            noSleep,
	}, func() (*http.Response, error) {
		attempts++
		return resp500, nil
	})

	if attempts != 5 {
		t.Fatalf("expected exactly 5 transport attempts (cb_fail_threshold), got %d", attempts)
	}
	var exhausted *Exhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected Exhausted, got %v", err)
	}
}

// Without an explicit opt-in, PUT is not in the default whitelist, so a
// 500 response is returned as-is without any retry.
func TestNonWhitelistedMethodDoesNotRetryOn500(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	cb := newBreaker(t, fc, 5, 20)

	attempts := 0
	resp500 := &http.Response{StatusCode: http.StatusInternalServerError}
	resp, err := Do(cb, Options{
		Method:          http.MethodPut,
		MaxTries:        3,
		StatusForcelist: []int{500},
		MethodWhitelist: []string{http.MethodHead, http.MethodGet},
		BackoffFactor:   0.01,
		Sleep:           noSleep,
	}, func() (*http.Response, error) {
		attempts++
		return resp500, nil
	})

	if attempts != 1 {
		t.Fatalf("expected exactly 1 transport attempt, got %d", attempts)
	}
	if err != nil {
		t.Fatalf("expected no error (status forcelist doesn't apply), got %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("expected the 500 response to be returned as-is")
	}
}

// A non-retriable error propagates immediately without touching the
// breaker from the retry layer.
func TestNonRetriableErrorPropagatesImmediately(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	cb := newBreaker(t, fc, 5, 20)

	boom := errors.New("boom")
	attempts := 0
	_, err := Do(cb, Options{
		Method:          http.MethodGet,
		MaxTries:        3,
		RetriableErrors: classify.NewSet(classify.Connection),
		Sleep:           noSleep,
	}, func() (*http.Response, error) {
		attempts++
		return nil, boom
	})

	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", attempts)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom to propagate unwrapped, got %v", err)
	}
	if cb.Snapshot().FailureCount != 0 {
		t.Fatalf("non-retriable error must not touch breaker state from the retry layer")
	}
}
