package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"PYH_CONNECT_TIMEOUT", "PYH_READ_TIMEOUT", "PHY_MAX_TRIES",
		"PHY_BACKOFF_FACTOR", "PYH_CIRCUIT_FAIL_THRESHOLD",
		"PYH_CIRCUIT_DELAY", "PYH_CIRCUIT_ALIVE_THRESHOLD",
	}
	for _, v := range vars {
		old, had := os.LookupEnv(v)
		os.Unsetenv(v)
		t.Cleanup(func() {
			if had {
				os.Setenv(v, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want %v", cfg.ConnectTimeout, DefaultConnectTimeout)
	}
	if cfg.MaxTries != DefaultMaxTries {
		t.Errorf("MaxTries = %d, want %d", cfg.MaxTries, DefaultMaxTries)
	}
	if cfg.BackoffFactor != DefaultBackoffFactor {
		t.Errorf("BackoffFactor = %v, want %v", cfg.BackoffFactor, DefaultBackoffFactor)
	}
	if cfg.CircuitFailThreshold != DefaultCircuitFailThreshold {
		t.Errorf("CircuitFailThreshold = %d, want %d", cfg.CircuitFailThreshold, DefaultCircuitFailThreshold)
	}
	if len(cfg.MethodWhitelist) != 2 {
		t.Errorf("expected default method whitelist of {HEAD, GET}, got %v", cfg.MethodWhitelist)
	}
	if len(cfg.StatusForcelist) != 1 || cfg.StatusForcelist[0] != 500 {
		t.Errorf("expected default status forcelist {500}, got %v", cfg.StatusForcelist)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("PYH_CONNECT_TIMEOUT", "2")
	os.Setenv("PHY_MAX_TRIES", "7")
	os.Setenv("PHY_BACKOFF_FACTOR", "1.5")
	os.Setenv("PYH_CIRCUIT_DELAY", "10")

	cfg := Load()
	if cfg.ConnectTimeout != 2*time.Second {
		t.Errorf("ConnectTimeout = %v, want 2s", cfg.ConnectTimeout)
	}
	if cfg.MaxTries != 7 {
		t.Errorf("MaxTries = %d, want 7", cfg.MaxTries)
	}
	if cfg.BackoffFactor != 1.5 {
		t.Errorf("BackoffFactor = %v, want 1.5", cfg.BackoffFactor)
	}
	if cfg.CircuitDelay != 10*time.Second {
		t.Errorf("CircuitDelay = %v, want 10s", cfg.CircuitDelay)
	}
}

func TestLoadFallsBackOnUnparsable(t *testing.T) {
	clearEnv(t)
	os.Setenv("PHY_MAX_TRIES", "not-a-number")
	cfg := Load()
	if cfg.MaxTries != DefaultMaxTries {
		t.Errorf("expected fallback to default on unparsable value, got %d", cfg.MaxTries)
	}
}
