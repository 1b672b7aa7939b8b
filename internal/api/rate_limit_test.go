package api

import "testing"

func TestNewConnectorRateLimiterDisabled(t *testing.T) {
	if limiter := newConnectorRateLimiter(0, 10); limiter != nil {
		t.Fatalf("expected nil limiter when limit is 0")
	}
}

func TestNewConnectorRateLimiterNegativeFallsBackToDefault(t *testing.T) {
	limiter := newConnectorRateLimiter(-1, 1)
	if limiter == nil {
		t.Fatalf("expected default limiter for negative limit")
	}
}

func TestConnectorRateLimiterBurst(t *testing.T) {
	limiter := newConnectorRateLimiter(1, 2)

	if !limiter.Allow() {
		t.Fatalf("expected first request to be allowed")
	}
	if !limiter.Allow() {
		t.Fatalf("expected second request within burst to be allowed")
	}
	if limiter.Allow() {
		t.Fatalf("expected third request to be blocked")
	}
}

func TestConnectorRateLimiterBurstFloor(t *testing.T) {
	limiter := newConnectorRateLimiter(1, 0)

	if !limiter.Allow() {
		t.Fatalf("expected burst to be raised to one")
	}
	if limiter.Allow() {
		t.Fatalf("expected second request to be blocked")
	}
}
