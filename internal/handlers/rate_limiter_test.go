package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFixedWindowLimiter(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := newFixedWindowLimiter(2, time.Minute, func() time.Time { return now })

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow("10.0.0.1"); !ok {
			t.Fatalf("expected hit %d to be allowed", i+1)
		}
	}
	ok, retryAfter := limiter.Allow("10.0.0.1")
	if ok {
		t.Fatalf("expected third hit to be rejected")
	}
	if retryAfter != time.Minute {
		t.Fatalf("expected retry after 1m, got %s", retryAfter)
	}
	if ok, _ := limiter.Allow("10.0.0.2"); !ok {
		t.Fatalf("expected other key to be allowed")
	}

	now = now.Add(time.Minute)
	if ok, _ := limiter.Allow("10.0.0.1"); !ok {
		t.Fatalf("expected window reset to allow")
	}
}

func TestFixedWindowLimiterDisabled(t *testing.T) {
	if limiter := newFixedWindowLimiter(0, time.Minute, nil); limiter != nil {
		t.Fatalf("expected nil limiter for zero limit")
	}
	var limiter *fixedWindowLimiter
	if ok, _ := limiter.Allow("any"); !ok {
		t.Fatalf("expected nil limiter to allow")
	}
}

func TestLimitByIPWritesRetryAfter(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := newFixedWindowLimiter(1, time.Minute, func() time.Time { return now })
	handler := limitByIP(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	now = now.Add(20 * time.Second)
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", second.Code)
	}
	if got := second.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("expected Retry-After 40, got %q", got)
	}
}
