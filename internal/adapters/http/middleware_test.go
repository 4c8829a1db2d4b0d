package httpadapter

import (
	"net/http"
	"testing"
)

func TestBearerAuthRequiredWhenTokenConfigured(t *testing.T) {
	fx := newRouterFixture(t, Config{ServiceName: "api-test", APIToken: "secret-token"})

	rec := fx.do(t, http.MethodGet, "/v1/cases/case-1", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without token: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = fx.do(t, http.MethodGet, "/v1/cases/case-1", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer wrong")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = fx.do(t, http.MethodGet, "/v1/cases/case-1", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer secret-token")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestBearerAuthSkipsHealthCheck(t *testing.T) {
	fx := newRouterFixture(t, Config{ServiceName: "api-test", APIToken: "secret-token"})
	rec := fx.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimitReturns429WithRetryAfter(t *testing.T) {
	fx := newRouterFixture(t, Config{ServiceName: "api-test", RateLimitRPS: 1, RateLimitBurst: 1})

	rec := fx.do(t, http.MethodGet, "/v1/cases/case-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = fx.do(t, http.MethodGet, "/v1/cases/case-1", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q, want %q", got, "1")
	}
}

func TestRateLimitSkipsHealthCheck(t *testing.T) {
	fx := newRouterFixture(t, Config{ServiceName: "api-test", RateLimitRPS: 1, RateLimitBurst: 1})

	for i := 0; i < 5; i++ {
		rec := fx.do(t, http.MethodGet, "/healthz", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("health check %d: status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	fx := newRouterFixture(t, Config{ServiceName: "api-test"})
	rec := fx.do(t, http.MethodGet, "/healthz", nil)
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("response is missing a generated request id")
	}
}

func TestRequestIDEchoedWhenPresent(t *testing.T) {
	fx := newRouterFixture(t, Config{ServiceName: "api-test"})
	rec := fx.do(t, http.MethodGet, "/healthz", nil, func(r *http.Request) {
		r.Header.Set(requestIDHeader, "req-abc")
	})
	if got := rec.Header().Get(requestIDHeader); got != "req-abc" {
		t.Fatalf("request id = %q, want %q", got, "req-abc")
	}
}
