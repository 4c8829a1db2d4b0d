package config

import "testing"

func TestLoadIncludesTrackerDefaults(t *testing.T) {
	t.Setenv("TRACKER_INTERVAL_MS", "")
	t.Setenv("TRACKER_MAX_DURATION_MS", "")

	cfg := Load()
	if cfg.TrackerIntervalMs != 2000 {
		t.Fatalf("expected default tracker interval 2000, got %d", cfg.TrackerIntervalMs)
	}
	if cfg.TrackerMaxDurationMs != 300000 {
		t.Fatalf("expected default tracker max duration 300000, got %d", cfg.TrackerMaxDurationMs)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("TRACKER_INTERVAL_MS", "500")
	t.Setenv("TRACKER_MAX_DURATION_MS", "60000")
	t.Setenv("NATS_SUBJECT", "cases.submitted.test")
	t.Setenv("RATE_LIMIT_RPS", "5")

	cfg := Load()
	if cfg.TrackerIntervalMs != 500 {
		t.Fatalf("expected tracker interval 500, got %d", cfg.TrackerIntervalMs)
	}
	if cfg.TrackerMaxDurationMs != 60000 {
		t.Fatalf("expected tracker max duration 60000, got %d", cfg.TrackerMaxDurationMs)
	}
	if cfg.NATSSubject != "cases.submitted.test" {
		t.Fatalf("expected subject override, got %q", cfg.NATSSubject)
	}
	if cfg.RateLimitRPS != 5 {
		t.Fatalf("expected rate limit 5, got %d", cfg.RateLimitRPS)
	}
}

func TestLoadFallsBackOnUnparsableInt(t *testing.T) {
	t.Setenv("RAG_TOP_K", "not-a-number")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected fallback top k 5, got %d", cfg.RAGTopK)
	}
}
