package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Report.CacheTTL != 24*time.Hour {
		t.Fatalf("expected 24h cache TTL, got %v", cfg.Report.CacheTTL)
	}
	if cfg.Report.Concurrency != 8 {
		t.Fatalf("expected default concurrency 8, got %d", cfg.Report.Concurrency)
	}
	if !cfg.Scraper.RespectRobots {
		t.Fatalf("expected robots.txt checks enabled by default")
	}
}

func TestLoadRejectsMissingAPIKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error when no AI key is configured")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("COMPETITOR_CACHE_TTL_HOURS", "48")
	t.Setenv("SCRAPER_REQUESTS_PER_SEC", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Report.CacheTTL != 48*time.Hour {
		t.Fatalf("expected 48h cache TTL, got %v", cfg.Report.CacheTTL)
	}
	if cfg.Scraper.RequestsPerSec != 0.5 {
		t.Fatalf("expected 0.5 requests/sec, got %v", cfg.Scraper.RequestsPerSec)
	}
}
