package config

import "testing"

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("SKUB_API_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when SKUB_API_URL is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SKUB_API_URL", "http://catalog.local/api/")
	t.Setenv("SKUB_API_TOKEN", " secret ")
	t.Setenv("SKUB_LOAD_WORKERS", "")
	t.Setenv("SKUB_RUN_WORKERS", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "http://catalog.local/api" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.BaseURL)
	}
	if cfg.Token != "secret" {
		t.Fatalf("token not trimmed: %q", cfg.Token)
	}
	if cfg.LoadWorkers != 8 || cfg.RunWorkers != 4 {
		t.Fatalf("worker defaults wrong: %d %d", cfg.LoadWorkers, cfg.RunWorkers)
	}
	if cfg.LogLevel != "warn" || cfg.LogFile != "skubatch.log" {
		t.Fatalf("log defaults wrong: %s %s", cfg.LogLevel, cfg.LogFile)
	}
}
