package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CAMPFUSE_API_KEY", "CAMPFUSE_PORT", "CAMPFUSE_DB_PATH",
		"CAMPFUSE_SOURCES_PATH", "CAMPFUSE_CACHE_SIZE", "CAMPFUSE_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MinimalValid(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMPFUSE_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DBPath != "./campfuse.db" {
		t.Errorf("dbpath = %q, want %q", cfg.DBPath, "./campfuse.db")
	}
	if cfg.CacheSize != 256 {
		t.Errorf("cache size = %d, want 256", cfg.CacheSize)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("cache ttl = %v, want 5m", cfg.CacheTTL)
	}
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Fatal("expected error without CAMPFUSE_API_KEY")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMPFUSE_API_KEY", "secret")
	t.Setenv("CAMPFUSE_PORT", "9999")
	t.Setenv("CAMPFUSE_DB_PATH", "/tmp/x.db")
	t.Setenv("CAMPFUSE_CACHE_SIZE", "32")
	t.Setenv("CAMPFUSE_CACHE_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9999" || cfg.DBPath != "/tmp/x.db" || cfg.CacheSize != 32 || cfg.CacheTTL != 90*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_BadValuesFallBackOrFail(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMPFUSE_API_KEY", "secret")
	t.Setenv("CAMPFUSE_CACHE_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheSize != 256 {
		t.Errorf("cache size = %d, want default 256 for unparseable value", cfg.CacheSize)
	}

	t.Setenv("CAMPFUSE_CACHE_TTL", "-1s")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative TTL")
	}
}
