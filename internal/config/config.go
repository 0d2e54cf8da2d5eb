package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DBPath      string
	APIKey      string
	SourcesPath string
	CacheSize   int
	CacheTTL    time.Duration
}

func Load() (*Config, error) {
	apiKey := os.Getenv("CAMPFUSE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("CAMPFUSE_API_KEY is required")
	}

	cfg := &Config{
		Port:        envOrDefault("CAMPFUSE_PORT", "8080"),
		DBPath:      envOrDefault("CAMPFUSE_DB_PATH", "./campfuse.db"),
		APIKey:      apiKey,
		SourcesPath: os.Getenv("CAMPFUSE_SOURCES_PATH"),
		CacheSize:   parseInt("CAMPFUSE_CACHE_SIZE", 256),
		CacheTTL:    parseDuration("CAMPFUSE_CACHE_TTL", 5*time.Minute),
	}

	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("CAMPFUSE_CACHE_SIZE must be positive")
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("CAMPFUSE_CACHE_TTL must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
