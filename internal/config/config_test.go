package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/repricing_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Errorf("Expected read timeout 15s, got %v", cfg.ReadTimeout)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.RedisCacheKey != "repricing:rules:active" {
		t.Errorf("Unexpected redis cache key: %s", cfg.RedisCacheKey)
	}
	if cfg.CacheTTL != 0 {
		t.Errorf("Expected cache TTL 0 (manual invalidation), got %v", cfg.CacheTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REPRICING_DATABASE_URL", "postgres://primary/repricing")
	t.Setenv("REPRICING_PORT", "9090")
	t.Setenv("REPRICING_REDIS_ADDR", "redis:6379")
	t.Setenv("REPRICING_CACHE_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://primary/repricing" {
		t.Errorf("Unexpected database URL: %s", cfg.DatabaseURL)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("Expected redis addr, got %s", cfg.RedisAddr)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected cache TTL 5m, got %v", cfg.CacheTTL)
	}
}

func TestLoad_UnprefixedFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://fallback/repricing")
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL != "postgres://fallback/repricing" {
		t.Errorf("Expected DATABASE_URL fallback, got %s", cfg.DatabaseURL)
	}
	if cfg.Port != "3000" {
		t.Errorf("Expected PORT fallback, got %s", cfg.Port)
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REPRICING_DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error when database URL is missing")
	}
}
