package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Cache.TTL != time.Hour || cfg.Cache.Timeout != time.Second {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Telemetry.Enabled {
		t.Fatal("telemetry must be off by default")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
http:
  addr: ":9090"
log:
  level: debug
  format: json
redis:
  addr: "redis:6379"
  db: 2
cache:
  ttl: 30m
  timeout: 250ms
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("redis values not applied: %+v", cfg.Redis)
	}
	if cfg.Cache.TTL != 30*time.Minute || cfg.Cache.Timeout != 250*time.Millisecond {
		t.Fatalf("cache values not applied: %+v", cfg.Cache)
	}
	// Untouched sections keep their defaults.
	if cfg.Postgres.DSN == "" {
		t.Fatal("postgres default was lost")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TRIPMARKET_HTTP_ADDR", ":7070")
	t.Setenv("TRIPMARKET_REDIS_ADDR", "cache.internal:6379")
	t.Setenv("TRIPMARKET_CACHE_TIMEOUT", "500ms")
	t.Setenv("TRIPMARKET_OTLP_ENDPOINT", "collector:4318")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env must win over file, got %q", cfg.HTTP.Addr)
	}
	if cfg.Redis.Addr != "cache.internal:6379" {
		t.Fatalf("redis env not applied: %q", cfg.Redis.Addr)
	}
	if cfg.Cache.Timeout != 500*time.Millisecond {
		t.Fatalf("cache timeout env not applied: %v", cfg.Cache.Timeout)
	}
	// Pointing at a collector implies tracing on.
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "collector:4318" {
		t.Fatalf("telemetry env not applied: %+v", cfg.Telemetry)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
