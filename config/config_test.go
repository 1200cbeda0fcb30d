package config

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Provider != "openrouter" {
		t.Fatalf("llm.provider = %q", cfg.LLM.Provider)
	}
	if cfg.Retrieval.GraphK != 15 || cfg.Retrieval.CacheK != 5 {
		t.Fatalf("retrieval k defaults = %d/%d", cfg.Retrieval.GraphK, cfg.Retrieval.CacheK)
	}
	if cfg.Retrieval.CacheThreshold != 0.85 {
		t.Fatalf("cache threshold = %f", cfg.Retrieval.CacheThreshold)
	}
	if cfg.Retrieval.TopContext != 5 {
		t.Fatalf("top context = %d", cfg.Retrieval.TopContext)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Fatalf("embedding dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.News.SentencesPerChunk != 5 {
		t.Fatalf("sentences per chunk = %d", cfg.News.SentencesPerChunk)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("DATABASE_URL", "postgres://example/db")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.OpenRouter.APIKey != "test-key" {
		t.Fatalf("openrouter api key = %q", cfg.LLM.OpenRouter.APIKey)
	}
	if cfg.Storage.Postgres.URL != "postgres://example/db" {
		t.Fatalf("postgres url = %q", cfg.Storage.Postgres.URL)
	}
	if cfg.Storage.Redis.Host != "cache.internal" || cfg.Storage.Redis.Port != 6380 {
		t.Fatalf("redis = %s:%d", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", DBName: "legalai", User: "app", Password: "secret"}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	want := "postgres://app:secret@db:5432/legalai?sslmode=disable"
	if dsn != want {
		t.Fatalf("dsn = %q, want %q", dsn, want)
	}

	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Fatal("expected error for unconfigured postgres")
	}

	p.URL = "postgres://explicit"
	dsn, err = p.DSN()
	if err != nil || dsn != "postgres://explicit" {
		t.Fatalf("url passthrough = %q, %v", dsn, err)
	}
}
