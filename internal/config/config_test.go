package config

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/extraction")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RedisURL != "redis://localhost:6379" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.QueueDriver != "asynq" {
		t.Errorf("QueueDriver = %q, want asynq", cfg.QueueDriver)
	}
	if cfg.WorkerConcurrency != 10 {
		t.Errorf("WorkerConcurrency = %d, want 10", cfg.WorkerConcurrency)
	}
	if cfg.MaxFragments != 10000 {
		t.Errorf("MaxFragments = %d, want 10000", cfg.MaxFragments)
	}
	if len(cfg.TesseractLangs) != 2 || cfg.TesseractLangs[0] != "rus" || cfg.TesseractLangs[1] != "eng" {
		t.Errorf("TesseractLangs = %v, want [rus eng]", cfg.TesseractLangs)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/extraction")
	t.Setenv("QUEUE_DRIVER", "redis")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("TESSERACT_LANGS", "rus, eng, deu")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.QueueDriver != "redis" {
		t.Errorf("QueueDriver = %q, want redis", cfg.QueueDriver)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("WorkerConcurrency = %d, want 4", cfg.WorkerConcurrency)
	}
	want := []string{"rus", "eng", "deu"}
	if len(cfg.TesseractLangs) != len(want) {
		t.Fatalf("TesseractLangs = %v, want %v", cfg.TesseractLangs, want)
	}
	for i, lang := range want {
		if cfg.TesseractLangs[i] != lang {
			t.Errorf("TesseractLangs[%d] = %q, want %q", i, cfg.TesseractLangs[i], lang)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		RedisURL:          "redis://localhost:6379",
		DatabaseURL:       "postgres://localhost/db",
		QueueDriver:       "asynq",
		WorkerConcurrency: 10,
		MaxFragments:      1000,
		TesseractLangs:    []string{"rus"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing redis url", func(c *Config) { c.RedisURL = "" }},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }},
		{"unknown queue driver", func(c *Config) { c.QueueDriver = "rabbitmq" }},
		{"zero concurrency", func(c *Config) { c.WorkerConcurrency = 0 }},
		{"excessive concurrency", func(c *Config) { c.WorkerConcurrency = 500 }},
		{"zero max fragments", func(c *Config) { c.MaxFragments = 0 }},
		{"no languages", func(c *Config) { c.TesseractLangs = nil }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *valid
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
