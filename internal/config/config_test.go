package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.App.LogLevel)
	}
	if cfg.Ingestion.WorkerCount != 4 {
		t.Fatalf("expected default worker count 4, got %d", cfg.Ingestion.WorkerCount)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := []byte(`
app:
  log_level: debug
  log_format: text
ingestion:
  worker_count: 8
sources:
  serper:
    variant: textsearch
    api_key: test-key
    base_url: https://example.invalid
`)
	if err := os.WriteFile(path, yamlBody, 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.App.LogLevel)
	}
	if cfg.Ingestion.WorkerCount != 8 {
		t.Fatalf("expected worker count 8, got %d", cfg.Ingestion.WorkerCount)
	}
}

func TestValidateConfigRejectsMissingAPIKey(t *testing.T) {
	cfg := &Config{
		Sources: map[string]SourceConfig{
			"serper": {Variant: "textsearch"},
		},
	}
	applyDefaults(cfg)
	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected validation error for missing api_key")
	}
}

func TestValidateConfigRejectsBadLogLevel(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.LogLevel = "verbose"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected validation error for bad log level")
	}
}
