// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadWithKoanfDefaults(t *testing.T) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8420 {
		t.Errorf("Server.Port = %d, want 8420", cfg.Server.Port)
	}
	if cfg.NATS.Subject != "attention.events" {
		t.Errorf("NATS.Subject = %q, want attention.events", cfg.NATS.Subject)
	}
	if cfg.Report.FetchPageSize != 1000 {
		t.Errorf("Report.FetchPageSize = %d, want 1000", cfg.Report.FetchPageSize)
	}
	if cfg.Retention.PlanTTL != 10*time.Minute {
		t.Errorf("Retention.PlanTTL = %s, want 10m", cfg.Retention.PlanTTL)
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("NATS_SUBJECT", "attention.events.test")
	t.Setenv("OLLAMA_MODEL", "qwen2.5:7b")
	t.Setenv("REPORT_WORKERS", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.NATS.Subject != "attention.events.test" {
		t.Errorf("NATS.Subject = %q, want attention.events.test", cfg.NATS.Subject)
	}
	if cfg.Enrichment.Model != "qwen2.5:7b" {
		t.Errorf("Enrichment.Model = %q, want qwen2.5:7b", cfg.Enrichment.Model)
	}
	if cfg.Report.Workers != 2 {
		t.Errorf("Report.Workers = %d, want 2", cfg.Report.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7100
enrichment:
  model: "mistral:7b"
api:
  max_page_size: 50
  default_page_size: 10
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100", cfg.Server.Port)
	}
	if cfg.Enrichment.Model != "mistral:7b" {
		t.Errorf("Enrichment.Model = %q, want mistral:7b", cfg.Enrichment.Model)
	}
	if cfg.API.MaxPageSize != 50 {
		t.Errorf("API.MaxPageSize = %d, want 50", cfg.API.MaxPageSize)
	}
	// Unset keys keep their defaults.
	if cfg.Database.MaxMemory != "1GB" {
		t.Errorf("Database.MaxMemory = %q, want 1GB", cfg.Database.MaxMemory)
	}
}

func TestLoadWithKoanfEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7100\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7200")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7200 {
		t.Errorf("Server.Port = %d, want 7200 (env over file)", cfg.Server.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"missing nats url", func(c *Config) { c.NATS.URL = "" }},
		{"missing subject", func(c *Config) { c.NATS.Subject = "" }},
		{"missing enrichment url", func(c *Config) { c.Enrichment.URL = "" }},
		{"missing model", func(c *Config) { c.Enrichment.Model = "" }},
		{"zero workers", func(c *Config) { c.Report.Workers = 0 }},
		{"zero queue", func(c *Config) { c.Report.QueueSize = 0 }},
		{"zero fetch page", func(c *Config) { c.Report.FetchPageSize = 0 }},
		{"zero plan ttl", func(c *Config) { c.Retention.PlanTTL = 0 }},
		{"max below default page size", func(c *Config) {
			c.API.DefaultPageSize = 50
			c.API.MaxPageSize = 20
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransformFuncUnknownKey(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("envTransformFunc(PATH) = %q, want empty (ignored)", got)
	}
	if got := envTransformFunc("HTTP_PORT"); got != "server.port" {
		t.Errorf("envTransformFunc(HTTP_PORT) = %q, want server.port", got)
	}
}
