// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/attentra/config.yaml",
	"/etc/attentra/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8420,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/attentra.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Artifact: ArtifactConfig{
			Path:     "/data/artifacts",
			InMemory: false,
		},
		NATS: NATSConfig{
			URL:          "nats://127.0.0.1:4222",
			Subject:      "attention.events",
			DurableName:  "attentra-ingest",
			QueueGroup:   "ingestors",
			AckWait:      30 * time.Second,
			CloseTimeout: 30 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			URL:         "http://127.0.0.1:11434",
			Model:       "llama3.1:8b",
			Timeout:     2 * time.Minute,
			Temperature: 0.7,
			TopP:        0.9,
			NumCtx:      4096,
		},
		Report: ReportConfig{
			Workers:       4,
			QueueSize:     64,
			FetchPageSize: 1000,
		},
		Retention: RetentionConfig{
			PlanTTL: 10 * time.Minute,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns empty string when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - NATS_SUBJECT -> nats.subject
//   - OLLAMA_URL -> enrichment.url
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Artifact store mappings
		"artifact_path":      "artifact.path",
		"artifact_in_memory": "artifact.in_memory",

		// NATS mappings
		"nats_url":           "nats.url",
		"nats_subject":       "nats.subject",
		"nats_durable_name":  "nats.durable_name",
		"nats_queue_group":   "nats.queue_group",
		"nats_ack_wait":      "nats.ack_wait",
		"nats_close_timeout": "nats.close_timeout",

		// Enrichment mappings
		"ollama_url":             "enrichment.url",
		"ollama_model":           "enrichment.model",
		"enrichment_timeout":     "enrichment.timeout",
		"enrichment_temperature": "enrichment.temperature",
		"enrichment_top_p":       "enrichment.top_p",
		"enrichment_num_ctx":     "enrichment.num_ctx",

		// Report mappings
		"report_workers":         "report.workers",
		"report_queue_size":      "report.queue_size",
		"report_fetch_page_size": "report.fetch_page_size",

		// Retention mappings
		"retention_plan_ttl": "retention.plan_ttl",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"api_rate_limit_reqs":   "api.rate_limit_reqs",
		"api_rate_limit_window": "api.rate_limit_window",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if path, ok := envMappings[key]; ok {
		return path
	}

	// Unknown variables are ignored rather than guessed into paths.
	return ""
}
