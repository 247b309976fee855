// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package config loads and validates Attentra configuration from defaults,
// an optional YAML file, and environment variables, in that precedence order.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Attentra server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Artifact   ArtifactConfig   `koanf:"artifact"`
	NATS       NATSConfig       `koanf:"nats"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	Report     ReportConfig     `koanf:"report"`
	Retention  RetentionConfig  `koanf:"retention"`
	API        APIConfig        `koanf:"api"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// ArtifactConfig holds BadgerDB settings for report artifacts.
type ArtifactConfig struct {
	Path string `koanf:"path"`
	// InMemory runs Badger without persistence. Used by tests.
	InMemory bool `koanf:"in_memory"`
}

// NATSConfig holds the JetStream consumer settings for event ingestion.
type NATSConfig struct {
	URL          string        `koanf:"url"`
	Subject      string        `koanf:"subject"`
	DurableName  string        `koanf:"durable_name"`
	QueueGroup   string        `koanf:"queue_group"`
	AckWait      time.Duration `koanf:"ack_wait"`
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// EnrichmentConfig holds the LLM enrichment endpoint settings.
type EnrichmentConfig struct {
	// URL is the base URL of the Ollama-compatible server.
	URL         string        `koanf:"url"`
	Model       string        `koanf:"model"`
	Timeout     time.Duration `koanf:"timeout"`
	Temperature float64       `koanf:"temperature"`
	TopP        float64       `koanf:"top_p"`
	NumCtx      int           `koanf:"num_ctx"`
}

// ReportConfig holds report generation settings.
type ReportConfig struct {
	// Workers is the size of the generation worker pool.
	Workers int `koanf:"workers"`
	// QueueSize bounds the number of jobs waiting for a worker.
	QueueSize int `koanf:"queue_size"`
	// FetchPageSize is the page size used when walking a user's sessions.
	FetchPageSize int `koanf:"fetch_page_size"`
}

// RetentionConfig holds session retention plan settings.
type RetentionConfig struct {
	// PlanTTL is how long a computed deletion plan stays executable.
	PlanTTL time.Duration `koanf:"plan_ttl"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required")
	}
	if c.Enrichment.URL == "" {
		return fmt.Errorf("enrichment.url is required")
	}
	if c.Enrichment.Model == "" {
		return fmt.Errorf("enrichment.model is required")
	}
	if c.Enrichment.Timeout <= 0 {
		return fmt.Errorf("enrichment.timeout must be positive, got %s", c.Enrichment.Timeout)
	}
	if c.Report.Workers < 1 {
		return fmt.Errorf("report.workers must be at least 1, got %d", c.Report.Workers)
	}
	if c.Report.QueueSize < 1 {
		return fmt.Errorf("report.queue_size must be at least 1, got %d", c.Report.QueueSize)
	}
	if c.Report.FetchPageSize < 1 {
		return fmt.Errorf("report.fetch_page_size must be at least 1, got %d", c.Report.FetchPageSize)
	}
	if c.Retention.PlanTTL <= 0 {
		return fmt.Errorf("retention.plan_ttl must be positive, got %s", c.Retention.PlanTTL)
	}
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be >= api.default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	return nil
}

// Addr returns the host:port address the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
