// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package main is the entry point for the Attentra server.
//
// Attentra ingests attention-tracking events (yawns, distractions,
// drowsiness episodes) from a NATS JetStream subject, aggregates them
// into study sessions, and generates coaching reports with an optional
// LLM-written summary via Ollama.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 load (defaults, config file, env)
//  2. Metadata store: DuckDB with the session_events and reports schema
//  3. Artifact store: BadgerDB for completed report documents
//  4. Event ingestor: JetStream subscriber feeding the metadata store
//  5. Report orchestrator: async worker pool for report generation
//  6. Retention classifier: plan-then-confirm session cleanup
//  7. HTTP server: REST API under /api/v1 plus /metrics
//
// All long-running components run under a suture supervisor tree, so a
// crashed ingestor or report worker is restarted without taking the
// HTTP API down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then a YAML config file
// (CONFIG_PATH or ./config.yaml), then built-in defaults. Key
// environment variables:
//
//	HTTP_PORT=8420
//	DUCKDB_PATH=/data/attentra.db       # empty = in-memory
//	NATS_URL=nats://localhost:4222
//	NATS_SUBJECT=attention.events
//	OLLAMA_URL=http://localhost:11434
//	OLLAMA_MODEL=llama3.1:8b
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the HTTP server
// drains in-flight requests, the ingestor nacks buffered messages for
// redelivery, and both stores are closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/attentra/internal/api"
	"github.com/tomtom215/attentra/internal/artifact"
	"github.com/tomtom215/attentra/internal/classifier"
	"github.com/tomtom215/attentra/internal/config"
	"github.com/tomtom215/attentra/internal/database"
	"github.com/tomtom215/attentra/internal/enrichment"
	"github.com/tomtom215/attentra/internal/ingest"
	"github.com/tomtom215/attentra/internal/logging"
	"github.com/tomtom215/attentra/internal/report"
	"github.com/tomtom215/attentra/internal/supervisor"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("nats_url", cfg.NATS.URL).
		Str("nats_subject", cfg.NATS.Subject).
		Str("ollama_model", cfg.Enrichment.Model).
		Msg("Starting Attentra")

	db, err := database.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize metadata store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing metadata store")
		}
	}()
	logging.Info().Msg("Metadata store initialized")

	artifacts, err := artifact.New(cfg.Artifact)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize artifact store")
	}
	defer func() {
		if err := artifacts.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing artifact store")
		}
	}()
	logging.Info().Str("path", cfg.Artifact.Path).Msg("Artifact store initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// Pipeline layer: event ingestor and report workers.
	subscriber, err := ingest.NewSubscriber(cfg.NATS, logging.NewWatermillLogger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create NATS subscriber")
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing NATS subscriber")
		}
	}()

	ingestor := ingest.NewIngestor(subscriber, db, cfg.NATS.Subject)
	tree.AddPipelineService(ingestor)

	enricher := enrichment.NewClient(cfg.Enrichment)
	orchestrator := report.NewOrchestrator(db, artifacts, enricher, cfg.Report)
	tree.AddPipelineService(orchestrator)
	logging.Info().
		Int("workers", cfg.Report.Workers).
		Int("queue_size", cfg.Report.QueueSize).
		Msg("Report orchestrator configured")

	retention := classifier.New(db, cfg.Retention.PlanTTL)

	// API layer.
	router := api.NewRouter(db, db, orchestrator, artifacts, retention, cfg.API)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
