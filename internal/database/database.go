// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package database is the DuckDB-backed metadata store. It holds the raw
// attention events and the report records; session views are computed at
// query time with SQL aggregation rather than materialized.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver

	"github.com/tomtom215/attentra/internal/config"
	"github.com/tomtom215/attentra/internal/logging"
)

// Sentinel errors returned by store operations.
var (
	// ErrSessionNotFound indicates no events exist for the session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrReportNotFound indicates no report record with the given id.
	ErrReportNotFound = errors.New("report not found")
	// ErrReportTerminal indicates a status update on an already
	// COMPLETED or FAILED report.
	ErrReportTerminal = errors.New("report already in terminal status")
)

// DB wraps the DuckDB connection pool.
type DB struct {
	conn *sql.DB
	cfg  config.DatabaseConfig
}

// New opens the DuckDB database, configures the pool, and creates the
// schema. An empty cfg.Path opens an in-memory database.
func New(cfg config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	dsn := cfg.Path
	if dsn != "" {
		dsn = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, threads, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	// DuckDB is embedded; a small pool avoids writer contention.
	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", threads).
		Msg("DuckDB store ready")

	return db, nil
}

// initSchema creates tables and indexes if they do not exist.
func (db *DB) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS session_events (
			event_id      VARCHAR NOT NULL,
			session_id    VARCHAR NOT NULL,
			user_id       VARCHAR NOT NULL,
			event_type    VARCHAR NOT NULL,
			ts_raw        VARCHAR NOT NULL,
			ts            TIMESTAMP,
			prev_state_ms BIGINT,
			ingested_at   TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON session_events (session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_ts ON session_events (user_id, ts)`,
		`CREATE TABLE IF NOT EXISTS reports (
			report_id    VARCHAR PRIMARY KEY,
			user_id      VARCHAR NOT NULL,
			title        VARCHAR NOT NULL,
			status       VARCHAR NOT NULL,
			range_start  VARCHAR NOT NULL,
			range_end    VARCHAR NOT NULL,
			artifact_key VARCHAR,
			created_at   TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_user ON reports (user_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}
