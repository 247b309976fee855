// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package metrics defines the Prometheus instrumentation for Attentra:
// event ingestion outcomes, database query performance, report job results,
// enrichment latency, and API throughput. All metrics register on the
// default registry and are exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EventsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_events_consumed_total",
			Help: "Total number of bus messages consumed",
		},
	)

	EventsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_events_stored_total",
			Help: "Total number of events written to the event store",
		},
	)

	EventParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_parse_failures_total",
			Help: "Total number of bus messages dropped as malformed",
		},
	)

	EventInsertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_insert_failures_total",
			Help: "Total number of events lost to store write errors",
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Report pipeline metrics
	ReportJobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_jobs_submitted_total",
			Help: "Total number of report jobs accepted for generation",
		},
	)

	ReportJobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_jobs_finished_total",
			Help: "Total number of report jobs by terminal status",
		},
		[]string{"status"}, // "COMPLETED", "FAILED"
	)

	ReportGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "End-to-end report generation duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// Enrichment metrics
	EnrichmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_request_duration_seconds",
			Help:    "Duration of LLM enrichment calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	EnrichmentErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_errors_total",
			Help: "Total number of failed enrichment calls",
		},
		[]string{"reason"}, // "transport", "status", "empty", "breaker_open"
	)

	// Retention metrics
	RetentionSessionsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_sessions_deleted_total",
			Help: "Total number of sessions removed by executed retention plans",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveDBQuery records the duration and outcome of a database operation.
func ObserveDBQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveAPIRequest records one handled HTTP request.
func ObserveAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
