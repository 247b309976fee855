// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package api is the HTTP surface over the session and report pipelines.
// Handlers stay thin: parse, validate, call the store or service, map
// errors to the envelope. All domain behavior lives behind the interfaces
// declared here.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/attentra/internal/classifier"
	"github.com/tomtom215/attentra/internal/config"
	"github.com/tomtom215/attentra/internal/middleware"
	"github.com/tomtom215/attentra/internal/models"
)

// SessionStore is the session side of the metadata store.
type SessionStore interface {
	EventsBySession(ctx context.Context, sessionID string) ([]models.Event, error)
	AnalyzeSession(ctx context.Context, sessionID string) (*models.SessionAnalysis, error)
	DeleteEventsBySession(ctx context.Context, sessionID string) (int64, error)
	SummarizeByUser(ctx context.Context, userID string, rangeStart, rangeEnd *time.Time, page, pageSize int) (*models.SessionPage, error)
	Ping(ctx context.Context) error
}

// ReportStore is the report-metadata side of the store.
type ReportStore interface {
	GetReportByID(ctx context.Context, reportID string) (*models.Report, error)
	ListReportsByUser(ctx context.Context, userID string) ([]models.Report, error)
	DeleteReport(ctx context.Context, reportID string) error
}

// ReportService accepts report generation requests.
type ReportService interface {
	Request(ctx context.Context, userID, title, startDate, endDate string) (*models.Report, error)
}

// ArtifactReader serves and removes completed report documents.
type ArtifactReader interface {
	Get(key string) ([]byte, error)
	Delete(key string) error
}

// RetentionService runs the plan-then-confirm deletion flow.
type RetentionService interface {
	BuildPlan(ctx context.Context) (*classifier.Plan, error)
	GetPlan(planID string) (*classifier.Plan, error)
	ExecutePlan(ctx context.Context, planID, token string) (*classifier.ExecutionResult, error)
}

// Router serves the Attentra HTTP API.
type Router struct {
	sessions  SessionStore
	reports   ReportStore
	generator ReportService
	artifacts ArtifactReader
	retention RetentionService
	cfg       config.APIConfig
}

// NewRouter assembles the chi mux with the full middleware chain.
func NewRouter(
	sessions SessionStore,
	reports ReportStore,
	generator ReportService,
	artifacts ArtifactReader,
	retention RetentionService,
	cfg config.APIConfig,
) *chi.Mux {
	router := &Router{
		sessions:  sessions,
		reports:   reports,
		generator: generator,
		artifacts: artifacts,
		retention: retention,
		cfg:       cfg,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	if cfg.RateLimitReqs > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", router.handleHealth)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", router.handleSessionEvents)
			r.Get("/analysis", router.handleSessionAnalysis)
			r.Delete("/", router.handleSessionDelete)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/sessions", router.handleUserSessions)
			r.Get("/reports", router.handleUserReports)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", router.handleReportRequest)
			r.Get("/{reportID}", router.handleReportGet)
			r.Get("/{reportID}/content", router.handleReportContent)
			r.Delete("/{reportID}", router.handleReportDelete)
		})

		r.Route("/admin/retention", func(r chi.Router) {
			r.Post("/plan", router.handleRetentionPlanCreate)
			r.Get("/plan/{planID}", router.handleRetentionPlanGet)
			r.Post("/plan/{planID}/execute", router.handleRetentionPlanExecute)
		})
	})

	return r
}

// handleHealth reports liveness and store reachability.
func (router *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := router.sessions.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR",
			"metadata store unreachable", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
