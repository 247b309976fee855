// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package report generates coaching reports asynchronously. A request
// writes a PENDING record and returns immediately; a bounded worker pool
// walks the user's sessions, builds the artifact, asks the enrichment
// model for feedback, and moves the record to exactly one terminal status.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/attentra/internal/config"
	"github.com/tomtom215/attentra/internal/database"
	"github.com/tomtom215/attentra/internal/logging"
	"github.com/tomtom215/attentra/internal/metrics"
	"github.com/tomtom215/attentra/internal/models"
)

// Sentinel errors for report requests.
var (
	// ErrInvalidRange indicates startDate is after endDate.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrQueueFull indicates the worker queue rejected the job. The
	// report record is already marked FAILED when this is returned.
	ErrQueueFull = errors.New("report queue full")
)

// MetadataStore is the slice of the database the orchestrator needs.
type MetadataStore interface {
	CreateReport(ctx context.Context, report *models.Report) error
	UpdateReportStatus(ctx context.Context, reportID string, status models.ReportStatus, artifactKey string) error
	SummarizeByUser(ctx context.Context, userID string, rangeStart, rangeEnd *time.Time, page, pageSize int) (*models.SessionPage, error)
	AnalyzeSession(ctx context.Context, sessionID string) (*models.SessionAnalysis, error)
}

// ArtifactStore is the slice of the blob store the orchestrator needs.
type ArtifactStore interface {
	Put(key string, data []byte) error
	Delete(key string) error
}

// Enricher produces coaching feedback from a fact summary.
type Enricher interface {
	CoachingFeedback(ctx context.Context, factSummary string) (string, error)
}

type job struct {
	report     models.Report
	rangeStart time.Time
	rangeEnd   time.Time // exclusive
}

// Orchestrator owns the report pipeline and its worker pool.
type Orchestrator struct {
	store     MetadataStore
	artifacts ArtifactStore
	enricher  Enricher
	cfg       config.ReportConfig

	jobs chan job
}

// NewOrchestrator wires the pipeline. Serve must be running for submitted
// jobs to make progress; the queue buffers up to cfg.QueueSize jobs.
func NewOrchestrator(store MetadataStore, artifacts ArtifactStore, enricher Enricher, cfg config.ReportConfig) *Orchestrator {
	return &Orchestrator{
		store:     store,
		artifacts: artifacts,
		enricher:  enricher,
		cfg:       cfg,
		jobs:      make(chan job, cfg.QueueSize),
	}
}

// Serve runs the worker pool until the context is canceled. It implements
// suture.Service. Workers finish their in-flight job before stopping;
// queued jobs left behind stay PENDING until a restart or manual cleanup.
func (o *Orchestrator) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j := <-o.jobs:
					o.execute(ctx, j)
				}
			}
		}()
	}

	logging.Info().Int("workers", o.cfg.Workers).Msg("Report worker pool started")
	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// Request validates the range, records a PENDING report, and queues the
// generation job. The returned report carries the id the client polls.
func (o *Orchestrator) Request(ctx context.Context, userID, title, startDate, endDate string) (*models.Report, error) {
	rangeStart, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start date %q", ErrInvalidRange, startDate)
	}
	rangeEndDay, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad end date %q", ErrInvalidRange, endDate)
	}
	if rangeEndDay.Before(rangeStart) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, startDate, endDate)
	}

	report := &models.Report{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Status:    models.ReportPending,
		DateRange: models.DateRange{Start: startDate, End: endDate},
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create report record: %w", err)
	}

	j := job{
		report:     *report,
		rangeStart: rangeStart,
		// The end date is inclusive; the query bound is exclusive.
		rangeEnd: rangeEndDay.AddDate(0, 0, 1),
	}

	select {
	case o.jobs <- j:
		metrics.ReportJobsSubmitted.Inc()
		return report, nil
	default:
		o.fail(report.ID, "worker queue full")
		return nil, ErrQueueFull
	}
}

// execute runs the whole pipeline for one report. Every exit path moves
// the record to exactly one terminal status.
func (o *Orchestrator) execute(ctx context.Context, j job) {
	start := time.Now()
	defer func() {
		metrics.ReportGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	analyses, err := o.collectAnalyses(ctx, j)
	if err != nil {
		o.fail(j.report.ID, err.Error())
		return
	}
	if len(analyses) == 0 {
		o.fail(j.report.ID, "no sessions in requested range")
		return
	}

	artifact := buildArtifact(j.report, analyses)
	artifact.LLMSummary = FactSummary(j.report.DateRange, artifact.Summary)

	feedback, err := o.enricher.CoachingFeedback(ctx, artifact.LLMSummary)
	if err != nil {
		o.fail(j.report.ID, fmt.Sprintf("enrichment failed: %v", err))
		return
	}
	artifact.CoachingFeedback = feedback

	data, err := json.Marshal(artifact)
	if err != nil {
		o.fail(j.report.ID, fmt.Sprintf("marshal artifact: %v", err))
		return
	}

	key := ArtifactKey(j.report.UserID, j.report.ID)
	if err := o.artifacts.Put(key, data); err != nil {
		o.fail(j.report.ID, fmt.Sprintf("store artifact: %v", err))
		return
	}

	if err := o.store.UpdateReportStatus(context.WithoutCancel(ctx), j.report.ID, models.ReportCompleted, key); err != nil {
		// The record could not complete; do not leave an orphan blob.
		if delErr := o.artifacts.Delete(key); delErr != nil {
			logging.Error().Err(delErr).Str("key", key).Msg("Orphan artifact cleanup failed")
		}
		o.fail(j.report.ID, fmt.Sprintf("record completion: %v", err))
		return
	}

	metrics.ReportJobsFinished.WithLabelValues(string(models.ReportCompleted)).Inc()
	logging.Info().
		Str("report_id", j.report.ID).
		Str("user_id", j.report.UserID).
		Int("sessions", len(analyses)).
		Msg("Report completed")
}

// collectAnalyses pages through the user's sessions in the range and
// analyzes each. Sessions deleted between listing and analysis are skipped.
func (o *Orchestrator) collectAnalyses(ctx context.Context, j job) ([]models.SessionAnalysis, error) {
	var analyses []models.SessionAnalysis
	for page := 1; ; page++ {
		result, err := o.store.SummarizeByUser(ctx, j.report.UserID,
			&j.rangeStart, &j.rangeEnd, page, o.cfg.FetchPageSize)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		if len(result.Sessions) == 0 {
			return analyses, nil
		}

		for _, summary := range result.Sessions {
			analysis, err := o.store.AnalyzeSession(ctx, summary.SessionID)
			if err != nil {
				if errors.Is(err, database.ErrSessionNotFound) {
					continue
				}
				return nil, fmt.Errorf("analyze session %s: %w", summary.SessionID, err)
			}
			analyses = append(analyses, *analysis)
		}

		if len(result.Sessions) < o.cfg.FetchPageSize {
			return analyses, nil
		}
	}
}

// fail moves the record to FAILED. Failing a record that already reached a
// terminal status is logged and otherwise ignored.
func (o *Orchestrator) fail(reportID, reason string) {
	logging.Warn().Str("report_id", reportID).Str("reason", reason).Msg("Report failed")
	metrics.ReportJobsFinished.WithLabelValues(string(models.ReportFailed)).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.store.UpdateReportStatus(ctx, reportID, models.ReportFailed, ""); err != nil {
		logging.Error().Err(err).Str("report_id", reportID).Msg("Could not record report failure")
	}
}

// buildArtifact assembles the artifact document and its aggregate block.
func buildArtifact(report models.Report, analyses []models.SessionAnalysis) *models.ReportArtifact {
	artifact := &models.ReportArtifact{
		ReportID:  report.ID,
		UserID:    report.UserID,
		DateRange: report.DateRange,
		Sessions:  analyses,
		Summary:   models.ReportSummaryStats{TotalSessions: len(analyses)},
	}
	for _, a := range analyses {
		artifact.Summary.TotalYawns += a.YawnCount
		artifact.Summary.TotalDistractions += a.DistractionCount
		artifact.Summary.TotalDrowsinessEvents += a.DrowsinessCount
		artifact.Summary.TotalDistractionTimeMs += a.TotalDistractionTimeMs
		artifact.Summary.TotalDrowsinessTimeMs += a.TotalDrowsinessTimeMs
	}
	return artifact
}

// FactSummary renders the deterministic English summary handed to the
// enrichment model and stored as llmSummary. Same aggregate in, same bytes
// out.
func FactSummary(dateRange models.DateRange, stats models.ReportSummaryStats) string {
	return fmt.Sprintf(
		"Between %s and %s, %d sessions were recorded. Across these sessions, %d yawns, %d distractions, and %d drowsiness episodes were detected.",
		dateRange.Start, dateRange.End, stats.TotalSessions,
		stats.TotalYawns, stats.TotalDistractions, stats.TotalDrowsinessEvents)
}

// ArtifactKey is the blob key of a completed report.
func ArtifactKey(userID, reportID string) string {
	return fmt.Sprintf("reports/%s/%s.json", userID, reportID)
}
