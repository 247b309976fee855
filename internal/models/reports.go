// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package models

import "time"

// ReportStatus is the lifecycle state of a report record.
type ReportStatus string

// A report is created PENDING and moves exactly once to COMPLETED or FAILED.
const (
	ReportPending   ReportStatus = "PENDING"
	ReportCompleted ReportStatus = "COMPLETED"
	ReportFailed    ReportStatus = "FAILED"
)

// DateRange is an inclusive report window, dates in YYYY-MM-DD.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Report is the metadata record of a coaching report. ArtifactKey is set
// only when Status is COMPLETED; CompletedAt marks either terminal state.
type Report struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       string       `json:"reportTitle"`
	Status      ReportStatus `json:"status"`
	DateRange   DateRange    `json:"dateRange"`
	ArtifactKey string       `json:"artifactKey,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// ReportSummaryStats is the aggregate block of a report artifact.
type ReportSummaryStats struct {
	TotalSessions          int   `json:"totalSessions"`
	TotalYawns             int64 `json:"totalYawns"`
	TotalDistractions      int64 `json:"totalDistractions"`
	TotalDrowsinessEvents  int64 `json:"totalDrowsinessEvents"`
	TotalDistractionTimeMs int64 `json:"totalDistractionTimeMs"`
	TotalDrowsinessTimeMs  int64 `json:"totalDrowsinessTimeMs"`
}

// ReportArtifact is the JSON document stored in the artifact store once a
// report completes.
type ReportArtifact struct {
	ReportID         string             `json:"reportId"`
	UserID           string             `json:"userId"`
	DateRange        DateRange          `json:"dateRange"`
	Summary          ReportSummaryStats `json:"summary"`
	Sessions         []SessionAnalysis  `json:"sessions"`
	LLMSummary       string             `json:"llmSummary"`
	CoachingFeedback string             `json:"coachingFeedback"`
}
