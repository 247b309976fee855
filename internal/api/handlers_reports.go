// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/attentra/internal/artifact"
	"github.com/tomtom215/attentra/internal/database"
	"github.com/tomtom215/attentra/internal/logging"
	"github.com/tomtom215/attentra/internal/models"
	"github.com/tomtom215/attentra/internal/report"
	"github.com/tomtom215/attentra/internal/validation"
)

// reportRequest is the body of POST /reports.
type reportRequest struct {
	UserID    string `json:"userId" validate:"required"`
	Title     string `json:"reportTitle" validate:"required"`
	StartDate string `json:"startDate" validate:"required,isodate"`
	EndDate   string `json:"endDate" validate:"required,isodate"`
}

// handleReportRequest accepts a generation request and returns 202 with
// the id to poll. Generation happens asynchronously.
func (router *Router) handleReportRequest(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	created, err := router.generator.Request(r.Context(), req.UserID, req.Title, req.StartDate, req.EndDate)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrInvalidRange):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		case errors.Is(err, report.ErrQueueFull):
			respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR",
				"report queue full, try again later", nil)
		default:
			respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
				"failed to accept report request", nil)
		}
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"reportId": created.ID,
		"status":   created.Status,
	})
}

// handleReportGet returns the report metadata including status.
func (router *Router) handleReportGet(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	record, err := router.reports.GetReportByID(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, database.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "report not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to load report", nil)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// handleReportContent serves the artifact document of a completed report.
// Until the report completes the content does not exist: 409 for PENDING
// and FAILED, 404 for unknown ids.
func (router *Router) handleReportContent(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	record, err := router.reports.GetReportByID(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, database.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "report not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to load report", nil)
		return
	}
	if record.Status != models.ReportCompleted {
		respondError(w, http.StatusConflict, "CONFLICT",
			"report content not available", map[string]interface{}{"status": record.Status})
		return
	}

	data, err := router.artifacts.Get(record.ArtifactKey)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "report artifact missing", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR",
			"failed to load report artifact", nil)
		return
	}

	// The artifact is already a complete JSON document.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Str("report_id", reportID).Msg("Failed to write artifact response")
	}
}

// handleReportDelete removes the artifact and then the metadata record.
func (router *Router) handleReportDelete(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	record, err := router.reports.GetReportByID(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, database.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "report not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to load report", nil)
		return
	}

	if record.ArtifactKey != "" {
		if err := router.artifacts.Delete(record.ArtifactKey); err != nil {
			respondError(w, http.StatusInternalServerError, "SERVICE_ERROR",
				"failed to delete report artifact", nil)
			return
		}
	}
	if err := router.reports.DeleteReport(r.Context(), reportID); err != nil && !errors.Is(err, database.ErrReportNotFound) {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to delete report", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": reportID})
}

// handleUserReports lists a user's reports, newest first.
func (router *Router) handleUserReports(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	reports, err := router.reports.ListReportsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to list reports", nil)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	respondJSON(w, http.StatusOK, reports)
}
