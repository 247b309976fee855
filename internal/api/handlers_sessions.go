// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/attentra/internal/database"
	"github.com/tomtom215/attentra/internal/validation"
)

// userSessionsRequest carries the validated query of the session listing.
type userSessionsRequest struct {
	Page      int    `validate:"min=1"`
	PageSize  int    `validate:"min=1"`
	StartDate string `validate:"omitempty,isodate"`
	EndDate   string `validate:"omitempty,isodate"`
}

// handleSessionEvents returns the raw stored events of one session.
func (router *Router) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	events, err := router.sessions.EventsBySession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to load session events", nil)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// handleSessionAnalysis returns the derived analysis of one session.
func (router *Router) handleSessionAnalysis(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	analysis, err := router.sessions.AnalyzeSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to analyze session", nil)
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

// handleSessionDelete removes one session's events and reports the count.
// Deleting a session that does not exist is a 404, not a silent zero.
func (router *Router) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	deleted, err := router.sessions.DeleteEventsBySession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to delete session", nil)
		return
	}
	if deleted == 0 {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deletedCount": deleted})
}

// handleUserSessions lists a user's sessions with pagination and an
// optional inclusive date range.
func (router *Router) handleUserSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "page must be an integer", nil)
		return
	}
	pageSize, err := queryInt(r, "page_size", router.cfg.DefaultPageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "page_size must be an integer", nil)
		return
	}
	if pageSize > router.cfg.MaxPageSize {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"page_size exceeds maximum", map[string]interface{}{"max": router.cfg.MaxPageSize})
		return
	}

	req := userSessionsRequest{
		Page:      page,
		PageSize:  pageSize,
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	var rangeStart, rangeEnd *time.Time
	if req.StartDate != "" {
		t, _ := time.Parse("2006-01-02", req.StartDate)
		rangeStart = &t
	}
	if req.EndDate != "" {
		// Inclusive end date, exclusive query bound.
		t, _ := time.Parse("2006-01-02", req.EndDate)
		t = t.AddDate(0, 0, 1)
		rangeEnd = &t
	}

	result, err := router.sessions.SummarizeByUser(r.Context(), userID, rangeStart, rangeEnd, req.Page, req.PageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"failed to list sessions", nil)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
