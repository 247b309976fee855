// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/attentra/internal/classifier"
	"github.com/tomtom215/attentra/internal/validation"
)

// executePlanRequest is the body of the plan execution call.
type executePlanRequest struct {
	ConfirmToken string `json:"confirmToken" validate:"required"`
}

// handleRetentionPlanCreate classifies all sessions and returns a new
// plan. Nothing is deleted here; the response carries the confirmation
// token needed to execute.
func (router *Router) handleRetentionPlanCreate(w http.ResponseWriter, r *http.Request) {
	plan, err := router.retention.BuildPlan(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR",
			"failed to compute retention plan", nil)
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

// handleRetentionPlanGet returns a plan for inspection.
func (router *Router) handleRetentionPlanGet(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")

	plan, err := router.retention.GetPlan(planID)
	if err != nil {
		if errors.Is(err, classifier.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "retention plan not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR",
			"failed to load retention plan", nil)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// handleRetentionPlanExecute runs the confirmed bulk deletion.
func (router *Router) handleRetentionPlanExecute(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")

	var req executePlanRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	result, err := router.retention.ExecutePlan(r.Context(), planID, req.ConfirmToken)
	if err != nil {
		switch {
		case errors.Is(err, classifier.ErrPlanNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "retention plan not found", nil)
		case errors.Is(err, classifier.ErrPlanExpired):
			respondError(w, http.StatusGone, "CONFLICT", "retention plan expired", nil)
		case errors.Is(err, classifier.ErrPlanExecuted):
			respondError(w, http.StatusConflict, "CONFLICT", "retention plan already executed", nil)
		case errors.Is(err, classifier.ErrTokenMismatch):
			respondError(w, http.StatusForbidden, "VALIDATION_ERROR", "confirmation token mismatch", nil)
		default:
			respondError(w, http.StatusInternalServerError, "SERVICE_ERROR",
				"failed to execute retention plan", nil)
		}
		return
	}
	respondJSON(w, http.StatusOK, result)
}
