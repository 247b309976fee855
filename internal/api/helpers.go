// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/attentra/internal/logging"
	"github.com/tomtom215/attentra/internal/models"
)

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes an error envelope with a machine-readable code.
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := models.APIResponse{
		Status:   "error",
		Data:     nil,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Error().Err(err).Msg("Failed to encode error response")
	}
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent. A malformed value returns an error for a 400.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// decodeBody decodes a JSON request body.
func decodeBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
