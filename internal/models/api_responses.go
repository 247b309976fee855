// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package models

import "time"

// APIResponse is the standard envelope for all API responses.
//
// Success:
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
//
// Error:
//
//	{"status":"error","data":null,"metadata":{...},"error":{"code":"NOT_FOUND","message":"..."}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError carries a machine-readable code alongside the human message.
//
// Codes in use: VALIDATION_ERROR, NOT_FOUND, CONFLICT, DATABASE_ERROR,
// SERVICE_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
