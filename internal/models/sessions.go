// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package models

import "time"

// SessionSummary is one row of the per-user session listing. Boundaries come
// from the stored parsed timestamps; events with unparseable timestamps do
// not move the boundaries but still count toward EventCount.
type SessionSummary struct {
	SessionID    string    `json:"sessionId"`
	UserID       string    `json:"userId"`
	SessionStart time.Time `json:"sessionStart"`
	SessionEnd   time.Time `json:"sessionEnd"`
	EventCount   int64     `json:"eventCount"`
}

// SessionPage is a paginated session listing. Total counts all matching
// sessions regardless of the requested page.
type SessionPage struct {
	Total    int64            `json:"total"`
	Sessions []SessionSummary `json:"sessions"`
}

// SessionAnalysis is the derived analysis of a single session.
//
// Counts cover the three tracked event types. Total times sum the
// previousStateDurationMs payload of the corresponding STARTED events.
// TotalDurationSeconds is the start-to-end span rounded to two decimals.
type SessionAnalysis struct {
	SessionID            string    `json:"sessionId"`
	UserID               string    `json:"userId"`
	SessionStart         time.Time `json:"sessionStart"`
	SessionEnd           time.Time `json:"sessionEnd"`
	TotalDurationSeconds float64   `json:"totalDurationSeconds"`
	EventCount           int64     `json:"eventCount"`

	YawnCount        int64 `json:"yawnCount"`
	DistractionCount int64 `json:"distractionCount"`
	DrowsinessCount  int64 `json:"drowsinessCount"`

	TotalDistractionTimeMs int64 `json:"totalDistractionTimeMs"`
	TotalDrowsinessTimeMs  int64 `json:"totalDrowsinessTimeMs"`
}
