// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package models defines the wire and storage types shared across Attentra:
// attention events, derived session views, report records, and the HTTP
// response envelope.
package models

import (
	"github.com/goccy/go-json"
)

// EventType identifies the kind of attention event.
// The set is open-ended: unknown types are stored and counted toward session
// totals but do not contribute to any specific analysis bucket.
type EventType string

// Known event types emitted by the attention trackers.
const (
	// EventSessionStart marks the beginning of a tracking session.
	EventSessionStart EventType = "SESSION_START"
	// EventSessionEnd marks the end of a tracking session.
	EventSessionEnd EventType = "SESSION_END"
	// EventYawnDetected records a single detected yawn.
	EventYawnDetected EventType = "YAWN_DETECTED"
	// EventDistractionStarted records a transition into a distracted state.
	// The payload carries how long the previous state lasted.
	EventDistractionStarted EventType = "DISTRACTION_STARTED"
	// EventDrowsinessStarted records a transition into a drowsy state.
	// The payload carries how long the previous state lasted.
	EventDrowsinessStarted EventType = "DROWSINESS_STARTED"
)

// EventPayload holds the optional structured payload of an event.
// STARTED-type events carry the duration of the state they ended.
type EventPayload struct {
	PreviousStateDurationMs *int64 `json:"previousStateDurationMs,omitempty"`
}

// Event is one immutable attention-tracking occurrence tied to a session.
//
// Events arrive on the bus as JSON and are stored append-only. There is no
// idempotency key: redelivery of the same message produces duplicate records
// (documented limitation of the ingest path).
//
// Timestamp is kept as the raw wire string. Producers emit ISO-8601 with
// sub-second precision and either a trailing 'Z' or an explicit '+HH:MM'
// offset; ParseTimestamp handles the full grammar. Keeping the raw string
// means a malformed timestamp never blocks ingestion - it surfaces later as
// an unclassifiable (BAD) session instead.
type Event struct {
	SessionID string        `json:"sessionId"`
	UserID    string        `json:"userId"`
	EventType EventType     `json:"eventType"`
	Timestamp string        `json:"timestamp"`
	Payload   *EventPayload `json:"payload,omitempty"`

	// RawPayload preserves the payload verbatim for future fields.
	RawPayload json.RawMessage `json:"-"`
}

// Validate checks required fields and returns an error if validation fails.
func (e *Event) Validate() error {
	if e.SessionID == "" {
		return &FieldError{Field: "sessionId", Message: "required"}
	}
	if e.UserID == "" {
		return &FieldError{Field: "userId", Message: "required"}
	}
	if e.EventType == "" {
		return &FieldError{Field: "eventType", Message: "required"}
	}
	if e.Timestamp == "" {
		return &FieldError{Field: "timestamp", Message: "required"}
	}
	return nil
}

// PreviousStateDurationMs returns the payload duration, or 0 when absent.
func (e *Event) PreviousStateDurationMs() int64 {
	if e.Payload == nil || e.Payload.PreviousStateDurationMs == nil {
		return 0
	}
	return *e.Payload.PreviousStateDurationMs
}

// FieldError represents a field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}
