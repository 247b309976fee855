// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestEventDecode(t *testing.T) {
	raw := []byte(`{
		"sessionId": "sess-1",
		"userId": "user-1",
		"eventType": "DISTRACTION_STARTED",
		"timestamp": "2025-08-30T10:15:00.123Z",
		"payload": {"previousStateDurationMs": 4500}
	}`)

	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if e.SessionID != "sess-1" || e.UserID != "user-1" {
		t.Errorf("identity fields = %q/%q", e.SessionID, e.UserID)
	}
	if e.EventType != EventDistractionStarted {
		t.Errorf("EventType = %q, want DISTRACTION_STARTED", e.EventType)
	}
	if got := e.PreviousStateDurationMs(); got != 4500 {
		t.Errorf("PreviousStateDurationMs() = %d, want 4500", got)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestEventPreviousStateDurationAbsent(t *testing.T) {
	e := Event{Payload: nil}
	if got := e.PreviousStateDurationMs(); got != 0 {
		t.Errorf("nil payload duration = %d, want 0", got)
	}
	e.Payload = &EventPayload{}
	if got := e.PreviousStateDurationMs(); got != 0 {
		t.Errorf("empty payload duration = %d, want 0", got)
	}
}

func TestEventValidate(t *testing.T) {
	valid := Event{
		SessionID: "s",
		UserID:    "u",
		EventType: EventYawnDetected,
		Timestamp: "2025-08-30T10:15:00Z",
	}

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{"valid", func(*Event) {}, false},
		{"missing session", func(e *Event) { e.SessionID = "" }, true},
		{"missing user", func(e *Event) { e.UserID = "" }, true},
		{"missing type", func(e *Event) { e.EventType = "" }, true},
		{"missing timestamp", func(e *Event) { e.Timestamp = "" }, true},
		{"unknown type allowed", func(e *Event) { e.EventType = "BLINK_DETECTED" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
