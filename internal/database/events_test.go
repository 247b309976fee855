// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/attentra/internal/config"
	"github.com/tomtom215/attentra/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(config.DatabaseConfig{Path: "", MaxMemory: "256MB", Threads: 2})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertTestEvent(t *testing.T, db *DB, sessionID, userID string, eventType models.EventType, ts string, prevMs int64) {
	t.Helper()
	e := &models.Event{
		SessionID: sessionID,
		UserID:    userID,
		EventType: eventType,
		Timestamp: ts,
	}
	if prevMs > 0 {
		e.Payload = &models.EventPayload{PreviousStateDurationMs: &prevMs}
	}
	if err := db.InsertEvent(context.Background(), e); err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}
}

func TestEventsBySessionOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertTestEvent(t, db, "s1", "u1", models.EventYawnDetected, "2025-08-30T10:05:00Z", 0)
	insertTestEvent(t, db, "s1", "u1", models.EventSessionStart, "2025-08-30T10:00:00Z", 0)
	insertTestEvent(t, db, "s1", "u1", models.EventSessionEnd, "2025-08-30T10:10:00Z", 0)
	insertTestEvent(t, db, "s1", "u1", "CUSTOM_EVENT", "garbage-timestamp", 0)
	insertTestEvent(t, db, "s2", "u1", models.EventSessionStart, "2025-08-30T11:00:00Z", 0)

	events, err := db.EventsBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("EventsBySession() error = %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("len(events) = %d, want 4", len(events))
	}
	if events[0].EventType != models.EventSessionStart {
		t.Errorf("first event = %s, want SESSION_START", events[0].EventType)
	}
	// Unparseable timestamps sort last.
	if events[3].Timestamp != "garbage-timestamp" {
		t.Errorf("last event timestamp = %q, want the unparseable one", events[3].Timestamp)
	}
}

func TestEventsBySessionNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.EventsBySession(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestEventsBySessionPayloadRoundTrip(t *testing.T) {
	db := newTestDB(t)

	insertTestEvent(t, db, "s1", "u1", models.EventDistractionStarted, "2025-08-30T10:00:00Z", 4500)
	insertTestEvent(t, db, "s1", "u1", models.EventYawnDetected, "2025-08-30T10:01:00Z", 0)

	events, err := db.EventsBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("EventsBySession() error = %v", err)
	}
	if got := events[0].PreviousStateDurationMs(); got != 4500 {
		t.Errorf("payload duration = %d, want 4500", got)
	}
	if events[1].Payload != nil {
		t.Error("yawn event should carry no payload")
	}
}

func TestDeleteEventsBySession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertTestEvent(t, db, "s1", "u1", models.EventSessionStart, "2025-08-30T10:00:00Z", 0)
	insertTestEvent(t, db, "s1", "u1", models.EventSessionEnd, "2025-08-30T10:05:00Z", 0)
	insertTestEvent(t, db, "s2", "u1", models.EventSessionStart, "2025-08-30T11:00:00Z", 0)

	deleted, err := db.DeleteEventsBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("DeleteEventsBySession() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	// Other sessions untouched.
	if _, err := db.EventsBySession(ctx, "s2"); err != nil {
		t.Errorf("s2 should survive: %v", err)
	}

	// Deleting again affects nothing.
	deleted, err = db.DeleteEventsBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("second delete error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("second delete = %d rows, want 0", deleted)
	}
}

func TestDistinctSessionIDs(t *testing.T) {
	db := newTestDB(t)

	insertTestEvent(t, db, "s1", "u1", models.EventSessionStart, "2025-08-30T10:00:00Z", 0)
	insertTestEvent(t, db, "s1", "u1", models.EventSessionEnd, "2025-08-30T10:05:00Z", 0)
	insertTestEvent(t, db, "s2", "u2", models.EventSessionStart, "2025-08-30T11:00:00Z", 0)

	ids, err := db.DistinctSessionIDs(context.Background())
	if err != nil {
		t.Fatalf("DistinctSessionIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("len(ids) = %d, want 2", len(ids))
	}
	if ids[0] != "s1" || ids[1] != "s2" {
		t.Errorf("ids = %v, want [s1 s2]", ids)
	}
}

func TestSummarizeByUserPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Five sessions, one hour apart, two events each.
	for i := 0; i < 5; i++ {
		sid := fmt.Sprintf("s%d", i)
		start := time.Date(2025, 8, 30, 8+i, 0, 0, 0, time.UTC)
		insertTestEvent(t, db, sid, "u1", models.EventSessionStart, start.Format(time.RFC3339), 0)
		insertTestEvent(t, db, sid, "u1", models.EventSessionEnd, start.Add(10*time.Minute).Format(time.RFC3339), 0)
	}
	// Another user's session must not leak in.
	insertTestEvent(t, db, "other", "u2", models.EventSessionStart, "2025-08-30T09:00:00Z", 0)

	page, err := db.SummarizeByUser(ctx, "u1", nil, nil, 1, 2)
	if err != nil {
		t.Fatalf("SummarizeByUser() error = %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Total = %d, want 5 (independent of page size)", page.Total)
	}
	if len(page.Sessions) != 2 {
		t.Fatalf("len(Sessions) = %d, want 2", len(page.Sessions))
	}
	// Newest session first.
	if page.Sessions[0].SessionID != "s4" || page.Sessions[1].SessionID != "s3" {
		t.Errorf("page 1 = [%s %s], want [s4 s3]",
			page.Sessions[0].SessionID, page.Sessions[1].SessionID)
	}
	if page.Sessions[0].EventCount != 2 {
		t.Errorf("EventCount = %d, want 2", page.Sessions[0].EventCount)
	}

	page3, err := db.SummarizeByUser(ctx, "u1", nil, nil, 3, 2)
	if err != nil {
		t.Fatalf("SummarizeByUser() page 3 error = %v", err)
	}
	if len(page3.Sessions) != 1 || page3.Sessions[0].SessionID != "s0" {
		t.Errorf("page 3 = %v, want only s0", page3.Sessions)
	}

	empty, err := db.SummarizeByUser(ctx, "u1", nil, nil, 4, 2)
	if err != nil {
		t.Fatalf("SummarizeByUser() past end error = %v", err)
	}
	if len(empty.Sessions) != 0 || empty.Total != 5 {
		t.Errorf("past-end page = %d sessions total %d, want 0 and 5",
			len(empty.Sessions), empty.Total)
	}
}

func TestSummarizeByUserDateRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertTestEvent(t, db, "early", "u1", models.EventSessionStart, "2025-08-01T10:00:00Z", 0)
	insertTestEvent(t, db, "inside", "u1", models.EventSessionStart, "2025-08-15T10:00:00Z", 0)
	insertTestEvent(t, db, "late", "u1", models.EventSessionStart, "2025-09-05T10:00:00Z", 0)

	from := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	page, err := db.SummarizeByUser(ctx, "u1", &from, &to, 1, 20)
	if err != nil {
		t.Fatalf("SummarizeByUser() error = %v", err)
	}
	if page.Total != 1 || len(page.Sessions) != 1 {
		t.Fatalf("range filter returned %d sessions, want 1", page.Total)
	}
	if page.Sessions[0].SessionID != "inside" {
		t.Errorf("session = %s, want inside", page.Sessions[0].SessionID)
	}
}

func TestAnalyzeSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertTestEvent(t, db, "s1", "u1", models.EventSessionStart, "2025-08-30T10:00:00Z", 0)
	insertTestEvent(t, db, "s1", "u1", models.EventYawnDetected, "2025-08-30T10:01:00Z", 0)
	insertTestEvent(t, db, "s1", "u1", models.EventYawnDetected, "2025-08-30T10:02:00Z", 0)
	insertTestEvent(t, db, "s1", "u1", models.EventDistractionStarted, "2025-08-30T10:03:00Z", 4000)
	insertTestEvent(t, db, "s1", "u1", models.EventDistractionStarted, "2025-08-30T10:04:00Z", 6000)
	insertTestEvent(t, db, "s1", "u1", models.EventDrowsinessStarted, "2025-08-30T10:05:00Z", 2500)
	insertTestEvent(t, db, "s1", "u1", models.EventSessionEnd, "2025-08-30T10:06:30Z", 0)

	analysis, err := db.AnalyzeSession(ctx, "s1")
	if err != nil {
		t.Fatalf("AnalyzeSession() error = %v", err)
	}

	if analysis.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", analysis.UserID)
	}
	if analysis.EventCount != 7 {
		t.Errorf("EventCount = %d, want 7", analysis.EventCount)
	}
	if analysis.YawnCount != 2 {
		t.Errorf("YawnCount = %d, want 2", analysis.YawnCount)
	}
	if analysis.DistractionCount != 2 {
		t.Errorf("DistractionCount = %d, want 2", analysis.DistractionCount)
	}
	if analysis.DrowsinessCount != 1 {
		t.Errorf("DrowsinessCount = %d, want 1", analysis.DrowsinessCount)
	}
	if analysis.TotalDistractionTimeMs != 10000 {
		t.Errorf("TotalDistractionTimeMs = %d, want 10000", analysis.TotalDistractionTimeMs)
	}
	if analysis.TotalDrowsinessTimeMs != 2500 {
		t.Errorf("TotalDrowsinessTimeMs = %d, want 2500", analysis.TotalDrowsinessTimeMs)
	}
	if analysis.TotalDurationSeconds != 390 {
		t.Errorf("TotalDurationSeconds = %v, want 390", analysis.TotalDurationSeconds)
	}
	wantStart := time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)
	if !analysis.SessionStart.Equal(wantStart) {
		t.Errorf("SessionStart = %s, want %s", analysis.SessionStart, wantStart)
	}
}

func TestAnalyzeSessionRoundsDuration(t *testing.T) {
	db := newTestDB(t)

	insertTestEvent(t, db, "s1", "u1", models.EventSessionStart, "2025-08-30T10:00:00.000Z", 0)
	insertTestEvent(t, db, "s1", "u1", models.EventSessionEnd, "2025-08-30T10:00:30.456789Z", 0)

	analysis, err := db.AnalyzeSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("AnalyzeSession() error = %v", err)
	}
	if analysis.TotalDurationSeconds != 30.46 {
		t.Errorf("TotalDurationSeconds = %v, want 30.46", analysis.TotalDurationSeconds)
	}
}

func TestAnalyzeSessionNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.AnalyzeSession(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestInsertEventKeepsUnparseableTimestamp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertTestEvent(t, db, "s1", "u1", models.EventSessionStart, "not-a-time", 0)

	events, err := db.EventsBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("EventsBySession() error = %v", err)
	}
	if events[0].Timestamp != "not-a-time" {
		t.Errorf("raw timestamp = %q, want preserved verbatim", events[0].Timestamp)
	}

	// The session has no parsed timestamps so the listing excludes it.
	page, err := db.SummarizeByUser(ctx, "u1", nil, nil, 1, 20)
	if err != nil {
		t.Fatalf("SummarizeByUser() error = %v", err)
	}
	if page.Total != 0 {
		t.Errorf("Total = %d, want 0", page.Total)
	}
}
