// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/attentra/internal/metrics"
	"github.com/tomtom215/attentra/internal/models"
)

// InsertEvent stores one event append-only. The raw timestamp string is
// always kept; the parsed ts column is NULL when the string does not parse,
// so a bad timestamp never blocks ingestion.
func (db *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	start := time.Now()

	var ts interface{}
	if parsed, err := models.ParseTimestamp(event.Timestamp); err == nil {
		ts = parsed.UTC()
	}

	var prevStateMs interface{}
	if event.Payload != nil && event.Payload.PreviousStateDurationMs != nil {
		prevStateMs = *event.Payload.PreviousStateDurationMs
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO session_events (event_id, session_id, user_id, event_type, ts_raw, ts, prev_state_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), event.SessionID, event.UserID, string(event.EventType),
		event.Timestamp, ts, prevStateMs)
	metrics.ObserveDBQuery("insert_event", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// EventsBySession returns all events of a session ordered by parsed
// timestamp ascending, unparseable timestamps last in ingestion order.
// Returns ErrSessionNotFound when the session has no events.
func (db *DB) EventsBySession(ctx context.Context, sessionID string) ([]models.Event, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT session_id, user_id, event_type, ts_raw, prev_state_ms
		 FROM session_events
		 WHERE session_id = ?
		 ORDER BY ts ASC NULLS LAST, ingested_at ASC`,
		sessionID)
	metrics.ObserveDBQuery("events_by_session", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			e           models.Event
			eventType   string
			prevStateMs sql.NullInt64
		)
		if err := rows.Scan(&e.SessionID, &e.UserID, &eventType, &e.Timestamp, &prevStateMs); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.EventType = models.EventType(eventType)
		if prevStateMs.Valid {
			ms := prevStateMs.Int64
			e.Payload = &models.EventPayload{PreviousStateDurationMs: &ms}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session events: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrSessionNotFound
	}
	return events, nil
}

// DistinctSessionIDs returns every session id present in the store.
func (db *DB) DistinctSessionIDs(ctx context.Context) ([]string, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM session_events ORDER BY session_id`)
	metrics.ObserveDBQuery("distinct_sessions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query session ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session ids: %w", err)
	}
	return ids, nil
}

// DeleteEventsBySession removes all events of a session and returns how
// many rows were deleted. Zero rows is not an error here; callers decide
// whether that maps to not-found.
func (db *DB) DeleteEventsBySession(ctx context.Context, sessionID string) (int64, error) {
	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM session_events WHERE session_id = ?`, sessionID)
	metrics.ObserveDBQuery("delete_session", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session events: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	return deleted, nil
}

// SummarizeByUser returns one page of a user's sessions, newest first by
// session start. Total counts all matching sessions independent of the
// page. Boundaries come from parsed timestamps only; sessions whose
// events all have unparseable timestamps are excluded from the listing.
func (db *DB) SummarizeByUser(ctx context.Context, userID string, rangeStart, rangeEnd *time.Time, page, pageSize int) (*models.SessionPage, error) {
	where := `WHERE user_id = ? AND ts IS NOT NULL`
	args := []interface{}{userID}
	if rangeStart != nil {
		where += ` AND ts >= ?`
		args = append(args, rangeStart.UTC())
	}
	if rangeEnd != nil {
		where += ` AND ts < ?`
		args = append(args, rangeEnd.UTC())
	}

	start := time.Now()
	var total int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM session_events `+where, args...).Scan(&total)
	metrics.ObserveDBQuery("count_user_sessions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to count user sessions: %w", err)
	}

	offset := (page - 1) * pageSize
	pageArgs := append(append([]interface{}{}, args...), pageSize, offset)

	start = time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT session_id, MIN(ts) AS session_start, MAX(ts) AS session_end, COUNT(*) AS event_count
		 FROM session_events `+where+`
		 GROUP BY session_id
		 ORDER BY session_start DESC
		 LIMIT ? OFFSET ?`,
		pageArgs...)
	metrics.ObserveDBQuery("summarize_user_sessions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize user sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.SessionSummary, 0, pageSize)
	for rows.Next() {
		s := models.SessionSummary{UserID: userID}
		if err := rows.Scan(&s.SessionID, &s.SessionStart, &s.SessionEnd, &s.EventCount); err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		s.SessionStart = s.SessionStart.UTC()
		s.SessionEnd = s.SessionEnd.UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session summaries: %w", err)
	}

	return &models.SessionPage{Total: total, Sessions: summaries}, nil
}

// AnalyzeSession computes the derived analysis of one session in a single
// aggregation query. Returns ErrSessionNotFound when the session has no
// events at all.
func (db *DB) AnalyzeSession(ctx context.Context, sessionID string) (*models.SessionAnalysis, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT
			ANY_VALUE(user_id),
			COUNT(*),
			MIN(ts),
			MAX(ts),
			COUNT(*) FILTER (WHERE event_type = 'YAWN_DETECTED'),
			COUNT(*) FILTER (WHERE event_type = 'DISTRACTION_STARTED'),
			COUNT(*) FILTER (WHERE event_type = 'DROWSINESS_STARTED'),
			COALESCE(SUM(prev_state_ms) FILTER (WHERE event_type = 'DISTRACTION_STARTED'), 0),
			COALESCE(SUM(prev_state_ms) FILTER (WHERE event_type = 'DROWSINESS_STARTED'), 0)
		 FROM session_events
		 WHERE session_id = ?`,
		sessionID)

	var (
		userID     sql.NullString
		sessionMin sql.NullTime
		sessionMax sql.NullTime
		analysis   models.SessionAnalysis
	)
	err := row.Scan(&userID, &analysis.EventCount, &sessionMin, &sessionMax,
		&analysis.YawnCount, &analysis.DistractionCount, &analysis.DrowsinessCount,
		&analysis.TotalDistractionTimeMs, &analysis.TotalDrowsinessTimeMs)
	metrics.ObserveDBQuery("analyze_session", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze session: %w", err)
	}
	if analysis.EventCount == 0 {
		return nil, ErrSessionNotFound
	}

	analysis.SessionID = sessionID
	analysis.UserID = userID.String
	if sessionMin.Valid && sessionMax.Valid {
		analysis.SessionStart = sessionMin.Time.UTC()
		analysis.SessionEnd = sessionMax.Time.UTC()
		span := analysis.SessionEnd.Sub(analysis.SessionStart).Seconds()
		analysis.TotalDurationSeconds = math.Round(span*100) / 100
	}
	return &analysis, nil
}
