// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/attentra/internal/metrics"
	"github.com/tomtom215/attentra/internal/models"
)

// CreateReport inserts a new report record. The caller sets ID, Status and
// CreatedAt; ArtifactKey stays empty until completion.
func (db *DB) CreateReport(ctx context.Context, report *models.Report) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reports (report_id, user_id, title, status, range_start, range_end, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.UserID, report.Title, string(report.Status),
		report.DateRange.Start, report.DateRange.End, report.CreatedAt.UTC())
	metrics.ObserveDBQuery("create_report", start, err)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// UpdateReportStatus moves a PENDING report to a terminal status. The
// status column is guarded so a report transitions exactly once: a second
// update returns ErrReportTerminal.
func (db *DB) UpdateReportStatus(ctx context.Context, reportID string, status models.ReportStatus, artifactKey string) error {
	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE reports
		 SET status = ?, artifact_key = ?, completed_at = ?
		 WHERE report_id = ? AND status = ?`,
		string(status), nullIfEmpty(artifactKey), time.Now().UTC(),
		reportID, string(models.ReportPending))
	metrics.ObserveDBQuery("update_report_status", start, err)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read updated row count: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetReportByID(ctx, reportID); errors.Is(err, ErrReportNotFound) {
			return ErrReportNotFound
		}
		return ErrReportTerminal
	}
	return nil
}

// GetReportByID fetches one report record.
func (db *DB) GetReportByID(ctx context.Context, reportID string) (*models.Report, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT report_id, user_id, title, status, range_start, range_end, artifact_key, created_at, completed_at
		 FROM reports WHERE report_id = ?`,
		reportID)

	report, err := scanReport(row)
	metrics.ObserveDBQuery("get_report", start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// ListReportsByUser returns all of a user's reports, newest first.
func (db *DB) ListReportsByUser(ctx context.Context, userID string) ([]models.Report, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT report_id, user_id, title, status, range_start, range_end, artifact_key, created_at, completed_at
		 FROM reports WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID)
	metrics.ObserveDBQuery("list_reports", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

// DeleteReport removes a report record. Returns ErrReportNotFound when no
// record existed.
func (db *DB) DeleteReport(ctx context.Context, reportID string) error {
	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM reports WHERE report_id = ?`, reportID)
	metrics.ObserveDBQuery("delete_report", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deleted row count: %w", err)
	}
	if affected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(s scanner) (*models.Report, error) {
	var (
		report      models.Report
		status      string
		artifactKey sql.NullString
		completedAt sql.NullTime
	)
	err := s.Scan(&report.ID, &report.UserID, &report.Title, &status,
		&report.DateRange.Start, &report.DateRange.End,
		&artifactKey, &report.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	report.Status = models.ReportStatus(status)
	report.ArtifactKey = artifactKey.String
	report.CreatedAt = report.CreatedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		report.CompletedAt = &t
	}
	return &report, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
