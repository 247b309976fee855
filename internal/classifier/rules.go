// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package classifier labels stored sessions GOOD or BAD and removes BAD
// sessions through a two-phase plan-then-confirm flow. Deletion never runs
// unattended: a plan must be computed first and executed with its
// confirmation token before it expires.
package classifier

import (
	"time"

	"github.com/tomtom215/attentra/internal/models"
)

// Quality is the classification of one session.
type Quality string

const (
	// QualityGood marks a session worth keeping.
	QualityGood Quality = "GOOD"
	// QualityBad marks a session eligible for deletion.
	QualityBad Quality = "BAD"
)

// Classification thresholds.
const (
	// MinEventCount is the minimum number of events in a GOOD session.
	MinEventCount = 10
	// MinSessionSpan is the minimum wall-clock span of a GOOD session.
	MinSessionSpan = 60 * time.Second
)

// Classify labels one session from its full event list. A session is GOOD
// only when all of the following hold:
//
//   - at least MinEventCount events
//   - a SESSION_START event is present
//   - a SESSION_END event is present
//   - both boundary timestamps parse, and end-start >= MinSessionSpan
//
// The span is measured between the SESSION_START and SESSION_END events
// only; timestamps of other events are not inspected, so a garbled filler
// timestamp does not change the label.
func Classify(events []models.Event) Quality {
	if len(events) < MinEventCount {
		return QualityBad
	}

	var start, end *models.Event
	for i := range events {
		switch events[i].EventType {
		case models.EventSessionStart:
			if start == nil {
				start = &events[i]
			}
		case models.EventSessionEnd:
			if end == nil {
				end = &events[i]
			}
		}
	}
	if start == nil || end == nil {
		return QualityBad
	}

	startTS, err := models.ParseTimestamp(start.Timestamp)
	if err != nil {
		return QualityBad
	}
	endTS, err := models.ParseTimestamp(end.Timestamp)
	if err != nil {
		return QualityBad
	}
	if endTS.Sub(startTS) < MinSessionSpan {
		return QualityBad
	}
	return QualityGood
}
