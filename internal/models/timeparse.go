// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyTimestamp is returned when the timestamp string is blank.
var ErrEmptyTimestamp = errors.New("empty timestamp")

// ParseTimestamp parses the lenient ISO-8601 grammar used by the trackers:
//
//	YYYY-MM-DDTHH:MM:SS[.fraction][Z|±HH:MM]
//
// Fractional seconds of any length are accepted and truncated to
// microsecond precision. A space may stand in for the 'T' separator.
// Timestamps without an offset are interpreted as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrEmptyTimestamp
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}

	// Split off the UTC designator or numeric offset. Positions <= 10 are
	// the date's own hyphens.
	offset := ""
	switch {
	case strings.HasSuffix(s, "Z"), strings.HasSuffix(s, "z"):
		offset = "Z"
		s = s[:len(s)-1]
	default:
		if i := strings.LastIndexAny(s, "+-"); i > 10 {
			offset = s[i:]
			s = s[:i]
		}
	}

	// Truncate fractional seconds to six digits.
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac := s[i+1:]
		if len(frac) > 6 {
			frac = frac[:6]
		}
		if frac == "" {
			s = s[:i]
		} else {
			s = s[:i+1] + frac
		}
	}

	if offset == "" {
		offset = "Z"
	}

	t, err := time.Parse(time.RFC3339, s+offset)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	return t, nil
}
