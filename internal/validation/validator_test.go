// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package validation

import (
	"strings"
	"testing"
)

type rangeRequest struct {
	Start string `validate:"required,isodate"`
	End   string `validate:"required,isodate"`
}

type pageRequest struct {
	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1,max=100"`
}

func TestValidateStructISODate(t *testing.T) {
	tests := []struct {
		name    string
		req     rangeRequest
		wantErr bool
	}{
		{"valid range", rangeRequest{Start: "2025-08-01", End: "2025-08-30"}, false},
		{"empty start", rangeRequest{Start: "", End: "2025-08-30"}, true},
		{"time component rejected", rangeRequest{Start: "2025-08-01T00:00:00Z", End: "2025-08-30"}, true},
		{"bad month", rangeRequest{Start: "2025-13-01", End: "2025-08-30"}, true},
		{"not a date", rangeRequest{Start: "yesterday", End: "2025-08-30"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStructPagination(t *testing.T) {
	if err := ValidateStruct(&pageRequest{Page: 1, PageSize: 20}); err != nil {
		t.Errorf("valid pagination rejected: %v", err)
	}
	if err := ValidateStruct(&pageRequest{Page: 0, PageSize: 20}); err == nil {
		t.Error("page 0 accepted, want rejection")
	}
	if err := ValidateStruct(&pageRequest{Page: 1, PageSize: 101}); err == nil {
		t.Error("page size 101 accepted, want rejection")
	}
}

func TestToAPIErrorSingleField(t *testing.T) {
	err := ValidateStruct(&pageRequest{Page: 1, PageSize: 500})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "PageSize") {
		t.Errorf("Message = %q, want field name included", apiErr.Message)
	}
	if apiErr.Details["field"] != "PageSize" {
		t.Errorf("Details[field] = %v, want PageSize", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultipleFields(t *testing.T) {
	err := ValidateStruct(&rangeRequest{Start: "", End: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("Errors() len = %d, want 2", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("Details missing fields list for multi-error case")
	}
}
