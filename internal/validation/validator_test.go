// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package validation

import (
	"strings"
	"testing"
)

type chartRequest struct {
	Chart      string `validate:"required,chartid"`
	Metric     string `validate:"omitempty,metric"`
	XVariable  string `validate:"omitempty,xvariable"`
	WorkingDay string `validate:"omitempty,workingday"`
	Season     string `validate:"omitempty,season"`
	Limit      int    `validate:"omitempty,gte=1,lte=10000"`
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name string
		req  chartRequest
	}{
		{"chart only", chartRequest{Chart: "monthly"}},
		{"scatter with options", chartRequest{Chart: "scatter", Metric: "casual", XVariable: "humidity", Limit: 500}},
		{"working day token", chartRequest{Chart: "hourly", WorkingDay: "non-working"}},
		{"working day label", chartRequest{Chart: "hourly", WorkingDay: "Working days"}},
		{"season mixed case", chartRequest{Chart: "day-period", Season: "Winter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.req); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		req       chartRequest
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{"missing chart", chartRequest{}, "Chart", "required", "Chart is required"},
		{"unknown chart", chartRequest{Chart: "pie"}, "Chart", "chartid", "Chart must be one of"},
		{"unknown metric", chartRequest{Chart: "monthly", Metric: "revenue"}, "Metric", "metric", "count, casual, registered"},
		{"unknown x variable", chartRequest{Chart: "scatter", XVariable: "season"}, "XVariable", "xvariable", "must be one of"},
		{"unknown working day", chartRequest{Chart: "hourly", WorkingDay: "weekends"}, "WorkingDay", "workingday", "must be one of"},
		{"unknown season", chartRequest{Chart: "hourly", Season: "monsoon"}, "Season", "season", "spring, summer, fall, winter"},
		{"limit too large", chartRequest{Chart: "scatter", Limit: 20000}, "Limit", "lte", "less than or equal to 10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("len(Errors()) = %d, want 1: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single field", func(t *testing.T) {
		err := ValidateStruct(&chartRequest{Chart: "pie"})
		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
		}
		if apiErr.Details["field"] != "Chart" {
			t.Errorf("Details[field] = %v, want Chart", apiErr.Details["field"])
		}
		if apiErr.Details["value"] != "pie" {
			t.Errorf("Details[value] = %v, want pie", apiErr.Details["value"])
		}
	})

	t.Run("multiple fields", func(t *testing.T) {
		err := ValidateStruct(&chartRequest{Chart: "pie", Metric: "revenue"})
		apiErr := err.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok {
			t.Fatalf("Details[fields] = %T, want []map[string]interface{}", apiErr.Details["fields"])
		}
		if len(fields) != 2 {
			t.Errorf("len(fields) = %d, want 2", len(fields))
		}
		if !strings.Contains(apiErr.Message, "Chart:") || !strings.Contains(apiErr.Message, "Metric:") {
			t.Errorf("Message = %q, want both fields named", apiErr.Message)
		}
	})

	t.Run("empty", func(t *testing.T) {
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("Message = %q, want Validation failed", apiErr.Message)
		}
	})
}

func TestNewFieldError(t *testing.T) {
	err := NewFieldError("years", "years", "20x1", "invalid year \"20x1\"")
	if err.Error() != "invalid year \"20x1\"" {
		t.Errorf("Error() = %q", err.Error())
	}
	apiErr := err.ToAPIError()
	if apiErr.Details["field"] != "years" {
		t.Errorf("Details[field] = %v, want years", apiErr.Details["field"])
	}
}
