package biomarkers_test

import (
	"testing"

	"github.com/JaimeStill/caduceus/internal/biomarkers"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue float64
		wantUnit  string
	}{
		{"number with unit", "141 mmol/L", 141, "mmol/L"},
		{"decimal with unit", "14.5 g/dL", 14.5, "g/dL"},
		{"comparison operator stripped", "< 41 U/L", 41, "U/L"},
		{"gte operator stripped", ">= 7.0", 7.0, ""},
		{"scientific notation", "1.2e3 cells/uL", 1200, "cells/uL"},
		{"bare number", "98", 98, ""},
		{"no number falls back", "not detected", 0.0, "not detected"},
		{"empty string", "", 0.0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, unit := biomarkers.ParseValue(tt.input)
			if value != tt.wantValue {
				t.Errorf("value = %v, want %v", value, tt.wantValue)
			}
			if unit != tt.wantUnit {
				t.Errorf("unit = %q, want %q", unit, tt.wantUnit)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		input   string
		wantMin *float64
		wantMax *float64
	}{
		{"closed range", "135-145 mmol/L", ptr(135), ptr(145)},
		{"spaced range", "13.0 - 16.5", ptr(13.0), ptr(16.5)},
		{"upper bound only", "< 41 U/L", nil, ptr(41)},
		{"lower bound only", "> 7.0", ptr(7.0), nil},
		{"bare value collapses", "100", ptr(100), ptr(100)},
		{"garbage", "see attached chart", nil, nil},
		{"empty", "", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := biomarkers.ParseRange(tt.input)
			if !boundEqual(gotMin, tt.wantMin) {
				t.Errorf("min = %v, want %v", fmtBound(gotMin), fmtBound(tt.wantMin))
			}
			if !boundEqual(gotMax, tt.wantMax) {
				t.Errorf("max = %v, want %v", fmtBound(gotMax), fmtBound(tt.wantMax))
			}
		})
	}
}

func boundEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtBound(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
