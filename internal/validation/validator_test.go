// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Split string  `validate:"oneof=loo ratio"`
	K     int     `validate:"gte=1"`
	Ratio float64 `validate:"gt=0,lt=1"`
	Label string  `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     sample
		wantError bool
		wantField string
		wantTag   string
	}{
		{
			name:  "valid",
			input: sample{Split: "loo", K: 10, Ratio: 0.2, Label: "hybrid"},
		},
		{
			name:      "unknown split",
			input:     sample{Split: "kfold", K: 10, Ratio: 0.2, Label: "hybrid"},
			wantError: true,
			wantField: "Split",
			wantTag:   "oneof",
		},
		{
			name:      "zero cutoff",
			input:     sample{Split: "ratio", K: 0, Ratio: 0.2, Label: "hybrid"},
			wantError: true,
			wantField: "K",
			wantTag:   "gte",
		},
		{
			name:      "ratio out of range",
			input:     sample{Split: "ratio", K: 5, Ratio: 1, Label: "hybrid"},
			wantError: true,
			wantField: "Ratio",
			wantTag:   "lt",
		},
		{
			name:      "missing label",
			input:     sample{Split: "loo", K: 5, Ratio: 0.5},
			wantError: true,
			wantField: "Label",
			wantTag:   "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(&tt.input)
			if !tt.wantError {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("len(Errors()) = %d, want 1 (%v)", len(errs), err)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Error() = %q, want it to name %q", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateStructNested(t *testing.T) {
	t.Parallel()

	type inner struct {
		Workers int `validate:"gte=0"`
	}
	type outer struct {
		Recommend inner
	}

	err := ValidateStruct(&outer{Recommend: inner{Workers: -1}})
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if got := err.Errors()[0].Field(); got != "Recommend.Workers" {
		t.Errorf("Field() = %q, want %q", got, "Recommend.Workers")
	}
	if !strings.Contains(err.Error(), "got -1") {
		t.Errorf("Error() = %q, want offending value", err.Error())
	}
}
