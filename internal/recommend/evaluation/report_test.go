// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package evaluation

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	return &Report{
		Split:          SplitRatio,
		TestRatio:      0.2,
		Liked:          4.5,
		Seed:           42,
		K:              10,
		UsersEvaluated: 12,
		RatingsAll:     100,
		TrainRatings:   78,
		TestRatings:    22,
		Baseline:       ModelResult{Name: ModelPopularity, Users: 12, Precision: 0.1, Recall: 0, MAP: 0.05},
		Model:          ModelResult{Name: "hybrid_usercf_pop", Users: 12, Precision: 0.25, Recall: 0.5, MAP: 0.075},
		RecallDeltaPct: math.Inf(1),
		MAPDeltaPct:    50,
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Offline Evaluation",
		"split           : ratio (test_ratio=0.2, liked>=4.5)",
		"users_eval      : 12",
		"[Popularity baseline] Precision@10: 0.1000 | Recall@10: 0.0000 | MAP@10: 0.0500",
		"[hybrid_usercf_pop] Precision@10: 0.2500 | Recall@10: 0.5000 | MAP@10: 0.0750",
		"Recall@10 : +Inf%",
		"MAP@10    : +50.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextLeaveOneOutOmitsRatio(t *testing.T) {
	r := sampleReport()
	r.Split = SplitLOO

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "test_ratio") {
		t.Errorf("loo report mentions test_ratio:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().Write(&buf, FormatJSON); err != nil {
		t.Fatalf("Write(json) error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got["recall_delta_pct"] != "+Inf" {
		t.Errorf("recall_delta_pct = %v, want \"+Inf\"", got["recall_delta_pct"])
	}
	if got["map_delta_pct"] != 50.0 {
		t.Errorf("map_delta_pct = %v, want 50", got["map_delta_pct"])
	}
	if got["split"] != SplitRatio {
		t.Errorf("split = %v, want ratio", got["split"])
	}
}

func TestWriteYAML(t *testing.T) {
	r := sampleReport()
	r.RecallDeltaPct = 12.5

	var buf bytes.Buffer
	if err := r.Write(&buf, FormatYAML); err != nil {
		t.Fatalf("Write(yaml) error = %v", err)
	}

	var got struct {
		UsersEval      int     `yaml:"users_eval"`
		RecallDeltaPct float64 `yaml:"recall_delta_pct"`
		Model          struct {
			Recall float64 `yaml:"recall"`
		} `yaml:"model"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if got.UsersEval != 12 || got.RecallDeltaPct != 12.5 || got.Model.Recall != 0.5 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := sampleReport().Write(&bytes.Buffer{}, "xml"); err == nil {
		t.Error("Write(xml) succeeded, want error")
	}
}
