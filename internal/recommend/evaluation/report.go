// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package evaluation

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Report is the outcome of one evaluation run.
type Report struct {
	Split          string      `json:"split" yaml:"split"`
	TestRatio      float64     `json:"test_ratio" yaml:"test_ratio"`
	Liked          float64     `json:"liked" yaml:"liked"`
	Seed           int64       `json:"seed" yaml:"seed"`
	K              int         `json:"k" yaml:"k"`
	UsersEvaluated int         `json:"users_eval" yaml:"users_eval"`
	RatingsAll     int         `json:"ratings_all" yaml:"ratings_all"`
	TrainRatings   int         `json:"train_ratings" yaml:"train_ratings"`
	TestRatings    int         `json:"test_ratings" yaml:"test_ratings"`
	Baseline       ModelResult `json:"baseline" yaml:"baseline"`
	Model          ModelResult `json:"model" yaml:"model"`

	// Deltas of the model against the baseline in percent; +Inf when the
	// baseline scored 0.
	RecallDeltaPct float64 `json:"-" yaml:"recall_delta_pct"`
	MAPDeltaPct    float64 `json:"-" yaml:"map_delta_pct"`
}

// Write renders the report in format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case FormatText, "":
		return r.WriteText(w)
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatYAML:
		return r.WriteYAML(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText renders the human-readable report.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	split := r.Split
	if r.Split == SplitRatio {
		split += fmt.Sprintf(" (test_ratio=%v, liked>=%v)", r.TestRatio, r.Liked)
	}

	b.WriteString("\nOffline Evaluation\n------------------\n")
	fmt.Fprintf(&b, "split           : %s\n", split)
	fmt.Fprintf(&b, "seed            : %d\n", r.Seed)
	fmt.Fprintf(&b, "users_eval      : %d\n", r.UsersEvaluated)
	fmt.Fprintf(&b, "ratings_all     : %d\n", r.RatingsAll)
	fmt.Fprintf(&b, "train_ratings   : %d\n", r.TrainRatings)
	fmt.Fprintf(&b, "test_ratings    : %d\n\n", r.TestRatings)

	fmt.Fprintf(&b, "[Popularity baseline] %s\n", r.metricsLine(r.Baseline))
	fmt.Fprintf(&b, "[%s] %s\n\n", r.Model.Name, r.metricsLine(r.Model))

	b.WriteString("Delta vs Popularity\n-------------------\n")
	fmt.Fprintf(&b, "Recall@%d : %+.1f%%\n", r.K, r.RecallDeltaPct)
	fmt.Fprintf(&b, "MAP@%d    : %+.1f%%\n\n", r.K, r.MAPDeltaPct)

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Report) metricsLine(m ModelResult) string {
	return fmt.Sprintf("Precision@%d: %.4f | Recall@%d: %.4f | MAP@%d: %.4f",
		r.K, m.Precision, r.K, m.Recall, r.K, m.MAP)
}

// jsonReport carries the deltas as strings when they are infinite, which
// JSON numbers cannot express.
type jsonReport struct {
	*Report
	RecallDeltaPct any `json:"recall_delta_pct"`
	MAPDeltaPct    any `json:"map_delta_pct"`
}

func jsonNumber(v float64) any {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Sprintf("%+v", v)
	}
	return v
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Report:         r,
		RecallDeltaPct: jsonNumber(r.RecallDeltaPct),
		MAPDeltaPct:    jsonNumber(r.MAPDeltaPct),
	})
}

// WriteYAML renders the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
