// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/reco/internal/config"
	"github.com/tomtom215/reco/internal/dataset"
	"github.com/tomtom215/reco/internal/recommend"
)

const testMovies = `movieId,title,genres
10,Alpha (1990),Drama
20,Beta (1991),Comedy
30,Gamma (1992),Drama|Comedy
40,Delta (1993),Action
50,Epsilon (1994),Action|Drama
`

const testRatings = `userId,movieId,rating,timestamp
1,10,5.0,1
1,20,4.0,2
1,30,4.5,3
2,10,4.0,4
2,30,5.0,5
2,40,4.5,6
3,20,3.0,7
3,40,4.0,8
3,50,5.0,9
4,10,4.5,10
4,50,4.0,11
4,20,2.0,12
`

// setupEnv points the configuration at a fresh SQLite file and returns a
// directory holding the MovieLens fixture.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "reco.db"))
	t.Setenv("LOG_LEVEL", "error")

	data := filepath.Join(dir, "ml")
	if err := os.MkdirAll(data, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(data, dataset.MoviesFile), []byte(testMovies), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(data, dataset.RatingsFile), []byte(testRatings), 0o600); err != nil {
		t.Fatal(err)
	}
	return data
}

func runCmd(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{name: "no command", args: nil, wantCode: exitUsage, wantErr: "Usage: reco"},
		{name: "help", args: []string{"help"}, wantCode: exitOK, wantOut: "Commands:"},
		{name: "unknown command", args: []string{"train"}, wantCode: exitUsage, wantErr: `unknown command "train"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCmd(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("stdout = %q, want it to contain %q", out, tt.wantOut)
			}
			if !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.wantErr)
			}
		})
	}
}

func TestSubcommandFlagErrors(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"recompute", "-x"}},
		{name: "bad flag value", args: []string{"recompute", "-n", "many"}},
		{name: "positional argument", args: []string{"import", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCmd(t, tt.args...); code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
		})
	}

	if code, _, errOut := runCmd(t, "recompute", "-n", "0"); code != exitError || !strings.Contains(errOut, "-n must be >= 1") {
		t.Errorf("recompute -n 0: code = %d, stderr = %q", code, errOut)
	}
}

func TestImportRecomputeCheck(t *testing.T) {
	data := setupEnv(t)

	code, out, errOut := runCmd(t, "import", "-dir", data)
	if code != exitOK {
		t.Fatalf("import exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "Imported 4 users, 5 items, 12 ratings") {
		t.Errorf("import output = %q", out)
	}

	code, out, errOut = runCmd(t, "recompute", "-n", "2", "-check")
	if code != exitOK {
		t.Fatalf("recompute exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "for 4 users (algo "+recommend.AlgoHybridUserCFPop) {
		t.Errorf("recompute output = %q", out)
	}
	if !strings.Contains(out, "Stored recommendations: ") {
		t.Errorf("recompute -check output = %q, want a stored row count", out)
	}
}

func TestEvaluateFromDirectory(t *testing.T) {
	data := setupEnv(t)

	code, out, errOut := runCmd(t, "evaluate", "-dir", data, "-format", "json", "-k", "2", "-n", "3")
	if code != exitOK {
		t.Fatalf("evaluate exit code = %d, stderr = %s", code, errOut)
	}
	for _, want := range []string{`"split": "loo"`, `"users_eval": 4`, `"k": 2`} {
		if !strings.Contains(out, want) {
			t.Errorf("evaluate output = %s, want it to contain %s", out, want)
		}
	}
}

func TestRecommendConfigMapping(t *testing.T) {
	rc := config.RecommendConfig{
		NPerUser:           20,
		KNeighbors:         15,
		AlgoVersion:        "custom",
		PopTopP:            100,
		NeighborPool:       25,
		MaxSeedItems:       10,
		MaxRatersPerItem:   12,
		MaxRatersPerItemCF: 200,
		MaxCandidatesCF:    300,
		RatingThreshold:    3.5,
		AlphaMax:           0.8,
		PopularityQuantile: 0.9,
		RegItem:            10,
		RegUser:            15,
		Workers:            2,
		SimCacheCapacity:   1000,
	}

	got := recommendConfig(&rc)
	want := recommend.Config{
		PopTopP:            100,
		NeighborPool:       25,
		MaxSeedItems:       10,
		MaxRatersPerItem:   12,
		MaxCandidatesCF:    300,
		RatingThreshold:    3.5,
		MaxRatersPerItemCF: 200,
		KNeighbors:         15,
		AlphaMax:           0.8,
		PopularityQuantile: 0.9,
		RegItem:            10,
		RegUser:            15,
		Workers:            2,
		SimCacheCapacity:   1000,
	}
	if got != want {
		t.Errorf("recommendConfig() = %+v, want %+v", got, want)
	}

	opts := recomputeOptions(&rc)
	if opts.NPerUser != 20 || opts.KNeighbors != 15 || opts.AlgoVersion != "custom" {
		t.Errorf("recomputeOptions() = %+v", opts)
	}
}
