// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/labscout/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "db", "labscout.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func intPtr(v int) *int { return &v }

func sampleResults() []types.Result {
	return []types.Result{
		{
			Title:           "Thermal stability of lipases",
			Abstract:        "Lipases were heated...",
			Date:            "2024",
			Authors:         []string{"Ada Lovelace", "Marie Curie"},
			URL:             "https://doi.org/10.1000/lip",
			DOI:             "10.1000/lip",
			Citations:       intPtr(120),
			Source:          "CrossRef",
			SourceIcon:      "📚",
			MatchPercentage: 72.4,
			MatchReasons:    []string{"Strong keyword and topic alignment", "Source verified via DOI"},
			Verified:        true,
			Scores:          types.ScoreBreakdown{Semantic: 81.2, Topic: 90, Methodology: 50, Citations: 68.6, Recency: 80},
		},
		{
			Title:           "Enzyme kinetics primer",
			Authors:         []string{},
			Source:          "arXiv",
			SourceIcon:      "📄",
			MatchPercentage: 31,
			MatchReasons:    []string{},
		},
	}
}

// --- tests ---

func TestSaveRunAndLatestResults(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.SaveRun(ctx, RunInput{Project: "lipase", Description: "heat tolerance", Field: "Biochemistry"}, sampleResults())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		t.Errorf("run id %q is not a UUID: %v", run.ID, err)
	}
	if run.ResultCount != 2 {
		t.Errorf("ResultCount = %d, want 2", run.ResultCount)
	}

	latest, results, err := s.LatestResults(ctx, "lipase")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != run.ID {
		t.Errorf("latest run = %s, want %s", latest.ID, run.ID)
	}
	if latest.Field != "Biochemistry" || latest.Description != "heat tolerance" {
		t.Errorf("run context not preserved: %+v", latest)
	}
	if diff := cmp.Diff(sampleResults(), results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestLatestResultsNewestRunWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.SaveRun(ctx, RunInput{Project: "p"}, sampleResults()); err != nil {
		t.Fatal(err)
	}
	second, err := s.SaveRun(ctx, RunInput{Project: "p", Fallback: true}, sampleResults()[1:])
	if err != nil {
		t.Fatal(err)
	}

	run, results, err := s.LatestResults(ctx, "p")
	if err != nil {
		t.Fatal(err)
	}
	if run.ID != second.ID || !run.Fallback {
		t.Errorf("latest = %+v, want second run", run)
	}
	if len(results) != 1 || results[0].Title != "Enzyme kinetics primer" {
		t.Errorf("results = %+v", results)
	}
	if results[0].Citations != nil {
		t.Errorf("Citations = %v, want nil", *results[0].Citations)
	}
}

func TestLatestResultsUnknownProject(t *testing.T) {
	s := testStore(t)
	_, _, err := s.LatestResults(context.Background(), "missing")
	if !errors.Is(err, ErrNoRuns) {
		t.Fatalf("err = %v, want ErrNoRuns", err)
	}
}

func TestSaveRunRequiresProject(t *testing.T) {
	s := testStore(t)
	if _, err := s.SaveRun(context.Background(), RunInput{}, nil); err == nil {
		t.Fatal("expected error for empty project")
	}
}

func TestSaveRunRejectsUnencodableScores(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	results := []types.Result{
		{Title: "Fine"},
		{Title: "Broken", Scores: types.ScoreBreakdown{Semantic: math.NaN()}},
	}

	_, err := s.SaveRun(ctx, RunInput{Project: "p"}, results)
	if err == nil || !strings.Contains(err.Error(), "encoding result 1 scores") {
		t.Fatalf("err = %v, want scores encoding error", err)
	}
	if _, _, err := s.LatestResults(ctx, "p"); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("LatestResults err = %v, want ErrNoRuns after rollback", err)
	}
}

func TestRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, p := range []string{"a", "b", "a"} {
		if _, err := s.SaveRun(ctx, RunInput{Project: p}, sampleResults()); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.Runs(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("runs not newest first: %v after %v", all[i].CreatedAt, all[i-1].CreatedAt)
		}
	}

	a, err := s.Runs(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 2 {
		t.Errorf("len(a) = %d, want 2", len(a))
	}
	for _, r := range a {
		if r.Project != "a" || r.ResultCount != 2 {
			t.Errorf("unexpected run %+v", r)
		}
	}
}

func TestRunsEmpty(t *testing.T) {
	s := testStore(t)
	runs, err := s.Runs(context.Background(), "nothing")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %+v, want none", runs)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labscout.db")
	s, err := Open(types.StoreConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveRun(context.Background(), RunInput{Project: "p"}, sampleResults()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(types.StoreConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runs, err := s.Runs(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("len(runs) = %d after reopen, want 1", len(runs))
	}
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	if _, err := s.SaveRun(ctx, RunInput{Project: "lipase", Description: "heat"}, sampleResults()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveRun(ctx, RunInput{Project: "other"}, nil); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.Export(ctx, "lipase", FormatYAML, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "project: other") {
		t.Errorf("export includes another project:\n%s", buf.String())
	}

	var snap Snapshot
	if err := yaml.Unmarshal(buf.Bytes(), &snap); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if snap.Project != "lipase" || snap.ExportedAt.IsZero() {
		t.Errorf("snapshot header = %q %v", snap.Project, snap.ExportedAt)
	}
	if len(snap.Runs) != 1 || len(snap.Runs[0].Results) != 2 {
		t.Fatalf("runs = %+v", snap.Runs)
	}
	if snap.Runs[0].Project != "lipase" {
		t.Errorf("run project = %q", snap.Runs[0].Project)
	}
	if snap.Runs[0].Results[0].DOI != "10.1000/lip" {
		t.Errorf("DOI = %q", snap.Runs[0].Results[0].DOI)
	}
}

func TestExportJSON(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	if _, err := s.SaveRun(ctx, RunInput{Project: "p"}, sampleResults()); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.Export(ctx, "", FormatJSON, &buf); err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(buf.Bytes(), &snap); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	runs := snap.Runs
	if len(runs) != 1 || runs[0].Project != "p" || runs[0].Results[0].MatchPercentage != 72.4 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	s := testStore(t)
	var buf bytes.Buffer
	err := s.Export(context.Background(), "", "xml", &buf)
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("err = %v, want unsupported format", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q for an unknown format", buf.String())
	}
}
