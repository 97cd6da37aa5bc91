// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/labscout/pkg/types"
)

// queryFileVersion is bumped when QueryFile changes incompatibly.
const queryFileVersion = 1

// QueryFile is a saved advanced search: what was asked, how it was
// understood, and what came back. `labscout search --from` re-renders one
// without contacting any API.
type QueryFile struct {
	Version int              `yaml:"version"`
	Query   QueryParams      `yaml:"query"`
	Spec    types.SearchSpec `yaml:"spec"`
	Results []types.Result   `yaml:"results"`
	Summary QuerySummary     `yaml:"summary"`
}

// QueryParams are the caller's inputs to the search.
type QueryParams struct {
	Description string             `yaml:"description"`
	Field       string             `yaml:"field,omitempty"`
	Experiments []types.Experiment `yaml:"experiments,omitempty"`
	Limit       int                `yaml:"limit"`
}

// QuerySummary describes the result set at save time.
type QuerySummary struct {
	Total    int `yaml:"total"`
	Verified int `yaml:"verified"`

	// Sources counts results per source label, e.g. "arXiv": 2.
	Sources map[string]int `yaml:"sources,omitempty"`

	// Fallback is set when the results are model recommendations.
	Fallback bool      `yaml:"fallback"`
	SavedAt  time.Time `yaml:"saved_at"`
}

func summarize(results []types.Result, fallback bool) QuerySummary {
	s := QuerySummary{Total: len(results), Fallback: fallback, SavedAt: time.Now().UTC()}
	for _, r := range results {
		if r.Verified {
			s.Verified++
		}
		if r.Source != "" {
			if s.Sources == nil {
				s.Sources = make(map[string]int)
			}
			s.Sources[r.Source]++
		}
	}
	return s
}

// WriteQueryFile saves a search to path as YAML. The file is written beside
// path and renamed into place so readers never see a partial file.
func WriteQueryFile(path string, params QueryParams, spec types.SearchSpec, results []types.Result, fallback bool) error {
	data, err := yaml.Marshal(&QueryFile{
		Version: queryFileVersion,
		Query:   params,
		Spec:    spec,
		Results: results,
		Summary: summarize(results, fallback),
	})
	if err != nil {
		return fmt.Errorf("encoding query file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".labscout-*.yaml")
	if err != nil {
		return fmt.Errorf("writing query file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing query file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing query file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing query file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ReadQueryFile loads a saved search. Files without a version are read as
// version 1; newer versions are rejected.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file %s: %w", path, err)
	}
	if qf.Version > queryFileVersion {
		return nil, fmt.Errorf("query file %s has version %d, this labscout reads up to %d", path, qf.Version, queryFileVersion)
	}
	return &qf, nil
}
