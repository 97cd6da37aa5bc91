// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/labscout/pkg/types"
)

// Export formats accepted by Export.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Snapshot is the document Export writes.
type Snapshot struct {
	// Project is empty when every project was exported.
	Project    string      `json:"project,omitempty" yaml:"project,omitempty"`
	ExportedAt time.Time   `json:"exported_at" yaml:"exported_at"`
	Runs       []ExportRun `json:"runs" yaml:"runs"`
}

// ExportRun is one saved run together with its ranked results.
type ExportRun struct {
	Run     `yaml:",inline"`
	Results []types.Result `json:"results" yaml:"results"`
}

// Export writes the runs of project, or of all projects when project is
// empty, newest first. format is FormatYAML or FormatJSON; "" means YAML.
func (s *Store) Export(ctx context.Context, project, format string, w io.Writer) error {
	var encode func(any) error
	switch format {
	case FormatYAML, "":
		encode = func(v any) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		encode = enc.Encode
	default:
		return fmt.Errorf("unsupported export format %q: use yaml or json", format)
	}

	snap, err := s.snapshot(ctx, project)
	if err != nil {
		return err
	}
	if err := encode(snap); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

func (s *Store) snapshot(ctx context.Context, project string) (Snapshot, error) {
	snap := Snapshot{Project: project, ExportedAt: s.now().UTC()}
	runs, err := s.Runs(ctx, project)
	if err != nil {
		return snap, fmt.Errorf("listing runs for export: %w", err)
	}
	snap.Runs = make([]ExportRun, 0, len(runs))
	for _, run := range runs {
		results, err := s.Results(ctx, run.ID)
		if err != nil {
			return snap, fmt.Errorf("loading results of run %s: %w", run.ID, err)
		}
		snap.Runs = append(snap.Runs, ExportRun{Run: run, Results: results})
	}
	return snap, nil
}
