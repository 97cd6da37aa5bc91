// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/labscout/internal/pipeline"
	"github.com/pdiddy/labscout/internal/search"
	"github.com/pdiddy/labscout/internal/store"
	"github.com/pdiddy/labscout/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [description]",
	Short: "Search academic databases for papers related to a research description",
	Long: `Search derives a structured query from a research description, queries
Semantic Scholar, arXiv, PubMed and CrossRef concurrently (plus OpenAlex when
enabled), and prints the best matches with a match percentage and reasons.

When no database returns anything, a language model recommends papers
instead. Use --project to keep the results, --output to save the full
search as YAML, and --from to re-render a saved search without querying.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if _, ok := renderers[format]; !ok {
		return fmt.Errorf("unsupported format %q: use table, json, csl or yaml", format)
	}

	fromFile, _ := cmd.Flags().GetString("from")
	if fromFile != "" {
		qf, err := search.ReadQueryFile(fromFile)
		if err != nil {
			return err
		}
		return render(format, qf.Results, os.Stdout)
	}

	description, _ := cmd.Flags().GetString("description")
	if description == "" {
		description = strings.Join(args, " ")
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("a research description is required: pass --description or positional text")
	}
	field, _ := cmd.Flags().GetString("field")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	experimentsFile, _ := cmd.Flags().GetString("experiments")
	experiments, err := loadExperiments(experimentsFile)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := pipeline.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	out, err := p.Run(ctx, description, field, experiments, limit)
	if err != nil {
		return err
	}

	if project, _ := cmd.Flags().GetString("project"); project != "" {
		if err := saveRun(ctx, cfg.Store, project, description, field, out); err != nil {
			return err
		}
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		params := search.QueryParams{Description: description, Field: field, Experiments: experiments, Limit: limit}
		if err := search.WriteQueryFile(output, params, out.Spec, out.Results, out.Fallback); err != nil {
			return err
		}
		logger.Info("search saved", zap.String("path", output))
	}

	return render(format, out.Results, os.Stdout)
}

func saveRun(ctx context.Context, cfg types.StoreConfig, project, description, field string, out pipeline.Outcome) error {
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.SaveRun(ctx, store.RunInput{
		Project:     project,
		Description: description,
		Field:       field,
		Fallback:    out.Fallback,
	}, out.Results)
	if err != nil {
		return err
	}
	logger.Info("results saved", zap.String("project", project), zap.String("run", run.ID))
	return nil
}

// loadExperiments reads a YAML list of experiments. An empty path means none.
func loadExperiments(path string) ([]types.Experiment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiments file: %w", err)
	}
	var experiments []types.Experiment
	if err := yaml.Unmarshal(data, &experiments); err != nil {
		return nil, fmt.Errorf("parsing experiments file %s: %w", path, err)
	}
	return experiments, nil
}

var renderers = map[string]func([]types.Result, io.Writer) error{
	"table": search.FormatTable,
	"json":  search.FormatJSON,
	"csl":   search.FormatCSL,
	"yaml":  formatYAML,
}

func render(format string, results []types.Result, w io.Writer) error {
	return renderers[format](results, w)
}

func formatYAML(results []types.Result, w io.Writer) error {
	if results == nil {
		results = []types.Result{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

func init() {
	searchCmd.Flags().String("description", "", "free-text research description")
	searchCmd.Flags().String("field", "", "research field, e.g. Biochemistry")
	searchCmd.Flags().String("experiments", "", "YAML file listing prior experiments and their parameters")
	searchCmd.Flags().Int("limit", 0, "number of results (0 = configured default)")
	searchCmd.Flags().String("format", "table", "output format: table, json, csl or yaml")
	searchCmd.Flags().String("project", "", "save results under this project name")
	searchCmd.Flags().String("output", "", "write the search and its results to a YAML query file")
	searchCmd.Flags().String("from", "", "render results from a saved query file instead of searching")

	rootCmd.AddCommand(searchCmd)
}
