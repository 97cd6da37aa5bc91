// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/labscout/internal/store"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Inspect and export saved search results",
	Long: `Papers reads the results saved by "search --project". Each search is a
run; the newest run of a project is its current paper list.`,
}

// --- list subcommand ---

var papersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the latest saved results of a project",
	RunE:  runPapersList,
}

func runPapersList(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetString("project")
	if project == "" {
		return fmt.Errorf("--project is required")
	}
	format, _ := cmd.Flags().GetString("format")
	if _, ok := renderers[format]; !ok {
		return fmt.Errorf("unsupported format %q: use table, json, csl or yaml", format)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, results, err := st.LatestResults(context.Background(), project)
	if err != nil {
		return err
	}
	if format == "table" {
		fmt.Fprintf(os.Stdout, "Run %s (%s)\n\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04"))
	}
	return render(format, results, os.Stdout)
}

// --- runs subcommand ---

var papersRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved search runs, newest first",
	RunE:  runPapersRuns,
}

func runPapersRuns(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetString("project")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs(context.Background(), project)
	if err != nil {
		return err
	}
	return formatRuns(runs, os.Stdout)
}

func formatRuns(runs []store.Run, w io.Writer) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tPROJECT\tCREATED\tRESULTS\tDESCRIPTION")
	anyFallback := false
	for _, r := range runs {
		count := strconv.Itoa(r.ResultCount)
		if r.Fallback {
			count += "*"
			anyFallback = true
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, clip(r.Project, 16),
			r.CreatedAt.UTC().Format("2006-01-02 15:04"), count, clip(r.Description, 30))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if anyFallback {
		fmt.Fprintln(w, "\n* results are model recommendations")
	}
	return nil
}

// clip shortens s to n runes, ending in "..." when cut.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- export subcommand ---

var papersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved runs and results to YAML or JSON",
	RunE:  runPapersExport,
}

func runPapersExport(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetString("project")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var buf bytes.Buffer
	if err := st.Export(context.Background(), project, format, &buf); err != nil {
		return err
	}
	if output == "" {
		_, err = buf.WriteTo(os.Stdout)
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	logger.Info("export written", zap.String("path", output), zap.String("format", format))
	return nil
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	cfg, err := resolveConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Store)
}

func init() {
	papersCmd.PersistentFlags().String("project", "", "project name")

	papersListCmd.Flags().String("format", "table", "output format: table, json, csl or yaml")

	papersExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	papersExportCmd.Flags().String("output", "", "export file (default: stdout)")

	papersCmd.AddCommand(papersListCmd)
	papersCmd.AddCommand(papersRunsCmd)
	papersCmd.AddCommand(papersExportCmd)

	rootCmd.AddCommand(papersCmd)
}
