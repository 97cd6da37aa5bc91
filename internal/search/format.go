// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/labscout/pkg/types"
)

const titleWidth = 72

// FormatTable writes results as one block per paper: rank, match and
// title, then authors, year, source and verification, then the link and
// the match reasons.
func FormatTable(results []types.Result, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if len(results) == 0 {
		fmt.Fprintln(bw, "No results found.")
		return bw.Flush()
	}

	for i, r := range results {
		fmt.Fprintf(bw, "#%-2d %5.1f%%  %s\n", i+1, r.MatchPercentage, truncate(r.Title, titleWidth))
		if meta := metaLine(r); meta != "" {
			fmt.Fprintf(bw, "           %s\n", meta)
		}
		if r.URL != "" {
			fmt.Fprintf(bw, "           %s\n", r.URL)
		}
		for _, reason := range r.MatchReasons {
			fmt.Fprintf(bw, "           - %s\n", reason)
		}
		fmt.Fprintln(bw)
	}

	noun := "results"
	if len(results) == 1 {
		noun = "result"
	}
	fmt.Fprintf(bw, "%d %s\n", len(results), noun)
	return bw.Flush()
}

func metaLine(r types.Result) string {
	parts := make([]string, 0, 4)
	if a := formatAuthors(r.Authors); a != "" {
		parts = append(parts, a)
	}
	if r.Date != "" {
		parts = append(parts, r.Date)
	}
	if src := strings.TrimSpace(r.SourceIcon + " " + r.Source); src != "" {
		parts = append(parts, src)
	}
	if r.Verified {
		parts = append(parts, "DOI verified")
	}
	return strings.Join(parts, " | ")
}

// FormatJSON writes results as indented JSON to w. No results encode as [].
func FormatJSON(results []types.Result, w io.Writer) error {
	if results == nil {
		results = []types.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return authors[0] + " et al."
	}
}

// truncate shortens s to n runes, the last three being "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
