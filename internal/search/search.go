// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search retrieves candidate papers from academic APIs. Each
// backend adapter maps its source-specific schema into types.Candidate;
// the Retriever fans a SearchSpec out to all of them concurrently and
// Deduplicate collapses repeats by normalized title.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/labscout/internal/httputil"
	"github.com/pdiddy/labscout/pkg/types"
)

// Backend searches a single academic API. A failing backend returns an
// error; the Retriever turns it into an empty result.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Candidate, error)
}

// Backend identifiers, as used in SearchConfig.FastBackends.
const (
	SemanticScholar = "semantic_scholar"
	Arxiv           = "arxiv"
	PubMed          = "pubmed"
	CrossRef        = "crossref"
	OpenAlex        = "openalex"
)

const (
	maxAuthors       = 5
	maxAbstractChars = 1000
)

// NewBackends returns the configured backends in fan-out order. All of
// them share client.
func NewBackends(cfg types.SearchConfig, client *http.Client) []Backend {
	ua := userAgent(cfg.UserAgent, cfg.Mailto)
	backends := []Backend{
		&SemanticScholarBackend{Client: client, UserAgent: ua, APIKey: cfg.SemanticScholarAPIKey},
		&ArxivBackend{Client: client, UserAgent: ua},
		&PubMedBackend{Client: client, UserAgent: ua, APIKey: cfg.NCBIAPIKey},
		&CrossRefBackend{Client: client, UserAgent: ua, Mailto: cfg.Mailto},
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &OpenAlexBackend{Client: client, UserAgent: ua, Email: cfg.Mailto})
	}
	return backends
}

// userAgent appends a mailto contact when one is configured, which CrossRef
// uses to route requests into its polite pool.
func userAgent(base, mailto string) string {
	if base == "" {
		base = types.DefaultUserAgent
	}
	if mailto == "" || strings.Contains(base, "mailto:") {
		return base
	}
	return base + " (mailto:" + mailto + ")"
}

// getJSON sends a GET for endpoint with params through the retrying client
// and decodes a 200 body into v. Extra header values are set on the request.
func getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, header http.Header, v any) error {
	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func capAuthors(authors []string) []string {
	if len(authors) > maxAuthors {
		return authors[:maxAuthors]
	}
	return authors
}

// collapseSpace joins runs of whitespace, including newlines, into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cutRunes truncates s to at most n runes.
func cutRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// leadingYear parses a year from the first four characters of a date
// string such as "2023 Jan 5" or "2023-01-05". It returns 0 on failure.
func leadingYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y <= 0 {
		return 0
	}
	return y
}
