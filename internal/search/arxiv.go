// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/labscout/internal/httputil"
	"github.com/pdiddy/labscout/pkg/types"
)

// arxivAPIBase is the arXiv Atom query endpoint; tests point it at an
// httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	arxivAbsBase = "https://arxiv.org/abs/"

	// maxArxivTerms bounds the AND-joined terms. arXiv returns little for
	// long conjunctions.
	maxArxivTerms = 6
)

// ArxivBackend searches arXiv preprints. arXiv reports no citation counts.
type ArxivBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return Arxiv }

// Search matches the first maxArxivTerms words of query against all fields.
func (b *ArxivBackend) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	sq := buildArxivQuery(query)
	if sq == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if limit <= 0 {
		limit = types.DefaultPerSourceLimit
	}

	// search_query is already escaped; url.Values would re-encode its '+'.
	rest := url.Values{
		"start":       {"0"},
		"max_results": {strconv.Itoa(limit)},
		"sortBy":      {"relevance"},
		"sortOrder":   {"descending"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		arxivAPIBase+"?search_query="+sq+"&"+rest.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", b.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv search: HTTP %d", resp.StatusCode)
	}

	var feed struct {
		Entries []arxivEntry `xml:"entry"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("arXiv search: parsing feed: %w", err)
	}

	out := make([]types.Candidate, 0, len(feed.Entries))
	for i := range feed.Entries {
		if c, ok := feed.Entries[i].candidate(); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// buildArxivQuery renders the search_query value, e.g.
// "all:graphene+AND+all:strain".
func buildArxivQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) > maxArxivTerms {
		terms = terms[:maxArxivTerms]
	}
	for i, t := range terms {
		terms[i] = "all:" + url.QueryEscape(t)
	}
	return strings.Join(terms, "+AND+")
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	DOI   string `xml:"http://arxiv.org/schemas/atom doi"`
	Links []struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
}

// candidate maps the entry; ok is false for entries without a title.
func (e *arxivEntry) candidate() (types.Candidate, bool) {
	title := collapseSpace(e.Title)
	if title == "" {
		return types.Candidate{}, false
	}
	c := types.Candidate{
		Title:      title,
		Abstract:   cutRunes(collapseSpace(e.Summary), maxAbstractChars),
		Year:       leadingYear(e.Published),
		URL:        strings.TrimSpace(e.ID),
		DOI:        e.doi(),
		Source:     "arXiv",
		SourceIcon: "📄",
	}
	for _, a := range e.Authors {
		if len(c.Authors) == maxAuthors {
			break
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			c.Authors = append(c.Authors, name)
		}
	}
	return c, true
}

// doi prefers <arxiv:doi> and falls back to a doi.org link.
func (e *arxivEntry) doi() string {
	if d := strings.TrimSpace(e.DOI); d != "" {
		return d
	}
	for _, l := range e.Links {
		if _, d, ok := strings.Cut(l.Href, "doi.org/"); ok && d != "" {
			return d
		}
	}
	return ""
}
