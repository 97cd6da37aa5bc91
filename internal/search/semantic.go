// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/labscout/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph paper search endpoint;
// tests point it at an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields     = "title,abstract,year,authors,url,citationCount,externalIds"
	maxSemanticPerPage = 100
)

// SemanticScholarBackend searches the Semantic Scholar Graph API. An API
// key is optional and only raises the rate limit.
type SemanticScholarBackend struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return SemanticScholar }

// Search runs a relevance search for query.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if limit <= 0 {
		limit = types.DefaultPerSourceLimit
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(min(limit, maxSemanticPerPage))},
		"fields": {semanticFields},
	}
	header := http.Header{"User-Agent": {b.UserAgent}}
	if b.APIKey != "" {
		header.Set("x-api-key", b.APIKey)
	}

	var page struct {
		Data []semanticPaper `json:"data"`
	}
	if err := getJSON(ctx, b.Client, semanticAPIBase, params, header, &page); err != nil {
		return nil, fmt.Errorf("Semantic Scholar search: %w", err)
	}

	out := make([]types.Candidate, 0, len(page.Data))
	for i := range page.Data {
		out = append(out, page.Data[i].candidate())
	}
	return out, nil
}

type semanticPaper struct {
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	Year          *int   `json:"year"`
	URL           string `json:"url"`
	CitationCount *int   `json:"citationCount"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
}

func (p *semanticPaper) candidate() types.Candidate {
	c := types.Candidate{
		Title:      p.Title,
		Abstract:   cutRunes(p.Abstract, maxAbstractChars),
		URL:        p.URL,
		DOI:        p.ExternalIDs.DOI,
		Citations:  p.CitationCount,
		Source:     "Semantic Scholar",
		SourceIcon: "🔬",
	}
	if p.Year != nil {
		c.Year = *p.Year
	}
	if c.URL == "" && p.ExternalIDs.ArXiv != "" {
		c.URL = arxivAbsBase + p.ExternalIDs.ArXiv
	}
	for _, a := range p.Authors {
		if len(c.Authors) == maxAuthors {
			break
		}
		c.Authors = append(c.Authors, a.Name)
	}
	return c
}
