// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/labscout/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities root. Declared as a var so tests
// can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"

// PubMedBackend queries PubMed through esearch and esummary. Summaries do
// not carry abstracts, so PubMed candidates have an empty abstract.
type PubMedBackend struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return PubMed }

// Search resolves query to PubMed IDs, then fetches their summaries.
func (b *PubMedBackend) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	if query == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}
	if limit <= 0 {
		limit = types.DefaultPerSourceLimit
	}

	var sr pubmedSearchResponse
	err := b.get(ctx, "esearch.fcgi", url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {strconv.Itoa(limit)},
		"retmode": {"json"},
	}, &sr)
	if err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}
	ids := sr.Result.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	var summary pubmedSummaryResponse
	err = b.get(ctx, "esummary.fcgi", url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}, &summary)
	if err != nil {
		return nil, fmt.Errorf("PubMed esummary: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(ids))
	for _, id := range ids {
		raw, ok := summary.Result[id]
		if !ok {
			continue
		}
		var doc pubmedDocSum
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		c := types.Candidate{
			Title:      StripMarkup(doc.Title),
			Year:       leadingYear(doc.PubDate),
			URL:        pubmedArticleBase + id + "/",
			DOI:        doc.doi(),
			Source:     "PubMed",
			SourceIcon: "🧬",
		}
		var authors []string
		for _, a := range doc.Authors {
			authors = append(authors, a.Name)
		}
		c.Authors = capAuthors(authors)
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func (b *PubMedBackend) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}
	return getJSON(ctx, b.Client, pubmedAPIBase+"/"+endpoint, params, http.Header{"User-Agent": {b.UserAgent}}, v)
}

// E-utilities JSON structures.
type pubmedSearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// pubmedSummaryResponse keeps result entries raw: besides one object per
// ID it holds a "uids" array.
type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDocSum struct {
	Title      string            `json:"title"`
	PubDate    string            `json:"pubdate"`
	Authors    []pubmedAuthor    `json:"authors"`
	ArticleIDs []pubmedArticleID `json:"articleids"`
}

type pubmedAuthor struct {
	Name string `json:"name"`
}

type pubmedArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

func (d pubmedDocSum) doi() string {
	for _, a := range d.ArticleIDs {
		if a.IDType == "doi" {
			return a.Value
		}
	}
	return ""
}
