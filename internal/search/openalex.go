// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/labscout/pkg/types"
)

// openAlexSearchBase is the OpenAlex works endpoint; tests point it at an
// httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

const (
	maxOpenAlexPerPage = 200
	openAlexSelect     = "id,doi,title,publication_year,publication_date,cited_by_count,authorships,abstract_inverted_index"
)

// OpenAlexBackend searches the OpenAlex works index. It is only part of the
// fan-out when search.enable_openalex is set.
type OpenAlexBackend struct {
	Client    *http.Client
	UserAgent string

	// Email joins the OpenAlex polite pool when set.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return OpenAlex }

// Search returns up to limit works matching query, capped at one page.
func (b *OpenAlexBackend) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	if query == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	if limit <= 0 {
		limit = types.DefaultPerSourceLimit
	}
	limit = min(limit, maxOpenAlexPerPage)

	params := url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(limit)},
		"select":   {openAlexSelect},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	var page struct {
		Results []openAlexWork `json:"results"`
	}
	header := http.Header{"User-Agent": {b.UserAgent}}
	if err := getJSON(ctx, b.Client, openAlexSearchBase, params, header, &page); err != nil {
		return nil, fmt.Errorf("OpenAlex search: %w", err)
	}

	out := make([]types.Candidate, 0, len(page.Results))
	for i := range page.Results {
		out = append(out, page.Results[i].candidate())
	}
	return out, nil
}

type openAlexWork struct {
	ID              string `json:"id"`
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
	PublicationDate string `json:"publication_date"`
	CitedByCount    *int   `json:"cited_by_count"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	InvertedAbstract map[string][]int `json:"abstract_inverted_index"`
}

func (w *openAlexWork) candidate() types.Candidate {
	c := types.Candidate{
		Title:      w.Title,
		Abstract:   cutRunes(reconstructAbstract(w.InvertedAbstract), maxAbstractChars),
		Year:       w.PublicationYear,
		URL:        w.ID,
		Citations:  w.CitedByCount,
		Source:     "OpenAlex",
		SourceIcon: "🌐",
	}
	if c.Year == 0 {
		c.Year = leadingYear(w.PublicationDate)
	}
	// DOIs arrive as resolver URLs; the URL keeps that form.
	if w.DOI != "" {
		c.URL = w.DOI
		c.DOI = strings.TrimPrefix(w.DOI, "https://doi.org/")
	}
	for _, a := range w.Authorships {
		if len(c.Authors) == maxAuthors {
			break
		}
		if a.Author.DisplayName != "" {
			c.Authors = append(c.Authors, a.Author.DisplayName)
		}
	}
	return c
}

// reconstructAbstract rebuilds text from an inverted index of word to
// positions. Gaps are skipped, and positions past maxAbstractChars cannot
// survive truncation so they are ignored.
func reconstructAbstract(index map[string][]int) string {
	last := -1
	for _, positions := range index {
		for _, p := range positions {
			if p < maxAbstractChars {
				last = max(last, p)
			}
		}
	}
	if last < 0 {
		return ""
	}

	slots := make([]string, last+1)
	for word, positions := range index {
		for _, p := range positions {
			if p >= 0 && p <= last {
				slots[p] = word
			}
		}
	}
	words := slots[:0]
	for _, w := range slots {
		if w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}
