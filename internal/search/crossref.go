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

// crossrefWorksBase is the CrossRef works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var crossrefWorksBase = "https://api.crossref.org/works"

const crossrefSelect = "title,abstract,author,published-print,published-online,URL,is-referenced-by-count,DOI,type"

// CrossRefBackend queries the CrossRef works API.
type CrossRefBackend struct {
	Client    *http.Client
	UserAgent string
	Mailto    string
}

// Name returns the backend identifier.
func (b *CrossRefBackend) Name() string { return CrossRef }

// Search runs a bibliographic query and maps each work to a Candidate.
func (b *CrossRefBackend) Search(ctx context.Context, query string, limit int) ([]types.Candidate, error) {
	if query == "" {
		return nil, fmt.Errorf("empty CrossRef query")
	}
	if limit <= 0 {
		limit = types.DefaultPerSourceLimit
	}

	params := url.Values{
		"query":  {query},
		"rows":   {strconv.Itoa(limit)},
		"select": {crossrefSelect},
	}
	if b.Mailto != "" {
		params.Set("mailto", b.Mailto)
	}

	var cr crossrefResponse
	header := http.Header{"User-Agent": {b.UserAgent}}
	if err := getJSON(ctx, b.Client, crossrefWorksBase, params, header, &cr); err != nil {
		return nil, fmt.Errorf("CrossRef search: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(cr.Message.Items))
	for _, item := range cr.Message.Items {
		c := types.Candidate{
			URL:        item.URL,
			DOI:        item.DOI,
			Year:       item.year(),
			Citations:  item.ReferencedBy,
			Source:     "CrossRef",
			SourceIcon: "📚",
		}
		if len(item.Title) > 0 {
			c.Title = StripMarkup(item.Title[0])
		}
		if item.Abstract != "" {
			c.Abstract = cutRunes(StripMarkup(item.Abstract), maxAbstractChars)
		}
		var authors []string
		for _, a := range item.Author {
			if len(authors) == maxAuthors {
				break
			}
			if name := strings.TrimSpace(a.Given + " " + a.Family); name != "" {
				authors = append(authors, name)
			}
		}
		c.Authors = authors
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Status  string `json:"status"`
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

// crossrefWork is one work record as returned by the works API.
type crossrefWork struct {
	Title           []string         `json:"title"`
	Abstract        string           `json:"abstract"`
	Author          []crossrefAuthor `json:"author"`
	PublishedPrint  crossrefDate     `json:"published-print"`
	PublishedOnline crossrefDate     `json:"published-online"`
	URL             string           `json:"URL"`
	DOI             string           `json:"DOI"`
	Type            string           `json:"type"`
	ReferencedBy    *int             `json:"is-referenced-by-count"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// year prefers the print date over the online date.
func (w crossrefWork) year() int {
	for _, d := range []crossrefDate{w.PublishedPrint, w.PublishedOnline} {
		if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 && d.DateParts[0][0] > 0 {
			return d.DateParts[0][0]
		}
	}
	return 0
}
