// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/labscout/internal/httputil"
)

// crossrefAPIBase is the CrossRef single-work endpoint. Declared as a var
// so tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// Record is the outcome of an identifier lookup.
type Record struct {
	Exists bool

	// Citations is the authoritative citation count, nil when unreported.
	Citations *int
}

// Lookuper confirms that a DOI identifies a real work.
type Lookuper interface {
	Lookup(ctx context.Context, doi string) (Record, error)
}

// CrossRefLookup resolves DOIs against the CrossRef works API.
type CrossRefLookup struct {
	Client    *http.Client
	UserAgent string
}

// CrossRef single-work response.
type crossrefResponse struct {
	Status  string `json:"status"`
	Message struct {
		DOI          string `json:"DOI"`
		ReferencedBy *int   `json:"is-referenced-by-count"`
	} `json:"message"`
}

// Lookup fetches the work for doi. A non-200 answer is an error; a 200
// whose status is not "ok" is a record that does not exist.
func (l *CrossRefLookup) Lookup(ctx context.Context, doi string) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+url.PathEscape(doi), nil)
	if err != nil {
		return Record{}, fmt.Errorf("creating request: %w", err)
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return Record{}, fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Record{}, fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Record{}, fmt.Errorf("parsing CrossRef response: %w", err)
	}
	if cr.Status != "ok" {
		return Record{}, nil
	}
	return Record{Exists: true, Citations: cr.Message.ReferencedBy}, nil
}
