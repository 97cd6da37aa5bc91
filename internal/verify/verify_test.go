// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/labscout/pkg/types"
)

func crossrefTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	old := crossrefAPIBase
	crossrefAPIBase = ts.URL + "/works/"
	t.Cleanup(func() {
		crossrefAPIBase = old
		ts.Close()
	})
	return ts
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"10.1038/nature12373", "10.1038/nature12373", true},
		{"  https://doi.org/10.1038/nature12373 ", "10.1038/nature12373", true},
		{"http://dx.doi.org/10.1145/123.456", "10.1145/123.456", true},
		{"DOI:10.1000/xyz", "10.1000/xyz", true},
		{"10.12/short-registrant", "10.12/short-registrant", false},
		{"not-a-doi", "not-a-doi", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDOI(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCrossRefLookup(t *testing.T) {
	var gotPath, gotUA string
	crossrefTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"status":"ok","message":{"DOI":"10.1038/nature12373","is-referenced-by-count":512}}`)
	})

	l := &CrossRefLookup{UserAgent: "labscout/0.1"}
	rec, err := l.Lookup(context.Background(), "10.1038/nature12373")
	require.NoError(t, err)
	assert.Equal(t, "/works/10.1038/nature12373", gotPath)
	assert.Equal(t, "labscout/0.1", gotUA)
	assert.True(t, rec.Exists)
	require.NotNil(t, rec.Citations)
	assert.Equal(t, 512, *rec.Citations)
}

func TestCrossRefLookupStatusNotOK(t *testing.T) {
	crossrefTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"failed","message":{}}`)
	})
	rec, err := (&CrossRefLookup{}).Lookup(context.Background(), "10.1000/x")
	require.NoError(t, err)
	assert.False(t, rec.Exists)
}

func TestCrossRefLookupNotFound(t *testing.T) {
	crossrefTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Resource not found.", http.StatusNotFound)
	})
	_, err := (&CrossRefLookup{}).Lookup(context.Background(), "10.1000/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestCrossRefLookupMalformedBody(t *testing.T) {
	crossrefTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{not json`)
	})
	_, err := (&CrossRefLookup{}).Lookup(context.Background(), "10.1000/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing CrossRef response")
}

// fakeLookup answers from a table keyed by DOI.
type fakeLookup struct {
	mu      sync.Mutex
	records map[string]Record
	errs    map[string]error
	delay   time.Duration
	calls   []string
}

func (f *fakeLookup) Lookup(ctx context.Context, doi string) (Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, doi)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return Record{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if err := f.errs[doi]; err != nil {
		return Record{}, err
	}
	return f.records[doi], nil
}

func intPtr(n int) *int { return &n }

func TestVerifierScores(t *testing.T) {
	lookup := &fakeLookup{
		records: map[string]Record{
			"10.1000/real":    {Exists: true, Citations: intPtr(77)},
			"10.1000/nocount": {Exists: true},
			"10.1000/ghost":   {Exists: false},
		},
		errs: map[string]error{
			"10.1000/broken": errors.New("connection reset"),
		},
	}
	candidates := []types.Candidate{
		{Title: "Real", DOI: "https://doi.org/10.1000/real", Citations: intPtr(5), CitationScore: 25.7, Source: "Semantic Scholar"},
		{Title: "No count", DOI: "10.1000/nocount", Citations: intPtr(9), Source: "CrossRef"},
		{Title: "Ghost", DOI: "10.1000/ghost", Source: "CrossRef"},
		{Title: "Broken", DOI: "10.1000/broken", Source: "PubMed"},
		{Title: "Malformed", DOI: "garbage", Source: "arXiv"},
		{Title: "No DOI", Source: "arXiv"},
	}

	v := &Verifier{Lookup: lookup}
	v.Verify(context.Background(), candidates)

	found := candidates[0]
	assert.True(t, found.Verified)
	assert.Equal(t, ScoreVerified, found.VerificationScore)
	assert.Equal(t, SourceVerified, found.VerificationSource)
	require.NotNil(t, found.Citations)
	assert.Equal(t, 77, *found.Citations, "citation count refreshed")
	assert.Equal(t, 25.7, found.CitationScore, "citation score untouched")

	noCount := candidates[1]
	assert.True(t, noCount.Verified)
	assert.Equal(t, 9, *noCount.Citations)

	for _, c := range candidates[2:5] {
		assert.False(t, c.Verified, c.Title)
		assert.Equal(t, ScoreUnverified, c.VerificationScore, c.Title)
		assert.Equal(t, SourceFailed, c.VerificationSource, c.Title)
	}

	noDOI := candidates[5]
	assert.False(t, noDOI.Verified)
	assert.Equal(t, ScoreNoDOI, noDOI.VerificationScore)
	assert.Equal(t, "arXiv", noDOI.VerificationSource)

	assert.NotContains(t, lookup.calls, "garbage", "malformed DOIs are not looked up")
	assert.Len(t, lookup.calls, 4)
}

func TestVerifierPerLookupTimeout(t *testing.T) {
	lookup := &fakeLookup{
		records: map[string]Record{"10.1000/slow": {Exists: true}},
		delay:   time.Second,
	}
	candidates := []types.Candidate{{DOI: "10.1000/slow"}}

	v := &Verifier{Lookup: lookup, Timeout: 20 * time.Millisecond}
	start := time.Now()
	v.Verify(context.Background(), candidates)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, candidates[0].Verified)
	assert.Equal(t, ScoreUnverified, candidates[0].VerificationScore)
}

func TestVerifierWithoutLookup(t *testing.T) {
	candidates := []types.Candidate{{DOI: "10.1000/x", Source: "CrossRef"}}
	(&Verifier{}).Verify(context.Background(), candidates)
	assert.Equal(t, ScoreNoDOI, candidates[0].VerificationScore)
	assert.Equal(t, "CrossRef", candidates[0].VerificationSource)
}

func TestVerifierAgainstServer(t *testing.T) {
	crossrefTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"status":"ok","message":{"is-referenced-by-count":3}}`)
	})

	candidates := []types.Candidate{
		{DOI: "10.1000/found"},
		{DOI: "10.1000/missing"},
	}
	v := &Verifier{Lookup: &CrossRefLookup{}}
	v.Verify(context.Background(), candidates)

	assert.True(t, candidates[0].Verified)
	assert.Equal(t, 3, *candidates[0].Citations)
	assert.False(t, candidates[1].Verified)
	assert.Equal(t, SourceFailed, candidates[1].VerificationSource)
}
