// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/labscout/pkg/types"
)

// Citation is one ranked result rendered as a CSL-YAML reference, readable by
// Pandoc and most reference managers.
type Citation struct {
	ID        string       `yaml:"id"`
	Type      string       `yaml:"type"`
	Title     string       `yaml:"title"`
	Author    []PersonName `yaml:"author,omitempty"`
	Issued    *IssuedDate  `yaml:"issued,omitempty"`
	Abstract  string       `yaml:"abstract,omitempty"`
	DOI       string       `yaml:"DOI,omitempty"`
	URL       string       `yaml:"URL,omitempty"`
	Publisher string       `yaml:"publisher,omitempty"`
	Note      string       `yaml:"note,omitempty"`
}

// PersonName is a CSL name. Literal is used when the name cannot be split.
type PersonName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// IssuedDate carries the publication year as CSL date-parts.
type IssuedDate struct {
	Parts [][]int `yaml:"date-parts"`
}

// FormatCSL writes results as a CSL-YAML list to w.
func FormatCSL(results []types.Result, w io.Writer) error {
	refs := make([]Citation, 0, len(results))
	for i := range results {
		refs = append(refs, citationFor(results[i], i+1))
	}
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(refs); err != nil {
		return err
	}
	return enc.Close()
}

// citationFor builds the reference for the result at 1-based rank. Results
// without a DOI are keyed by rank.
func citationFor(r types.Result, rank int) Citation {
	ref := Citation{
		ID:        r.DOI,
		Type:      "article-journal",
		Title:     r.Title,
		Abstract:  r.Abstract,
		DOI:       r.DOI,
		URL:       r.URL,
		Publisher: r.Source,
		Note:      fmt.Sprintf("labscout match %.1f%%", r.MatchPercentage),
	}
	if ref.ID == "" {
		ref.ID = fmt.Sprintf("labscout-%d", rank)
	}
	if r.Source == "arXiv" {
		ref.Type = "article"
	}
	for _, a := range r.Authors {
		if n := splitName(a); n != (PersonName{}) {
			ref.Author = append(ref.Author, n)
		}
	}
	if y, err := strconv.Atoi(strings.TrimSpace(r.Date)); err == nil && y > 0 {
		ref.Issued = &IssuedDate{Parts: [][]int{{y}}}
	}
	return ref
}

// splitName turns an author string into CSL parts. "Family, Given" is
// honoured as written; otherwise the final token is the family name.
func splitName(s string) PersonName {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return PersonName{}
	}
	if family, given, ok := strings.Cut(s, ","); ok {
		family, given = strings.TrimSpace(family), strings.TrimSpace(given)
		if family != "" && given != "" {
			return PersonName{Family: family, Given: given}
		}
	}
	cut := strings.LastIndexByte(s, ' ')
	if cut < 0 {
		return PersonName{Literal: s}
	}
	return PersonName{Given: s[:cut], Family: s[cut+1:]}
}
