// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/labscout/pkg/types"
)

func TestCitationFor(t *testing.T) {
	ref := citationFor(types.Result{
		Title:           "Thermal Stability of Enzymes",
		Abstract:        "Enzymes and heat.",
		Date:            "2019",
		Authors:         []string{"Ada Lovelace", "Curie", "  "},
		URL:             "https://doi.org/10.1/enz",
		DOI:             "10.1/enz",
		Source:          "CrossRef",
		MatchPercentage: 72.5,
	}, 1)

	assert.Equal(t, "10.1/enz", ref.ID)
	assert.Equal(t, "article-journal", ref.Type)
	assert.Equal(t, "CrossRef", ref.Publisher)
	assert.Equal(t, []PersonName{{Given: "Ada", Family: "Lovelace"}, {Literal: "Curie"}}, ref.Author)
	require.NotNil(t, ref.Issued)
	assert.Equal(t, [][]int{{2019}}, ref.Issued.Parts)
	assert.Equal(t, "labscout match 72.5%", ref.Note)
}

func TestCitationForPreprintWithoutDOI(t *testing.T) {
	ref := citationFor(types.Result{Title: "Preprint", Source: "arXiv", Date: "n.d."}, 3)
	assert.Equal(t, "labscout-3", ref.ID)
	assert.Equal(t, "article", ref.Type)
	assert.Nil(t, ref.Issued)
}

func TestFormatCSLKeysByDOIThenRank(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSL([]types.Result{
		{Title: "One", DOI: "10.1/one", Date: "2020"},
		{Title: "Two"},
	}, &buf))

	var refs []Citation
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &refs))
	require.Len(t, refs, 2)
	assert.Equal(t, "10.1/one", refs[0].ID)
	assert.Equal(t, "labscout-2", refs[1].ID)
	assert.Contains(t, buf.String(), "date-parts")
}

func TestSplitName(t *testing.T) {
	cases := map[string]PersonName{
		"Ada Lovelace":       {Given: "Ada", Family: "Lovelace"},
		"Jean  Paul Sartre":  {Given: "Jean Paul", Family: "Sartre"},
		"Franklin, Rosalind": {Family: "Franklin", Given: "Rosalind"},
		"Plato":              {Literal: "Plato"},
		"   ":                {},
	}
	for in, want := range cases {
		assert.Equal(t, want, splitName(in), in)
	}
}
