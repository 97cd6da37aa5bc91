// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/labscout/pkg/types"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func TestWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultWeights.Sum(), 1e-12)
}

func TestMatchPercentage(t *testing.T) {
	tests := []struct {
		name string
		c    types.Candidate
		want float64
	}{
		{
			name: "all perfect clamps to 99",
			c: types.Candidate{SemanticScore: 1, TopicScore: 100, MethodologyScore: 100,
				CitationScore: 100, RecencyScore: 100, VerificationScore: 100},
			want: 99,
		},
		{
			name: "no embedding, unverified, keyword hits",
			c:    types.Candidate{TopicScore: 100, CitationScore: 100, RecencyScore: 100, VerificationScore: 50},
			want: 47.5,
		},
		{
			name: "zero",
			want: 0,
		},
		{
			name: "rounded to one decimal",
			c:    types.Candidate{SemanticScore: 0.123, TopicScore: 33.33},
			want: 12.6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPercentage(tt.c))
		})
	}
}

func TestReasons(t *testing.T) {
	c := types.Candidate{
		SemanticScore:    0.8,
		TopicScore:       71,
		MethodologyScore: 61,
		Citations:        intPtr(51),
		Verified:         true,
		Year:             2024,
	}
	want := []string{
		"High semantic similarity to your research",
		"Strong keyword and topic alignment",
		"Similar research methodology",
		"Well-cited paper (51 citations)",
		"Source verified via DOI",
		"Recent publication",
	}
	if diff := cmp.Diff(want, Reasons(c, now)); diff != "" {
		t.Errorf("Reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestReasonsThresholds(t *testing.T) {
	moderate := Reasons(types.Candidate{SemanticScore: 0.6}, now)
	assert.Equal(t, []string{"Moderate semantic overlap with your work"}, moderate)

	atThreshold := types.Candidate{
		SemanticScore:    0.5,
		TopicScore:       70,
		MethodologyScore: 60,
		Citations:        intPtr(50),
		Year:             2023,
	}
	got := Reasons(atThreshold, now)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, Reasons(types.Candidate{}, now), "unknown year is never recent")
}

func TestRankOrdersAndTruncates(t *testing.T) {
	candidates := []types.Candidate{
		{Title: "low", TopicScore: 10},
		{Title: "high", TopicScore: 90},
		{Title: "tie-first", TopicScore: 50},
		{Title: "tie-second", TopicScore: 50},
		{Title: "mid", TopicScore: 70},
	}

	got := Rank(candidates, 4, now)
	require.Len(t, got, 4)
	var titles []string
	for _, c := range got {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"high", "mid", "tie-first", "tie-second"}, titles)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].MatchPercentage, got[i].MatchPercentage)
	}
	assert.Equal(t, 22.5, got[0].MatchPercentage)
	assert.Equal(t, []string{"Strong keyword and topic alignment"}, got[0].MatchReasons)
}

func TestRankDefaultLimit(t *testing.T) {
	candidates := make([]types.Candidate, 10)
	assert.Len(t, Rank(candidates, 0, now), types.DefaultResultLimit)
	assert.Len(t, Rank(candidates[:2], 5, now), 2)
	assert.Empty(t, Rank(nil, 3, now))
}

func TestRankBounds(t *testing.T) {
	var candidates []types.Candidate
	for i := 0; i <= 10; i++ {
		f := float64(i) * 15
		candidates = append(candidates, types.Candidate{
			SemanticScore: math.Min(1, f/100), TopicScore: f, MethodologyScore: f,
			CitationScore: f, RecencyScore: f, VerificationScore: f,
		})
	}
	for _, c := range Rank(candidates, len(candidates), now) {
		assert.GreaterOrEqual(t, c.MatchPercentage, 0.0)
		assert.LessOrEqual(t, c.MatchPercentage, MaxMatch)
	}
}

func TestProject(t *testing.T) {
	c := types.Candidate{
		Title:            "Thermal stability",
		Abstract:         strings.Repeat("a", 301),
		Authors:          []string{"Ada Lovelace"},
		Year:             2021,
		URL:              "https://example.org/p",
		DOI:              "10.1000/x",
		Citations:        intPtr(12),
		Source:           "CrossRef",
		SourceIcon:       "📚",
		SemanticScore:    0.45678,
		TopicScore:       66.666,
		MethodologyScore: 33.333,
		CitationScore:    35.6432,
		RecencyScore:     60,
		MatchPercentage:  41.2,
		MatchReasons:     []string{"Recent publication"},
		Verified:         true,
	}

	got := Project(c)
	want := types.Result{
		Title:           "Thermal stability",
		Abstract:        strings.Repeat("a", 300) + "...",
		Date:            "2021",
		Authors:         []string{"Ada Lovelace"},
		URL:             "https://example.org/p",
		DOI:             "10.1000/x",
		Citations:       intPtr(12),
		Source:          "CrossRef",
		SourceIcon:      "📚",
		MatchPercentage: 41.2,
		MatchReasons:    []string{"Recent publication"},
		Verified:        true,
		Scores: types.ScoreBreakdown{
			Semantic: 45.7, Topic: 66.7, Methodology: 33.3, Citations: 35.6, Recency: 60,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Project mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectUnknownFields(t *testing.T) {
	got := Project(types.Candidate{Title: "t", Abstract: "short"})
	assert.Equal(t, "", got.Date)
	assert.Equal(t, "short", got.Abstract)
	assert.Nil(t, got.Citations)
	assert.NotNil(t, got.Authors)
	assert.NotNil(t, got.MatchReasons)
}

func TestResults(t *testing.T) {
	got := Results([]types.Candidate{{Title: "a"}, {Title: "b"}})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Title)
	assert.NotNil(t, Results(nil))
}
