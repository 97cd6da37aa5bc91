// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank combines candidate scores into a match percentage, explains
// it with match reasons, and orders the final short list.
package rank

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/pdiddy/labscout/pkg/types"
)

// Weights are the contributions of each score to the match percentage.
type Weights struct {
	Semantic     float64
	Topic        float64
	Methodology  float64
	Citation     float64
	Recency      float64
	Verification float64
}

// DefaultWeights sum to 1.
var DefaultWeights = Weights{
	Semantic:     0.35,
	Topic:        0.25,
	Methodology:  0.15,
	Citation:     0.10,
	Recency:      0.10,
	Verification: 0.05,
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Semantic + w.Topic + w.Methodology + w.Citation + w.Recency + w.Verification
}

// MaxMatch is the highest match percentage ever reported.
const MaxMatch = 99.0

const maxAbstractChars = 300

// MatchPercentage weighs the six scores of c. The semantic score is a
// fraction and is scaled to a percentage first. The result is rounded to
// one decimal and clamped to [0, MaxMatch].
func MatchPercentage(c types.Candidate) float64 {
	w := DefaultWeights
	total := c.SemanticScore*100*w.Semantic +
		c.TopicScore*w.Topic +
		c.MethodologyScore*w.Methodology +
		c.CitationScore*w.Citation +
		c.RecencyScore*w.Recency +
		c.VerificationScore*w.Verification
	return round1(math.Max(0, math.Min(MaxMatch, total)))
}

// Reasons lists the human-readable reasons c matched, in fixed priority
// order. Only reasons whose threshold is met are included.
func Reasons(c types.Candidate, now time.Time) []string {
	reasons := []string{}
	switch {
	case c.SemanticScore > 0.7:
		reasons = append(reasons, "High semantic similarity to your research")
	case c.SemanticScore > 0.5:
		reasons = append(reasons, "Moderate semantic overlap with your work")
	}
	if c.TopicScore > 70 {
		reasons = append(reasons, "Strong keyword and topic alignment")
	}
	if c.MethodologyScore > 60 {
		reasons = append(reasons, "Similar research methodology")
	}
	if n := c.CitationCount(); n > 50 {
		reasons = append(reasons, fmt.Sprintf("Well-cited paper (%d citations)", n))
	}
	if c.Verified {
		reasons = append(reasons, "Source verified via DOI")
	}
	if c.Year != 0 && c.Year >= now.Year()-2 {
		reasons = append(reasons, "Recent publication")
	}
	return reasons
}

// Rank sets MatchPercentage and MatchReasons on every candidate, sorts them
// by match percentage descending and returns at most limit of them. Ties
// keep retrieval order. A limit of 0 or less means types.DefaultResultLimit.
func Rank(candidates []types.Candidate, limit int, now time.Time) []types.Candidate {
	if limit <= 0 {
		limit = types.DefaultResultLimit
	}
	for i := range candidates {
		c := &candidates[i]
		c.MatchPercentage = MatchPercentage(*c)
		c.MatchReasons = Reasons(*c, now)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchPercentage > candidates[j].MatchPercentage
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Project converts a ranked candidate into the record returned to callers.
func Project(c types.Candidate) types.Result {
	r := types.Result{
		Title:           c.Title,
		Abstract:        truncateAbstract(c.Abstract),
		Authors:         c.Authors,
		URL:             c.URL,
		DOI:             c.DOI,
		Citations:       c.Citations,
		Source:          c.Source,
		SourceIcon:      c.SourceIcon,
		MatchPercentage: c.MatchPercentage,
		MatchReasons:    c.MatchReasons,
		Verified:        c.Verified,
		Scores: types.ScoreBreakdown{
			Semantic:    round1(c.SemanticScore * 100),
			Topic:       round1(c.TopicScore),
			Methodology: round1(c.MethodologyScore),
			Citations:   round1(c.CitationScore),
			Recency:     round1(c.RecencyScore),
		},
	}
	if c.Year != 0 {
		r.Date = strconv.Itoa(c.Year)
	}
	if r.Authors == nil {
		r.Authors = []string{}
	}
	if r.MatchReasons == nil {
		r.MatchReasons = []string{}
	}
	return r
}

// Results projects every candidate.
func Results(candidates []types.Candidate) []types.Result {
	out := make([]types.Result, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Project(c))
	}
	return out
}

func truncateAbstract(s string) string {
	r := []rune(s)
	if len(r) <= maxAbstractChars {
		return s
	}
	return string(r[:maxAbstractChars]) + "..."
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
