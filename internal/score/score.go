// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes the five content scores of each candidate:
// semantic similarity, topic overlap, methodology match, citation impact
// and recency. Verification is scored separately by package verify.
package score

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/labscout/internal/embedding"
	"github.com/pdiddy/labscout/internal/logging"
	"github.com/pdiddy/labscout/pkg/types"
)

// defaultConcurrency bounds parallel embedding calls.
const defaultConcurrency = 8

// Scorer fills the content score fields of candidates. Embedder may be
// nil, in which case semantic scores stay 0. Wrap the provider in an
// embedding.Cache so repeated texts are embedded once.
type Scorer struct {
	Embedder    embedding.Provider
	Concurrency int
	Logger      *zap.Logger
}

// Score mutates every candidate in place. It is deterministic for a
// deterministic embedder and never fails: an embedding error leaves that
// candidate's semantic score at 0.
func (s *Scorer) Score(ctx context.Context, candidates []types.Candidate, spec types.SearchSpec) {
	s.semantic(ctx, candidates, spec.QueryEmbedding)

	terms := newTerms(spec)
	for i := range candidates {
		c := &candidates[i]
		c.TopicScore = terms.topic(c.Title, c.Abstract)
		c.MethodologyScore = terms.methodology(c.Title, c.Abstract)
		c.CitationScore = Citation(c.CitationCount())
		c.RecencyScore = Recency(c.Year, spec.YearPreference)
	}
}

func (s *Scorer) semantic(ctx context.Context, candidates []types.Candidate, query []float64) {
	log := logging.OrNop(s.Logger)
	if len(query) == 0 {
		log.Info("no query embedding, semantic scores stay at zero")
		return
	}
	if s.Embedder == nil {
		return
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range candidates {
		c := &candidates[i]
		g.Go(func() error {
			vec, err := s.Embedder.Embed(ctx, c.Title+" "+c.Abstract)
			if err != nil {
				log.Debug("candidate embedding failed", zap.String("title", c.Title), zap.Error(err))
				return nil
			}
			c.SemanticScore = embedding.Cosine(query, vec)
			return nil
		})
	}
	_ = g.Wait()
}

// terms holds the lowercased match terms of a SearchSpec.
type terms struct {
	keywords, concepts, methods []string
}

func newTerms(spec types.SearchSpec) terms {
	return terms{
		keywords: lower(spec.Keywords),
		concepts: lower(spec.Concepts),
		methods:  lower(spec.MethodologyTerms),
	}
}

func (t terms) topic(title, abstract string) float64 {
	return Topic(title, abstract, t.keywords, t.concepts)
}

func (t terms) methodology(title, abstract string) float64 {
	return Methodology(title, abstract, t.methods)
}

// Topic scores keyword and concept hits on a 0-100 scale. A keyword in the
// title counts 2, in the abstract only 1; a concept anywhere counts 1.5.
// The sum is divided by the number of terms. Matching is case-insensitive
// substring containment.
func Topic(title, abstract string, keywords, concepts []string) float64 {
	total := len(keywords) + len(concepts)
	if total == 0 {
		return 0
	}
	title = strings.ToLower(title)
	abstract = strings.ToLower(abstract)
	combined := title + " " + abstract

	var matches float64
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		switch {
		case strings.Contains(title, kw):
			matches += 2
		case strings.Contains(abstract, kw):
			matches++
		}
	}
	for _, c := range concepts {
		if strings.Contains(combined, strings.ToLower(c)) {
			matches += 1.5
		}
	}
	return math.Min(100, matches/float64(total)*100)
}

// Methodology returns the percentage of methods found in title or abstract.
func Methodology(title, abstract string, methods []string) float64 {
	if len(methods) == 0 {
		return 0
	}
	combined := strings.ToLower(title + " " + abstract)
	found := 0
	for _, m := range methods {
		if strings.Contains(combined, strings.ToLower(m)) {
			found++
		}
	}
	return math.Min(100, float64(found)/float64(len(methods))*100)
}

// Citation maps a citation count onto 0-100 logarithmically:
// min(100, log10(n+1)*33). Non-positive counts score 0.
func Citation(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(100, math.Log10(float64(n)+1)*33)
}

// Recency scores a publication year against the preferred range. Inside
// the range the score is 100 minus 10 per year before the max; after the
// max it is 90; before the min it is 70 minus 10 per year short, floored
// at 0. Year 0 means unknown and scores 0.
func Recency(year int, pref types.YearRange) float64 {
	if year == 0 {
		return 0
	}
	var s float64
	switch {
	case pref.Contains(year):
		s = 100 - float64(pref.Max-year)*10
	case year > pref.Max:
		s = 90
	default:
		s = math.Max(0, 70-float64(pref.Min-year)*10)
	}
	return math.Max(0, math.Min(100, s))
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
