// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs an advanced literature search end to end:
// understanding, retrieval, deduplication, scoring, verification and
// ranking, with LLM recommendations when retrieval comes back empty.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/labscout/internal/logging"
	"github.com/pdiddy/labscout/internal/rank"
	"github.com/pdiddy/labscout/internal/search"
	"github.com/pdiddy/labscout/pkg/types"
)

// Understanding derives a SearchSpec from research context.
type Understanding interface {
	Understand(ctx context.Context, description, field string, experiments []types.Experiment) types.SearchSpec
}

// Retrieval gathers candidates for a SearchSpec.
type Retrieval interface {
	Retrieve(ctx context.Context, spec types.SearchSpec) []types.Candidate
}

// Scoring fills the content scores of candidates in place.
type Scoring interface {
	Score(ctx context.Context, candidates []types.Candidate, spec types.SearchSpec)
}

// Verification fills the verification fields of candidates in place.
type Verification interface {
	Verify(ctx context.Context, candidates []types.Candidate)
}

// Recommender supplies results when retrieval finds nothing.
type Recommender interface {
	Recommend(ctx context.Context, description, field string, experiments []types.Experiment) []types.Result
}

// Pipeline wires the stages. Every stage is required; New builds a
// Pipeline from configuration.
type Pipeline struct {
	Understander Understanding
	Retriever    Retrieval
	Scorer       Scoring
	Verifier     Verification
	Fallback     Recommender

	// Timeout bounds all stages before ranking. On expiry the pipeline
	// ranks what it has.
	Timeout time.Duration

	// FallbackTimeout bounds the Recommender, which runs on a fresh
	// deadline derived from the caller's context. Zero means Timeout.
	FallbackTimeout time.Duration

	// DefaultLimit applies when a caller asks for 0 results.
	DefaultLimit int
	Logger       *zap.Logger

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// Outcome is everything a search produced.
type Outcome struct {
	Spec    types.SearchSpec
	Results []types.Result

	// Candidates is the number of distinct candidates that were ranked.
	Candidates int

	// Fallback is set when Results came from the Recommender.
	Fallback bool
}

// AdvancedSearch returns at most limit results ordered by match
// percentage. It only fails when ctx is already done on entry.
func (p *Pipeline) AdvancedSearch(ctx context.Context, description, field string, experiments []types.Experiment, limit int) ([]types.Result, error) {
	out, err := p.Run(ctx, description, field, experiments, limit)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Run is AdvancedSearch, also reporting the SearchSpec it used.
func (p *Pipeline) Run(ctx context.Context, description, field string, experiments []types.Experiment, limit int) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	log := logging.OrNop(p.Logger)
	if limit <= 0 {
		limit = p.DefaultLimit
	}
	if limit <= 0 {
		limit = types.DefaultResultLimit
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = types.DefaultPipelineTimeout
	}

	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	spec := p.Understander.Understand(stageCtx, description, field, experiments)
	candidates := search.Deduplicate(p.Retriever.Retrieve(stageCtx, spec))
	log.Info("candidates after deduplication", zap.Int("count", len(candidates)))

	if len(candidates) == 0 {
		// The stage deadline may be spent; recommendations get their own.
		fbTimeout := p.FallbackTimeout
		if fbTimeout <= 0 {
			fbTimeout = timeout
		}
		fbCtx, cancelFallback := context.WithTimeout(ctx, fbTimeout)
		defer cancelFallback()
		results := p.Fallback.Recommend(fbCtx, description, field, experiments)
		if len(results) > limit {
			results = results[:limit]
		}
		return Outcome{Spec: spec, Results: results, Fallback: true}, nil
	}

	p.Scorer.Score(stageCtx, candidates, spec)
	p.Verifier.Verify(stageCtx, candidates)
	if stageCtx.Err() != nil {
		log.Warn("search deadline reached, ranking partial results", zap.Duration("timeout", timeout))
	}

	ranked := rank.Rank(candidates, limit, p.now())
	log.Info("search finished",
		zap.Int("results", len(ranked)),
		zap.Duration("elapsed", time.Since(start)))
	return Outcome{Spec: spec, Results: rank.Results(ranked), Candidates: len(candidates)}, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
