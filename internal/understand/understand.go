// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package understand turns free-text research context into a SearchSpec.
// A generative model does the extraction when one is configured; otherwise,
// or when its answer cannot be parsed, a deterministic heuristic takes over.
package understand

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/labscout/internal/embedding"
	"github.com/pdiddy/labscout/internal/llm"
	"github.com/pdiddy/labscout/internal/logging"
	"github.com/pdiddy/labscout/pkg/types"
)

const (
	temperature = 0.2
	maxTokens   = 800
)

// Understander produces SearchSpecs. LLM and Embedder may be nil.
type Understander struct {
	LLM        llm.Provider
	Embedder   embedding.Provider
	MaxRetries int
	Logger     *zap.Logger

	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// llmSpec mirrors the JSON object the model is asked to return.
type llmSpec struct {
	PrimaryQuery     string              `json:"primary_query"`
	SemanticQuery    string              `json:"semantic_query"`
	Keywords         []string            `json:"keywords"`
	Concepts         []string            `json:"concepts"`
	MethodologyTerms []string            `json:"methodology_terms"`
	Synonyms         map[string][]string `json:"synonyms"`
	PaperTypes       []string            `json:"paper_types"`
	YearPreference   *types.YearRange    `json:"year_preference"`
}

// Understand never fails: provider errors degrade to the heuristic and a
// failed embedding leaves QueryEmbedding nil.
func (u *Understander) Understand(ctx context.Context, description, field string, experiments []types.Experiment) types.SearchSpec {
	log := logging.OrNop(u.Logger)
	year := u.now().Year()

	spec, err := u.fromModel(ctx, description, field, experiments, year)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			log.Info("no language model configured, using heuristic query understanding")
		} else {
			log.Warn("query understanding failed, using heuristic", zap.Error(err))
		}
		spec = Heuristic(description, field, year)
	}

	embedText := spec.SemanticQuery
	if strings.TrimSpace(embedText) == "" {
		embedText = description
	}
	spec.QueryEmbedding = u.embed(ctx, embedText, log)

	log.Debug("search spec",
		zap.String("primary_query", spec.PrimaryQuery),
		zap.Strings("keywords", spec.Keywords),
		zap.Strings("concepts", spec.Concepts),
		zap.Bool("embedded", spec.QueryEmbedding != nil))
	return spec
}

func (u *Understander) fromModel(ctx context.Context, description, field string, experiments []types.Experiment, year int) (types.SearchSpec, error) {
	if u.LLM == nil {
		return types.SearchSpec{}, llm.ErrNotConfigured
	}
	prompt, err := BuildPrompt(description, field, experiments, year)
	if err != nil {
		return types.SearchSpec{}, fmt.Errorf("rendering prompt: %w", err)
	}
	text, err := llm.CompleteWithRetry(ctx, u.LLM, SystemPrompt, prompt, temperature, maxTokens, u.MaxRetries)
	if err != nil {
		return types.SearchSpec{}, err
	}
	return parseSpec(text, year)
}

// parseSpec decodes a model answer and normalises list lengths and defaults.
func parseSpec(text string, year int) (types.SearchSpec, error) {
	var raw llmSpec
	if err := llm.ExtractObject(text, &raw); err != nil {
		return types.SearchSpec{}, err
	}
	if strings.TrimSpace(raw.PrimaryQuery) == "" {
		return types.SearchSpec{}, fmt.Errorf("model answer has no primary_query")
	}

	spec := types.SearchSpec{
		PrimaryQuery:     strings.TrimSpace(raw.PrimaryQuery),
		SemanticQuery:    strings.TrimSpace(raw.SemanticQuery),
		Keywords:         limit(raw.Keywords, maxKeywords),
		Concepts:         limit(raw.Concepts, maxConcepts),
		MethodologyTerms: nonNil(raw.MethodologyTerms),
		Synonyms:         raw.Synonyms,
		PaperTypes:       nonNil(raw.PaperTypes),
		YearPreference:   defaultYears(year),
	}
	if spec.Synonyms == nil {
		spec.Synonyms = map[string][]string{}
	}
	if yp := raw.YearPreference; yp != nil && yp.Min > 0 && yp.Max >= yp.Min {
		spec.YearPreference = *yp
	}
	return spec, nil
}

func (u *Understander) embed(ctx context.Context, text string, log *zap.Logger) []float64 {
	if u.Embedder == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	vec, err := u.Embedder.Embed(ctx, text)
	if err != nil {
		log.Warn("query embedding failed", zap.Error(err))
		return nil
	}
	return vec
}

func (u *Understander) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func limit(in []string, n int) []string {
	in = nonNil(in)
	if len(in) > n {
		return in[:n]
	}
	return in
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
