// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fallback asks a generative model for paper recommendations when
// retrieval produced nothing. Every failure collapses to a single sentinel
// record telling the user to configure search credentials.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/labscout/internal/llm"
	"github.com/pdiddy/labscout/internal/logging"
	"github.com/pdiddy/labscout/pkg/types"
)

// MaxRecommendations is the number of papers requested and kept.
const MaxRecommendations = 3

const (
	temperature = 0.3
	maxTokens   = 1200
)

// Sentinel text.
const (
	SentinelTitle       = "Configure API keys for paper search"
	SentinelDescription = "Add OpenAI and/or Anthropic API keys to enable AI-powered paper search with match percentages."
)

// Sentinel returns the zero-confidence record reported when no
// recommendation could be produced.
func Sentinel() types.Result {
	return types.Result{
		Title:        SentinelTitle,
		Description:  SentinelDescription,
		Authors:      []string{},
		MatchReasons: []string{},
	}
}

// Provider produces fallback recommendations. LLM may be nil.
type Provider struct {
	LLM        llm.Provider
	MaxRetries int
	Logger     *zap.Logger
}

// recommendation is one element of the model's JSON array.
type recommendation struct {
	Title           string      `json:"title"`
	Date            flexString  `json:"date"`
	Authors         []string    `json:"authors"`
	URL             string      `json:"url"`
	DOI             string      `json:"doi"`
	Source          string      `json:"source"`
	Description     string      `json:"description"`
	MatchPercentage json.Number `json:"match_percentage"`
	MatchReasons    *[]string   `json:"match_reasons"`
}

// flexString accepts a JSON string or number; models write years both ways.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("date is neither string nor number: %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// Recommend returns at most MaxRecommendations results, or exactly one
// Sentinel when the model is missing, fails, or answers unusably.
func (p *Provider) Recommend(ctx context.Context, description, field string, experiments []types.Experiment) []types.Result {
	log := logging.OrNop(p.Logger)

	results, err := p.recommend(ctx, description, field, experiments)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			log.Info("no language model configured for fallback recommendations")
		} else {
			log.Warn("fallback recommendation failed", zap.Error(err))
		}
		return []types.Result{Sentinel()}
	}
	log.Info("fallback recommendations", zap.Int("count", len(results)))
	return results
}

func (p *Provider) recommend(ctx context.Context, description, field string, experiments []types.Experiment) ([]types.Result, error) {
	if p.LLM == nil {
		return nil, llm.ErrNotConfigured
	}
	prompt, err := BuildPrompt(description, field, experiments)
	if err != nil {
		return nil, err
	}
	text, err := llm.CompleteWithRetry(ctx, p.LLM, "", prompt, temperature, maxTokens, p.MaxRetries)
	if err != nil {
		return nil, err
	}
	return parseRecommendations(text)
}

// parseRecommendations decodes the model's array. A missing match_reasons
// becomes the description as the single reason.
func parseRecommendations(text string) ([]types.Result, error) {
	var recs []recommendation
	if err := llm.ExtractArray(text, &recs); err != nil {
		return nil, err
	}

	var out []types.Result
	for _, r := range recs {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		out = append(out, r.toResult())
		if len(out) == MaxRecommendations {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no usable recommendations")
	}
	return out, nil
}

func (r recommendation) toResult() types.Result {
	res := types.Result{
		Title:        strings.TrimSpace(r.Title),
		Description:  r.Description,
		Date:         string(r.Date),
		Authors:      r.Authors,
		URL:          r.URL,
		DOI:          r.DOI,
		Source:       r.Source,
		MatchReasons: []string{},
	}
	if res.Authors == nil {
		res.Authors = []string{}
	}
	if pct, err := strconv.ParseFloat(r.MatchPercentage.String(), 64); err == nil {
		res.MatchPercentage = math.Round(math.Max(0, math.Min(99, pct))*10) / 10
	}
	switch {
	case r.MatchReasons == nil:
		res.MatchReasons = []string{r.Description}
	case *r.MatchReasons != nil:
		res.MatchReasons = *r.MatchReasons
	}
	return res
}
