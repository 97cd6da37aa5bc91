// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/labscout/internal/embedding"
	"github.com/pdiddy/labscout/internal/fallback"
	"github.com/pdiddy/labscout/internal/httputil"
	"github.com/pdiddy/labscout/internal/llm"
	"github.com/pdiddy/labscout/internal/logging"
	"github.com/pdiddy/labscout/internal/score"
	"github.com/pdiddy/labscout/internal/search"
	"github.com/pdiddy/labscout/internal/understand"
	"github.com/pdiddy/labscout/internal/verify"
	"github.com/pdiddy/labscout/pkg/types"
)

// New builds a Pipeline backed by the real providers and academic APIs.
// Missing credentials are not an error: the affected stage degrades.
func New(ctx context.Context, cfg types.PipelineConfig, logger *zap.Logger) (*Pipeline, error) {
	cfg = cfg.WithDefaults()
	log := logging.OrNop(logger)

	understandLLM, err := optionalLLM(cfg.Understanding, "understanding", log)
	if err != nil {
		return nil, err
	}
	fallbackLLM, err := optionalLLM(cfg.Fallback, "fallback", log)
	if err != nil {
		return nil, err
	}

	var (
		queryEmbedder     embedding.Provider
		candidateEmbedder embedding.Provider
	)
	cache, err := embedding.New(ctx, cfg.Embedding)
	switch {
	case errors.Is(err, embedding.ErrNotConfigured):
		log.Info("no embedding provider configured, semantic scores disabled")
	case err != nil:
		return nil, fmt.Errorf("embedding provider: %w", err)
	default:
		queryEmbedder = cache.Provider()
		candidateEmbedder = cache
	}

	backends := search.NewBackends(cfg.Search, httputil.NewClient(cfg.Search.HTTPConfig))
	verifyClient := httputil.NewClient(cfg.Verify)

	return &Pipeline{
		Understander: &understand.Understander{
			LLM:        understandLLM,
			Embedder:   queryEmbedder,
			MaxRetries: cfg.Understanding.MaxRetries,
			Logger:     log.Named("understand"),
		},
		Retriever: search.NewRetriever(backends, cfg.Search, log.Named("search")),
		Scorer: &score.Scorer{
			Embedder: candidateEmbedder,
			Logger:   log.Named("score"),
		},
		Verifier: &verify.Verifier{
			Lookup:  &verify.CrossRefLookup{Client: verifyClient, UserAgent: cfg.Verify.UserAgent},
			Timeout: cfg.Verify.Timeout,
			Logger:  log.Named("verify"),
		},
		Fallback: &fallback.Provider{
			LLM:        fallbackLLM,
			MaxRetries: cfg.Fallback.MaxRetries,
			Logger:     log.Named("fallback"),
		},
		Timeout:         cfg.Timeout,
		FallbackTimeout: cfg.FallbackTimeout,
		DefaultLimit:    cfg.DefaultLimit,
		Logger:          log,
	}, nil
}

// optionalLLM returns nil, not an error, when cfg has no credentials.
func optionalLLM(cfg types.AIConfig, stage string, log *zap.Logger) (llm.Provider, error) {
	p, err := llm.New(cfg)
	if errors.Is(err, llm.ErrNotConfigured) {
		log.Info("no language model configured", zap.String("stage", stage))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", stage, err)
	}
	return p, nil
}
