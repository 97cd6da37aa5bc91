// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	einoemb "github.com/cloudwego/eino/components/embedding"

	"github.com/pdiddy/labscout/pkg/types"
)

const defaultOpenAIModel = "text-embedding-3-small"

// OpenAIProvider embeds text through any OpenAI-compatible embeddings API.
type OpenAIProvider struct {
	model string
	inner einoemb.Embedder
}

// NewOpenAIProvider creates the eino embedder for cfg.
func NewOpenAIProvider(ctx context.Context, cfg types.EmbeddingConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	name := cfg.Model
	if name == "" {
		name = defaultOpenAIModel
	}
	inner, err := openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		Model:   name,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI embedder: %w", err)
	}
	return &OpenAIProvider{model: name, inner: inner}, nil
}

// Name returns the provider and model identifier.
func (p *OpenAIProvider) Name() string { return "openai:" + p.model }

// Embed returns the embedding of text, cut to MaxInputChars.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding text is empty")
	}
	vecs, err := p.inner.EmbedStrings(ctx, []string{truncate(text)})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vecs[0], nil
}
