// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/labscout/pkg/types"
)

const defaultGenAIModel = "gemini-embedding-001"

// GenAIProvider embeds text with the Gemini embeddings API.
type GenAIProvider struct {
	client *genai.Client
	model  string
}

// NewGenAIProvider creates a Gemini API client for cfg.
func NewGenAIProvider(ctx context.Context, cfg types.EmbeddingConfig) (*GenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	name := cfg.Model
	if name == "" {
		name = defaultGenAIModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}
	return &GenAIProvider{client: client, model: name}, nil
}

// Name returns the provider and model identifier.
func (p *GenAIProvider) Name() string { return "genai:" + p.model }

// Embed returns the semantic-similarity embedding of text.
func (p *GenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding text is empty")
	}
	contents := []*genai.Content{
		genai.NewContentFromText(truncate(text), genai.RoleUser),
	}
	result, err := p.client.Models.EmbedContent(ctx, p.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return toFloat64(result.Embeddings[0].Values), nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
