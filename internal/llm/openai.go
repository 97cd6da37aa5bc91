// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/pdiddy/labscout/pkg/types"
)

const defaultOpenAIModel = "gpt-4o"

// chatGenerator is the slice of an eino chat model the provider uses.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OpenAIProvider calls any OpenAI-compatible chat completion API through
// the eino chat model.
type OpenAIProvider struct {
	model chatGenerator
}

// NewOpenAIProvider creates the eino chat model for cfg.
func NewOpenAIProvider(ctx context.Context, cfg types.AIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	name := cfg.Model
	if name == "" {
		name = defaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultLLMTimeout
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   name,
		BaseURL: cfg.BaseURL,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI chat model: %w", err)
	}
	return &OpenAIProvider{model: cm}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete sends the system and user prompts and returns the reply content.
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	var messages []*schema.Message
	if systemPrompt != "" {
		messages = append(messages, schema.SystemMessage(systemPrompt))
	}
	messages = append(messages, schema.UserMessage(userPrompt))

	opts := []model.Option{model.WithTemperature(temperature)}
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}

	resp, err := p.model.Generate(ctx, messages, opts...)
	if err != nil {
		return "", openAIError(p.Name(), err)
	}
	if resp == nil || resp.Content == "" {
		return "", fmt.Errorf("OpenAI returned empty content")
	}
	return resp.Content, nil
}

// openAIError turns a status-coded client error into *APIError so that
// CompleteWithRetry stops on permanent failures such as 400 or 401.
func openAIError(provider string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &APIError{Provider: provider, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &APIError{Provider: provider, StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body)}
	}
	return fmt.Errorf("OpenAI generate: %w", err)
}
