// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the generative text providers used for query
// understanding and fallback recommendations. Providers return plain text;
// callers pull the embedded JSON out with ExtractObject or ExtractArray.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/labscout/pkg/types"
)

// ErrNotConfigured is returned when a provider has no credentials.
var ErrNotConfigured = errors.New("llm provider not configured")

// Provider completes a system/user prompt pair into text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error)
}

// APIError is a non-2xx response from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, body)
}

// Retryable reports whether the call may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// New builds the provider selected by cfg.Provider. It returns
// ErrNotConfigured when the API key is empty so callers can degrade. Every
// provider call is bounded by cfg.Timeout.
func New(cfg types.AIConfig) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = types.DefaultLLMTimeout
	}
	switch strings.ToLower(cfg.Provider) {
	case "anthropic", "claude":
		return &ClaudeProvider{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Client: &http.Client{Timeout: cfg.Timeout},
		}, nil
	case "openai", "":
		return NewOpenAIProvider(context.Background(), cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// BackoffBase controls the base duration for exponential backoff between
// attempts. Tests override this to avoid real sleeps.
var BackoffBase = time.Second

// CompleteWithRetry calls p.Complete up to maxRetries+1 times with
// exponential backoff. ErrNotConfigured and non-retryable API errors stop
// immediately.
func CompleteWithRetry(ctx context.Context, p Provider, systemPrompt, userPrompt string, temperature float32, maxTokens, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * BackoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := p.Complete(ctx, systemPrompt, userPrompt, temperature, maxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
			break
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			break
		}
	}
	return "", fmt.Errorf("%s completion: %w", p.Name(), lastErr)
}
