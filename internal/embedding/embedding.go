// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding turns text into vectors for semantic scoring. Providers
// wrap a remote API; Cache memoizes them per process.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/labscout/pkg/types"
)

// ErrNotConfigured is returned when no embedding credentials are available.
var ErrNotConfigured = errors.New("embedding provider not configured")

// MaxInputChars is the longest text sent to a provider; longer input is cut.
const MaxInputChars = 8000

// Provider produces one embedding vector per text.
type Provider interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// New builds the provider selected by cfg.Provider, wrapped in a Cache.
// It returns ErrNotConfigured when the API key is empty.
func New(ctx context.Context, cfg types.EmbeddingConfig) (*Cache, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		p, err = NewOpenAIProvider(ctx, cfg)
	case "genai", "gemini":
		p, err = NewGenAIProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewCache(p), nil
}

// truncate cuts text to MaxInputChars runes.
func truncate(text string) string {
	r := []rune(text)
	if len(r) <= MaxInputChars {
		return text
	}
	return string(r[:MaxInputChars])
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// Mismatched lengths, empty vectors and zero norms yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, sim))
}
