// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/labscout/internal/secrets"
	"github.com/pdiddy/labscout/pkg/types"
)

// setDefaults registers every config key so environment variables such as
// LABSCOUT_SEARCH_MAILTO reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", types.DefaultPipelineTimeout)
	v.SetDefault("fallback_timeout", types.DefaultPipelineTimeout)
	v.SetDefault("default_limit", types.DefaultResultLimit)

	v.SetDefault("search.timeout", types.DefaultSourceTimeout)
	v.SetDefault("search.user_agent", types.DefaultUserAgent)
	v.SetDefault("search.per_source_limit", types.DefaultPerSourceLimit)
	v.SetDefault("search.synonym_limit", types.DefaultVariantLimit)
	v.SetDefault("search.keyword_limit", types.DefaultVariantLimit)
	v.SetDefault("search.max_synonyms_per_term", types.DefaultMaxSynonymsPerTerm)
	v.SetDefault("search.fast_backends", types.DefaultFastBackends)
	v.SetDefault("search.enable_openalex", false)
	v.SetDefault("search.semantic_scholar_api_key", "")
	v.SetDefault("search.ncbi_api_key", "")
	v.SetDefault("search.mailto", "")
	v.SetDefault("search.requests_per_second", 0)

	for _, stage := range []string{"understanding", "fallback"} {
		v.SetDefault(stage+".provider", "")
		v.SetDefault(stage+".model", "")
		v.SetDefault(stage+".api_key", "")
		v.SetDefault(stage+".base_url", "")
		v.SetDefault(stage+".max_retries", 2)
		v.SetDefault(stage+".timeout", types.DefaultLLMTimeout)
	}

	v.SetDefault("embedding.provider", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")

	v.SetDefault("verify.timeout", types.DefaultVerifyTimeout)
	v.SetDefault("verify.user_agent", "")
	v.SetDefault("store.path", "labscout.db")
}

// resolveConfig reads the pipeline configuration from v and fills missing
// credentials from the secrets directory. Explicit settings win.
func resolveConfig(v *viper.Viper, loaded secrets.Set) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	s := &cfg.Search
	s.SemanticScholarAPIKey = loaded.Get(secrets.SemanticScholarAPIKey, s.SemanticScholarAPIKey)
	s.NCBIAPIKey = loaded.Get(secrets.NCBIAPIKey, s.NCBIAPIKey)
	s.Mailto = loaded.Get(secrets.CrossRefMailto, s.Mailto)

	// Query understanding prefers OpenAI; fallback recommendations prefer Claude.
	cfg.Understanding = withAIKey(cfg.Understanding, loaded, "openai", "anthropic")
	cfg.Fallback = withAIKey(cfg.Fallback, loaded, "anthropic", "openai")
	cfg.Embedding = withEmbeddingKey(cfg.Embedding, loaded)

	return cfg.WithDefaults(), nil
}

var aiSecretKeys = map[string]string{
	"openai":    secrets.OpenAIAPIKey,
	"anthropic": secrets.AnthropicAPIKey,
	"claude":    secrets.AnthropicAPIKey,
}

// withAIKey picks a provider and key. With no provider set, the first of
// preference that has a stored key wins.
func withAIKey(cfg types.AIConfig, loaded secrets.Set, preference ...string) types.AIConfig {
	if cfg.APIKey != "" {
		return cfg
	}
	if cfg.Provider != "" {
		cfg.APIKey = loaded[aiSecretKeys[cfg.Provider]]
		return cfg
	}
	for _, p := range preference {
		if key := loaded[aiSecretKeys[p]]; key != "" {
			cfg.Provider = p
			cfg.APIKey = key
			return cfg
		}
	}
	return cfg
}

func withEmbeddingKey(cfg types.EmbeddingConfig, loaded secrets.Set) types.EmbeddingConfig {
	if cfg.APIKey != "" {
		return cfg
	}
	switch cfg.Provider {
	case "openai":
		cfg.APIKey = loaded[secrets.OpenAIAPIKey]
	case "genai", "gemini":
		cfg.APIKey = loaded[secrets.GeminiAPIKey]
	case "":
		if key := loaded[secrets.OpenAIAPIKey]; key != "" {
			cfg.Provider, cfg.APIKey = "openai", key
		} else if key := loaded[secrets.GeminiAPIKey]; key != "" {
			cfg.Provider, cfg.APIKey = "genai", key
		}
	}
	return cfg
}
