// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request, including retries.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "labscout/0.1 (mailto:lab@example.edu)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the retrieval stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// PerSourceLimit caps results for the primary query per backend (default 15).
	PerSourceLimit int `json:"per_source_limit" yaml:"per_source_limit" mapstructure:"per_source_limit"`

	// SynonymLimit caps results for each synonym-rewritten query (default 5).
	SynonymLimit int `json:"synonym_limit" yaml:"synonym_limit" mapstructure:"synonym_limit"`

	// KeywordLimit caps results for the keyword-joined query (default 5).
	KeywordLimit int `json:"keyword_limit" yaml:"keyword_limit" mapstructure:"keyword_limit"`

	// MaxSynonymsPerTerm limits how many alternates of one term are tried (default 2).
	MaxSynonymsPerTerm int `json:"max_synonyms_per_term" yaml:"max_synonyms_per_term" mapstructure:"max_synonyms_per_term"`

	// FastBackends names the backends that also receive synonym and
	// keyword variant queries (default semantic_scholar, arxiv).
	FastBackends []string `json:"fast_backends" yaml:"fast_backends" mapstructure:"fast_backends"`

	// EnableOpenAlex adds OpenAlex to the primary-query fan-out.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex" mapstructure:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// NCBIAPIKey is an optional PubMed E-utilities key.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty" mapstructure:"ncbi_api_key"`

	// Mailto is sent to CrossRef and OpenAlex for polite-pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// RequestsPerSecond throttles each backend independently. Zero disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// AIConfig holds settings for a generative text provider.
type AIConfig struct {
	// Provider selects the API: "anthropic" or "openai" (any OpenAI-compatible endpoint).
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key. An empty key means the provider is not configured.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint for OpenAI-compatible providers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds one provider call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// EmbeddingConfig holds settings for the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the API: "openai" or "genai".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`
	Model    string `json:"model" yaml:"model" mapstructure:"model"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// StoreConfig holds settings for the result store.
type StoreConfig struct {
	// Path is the SQLite database file (default "labscout.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// PipelineConfig groups all stage configurations for an advanced search.
type PipelineConfig struct {
	Search        SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Understanding AIConfig        `json:"understanding" yaml:"understanding" mapstructure:"understanding"`
	Fallback      AIConfig        `json:"fallback" yaml:"fallback" mapstructure:"fallback"`
	Embedding     EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Verify        HTTPConfig      `json:"verify" yaml:"verify" mapstructure:"verify"`
	Store         StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`

	// Timeout bounds understanding, retrieval, scoring and verification
	// together (default 60s). On expiry ranking proceeds with what is available.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// FallbackTimeout bounds the recommendation call made when retrieval
	// finds nothing. It runs after Timeout has been spent (default 60s).
	FallbackTimeout time.Duration `json:"fallback_timeout" yaml:"fallback_timeout" mapstructure:"fallback_timeout"`

	// DefaultLimit is the result count used when a caller passes 0 (default 3).
	DefaultLimit int `json:"default_limit" yaml:"default_limit" mapstructure:"default_limit"`
}

// Defaults for the pipeline. Exposed so the CLI can register them with viper.
const (
	DefaultSourceTimeout      = 15 * time.Second
	DefaultVerifyTimeout      = 10 * time.Second
	DefaultPipelineTimeout    = 60 * time.Second
	DefaultLLMTimeout         = 60 * time.Second
	DefaultPerSourceLimit     = 15
	DefaultVariantLimit       = 5
	DefaultMaxSynonymsPerTerm = 2
	DefaultResultLimit        = 3
	DefaultUserAgent          = "labscout/0.1"
)

// DefaultFastBackends are the backends that receive variant queries.
var DefaultFastBackends = []string{"semantic_scholar", "arxiv"}

// WithDefaults returns a copy of cfg with zero values replaced by defaults.
func (cfg PipelineConfig) WithDefaults() PipelineConfig {
	s := &cfg.Search
	if s.Timeout <= 0 {
		s.Timeout = DefaultSourceTimeout
	}
	if s.UserAgent == "" {
		s.UserAgent = DefaultUserAgent
	}
	if s.PerSourceLimit <= 0 {
		s.PerSourceLimit = DefaultPerSourceLimit
	}
	if s.SynonymLimit <= 0 {
		s.SynonymLimit = DefaultVariantLimit
	}
	if s.KeywordLimit <= 0 {
		s.KeywordLimit = DefaultVariantLimit
	}
	if s.MaxSynonymsPerTerm <= 0 {
		s.MaxSynonymsPerTerm = DefaultMaxSynonymsPerTerm
	}
	if len(s.FastBackends) == 0 {
		s.FastBackends = append([]string(nil), DefaultFastBackends...)
	}
	if cfg.Verify.Timeout <= 0 {
		cfg.Verify.Timeout = DefaultVerifyTimeout
	}
	if cfg.Verify.UserAgent == "" {
		cfg.Verify.UserAgent = s.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPipelineTimeout
	}
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = DefaultPipelineTimeout
	}
	for _, ai := range []*AIConfig{&cfg.Understanding, &cfg.Fallback} {
		if ai.Timeout <= 0 {
			ai.Timeout = DefaultLLMTimeout
		}
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultResultLimit
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "labscout.db"
	}
	return cfg
}
